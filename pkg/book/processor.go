package book

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"github.com/gardar/bookbatch/pkg/hocr"
	"github.com/gardar/bookbatch/pkg/ocr"
	"github.com/gardar/bookbatch/pkg/pagecount"
	"github.com/gardar/bookbatch/pkg/stagecache"
)

// Report summarizes one processed document.
type Report struct {
	Document    string
	PageCount   int
	Pages       []int // Page indices that went through the pipeline
	OCRFailures []int // Pages whose hOCR or OCR stage failed
	Words       int   // Recognized words across all usable hOCR files
}

func (r *Report) ocrFailed(page int) {
	if n := len(r.OCRFailures); n > 0 && r.OCRFailures[n-1] == page {
		return
	}
	r.OCRFailures = append(r.OCRFailures, page)
}

// Processor runs the page pipeline over documents.
type Processor struct {
	Options    Options
	Extractor  PageExtractor
	Rasterizer Rasterizer
	OCR        ocr.Recognizer
	Log        logrus.FieldLogger
}

// NewProcessor returns a Processor that runs every page through extractor,
// rasterizer and recognizer.
func NewProcessor(opts Options, extractor PageExtractor, rasterizer Rasterizer, recognizer ocr.Recognizer, log logrus.FieldLogger) *Processor {
	return &Processor{
		Options:    opts,
		Extractor:  extractor,
		Rasterizer: rasterizer,
		OCR:        recognizer,
		Log:        log,
	}
}

// ProcessPaths processes the documents in order and stops at the first
// fatal error. Reports of the documents finished before it are returned.
func (p *Processor) ProcessPaths(ctx context.Context, paths []string) ([]Report, error) {
	reports := make([]Report, 0, len(paths))
	for _, path := range paths {
		report, err := p.ProcessDocument(ctx, path)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// ProcessDocument counts the pages of the PDF at path and runs every page
// through extract, rasterize, hOCR and OCR. Extract and rasterize failures
// abort with a *StageError; OCR failures are logged and recorded in the
// report.
func (p *Processor) ProcessDocument(ctx context.Context, path string) (Report, error) {
	report := Report{Document: path}
	doc := NewDocument(path, p.Options)
	log := p.Log.WithField("document", path)

	if err := os.MkdirAll(doc.Root, 0o755); err != nil {
		return report, eris.Wrapf(err, "create %s", doc.Root)
	}

	n, err := pagecount.Count(path)
	if err != nil {
		return report, &StageError{Stage: StageCount, Fatal: true, Err: err}
	}
	doc.PageCount, report.PageCount = n, n
	log.Infof("Number of pages: %d", n)

	last := doc.LastPage()
	if last < 1 {
		log.Warnf("%s has %d page(s), nothing to process", path, n)
	}

	for i := 1; i <= last; i++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := p.processPage(ctx, doc.Page(i), &report); err != nil {
			return report, err
		}
		report.Pages = append(report.Pages, i)
	}

	log.WithFields(logrus.Fields{
		"pages":        len(report.Pages),
		"ocr_failures": len(report.OCRFailures),
		"words":        report.Words,
	}).Info("Document finished")
	return report, nil
}

func (p *Processor) processPage(ctx context.Context, page Page, report *Report) error {
	doc := page.Document
	log := p.Log.WithFields(logrus.Fields{"document": doc.Source, "page": page.Index})
	log.Infof("Processing page %d", page.Index)

	pdf := page.Path(PageFile)
	if err := p.stage(page, StageExtract, pdf, func() error {
		return p.Extractor.ExtractPage(ctx, doc.Source, page.Index, pdf)
	}); err != nil {
		err.Fatal = true
		return err
	}

	raster := page.Path(RasterFile)
	if err := p.stage(page, StageRaster, raster, func() error {
		return p.Rasterizer.Rasterize(ctx, pdf, raster)
	}); err != nil {
		err.Fatal = true
		return err
	}

	hocrPath := page.Path(HOCRFile)
	if err := p.stage(page, StageHOCR, hocrPath, func() error {
		return p.OCR.Recognize(ctx, raster, hocrPath, ocr.HOCR)
	}); err != nil {
		log.WithField("stage", StageHOCR).Error(err)
		report.ocrFailed(page.Index)
	}

	if err := p.ocrStage(ctx, page, report); err != nil {
		log.WithField("stage", StageOCR).Error(err)
		report.ocrFailed(page.Index)
	}
	return nil
}

// ocrStage derives OCR.txt from the page's hOCR when it holds at least one
// ocr_page, and falls back to running the OCR engine on the raster.
func (p *Processor) ocrStage(ctx context.Context, page Page, report *Report) *StageError {
	hocrPath := page.Path(HOCRFile)
	if data, ok := p.usableHOCR(page, hocrPath, report); ok {
		dst := page.Path(OCRTextFile)
		return p.stage(page, StageOCR, dst, func() error {
			text, err := hocr.ExtractText(data)
			if err != nil {
				return err
			}
			return eris.Wrapf(os.WriteFile(dst, []byte(text), 0o644), "write %s", dst)
		})
	}

	raster := page.Path(RasterFile)
	if _, err := os.Stat(raster); err == nil {
		dst := page.Path(OCRFile)
		return p.stage(page, StageOCR, dst, func() error {
			return p.OCR.Recognize(ctx, raster, dst, ocr.Text)
		})
	}

	return &StageError{Stage: StageOCR, Page: page.Index, Err: ErrNoOCRInput}
}

// usableHOCR reads the hOCR at path and parses it. Files that are missing,
// empty or without an ocr_page are not usable. The words of a usable file
// are added to the report.
func (p *Processor) usableHOCR(page Page, path string, report *Report) ([]byte, bool) {
	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() || fi.Size() == 0 {
		return nil, false
	}
	log := p.Log.WithFields(logrus.Fields{"page": page.Index, "stage": StageOCR})

	data, err := os.ReadFile(path)
	if err != nil {
		log.Warnf("Cannot read %s: %v", path, err)
		return nil, false
	}
	doc, err := hocr.ParseHOCR(data)
	if err != nil {
		log.Warnf("Ignoring %s: %v", path, err)
		return nil, false
	}

	words := 0
	for i := range doc.Pages {
		words += len(doc.Pages[i].Words())
	}
	report.Words += words
	log.Debugf("%s holds %d words", path, words)
	return data, true
}

// stage applies the cache policy to dst and runs generate when the artifact
// has to be (re)built. Whatever a failed generate leaves behind is kept.
func (p *Processor) stage(page Page, stage Stage, dst string, generate func() error) *StageError {
	log := p.Log.WithFields(logrus.Fields{"page": page.Index, "stage": stage})

	run, err := stagecache.Prepare(dst, p.Options.Overwrite, log)
	if err != nil {
		return &StageError{Stage: stage, Page: page.Index, Err: err}
	}
	if !run {
		return nil
	}

	if err := os.MkdirAll(page.Dir(), 0o755); err != nil {
		return &StageError{Stage: stage, Page: page.Index, Err: eris.Wrapf(err, "create %s", page.Dir())}
	}
	log.Debugf("Generating %s", dst)
	if err := generate(); err != nil {
		return &StageError{Stage: stage, Page: page.Index, Err: err}
	}
	return nil
}
