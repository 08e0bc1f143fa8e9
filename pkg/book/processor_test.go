package book

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/go-pdf/fpdf"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"

	"github.com/gardar/bookbatch/pkg/ocr"
)

func writeBook(t *testing.T, path string, pages int) {
	t.Helper()
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetFont("Helvetica", "", 14)
	for i := 1; i <= pages; i++ {
		pdf.AddPage()
		pdf.Cell(200, 20, fmt.Sprintf("Page %d", i))
	}
	require.NoError(t, pdf.OutputFileAndClose(path))
}

type fakeExtractor struct {
	calls  int
	failAt int
	marker string
}

func (f *fakeExtractor) ExtractPage(_ context.Context, _ string, page int, dst string) error {
	f.calls++
	if page == f.failAt {
		// Leave a partial file behind like a crashing tool would.
		_ = os.WriteFile(dst, []byte("%PDF-broken"), 0o644)
		return errors.New("gs: exit status 1")
	}
	return os.WriteFile(dst, []byte(fmt.Sprintf("%%PDF-1.4 page %d%s", page, f.marker)), 0o644)
}

type fakeRasterizer struct {
	calls  int
	failAt string
}

func (f *fakeRasterizer) Rasterize(_ context.Context, src, dst string) error {
	f.calls++
	if f.failAt != "" && filepath.Base(filepath.Dir(src)) == f.failAt {
		return errors.New("convert: exit status 1")
	}
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	img.SetGray(1, 1, color.Gray{Y: 200})
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	return tiff.Encode(out, img, nil)
}

type fakeOCR struct {
	hocrCalls, textCalls int
	hocrErr, textErr     error
	emptyHOCR            bool
	hocrBody             string
}

const sampleHOCR = `<html><body>
<div class='ocr_page' title='bbox 0 0 8 8'>
<span class='ocr_line' title='bbox 0 0 8 4'><span class='ocrx_word'>Page</span> <span class='ocrx_word'>text</span></span>
</div>
</body></html>`

func (f *fakeOCR) Recognize(_ context.Context, image, dst string, format ocr.Format) error {
	if _, err := os.Stat(image); err != nil {
		return err
	}
	if format == ocr.HOCR {
		f.hocrCalls++
		if f.hocrErr != nil {
			return f.hocrErr
		}
		if f.emptyHOCR {
			return os.WriteFile(dst, nil, 0o644)
		}
		if f.hocrBody != "" {
			return os.WriteFile(dst, []byte(f.hocrBody), 0o644)
		}
		return os.WriteFile(dst, []byte(sampleHOCR), 0o644)
	}
	f.textCalls++
	if f.textErr != nil {
		return f.textErr
	}
	return os.WriteFile(dst, []byte("raster text\n"), 0o644)
}

type fixture struct {
	dir       string
	src       string
	extractor *fakeExtractor
	raster    *fakeRasterizer
	ocr       *fakeOCR
	hook      *test.Hook
	proc      *Processor
}

func newFixture(t *testing.T, pages int, opts Options) *fixture {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "book.pdf")
	writeBook(t, src, pages)

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	f := &fixture{
		dir:       dir,
		src:       src,
		extractor: &fakeExtractor{},
		raster:    &fakeRasterizer{},
		ocr:       &fakeOCR{},
		hook:      hook,
	}
	f.proc = NewProcessor(opts, f.extractor, f.raster, f.ocr, log)
	return f
}

func (f *fixture) artifact(page int, name string) string {
	return filepath.Join(f.dir, "book_dir", fmt.Sprint(page), name)
}

func readString(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestProcessDocumentLayout(t *testing.T) {
	f := newFixture(t, 3, DefaultOptions())

	report, err := f.proc.ProcessDocument(context.Background(), f.src)
	require.NoError(t, err)

	assert.Equal(t, 3, report.PageCount)
	assert.Equal(t, []int{1, 2}, report.Pages)
	assert.Empty(t, report.OCRFailures)
	assert.Equal(t, 4, report.Words)

	for _, page := range []int{1, 2} {
		assert.FileExists(t, f.artifact(page, PageFile))
		assert.FileExists(t, f.artifact(page, RasterFile))
		assert.FileExists(t, f.artifact(page, HOCRFile))
		assert.Equal(t, "Page text\n", readString(t, f.artifact(page, OCRTextFile)))
		assert.NoFileExists(t, f.artifact(page, OCRFile))
	}
	assert.NoDirExists(t, filepath.Join(f.dir, "book_dir", "3"))
	assert.Equal(t, 2, f.extractor.calls)
	assert.Equal(t, 0, f.ocr.textCalls)

	raster, err := os.Open(f.artifact(1, RasterFile))
	require.NoError(t, err)
	defer raster.Close()
	img, err := tiff.Decode(raster)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
}

func TestProcessDocumentIncludeLastPage(t *testing.T) {
	opts := DefaultOptions()
	opts.IncludeLastPage = true
	f := newFixture(t, 3, opts)

	report, err := f.proc.ProcessDocument(context.Background(), f.src)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, report.Pages)
	assert.FileExists(t, f.artifact(3, OCRTextFile))
}

type artifactState struct {
	data    string
	modTime time.Time
}

// snapshot records the content and modification time of every file under
// the book directory.
func (f *fixture) snapshot(t *testing.T) map[string]artifactState {
	t.Helper()
	files := make(map[string]artifactState)
	root := filepath.Join(f.dir, "book_dir")
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		files[rel] = artifactState{data: readString(t, path), modTime: fi.ModTime()}
		return nil
	})
	require.NoError(t, err)
	return files
}

func TestProcessDocumentSkipsExisting(t *testing.T) {
	tests := []struct {
		name      string
		ocr       *fakeOCR
		files     []string
		textCalls int
	}{
		{name: "text from hocr", ocr: &fakeOCR{}, files: []string{PageFile, RasterFile, HOCRFile, OCRTextFile}},
		{name: "text from raster", ocr: &fakeOCR{emptyHOCR: true}, files: []string{PageFile, RasterFile, HOCRFile, OCRFile}, textCalls: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 3, DefaultOptions())
			f.proc.OCR = tt.ocr
			ctx := context.Background()

			_, err := f.proc.ProcessDocument(ctx, f.src)
			require.NoError(t, err)
			before := f.snapshot(t)
			for _, page := range []int{1, 2} {
				for _, name := range tt.files {
					assert.Contains(t, before, filepath.Join(fmt.Sprint(page), name))
				}
			}

			f.extractor.marker = " second run"
			report, err := f.proc.ProcessDocument(ctx, f.src)
			require.NoError(t, err)

			assert.Equal(t, []int{1, 2}, report.Pages)
			assert.Equal(t, 2, f.extractor.calls)
			assert.Equal(t, 2, f.raster.calls)
			assert.Equal(t, 2, tt.ocr.hocrCalls)
			assert.Equal(t, tt.textCalls, tt.ocr.textCalls)
			assert.Equal(t, before, f.snapshot(t))
		})
	}
}

func TestProcessDocumentOverwrite(t *testing.T) {
	f := newFixture(t, 3, DefaultOptions())
	ctx := context.Background()

	_, err := f.proc.ProcessDocument(ctx, f.src)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(f.artifact(1, OCRTextFile), []byte("stale"), 0o644))

	f.proc.Options.Overwrite = true
	f.extractor.marker = " second run"
	_, err = f.proc.ProcessDocument(ctx, f.src)
	require.NoError(t, err)

	assert.Equal(t, 4, f.extractor.calls)
	assert.Equal(t, 4, f.raster.calls)
	assert.Equal(t, 4, f.ocr.hocrCalls)
	assert.Contains(t, readString(t, f.artifact(1, PageFile)), "second run")
	assert.Equal(t, "Page text\n", readString(t, f.artifact(1, OCRTextFile)))
}

func TestProcessDocumentOCRFromRaster(t *testing.T) {
	tests := []struct {
		name string
		ocr  *fakeOCR
		fail []int
	}{
		{name: "hocr failed", ocr: &fakeOCR{hocrErr: errors.New("tesseract: exit status 1")}, fail: []int{1, 2}},
		{name: "hocr empty", ocr: &fakeOCR{emptyHOCR: true}},
		{name: "hocr without pages", ocr: &fakeOCR{hocrBody: "<html><body><p>no page markup</p></body></html>"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 3, DefaultOptions())
			f.proc.OCR = tt.ocr

			report, err := f.proc.ProcessDocument(context.Background(), f.src)
			require.NoError(t, err)

			assert.Equal(t, []int{1, 2}, report.Pages)
			assert.Equal(t, tt.fail, report.OCRFailures)
			assert.Zero(t, report.Words)
			assert.Equal(t, 2, tt.ocr.textCalls)
			assert.Equal(t, "raster text\n", readString(t, f.artifact(1, OCRFile)))
			assert.NoFileExists(t, f.artifact(1, OCRTextFile))
		})
	}
}

func TestProcessDocumentOCRFailureContinues(t *testing.T) {
	f := newFixture(t, 4, DefaultOptions())
	f.ocr.hocrErr = errors.New("hocr failed")
	f.ocr.textErr = errors.New("ocr failed")

	report, err := f.proc.ProcessDocument(context.Background(), f.src)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, report.Pages)
	assert.Equal(t, []int{1, 2, 3}, report.OCRFailures)
	for _, page := range report.Pages {
		assert.FileExists(t, f.artifact(page, RasterFile))
		assert.NoFileExists(t, f.artifact(page, HOCRFile))
		assert.NoFileExists(t, f.artifact(page, OCRFile))
	}

	var stageErrors int
	for _, e := range f.hook.AllEntries() {
		if e.Level == logrus.ErrorLevel {
			stageErrors++
		}
	}
	assert.Equal(t, 6, stageErrors)
}

func TestProcessDocumentExtractFailureIsFatal(t *testing.T) {
	f := newFixture(t, 4, DefaultOptions())
	f.extractor.failAt = 2

	report, err := f.proc.ProcessDocument(context.Background(), f.src)
	require.Error(t, err)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageExtract, stageErr.Stage)
	assert.Equal(t, 2, stageErr.Page)
	assert.True(t, stageErr.Fatal)
	assert.Contains(t, err.Error(), "page 2: extract failed")

	assert.Equal(t, []int{1}, report.Pages)
	assert.FileExists(t, f.artifact(1, OCRTextFile))
	assert.Equal(t, "%PDF-broken", readString(t, f.artifact(2, PageFile)))
	assert.NoDirExists(t, filepath.Join(f.dir, "book_dir", "3"))
}

func TestProcessDocumentRasterFailureIsFatal(t *testing.T) {
	f := newFixture(t, 3, DefaultOptions())
	f.raster.failAt = "1"

	_, err := f.proc.ProcessDocument(context.Background(), f.src)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageRaster, stageErr.Stage)
	assert.True(t, stageErr.Fatal)
	assert.FileExists(t, f.artifact(1, PageFile))
	assert.Equal(t, 0, f.ocr.hocrCalls)
}

func TestProcessDocumentNothingToDo(t *testing.T) {
	f := newFixture(t, 1, DefaultOptions())

	report, err := f.proc.ProcessDocument(context.Background(), f.src)
	require.NoError(t, err)

	assert.Equal(t, 1, report.PageCount)
	assert.Empty(t, report.Pages)
	assert.DirExists(t, filepath.Join(f.dir, "book_dir"))
	assert.Equal(t, 0, f.extractor.calls)

	var warned bool
	for _, e := range f.hook.AllEntries() {
		warned = warned || e.Level == logrus.WarnLevel
	}
	assert.True(t, warned)
}

func TestProcessDocumentUnreadable(t *testing.T) {
	f := newFixture(t, 1, DefaultOptions())
	bad := filepath.Join(f.dir, "bad.pdf")
	require.NoError(t, os.WriteFile(bad, []byte("no pages here"), 0o644))

	_, err := f.proc.ProcessDocument(context.Background(), bad)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageCount, stageErr.Stage)
	assert.Equal(t, 0, stageErr.Page)
}

func TestProcessDocumentCancelled(t *testing.T) {
	f := newFixture(t, 3, DefaultOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.proc.ProcessDocument(ctx, f.src)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, f.extractor.calls)
}

func TestProcessPathsStopsAtFatalError(t *testing.T) {
	f := newFixture(t, 3, DefaultOptions())
	second := filepath.Join(f.dir, "second.pdf")
	writeBook(t, second, 3)
	broken := filepath.Join(f.dir, "broken.pdf")
	require.NoError(t, os.WriteFile(broken, []byte("garbage"), 0o644))

	reports, err := f.proc.ProcessPaths(context.Background(), []string{f.src, broken, second})
	require.Error(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, f.src, reports[0].Document)
	assert.NoDirExists(t, filepath.Join(f.dir, "second_dir"))

	reports, err = f.proc.ProcessPaths(context.Background(), []string{f.src, second})
	require.NoError(t, err)
	assert.Len(t, reports, 2)
	assert.FileExists(t, filepath.Join(f.dir, "second_dir", "2", OCRTextFile))
}
