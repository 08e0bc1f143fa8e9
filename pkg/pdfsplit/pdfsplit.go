// Package pdfsplit writes single pages of a PDF to new documents without
// calling an external program.
//
// Pages are imported as form XObjects with gofpdi and placed on a page of
// the same size in a fresh fpdf document. Fonts, images and vector content
// are carried over; interactive features (annotations, forms, outlines) are
// not.
package pdfsplit

import (
	"bytes"
	"context"
	"io"
	"os"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
	"github.com/rotisserie/eris"
)

// DefaultBox is the page boundary used to size the extracted page.
const DefaultBox = "/MediaBox"

// Splitter extracts pages in-process.
type Splitter struct {
	Box string // Page boundary to import, DefaultBox if empty
}

// New returns a Splitter importing the media box.
func New() *Splitter {
	return &Splitter{Box: DefaultBox}
}

// ExtractPage writes page (1-based) of src as a single page PDF to dst.
func (s *Splitter) ExtractPage(ctx context.Context, src string, page int, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return eris.Wrapf(err, "read %s", src)
	}
	out, err := SinglePage(data, page, s.box())
	if err != nil {
		return eris.Wrapf(err, "extract page %d of %s", page, src)
	}
	return eris.Wrapf(os.WriteFile(dst, out, 0o644), "write %s", dst)
}

func (s *Splitter) box() string {
	if s.Box == "" {
		return DefaultBox
	}
	return s.Box
}

// SinglePage returns a PDF holding only the given page of inputPDFData.
// The page must exist in the document's page tree.
func SinglePage(inputPDFData []byte, page int, box string) (out []byte, err error) {
	if page < 1 {
		return nil, eris.Errorf("page %d out of range", page)
	}
	// gofpdi reports some malformed input by panicking.
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, eris.Errorf("import page %d: %v", page, r)
		}
	}()

	pdf := fpdf.New("P", "pt", "", "")
	importer := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(inputPDFData))

	tpl := importer.ImportPageFromStream(pdf, &rs, page, box)
	if pdf.Err() {
		return nil, pdf.Error()
	}
	sizes := importer.GetPageSizes()
	if _, ok := sizes[page]; !ok {
		return nil, eris.Errorf("page %d out of range, document has %d pages", page, len(sizes))
	}

	w, h := pageSize(importer, page, box)
	pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})
	importer.UseImportedTemplate(pdf, tpl, 0, 0, w, h)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// pageSize returns the imported page's size in points, falling back to A4
// when the importer has no dimensions for it.
func pageSize(importer *gofpdi.Importer, page int, box string) (float64, float64) {
	const a4w, a4h = 595.28, 841.89
	dims, ok := importer.GetPageSizes()[page][box]
	if !ok || dims["w"] <= 0 || dims["h"] <= 0 {
		return a4w, a4h
	}
	return dims["w"], dims["h"]
}
