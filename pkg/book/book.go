// Package book turns PDF files into book batch directories.
//
// Every page of a document gets its own numbered directory below
// <document>_dir holding a single page PDF, a TIFF raster, an hOCR layer
// and an OCR text layer:
//
//	book_dir/
//	  1/PDF.pdf
//	  1/OBJ.tiff
//	  1/HOCR.hocr
//	  1/OCR.txt
//	  2/...
//
// Existing artifacts are kept unless Options.Overwrite is set, so an
// interrupted run can simply be restarted.
package book

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gardar/bookbatch/pkg/ocr"
)

// Artifact file names within a page directory.
const (
	PageFile    = "PDF.pdf"
	RasterFile  = "OBJ.tiff"
	HOCRFile    = "HOCR.hocr"
	OCRTextFile = "OCR.txt" // Derived from HOCRFile
	OCRFile     = "OCR"     // Written by the OCR engine when there is no hOCR
)

// Options holds the user settings shared by every stage.
type Options struct {
	Overwrite       bool   // Regenerate artifacts that already exist
	Password        string // Document password, kept for reference only
	Language        string // OCR language code
	IncludeLastPage bool   // Also process the final page
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{Language: ocr.DefaultLanguage}
}

// Document is a source PDF and its output tree.
type Document struct {
	Source    string
	Root      string // <Source without extension>_dir
	PageCount int
	Options   Options
}

// NewDocument describes the output tree for the PDF at source.
func NewDocument(source string, opts Options) *Document {
	return &Document{
		Source:  source,
		Root:    strings.TrimSuffix(source, filepath.Ext(source)) + "_dir",
		Options: opts,
	}
}

// LastPage is the highest page index to process. The final page is left
// out unless IncludeLastPage is set.
func (d *Document) LastPage() int {
	if d.Options.IncludeLastPage {
		return d.PageCount
	}
	return d.PageCount - 1
}

// Page returns page index (1-based) of the document.
func (d *Document) Page(index int) Page {
	return Page{Document: d, Index: index}
}

// Page is one page of a Document.
type Page struct {
	Document *Document
	Index    int
}

// Dir is the page's output directory.
func (p Page) Dir() string {
	return filepath.Join(p.Document.Root, strconv.Itoa(p.Index))
}

// Path returns the location of an artifact of the page.
func (p Page) Path(artifact string) string {
	return filepath.Join(p.Dir(), artifact)
}
