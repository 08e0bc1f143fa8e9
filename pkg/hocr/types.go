package hocr

import "fmt"

// Document is a complete hOCR file
type Document struct {
	Title    string            // Contents of the <title> element
	Language string            // Document language (html lang attribute)
	Metadata map[string]string // ocr-system, ocr-capabilities, ocr-langs, ...
	Pages    []Page
}

// Page is one recognized page, class 'ocr_page'
type Page struct {
	ID     string
	Number int    // ppageno property
	Image  string // image property
	Lang   string
	BBox   BoundingBox
	Areas  []Area
}

// Area is a content area or column, class 'ocr_carea'
type Area struct {
	ID         string
	BBox       BoundingBox
	Paragraphs []Paragraph
}

// Paragraph is a paragraph, class 'ocr_par'
type Paragraph struct {
	ID    string
	Lang  string
	BBox  BoundingBox
	Lines []Line
}

// Line is a text line, class 'ocr_line' (or one of the other line classes)
type Line struct {
	ID       string
	BBox     BoundingBox
	Baseline string
	Words    []Word
}

// Word is a single recognized word, class 'ocrx_word'
type Word struct {
	ID         string
	Text       string
	BBox       BoundingBox
	Confidence float64 // x_wconf, 0-100
	Lang       string
}

// BoundingBox is an hOCR bbox: top-left and bottom-right corners in pixels
type BoundingBox struct {
	X1, Y1, X2, Y2 int
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("bbox %d %d %d %d", b.X1, b.Y1, b.X2, b.Y2)
}

// Words returns every word on the page in reading order.
func (p Page) Words() []Word {
	var words []Word
	for _, a := range p.Areas {
		for _, par := range a.Paragraphs {
			for _, l := range par.Lines {
				words = append(words, l.Words...)
			}
		}
	}
	return words
}
