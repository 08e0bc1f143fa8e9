package gdocai

import (
	"fmt"
	"math"
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/gardar/bookbatch/pkg/hocr"
)

// HOCRFromProto converts a Document AI response into an hOCR document.
// image is recorded as the image property of every page.
func HOCRFromProto(doc *documentaipb.Document, image string) *hocr.Document {
	lang := documentLanguage(doc)
	if lang == "" {
		lang = "unknown"
	}

	out := &hocr.Document{
		Language: lang,
		Metadata: map[string]string{
			"ocr-system":          "Document AI OCR",
			"ocr-number-of-pages": fmt.Sprintf("%d", len(doc.GetPages())),
			"ocr-capabilities":    "ocrp_lang ocr_page ocr_carea ocr_par ocr_line ocrx_word",
			"ocr-langs":           lang,
		},
	}
	for i, page := range doc.GetPages() {
		num := int(page.GetPageNumber())
		if num == 0 {
			num = i + 1
		}
		out.Pages = append(out.Pages, convertPage(page, doc.GetText(), num, image))
	}
	return out
}

func convertPage(page *documentaipb.Document_Page, text string, num int, image string) hocr.Page {
	dim := page.GetDimension()
	p := hocr.Page{
		ID:     fmt.Sprintf("page_%d", num),
		Number: num,
		Image:  image,
		Lang:   firstLanguage(page.GetDetectedLanguages()),
		BBox:   boundingBox(page.GetLayout(), dim),
	}
	if p.BBox == (hocr.BoundingBox{}) && dim != nil {
		p.BBox = hocr.BoundingBox{X2: round(dim.GetWidth()), Y2: round(dim.GetHeight())}
	}

	// Pages without blocks or paragraphs get one synthesized container
	// with a nil layout.
	blocks := page.GetBlocks()
	if len(blocks) == 0 {
		blocks = []*documentaipb.Document_Page_Block{{}}
	}
	paragraphs := page.GetParagraphs()
	if len(paragraphs) == 0 {
		paragraphs = []*documentaipb.Document_Page_Paragraph{{}}
	}

	for bi, block := range blocks {
		area := hocr.Area{
			ID:   fmt.Sprintf("block_%d_%d", num, bi+1),
			BBox: boundingBox(block.GetLayout(), dim),
		}
		for pi, par := range paragraphs {
			if !contains(block.GetLayout(), par.GetLayout()) {
				continue
			}
			paragraph := hocr.Paragraph{
				ID:   fmt.Sprintf("par_%d_%d_%d", num, bi+1, pi+1),
				Lang: firstLanguage(par.GetDetectedLanguages()),
				BBox: boundingBox(par.GetLayout(), dim),
			}
			for li, line := range page.GetLines() {
				if !contains(par.GetLayout(), line.GetLayout()) || !contains(block.GetLayout(), line.GetLayout()) {
					continue
				}
				l := hocr.Line{
					ID:   fmt.Sprintf("line_%d_%d", num, li+1),
					BBox: boundingBox(line.GetLayout(), dim),
				}
				for ti, token := range page.GetTokens() {
					if !contains(line.GetLayout(), token.GetLayout()) {
						continue
					}
					word := strings.TrimSpace(textFromLayout(token.GetLayout(), text))
					if word == "" {
						continue
					}
					l.Words = append(l.Words, hocr.Word{
						ID:         fmt.Sprintf("word_%d_%d", num, ti+1),
						Text:       word,
						BBox:       boundingBox(token.GetLayout(), dim),
						Confidence: math.Round(float64(token.GetLayout().GetConfidence()) * 100),
						Lang:       firstLanguage(token.GetDetectedLanguages()),
					})
				}
				if len(l.Words) > 0 {
					paragraph.Lines = append(paragraph.Lines, l)
				}
			}
			if len(paragraph.Lines) > 0 {
				area.Paragraphs = append(area.Paragraphs, paragraph)
			}
		}
		if len(area.Paragraphs) > 0 {
			p.Areas = append(p.Areas, area)
		}
	}
	return p
}

// boundingBox scales a layout's polygon to page pixels. Normalized vertices
// are preferred; absolute vertices are used as given.
func boundingBox(layout *documentaipb.Document_Page_Layout, dim *documentaipb.Document_Page_Dimension) hocr.BoundingBox {
	poly := layout.GetBoundingPoly()
	var xs, ys []float32
	switch {
	case len(poly.GetNormalizedVertices()) > 0 && dim != nil:
		for _, v := range poly.GetNormalizedVertices() {
			xs = append(xs, v.GetX()*dim.GetWidth())
			ys = append(ys, v.GetY()*dim.GetHeight())
		}
	case len(poly.GetVertices()) > 0:
		for _, v := range poly.GetVertices() {
			xs = append(xs, float32(v.GetX()))
			ys = append(ys, float32(v.GetY()))
		}
	default:
		return hocr.BoundingBox{}
	}

	b := hocr.BoundingBox{X1: round(xs[0]), Y1: round(ys[0]), X2: round(xs[0]), Y2: round(ys[0])}
	for i := range xs {
		x, y := round(xs[i]), round(ys[i])
		b.X1, b.X2 = min(b.X1, x), max(b.X2, x)
		b.Y1, b.Y2 = min(b.Y1, y), max(b.Y2, y)
	}
	return b
}

func round(f float32) int {
	return int(math.Round(float64(f)))
}

// contains reports whether child's text lies inside parent's first text
// segment. Nil layouts belong to synthesized containers and always match.
func contains(parent, child *documentaipb.Document_Page_Layout) bool {
	if parent == nil || child == nil {
		return true
	}
	ps := parent.GetTextAnchor().GetTextSegments()
	cs := child.GetTextAnchor().GetTextSegments()
	if len(ps) == 0 || len(cs) == 0 {
		return false
	}
	return cs[0].GetStartIndex() >= ps[0].GetStartIndex() && cs[0].GetEndIndex() <= ps[0].GetEndIndex()
}

func firstLanguage(langs []*documentaipb.Document_Page_DetectedLanguage) string {
	if len(langs) == 0 {
		return ""
	}
	return langs[0].GetLanguageCode()
}

// documentLanguage finds the most common language in the document
// by counting language occurrences across pages and tokens
func documentLanguage(doc *documentaipb.Document) string {
	langCount := make(map[string]int)
	for _, page := range doc.GetPages() {
		for _, lang := range page.GetDetectedLanguages() {
			langCount[lang.GetLanguageCode()]++
		}
		for _, token := range page.GetTokens() {
			for _, lang := range token.GetDetectedLanguages() {
				langCount[lang.GetLanguageCode()]++
			}
		}
	}

	var best string
	var highest int
	for lang, count := range langCount {
		if count > highest || (count == highest && lang < best) {
			best, highest = lang, count
		}
	}
	return best
}
