package hocr

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
)

// lineClasses are the hOCR classes that denote a line of text.
var lineClasses = []string{"ocr_line", "ocr_header", "ocr_footer", "ocr_caption", "ocr_textfloat"}

// ParseHOCR converts raw hOCR data into the typed model.
func ParseHOCR(data []byte) (Document, error) {
	doc := Document{Metadata: make(map[string]string)}

	decoded, err := decodeCharset(data)
	if err != nil {
		return doc, err
	}
	root, err := html.Parse(bytes.NewReader(decoded))
	if err != nil {
		return doc, eris.Wrap(err, "parse hOCR html")
	}

	b := &builder{doc: &doc}
	b.visit(root)

	if len(doc.Pages) == 0 {
		return doc, eris.New("no ocr_page elements found in hOCR data")
	}
	return doc, nil
}

// builder tracks the innermost open element of each hierarchy level.
type builder struct {
	doc  *Document
	page *Page
	area *Area
	par  *Paragraph
	line *Line
}

func (b *builder) visit(n *html.Node) {
	if n.Type != html.ElementNode {
		b.visitChildren(n)
		return
	}

	switch n.Data {
	case "html":
		if lang := attr(n, "lang"); lang != "" {
			b.doc.Language = lang
		}
	case "title":
		b.doc.Title = strings.TrimSpace(textContent(n))
		return
	case "meta":
		if name := attr(n, "name"); strings.HasPrefix(name, "ocr-") {
			b.doc.Metadata[name] = attr(n, "content")
		}
		return
	}

	props := parseTitle(attr(n, "title"))
	class := attr(n, "class")
	switch {
	case hasClass(class, "ocr_page"):
		page := Page{ID: attr(n, "id"), Lang: attr(n, "lang"), BBox: props.bbox()}
		if v := props["image"]; len(v) > 0 {
			page.Image = strings.Trim(strings.Join(v, " "), `"`)
		}
		if v := props["ppageno"]; len(v) > 0 {
			page.Number, _ = strconv.Atoi(v[0])
		}
		b.doc.Pages = append(b.doc.Pages, page)
		b.page = &b.doc.Pages[len(b.doc.Pages)-1]
		b.area, b.par, b.line = nil, nil, nil
		b.visitChildren(n)
		b.page, b.area, b.par, b.line = nil, nil, nil, nil

	case hasClass(class, "ocr_carea"):
		page := b.ensurePage()
		page.Areas = append(page.Areas, Area{ID: attr(n, "id"), BBox: props.bbox()})
		b.area = &page.Areas[len(page.Areas)-1]
		b.par, b.line = nil, nil
		b.visitChildren(n)
		b.area, b.par, b.line = nil, nil, nil

	case hasClass(class, "ocr_par"):
		area := b.ensureArea()
		area.Paragraphs = append(area.Paragraphs, Paragraph{ID: attr(n, "id"), Lang: attr(n, "lang"), BBox: props.bbox()})
		b.par = &area.Paragraphs[len(area.Paragraphs)-1]
		b.line = nil
		b.visitChildren(n)
		b.par, b.line = nil, nil

	case hasAnyClass(class, lineClasses):
		par := b.ensureParagraph()
		line := Line{ID: attr(n, "id"), BBox: props.bbox()}
		if v := props["baseline"]; len(v) > 0 {
			line.Baseline = strings.Join(v, " ")
		}
		par.Lines = append(par.Lines, line)
		b.line = &par.Lines[len(par.Lines)-1]
		b.visitChildren(n)
		b.line = nil

	case hasClass(class, "ocrx_word"):
		line := b.ensureLine()
		word := Word{
			ID:   attr(n, "id"),
			Text: strings.TrimSpace(textContent(n)),
			BBox: props.bbox(),
			Lang: attr(n, "lang"),
		}
		if v := props["x_wconf"]; len(v) > 0 {
			word.Confidence, _ = strconv.ParseFloat(v[0], 64)
		}
		line.Words = append(line.Words, word)

	default:
		b.visitChildren(n)
	}
}

func (b *builder) visitChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.visit(c)
	}
}

func (b *builder) ensurePage() *Page {
	if b.page == nil {
		b.doc.Pages = append(b.doc.Pages, Page{})
		b.page = &b.doc.Pages[len(b.doc.Pages)-1]
	}
	return b.page
}

func (b *builder) ensureArea() *Area {
	if b.area == nil {
		page := b.ensurePage()
		page.Areas = append(page.Areas, Area{})
		b.area = &page.Areas[len(page.Areas)-1]
	}
	return b.area
}

func (b *builder) ensureParagraph() *Paragraph {
	if b.par == nil {
		area := b.ensureArea()
		area.Paragraphs = append(area.Paragraphs, Paragraph{})
		b.par = &area.Paragraphs[len(area.Paragraphs)-1]
	}
	return b.par
}

func (b *builder) ensureLine() *Line {
	if b.line == nil {
		par := b.ensureParagraph()
		par.Lines = append(par.Lines, Line{})
		b.line = &par.Lines[len(par.Lines)-1]
	}
	return b.line
}

// titleProps holds the properties of an hOCR title attribute
type titleProps map[string][]string

// parseTitle breaks down a title attribute such as
// "bbox 100 200 300 400; x_wconf 95".
func parseTitle(title string) titleProps {
	props := make(titleProps)
	for _, part := range strings.Split(title, ";") {
		fields := strings.Fields(part)
		if len(fields) > 0 {
			props[fields[0]] = fields[1:]
		}
	}
	return props
}

func (p titleProps) bbox() BoundingBox {
	v := p["bbox"]
	if len(v) < 4 {
		return BoundingBox{}
	}
	var c [4]int
	for i := range c {
		c[i], _ = strconv.Atoi(v[i])
	}
	return BoundingBox{X1: c[0], Y1: c[1], X2: c[2], Y2: c[3]}
}

func hasClass(classAttr, class string) bool {
	for _, c := range strings.Fields(classAttr) {
		if c == class {
			return true
		}
	}
	return false
}

func hasAnyClass(classAttr string, classes []string) bool {
	for _, c := range classes {
		if hasClass(classAttr, c) {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}

// decodeCharset converts hOCR declared in a legacy charset to UTF-8.
// Undeclared or UTF-8 input is returned unchanged.
func decodeCharset(data []byte) ([]byte, error) {
	name := declaredCharset(data)
	if name == "" || name == "utf-8" || name == "utf8" {
		return data, nil
	}

	var enc encoding.Encoding = charmap.ISO8859_1
	if e, err := ianaindex.IANA.Encoding(name); err == nil && e != nil {
		enc = e
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, eris.Wrapf(err, "decode %s", name)
	}
	return decoded, nil
}

// declaredCharset returns the lower-cased charset named in the document
// head, or "" if there is none.
func declaredCharset(data []byte) string {
	head := data
	if len(head) > 2048 {
		head = head[:2048]
	}
	lower := bytes.ToLower(head)
	i := bytes.Index(lower, []byte("charset="))
	if i < 0 {
		return ""
	}
	rest := lower[i+len("charset="):]
	rest = bytes.TrimLeft(rest, `"'`)
	end := bytes.IndexAny(rest, "\"'; >/\t\r\n")
	if end >= 0 {
		rest = rest[:end]
	}
	return string(rest)
}
