package hocr

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html"
)

//go:embed templates/hocr.tmpl
var templateFS embed.FS

var hocrTemplate = template.Must(template.New("hocr.tmpl").Funcs(template.FuncMap{
	"esc":       html.EscapeString,
	"pageTitle": pageTitle,
	"lineTitle": lineTitle,
	"wordTitle": wordTitle,
}).ParseFS(templateFS, "templates/hocr.tmpl"))

// GenerateHOCRDocument renders doc as a complete hOCR HTML document.
func GenerateHOCRDocument(doc *Document) (string, error) {
	if doc == nil {
		return "", eris.New("nil hOCR document")
	}
	var buf bytes.Buffer
	if err := hocrTemplate.Execute(&buf, doc); err != nil {
		return "", eris.Wrap(err, "render hOCR template")
	}
	return buf.String(), nil
}

func pageTitle(p Page) string {
	parts := make([]string, 0, 3)
	if p.Image != "" {
		parts = append(parts, fmt.Sprintf("image %q", p.Image))
	}
	parts = append(parts, p.BBox.String(), fmt.Sprintf("ppageno %d", p.Number))
	return html.EscapeString(strings.Join(parts, "; "))
}

func lineTitle(l Line) string {
	if l.Baseline == "" {
		return l.BBox.String()
	}
	return html.EscapeString(l.BBox.String() + "; baseline " + l.Baseline)
}

func wordTitle(w Word) string {
	return fmt.Sprintf("%s; x_wconf %d", w.BBox, int(w.Confidence+0.5))
}
