package hocr

import (
	"bytes"
	"io"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html"
)

// ExtractText produces the plain text layer of an hOCR document.
//
// All markup is removed, character entities are decoded, and lines that are
// empty or hold only whitespace and control characters are dropped. The
// remaining lines keep their relative order. Markup is consumed by the html
// tokenizer, so nested, unbalanced or otherwise malformed tags never leak
// into the text. The document head (title, scripts, styles) is not part of
// the recognized page and is skipped.
func ExtractText(data []byte) (string, error) {
	decoded, err := decodeCharset(data)
	if err != nil {
		return "", err
	}

	var raw strings.Builder
	skip := 0
	z := html.NewTokenizer(bytes.NewReader(decoded))
	for {
		switch z.Next() {
		case html.StartTagToken:
			if name, _ := z.TagName(); nonText[string(name)] {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); nonText[string(name)] && skip > 0 {
				skip--
			}
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return "", eris.Wrap(err, "tokenize hOCR")
			}
			return keepTextLines(raw.String()), nil
		case html.TextToken:
			if skip > 0 {
				continue
			}
			// Text unescapes entities such as &amp; and &#39;.
			raw.Write(z.Text())
		}
	}
}

// nonText lists the elements whose content never belongs to the text layer.
var nonText = map[string]bool{"head": true, "title": true, "script": true, "style": true}

// keepTextLines drops blank lines and joins the rest with newlines.
func keepTextLines(s string) string {
	var out strings.Builder
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.IndexFunc(line, isVisible) < 0 {
			continue
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}
	return out.String()
}

func isVisible(r rune) bool {
	return !unicode.IsSpace(r) && !unicode.IsControl(r)
}
