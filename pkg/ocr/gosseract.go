//go:build gosseract

package ocr

import (
	"context"
	"os"

	"github.com/otiai10/gosseract/v2"
	"github.com/rotisserie/eris"
)

// Gosseract recognizes text in-process through libtesseract.
// It requires Tesseract and its development headers at build time.
type Gosseract struct {
	Language string
}

// NewGosseract returns the in-process engine.
func NewGosseract(language string) (*Gosseract, error) {
	if language == "" {
		language = DefaultLanguage
	}
	return &Gosseract{Language: language}, nil
}

// Recognize runs libtesseract on image and writes the result to dst.
// A fresh client is used per call; libtesseract clients are not shareable.
func (g *Gosseract) Recognize(ctx context.Context, image, dst string, format Format) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(g.Language); err != nil {
		return eris.Wrapf(err, "set language %s", g.Language)
	}
	if err := client.SetImage(image); err != nil {
		return eris.Wrapf(err, "load image %s", image)
	}

	var out string
	var err error
	if format == HOCR {
		out, err = client.HOCRText()
	} else {
		out, err = client.Text()
	}
	if err != nil {
		return eris.Wrapf(err, "recognize %s", image)
	}
	return eris.Wrapf(os.WriteFile(dst, []byte(out), 0o644), "write %s", dst)
}
