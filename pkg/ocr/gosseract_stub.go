//go:build !gosseract

package ocr

import "context"

// Gosseract is the stub used when the "gosseract" build tag is not set.
type Gosseract struct {
	Language string
}

// NewGosseract returns ErrGosseractDisabled.
func NewGosseract(language string) (*Gosseract, error) {
	return nil, ErrGosseractDisabled
}

// Recognize returns ErrGosseractDisabled.
func (g *Gosseract) Recognize(ctx context.Context, image, dst string, format Format) error {
	return ErrGosseractDisabled
}
