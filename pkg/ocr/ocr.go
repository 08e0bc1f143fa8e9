// Package ocr runs optical character recognition on page images.
//
// Engines write their result straight to an artifact path, either as hOCR
// (positioned text) or as plain text. Two engines live here: the Tesseract
// command line program, run through the process runner, and an in-process
// binding to libtesseract (gosseract) that is only compiled with the
// "gosseract" build tag. The Google Document AI engine lives in package
// gdocai and satisfies the same Recognizer interface.
package ocr

import (
	"context"
	"errors"
)

// Format selects the kind of output an engine produces
type Format int

const (
	Text Format = iota // Plain text
	HOCR               // Positioned text as hOCR HTML
)

func (f Format) String() string {
	if f == HOCR {
		return "hocr"
	}
	return "text"
}

// Ext is the file extension the Tesseract CLI appends for the format.
func (f Format) Ext() string {
	if f == HOCR {
		return ".hocr"
	}
	return ".txt"
}

// Recognizer produces an OCR artifact at dst from the image at image.
type Recognizer interface {
	Recognize(ctx context.Context, image, dst string, format Format) error
}

// ErrGosseractDisabled is returned when the in-process engine is requested
// from a binary built without the "gosseract" tag.
var ErrGosseractDisabled = errors.New("gosseract engine not enabled; rebuild with -tags gosseract")
