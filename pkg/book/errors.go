package book

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// Stage names a step of the page pipeline.
type Stage string

const (
	StageCount   Stage = "count"
	StageExtract Stage = "extract"
	StageRaster  Stage = "rasterize"
	StageHOCR    Stage = "hocr"
	StageOCR     Stage = "ocr"
)

// StageError reports a failed stage. Fatal errors stop the run.
type StageError struct {
	Stage Stage
	Page  int // 0 for document level stages
	Fatal bool
	Err   error
}

func (e *StageError) Error() string {
	if e.Page == 0 {
		return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("page %d: %s failed: %v", e.Page, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

var (
	// ErrUnresolvable is returned for input that is neither a PDF file
	// nor a directory.
	ErrUnresolvable = eris.New("input must be a .pdf file or a directory")

	// ErrMissingProgram is returned when a required external program
	// cannot be run.
	ErrMissingProgram = eris.New("required program not available")

	// ErrNoOCRInput is recorded for pages that have neither hOCR nor a raster.
	ErrNoOCRInput = eris.New("no hOCR or raster to run OCR on")
)
