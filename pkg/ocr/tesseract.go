package ocr

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/gardar/bookbatch/pkg/runner"
)

// DefaultLanguage is the Tesseract language code used when none is configured.
const DefaultLanguage = "eng"

// Tesseract runs the tesseract command line program.
type Tesseract struct {
	Bin      string          // Executable, "tesseract" if empty
	Language string          // Value of the -l option
	Exec     runner.Executor // Runs the command line
}

// NewTesseract returns a Tesseract engine using exec for invocations.
func NewTesseract(exec runner.Executor, bin, language string) *Tesseract {
	if bin == "" {
		bin = "tesseract"
	}
	if language == "" {
		language = DefaultLanguage
	}
	return &Tesseract{Bin: bin, Language: language, Exec: exec}
}

// Recognize runs tesseract on image.
//
// Tesseract takes an output base name and appends the extension of the
// format itself. When dst does not end in that extension the engine writes
// under a temporary base next to dst and renames the result.
func (t *Tesseract) Recognize(ctx context.Context, image, dst string, format Format) error {
	base := strings.TrimSuffix(dst, format.Ext())
	if base == dst {
		base = dst + ".partial"
	}

	argv := []string{t.Bin, image, base, "-l", t.Language}
	if format == HOCR {
		argv = append(argv, "hocr")
	}
	if err := t.Exec.Run(ctx, argv...); err != nil {
		return err
	}

	produced := base + format.Ext()
	if produced == dst {
		return nil
	}
	if err := os.Rename(produced, dst); err != nil {
		return eris.Wrapf(err, "move %s output to %s", format, dst)
	}
	return nil
}
