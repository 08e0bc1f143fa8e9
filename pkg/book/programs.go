package book

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/gardar/bookbatch/pkg/runner"
)

// Program is an external dependency and the harmless command line used to
// check that it runs.
type Program struct {
	Name string
	Argv []string
}

// GhostscriptProgram checks gs with --help.
func GhostscriptProgram(bin string) Program {
	return Program{Name: "ghostscript", Argv: []string{orDefault(bin, "gs"), "--help"}}
}

// TesseractProgram checks tesseract with -v.
func TesseractProgram(bin string) Program {
	return Program{Name: "tesseract", Argv: []string{orDefault(bin, "tesseract"), "-v"}}
}

// ImageMagickProgram checks convert with -version.
func ImageMagickProgram(bin string) Program {
	return Program{Name: "imagemagick", Argv: []string{orDefault(bin, "convert"), "-version"}}
}

// CheckPrograms runs every program's check command and fails on the first
// one that does not succeed.
func CheckPrograms(ctx context.Context, exec runner.Executor, programs ...Program) error {
	for _, p := range programs {
		if err := exec.Run(ctx, p.Argv...); err != nil {
			return eris.Wrapf(ErrMissingProgram, "%s (%s): %v", p.Name, p.Argv[0], err)
		}
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
