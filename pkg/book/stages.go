package book

import (
	"context"
	"strconv"

	"github.com/gardar/bookbatch/pkg/runner"
)

// PageExtractor writes one page of a PDF to a single page PDF.
type PageExtractor interface {
	ExtractPage(ctx context.Context, src string, page int, dst string) error
}

// Rasterizer renders a single page PDF to an image.
type Rasterizer interface {
	Rasterize(ctx context.Context, src, dst string) error
}

// Ghostscript extracts pages with the gs pdfwrite device.
type Ghostscript struct {
	Bin  string
	Exec runner.Executor
}

// NewGhostscript returns a Ghostscript running bin, or gs when bin is empty.
func NewGhostscript(exec runner.Executor, bin string) *Ghostscript {
	if bin == "" {
		bin = "gs"
	}
	return &Ghostscript{Bin: bin, Exec: exec}
}

// ExtractPage writes page (1-based) of src to dst as a single page PDF.
func (g *Ghostscript) ExtractPage(ctx context.Context, src string, page int, dst string) error {
	n := strconv.Itoa(page)
	return g.Exec.Run(ctx,
		g.Bin, "-q", "-dNOPAUSE", "-dBATCH", "-dSAFER",
		"-sDEVICE=pdfwrite",
		"-sOutputFile="+dst,
		"-dFirstPage="+n,
		"-dLastPage="+n,
		src,
	)
}

// DefaultResolution is the base raster resolution in dpi.
const DefaultResolution = 300

// ImageMagick rasterizes with convert. Pages are rendered at 1.25 times
// Resolution and scaled down to 75%.
type ImageMagick struct {
	Bin        string
	Resolution int
	Exec       runner.Executor
}

// NewImageMagick returns an ImageMagick running bin, or convert when bin is
// empty. A resolution of zero or less selects DefaultResolution.
func NewImageMagick(exec runner.Executor, bin string, resolution int) *ImageMagick {
	if bin == "" {
		bin = "convert"
	}
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	return &ImageMagick{Bin: bin, Resolution: resolution, Exec: exec}
}

// Rasterize renders the single page PDF src to the image dst. The output
// format follows the extension of dst.
func (m *ImageMagick) Rasterize(ctx context.Context, src, dst string) error {
	density := strconv.FormatFloat(float64(m.Resolution)*1.25, 'f', -1, 64)
	return m.Exec.Run(ctx,
		m.Bin, "-density", density, src,
		"-resize", "75%",
		"-colorspace", "rgb",
		"-alpha", "Off",
		dst,
	)
}
