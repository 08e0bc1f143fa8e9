// Package gdocai recognizes page images with Google Document AI.
//
// The Document AI response is converted into hOCR (blocks become ocr_carea,
// paragraphs ocr_par, lines ocr_line and tokens ocrx_word, positioned with
// the bounding polygons of their layouts) or written out as plain text. The
// Recognizer type plugs into the page pipeline as an OCR engine.
//
// Usage Requirements:
//
// - Google Cloud project with Document AI API enabled
// - Document AI processor configured for OCR
// - Authentication via GOOGLE_APPLICATION_CREDENTIALS environment variable
package gdocai

import (
	"context"
	"os"
	"path/filepath"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"github.com/gardar/bookbatch/pkg/hocr"
	"github.com/gardar/bookbatch/pkg/ocr"
)

// Config identifies the Document AI processor to call
type Config struct {
	ProjectID   string `yaml:"project_id"`
	Location    string `yaml:"location"`
	ProcessorID string `yaml:"processor_id"`
}

// Validate reports the first missing setting.
func (c *Config) Validate() error {
	switch {
	case c == nil:
		return eris.New("document ai: no configuration")
	case c.ProjectID == "":
		return eris.New("document ai: project_id is required")
	case c.Location == "":
		return eris.New("document ai: location is required")
	case c.ProcessorID == "":
		return eris.New("document ai: processor_id is required")
	}
	return nil
}

type processFunc func(ctx context.Context, content []byte, mimeType string, cfg *Config) (*documentaipb.Document, error)

// Recognizer is an OCR engine backed by Document AI.
type Recognizer struct {
	Config       *Config
	KeepResponse bool // Also write the raw response as <dst>.json
	Log          logrus.FieldLogger

	process processFunc
}

// NewRecognizer returns a Recognizer calling the processor named by cfg.
func NewRecognizer(cfg *Config, log logrus.FieldLogger) (*Recognizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Recognizer{Config: cfg, Log: log, process: ProcessDocument}, nil
}

// Recognize sends image to Document AI and writes the result to dst as hOCR
// or plain text.
func (r *Recognizer) Recognize(ctx context.Context, image, dst string, format ocr.Format) error {
	content, err := os.ReadFile(image)
	if err != nil {
		return eris.Wrapf(err, "read %s", image)
	}

	doc, err := r.process(ctx, content, MimeType(image), r.Config)
	if err != nil {
		return err
	}
	if r.Log != nil {
		r.Log.WithField("pages", len(doc.GetPages())).Debugf("Document AI processed %s", image)
	}

	if r.KeepResponse {
		raw, err := ToJSON(doc)
		if err != nil {
			return eris.Wrap(err, "encode Document AI response")
		}
		if err := os.WriteFile(dst+".json", []byte(raw), 0o644); err != nil {
			return eris.Wrapf(err, "write %s.json", dst)
		}
	}

	out := doc.GetText()
	if format == ocr.HOCR {
		out, err = hocr.GenerateHOCRDocument(HOCRFromProto(doc, filepath.Base(image)))
		if err != nil {
			return err
		}
	}
	return eris.Wrapf(os.WriteFile(dst, []byte(out), 0o644), "write %s", dst)
}
