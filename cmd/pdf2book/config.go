package main

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/gardar/bookbatch/pkg/book"
	"github.com/gardar/bookbatch/pkg/gdocai"
	"github.com/gardar/bookbatch/pkg/ocr"
	"github.com/gardar/bookbatch/pkg/pdfsplit"
	"github.com/gardar/bookbatch/pkg/runner"
)

// Tools holds the executables of the external programs.
type Tools struct {
	Ghostscript string `yaml:"ghostscript"`
	Tesseract   string `yaml:"tesseract"`
	Convert     string `yaml:"convert"`
}

// Config is the optional YAML configuration file. Command line flags take
// precedence over it.
type Config struct {
	Tools        Tools         `yaml:"tools"`
	Timeout      time.Duration `yaml:"timeout"`
	Resolution   int           `yaml:"resolution"`
	Extractor    string        `yaml:"extractor"`  // ghostscript or native
	OCREngine    string        `yaml:"ocr_engine"` // tesseract, gosseract or docai
	Language     string        `yaml:"language"`
	DocAI        gdocai.Config `yaml:"docai"`
	KeepResponse bool          `yaml:"keep_response"` // Save the Document AI response next to each artifact
	LogFile      string        `yaml:"log_file"`
}

func defaultConfig() Config {
	return Config{
		Tools: Tools{
			Ghostscript: "gs",
			Tesseract:   "tesseract",
			Convert:     "convert",
		},
		Timeout:    runner.DefaultTimeout,
		Resolution: book.DefaultResolution,
		Extractor:  "ghostscript",
		OCREngine:  "tesseract",
		Language:   ocr.DefaultLanguage,
	}
}

// loadConfig reads a YAML file over the defaults
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, eris.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, eris.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

// buildProcessor wires the configured engines and returns the external
// programs they need.
func buildProcessor(cfg Config, opts book.Options, exec runner.Executor, log logrus.FieldLogger) (*book.Processor, []book.Program, error) {
	var programs []book.Program

	var extractor book.PageExtractor
	switch cfg.Extractor {
	case "", "ghostscript":
		extractor = book.NewGhostscript(exec, cfg.Tools.Ghostscript)
		programs = append(programs, book.GhostscriptProgram(cfg.Tools.Ghostscript))
	case "native":
		extractor = pdfsplit.New()
	default:
		return nil, nil, eris.Errorf("unknown extractor %q", cfg.Extractor)
	}

	var recognizer ocr.Recognizer
	switch cfg.OCREngine {
	case "", "tesseract":
		recognizer = ocr.NewTesseract(exec, cfg.Tools.Tesseract, opts.Language)
		programs = append(programs, book.TesseractProgram(cfg.Tools.Tesseract))
	case "gosseract":
		g, err := ocr.NewGosseract(opts.Language)
		if err != nil {
			return nil, nil, err
		}
		recognizer = g
	case "docai":
		r, err := gdocai.NewRecognizer(&cfg.DocAI, log)
		if err != nil {
			return nil, nil, err
		}
		r.KeepResponse = cfg.KeepResponse
		recognizer = r
	default:
		return nil, nil, eris.Errorf("unknown OCR engine %q", cfg.OCREngine)
	}

	rasterizer := book.NewImageMagick(exec, cfg.Tools.Convert, cfg.Resolution)
	programs = append(programs, book.ImageMagickProgram(cfg.Tools.Convert))

	return book.NewProcessor(opts, extractor, rasterizer, recognizer, log), programs, nil
}
