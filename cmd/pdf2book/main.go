// Command pdf2book splits PDF files into book batch directories with a
// single page PDF, a TIFF image, hOCR and OCR text for every page.
//
//	pdf2book <file.pdf|directory> [--password s] [--overwrite] [--language code]
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gardar/bookbatch/pkg/book"
	"github.com/gardar/bookbatch/pkg/runner"
)

const logFileName = "pdf2book.log"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	var logFile string
	opts := book.DefaultOptions()

	cmd := &cobra.Command{
		Use:           "pdf2book <file.pdf|directory>",
		Short:         "Convert PDFs into per page book batch directories",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := defaultConfig()
			if configPath != "" {
				var err error
				if cfg, err = loadConfig(configPath); err != nil {
					return err
				}
			}
			if !cmd.Flags().Changed("language") && cfg.Language != "" {
				opts.Language = cfg.Language
			}
			if cmd.Flags().Changed("log-file") || cfg.LogFile == "" {
				cfg.LogFile = logFile
			}
			return run(cmd, args[0], cfg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Password, "password", "", "password of the PDF files")
	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "regenerate files that already exist")
	cmd.Flags().StringVar(&opts.Language, "language", opts.Language, "OCR language code")
	cmd.Flags().BoolVar(&opts.IncludeLastPage, "include-last-page", false, "also process the last page of each PDF")
	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	cmd.Flags().StringVar(&logFile, "log-file", defaultLogPath(), "path of the log file")
	return cmd
}

func run(cmd *cobra.Command, input string, cfg Config, opts book.Options) error {
	start := time.Now()

	out, err := os.Create(cfg.LogFile)
	if err != nil {
		return eris.Wrapf(err, "open log file %s", cfg.LogFile)
	}
	defer out.Close()
	log := newLogger(out)

	paths, err := book.ResolveInput(input)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		log.Warnf("No PDF files found in %s", input)
	}
	if opts.Password != "" {
		log.Debug("A password was given; it is not passed on to the external programs")
	}

	exec := runner.New(log, cfg.Timeout)
	proc, programs, err := buildProcessor(cfg, opts, exec, log)
	if err != nil {
		return err
	}
	if err := book.CheckPrograms(cmd.Context(), exec, programs...); err != nil {
		log.Error(err)
		return err
	}

	reports, err := proc.ProcessPaths(cmd.Context(), paths)
	for _, r := range reports {
		log.WithFields(logrus.Fields{
			"pages":        len(r.Pages),
			"ocr_failures": r.OCRFailures,
		}).Infof("Converted %s", r.Document)
	}
	if err != nil {
		log.Error(err)
		return err
	}

	elapsed := formatElapsed(time.Since(start))
	log.Infof("Finished in %s", elapsed)
	fmt.Fprintf(cmd.OutOrStdout(), "Finished in %s\n", elapsed)
	return nil
}

func newLogger(w io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(logrus.DebugLevel)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		DisableColors: true,
	})
	return log
}

// defaultLogPath places the log next to the executable.
func defaultLogPath() string {
	exe, err := os.Executable()
	if err != nil {
		return logFileName
	}
	return filepath.Join(filepath.Dir(exe), logFileName)
}

// formatElapsed renders d as H:MM:SS.
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d/time.Minute) % 60
	s := int(d/time.Second) % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
