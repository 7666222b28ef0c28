// Package pdfmin shrinks PDF documents by downscaling images that are
// stored at a higher resolution than they are displayed at.
//
// Basic usage:
//
//	report, warnings, err := pdfmin.New(doc).TargetDPI(150).Run(ctx)
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", pdfmin.FormatWarnings(warnings))
//	}
//	fmt.Println(report.Savings)
//
// With options:
//
//	report, _, err := pdfmin.New(doc).
//	    TargetDPI(150).
//	    Kernel("catmullrom").
//	    Workers(8).
//	    Verbose().
//	    Run(ctx)
//
// Settings can also come from the environment:
//
//	cfg, err := config.Load(".env")
//	report, _, err := pdfmin.FromConfig(doc, cfg).Run(ctx)
//
// For advanced use cases, the lower-level downscale package is also
// available.
package pdfmin

import (
	"os"

	"github.com/tsawler/pdfmin/config"
	"github.com/tsawler/pdfmin/document"
	"github.com/tsawler/pdfmin/internal/logger"
)

// New returns an Optimizer for doc with default settings. A target
// resolution must be set before Run.
//
// Example:
//
//	report, warnings, err := pdfmin.New(doc).TargetDPI(150).Run(ctx)
func New(doc *document.Document) *Optimizer {
	return &Optimizer{
		doc:     doc,
		options: defaultOptions(),
	}
}

// FromConfig returns an Optimizer configured from cfg. Log records go to
// standard error at cfg.LogLevel.
func FromConfig(doc *document.Document, cfg config.Config) *Optimizer {
	o := New(doc).
		TargetDPI(cfg.TargetDPI).
		JPEGQuality(cfg.JPEGQuality).
		Kernel(cfg.Kernel).
		Workers(cfg.Workers).
		Logger(logger.New(cfg.LogLevel, os.Stderr))
	if cfg.Verbose {
		o = o.Verbose()
	}
	if cfg.JPEGImages {
		o = o.JPEGImages()
	}
	if cfg.FailFast {
		o = o.FailFast()
	}
	return o
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// MustRun is a helper that wraps a call to Run and panics if the error
// is non-nil. It discards warnings.
//
// Example:
//
//	report := pdfmin.MustRun(pdfmin.New(doc).TargetDPI(150).Run(ctx))
func MustRun[T any](val T, _ []Warning, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
