package pdfmin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tsawler/pdfmin/document"
	"github.com/tsawler/pdfmin/downscale"
	"github.com/tsawler/pdfmin/imagecodec"
	"github.com/tsawler/pdfmin/internal/logger"
)

// Optimizer provides a fluent interface for downscaling the images of a
// document. Each configuration method returns a new Optimizer instance,
// making it safe for concurrent use and allowing method chaining.
type Optimizer struct {
	doc *document.Document

	// Configuration
	options OptimizeOptions

	// Accumulated error (fail-fast)
	err error
}

// clone creates a shallow copy of the Optimizer with a copy of options.
// This ensures immutability - each chain method returns a new instance.
func (o *Optimizer) clone() *Optimizer {
	return &Optimizer{
		doc:     o.doc,
		options: o.options.clone(),
		err:     o.err,
	}
}

// ============================================================================
// Configuration Methods (return new Optimizer instance)
// ============================================================================

// TargetDPI sets the resolution images are reduced to. Images already at
// or below it are left alone.
func (o *Optimizer) TargetDPI(dpi float64) *Optimizer {
	newOpt := o.clone()
	newOpt.options.targetDPI = dpi
	return newOpt
}

// Verbose logs each image's resolution and scale factor at info level.
func (o *Optimizer) Verbose() *Optimizer {
	newOpt := o.clone()
	newOpt.options.verbose = true
	return newOpt
}

// JPEGImages is accepted for compatibility with tools that convert
// images to JPEG. Images always keep their original format.
func (o *Optimizer) JPEGImages() *Optimizer {
	newOpt := o.clone()
	newOpt.options.jpegImages = true
	return newOpt
}

// JPEGQuality sets the quality (1-100) used when re-encoding JPEG images.
func (o *Optimizer) JPEGQuality(quality int) *Optimizer {
	newOpt := o.clone()
	if quality < 1 || quality > 100 {
		newOpt.err = errors.Join(newOpt.err, fmt.Errorf("JPEG quality %d out of range 1..100", quality))
		return newOpt
	}
	newOpt.options.jpegQuality = quality
	return newOpt
}

// Kernel selects the resampling filter: lanczos, catmullrom, linear or
// box.
func (o *Optimizer) Kernel(name string) *Optimizer {
	newOpt := o.clone()
	kernel, err := imagecodec.ParseKernel(name)
	if err != nil {
		newOpt.err = errors.Join(newOpt.err, err)
		return newOpt
	}
	newOpt.options.kernel = kernel
	return newOpt
}

// Workers bounds how many pages or images are processed at once.
func (o *Optimizer) Workers(n int) *Optimizer {
	newOpt := o.clone()
	if n < 1 {
		newOpt.err = errors.Join(newOpt.err, fmt.Errorf("workers must be at least 1, got %d", n))
		return newOpt
	}
	newOpt.options.workers = n
	return newOpt
}

// FailFast stops the run at the first image that cannot be resampled.
// By default such images are reported as warnings and left unchanged.
func (o *Optimizer) FailFast() *Optimizer {
	newOpt := o.clone()
	newOpt.options.failFast = true
	return newOpt
}

// Logger sets the logger. Without one, nothing is logged.
func (o *Optimizer) Logger(l *slog.Logger) *Optimizer {
	newOpt := o.clone()
	newOpt.options.logger = l
	return newOpt
}

// ============================================================================
// Terminal Operations
// ============================================================================

// Run downscales the document's images in place and returns a report.
// Skipped images and images the codec could not handle are returned as
// warnings; the latter only become an error with FailFast.
func (o *Optimizer) Run(ctx context.Context) (*downscale.Report, []Warning, error) {
	if o.err != nil {
		return nil, nil, o.err
	}
	if o.doc == nil {
		return nil, nil, fmt.Errorf("no document specified")
	}

	pages, err := o.doc.Pages()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read pages: %w", err)
	}

	log := o.options.logger
	if log == nil {
		log = logger.Discard()
	}

	report, err := downscale.Run(ctx, downscale.Input{
		Pages: pages,
		Table: o.doc,
		Codec: imagecodec.NewCodec(o.options.kernel, o.options.jpegQuality),
	}, downscale.Settings{
		TargetDPI:  o.options.targetDPI,
		Verbose:    o.options.verbose,
		JPEGImages: o.options.jpegImages,
		Workers:    o.options.workers,
		FailFast:   o.options.failFast,
		Logger:     log,
	})

	warnings := warningsFromReport(report)
	if err != nil && !o.options.failFast && errors.Is(err, downscale.ErrCodecFailure) {
		err = nil
	}
	if err == nil && report != nil {
		log.Info("downscale complete", "images", report.Savings.Images,
			"before", report.Savings.OriginalBytes, "after", report.Savings.NewBytes)
	}
	return report, warnings, err
}
