package pdfmin

import (
	"log/slog"

	"github.com/tsawler/pdfmin/imagecodec"
)

// OptimizeOptions holds configuration for a downscale run.
type OptimizeOptions struct {
	targetDPI float64

	// Output
	kernel      imagecodec.Kernel
	jpegQuality int
	jpegImages  bool // accepted; images keep their format

	// Execution
	workers  int
	failFast bool

	// Diagnostics
	verbose bool
	logger  *slog.Logger
}

// defaultOptions returns the default run options.
func defaultOptions() OptimizeOptions {
	return OptimizeOptions{
		kernel:      imagecodec.KernelLanczos,
		jpegQuality: imagecodec.DefaultJPEGQuality,
		workers:     4,
	}
}

// clone creates a copy of OptimizeOptions. The logger is shared.
func (o OptimizeOptions) clone() OptimizeOptions {
	return o
}
