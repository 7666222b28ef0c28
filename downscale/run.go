package downscale

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tsawler/pdfmin/core"
	"github.com/tsawler/pdfmin/document"
	"github.com/tsawler/pdfmin/graphicsstate"
	"github.com/tsawler/pdfmin/imagecodec"
)

// DefaultWorkers bounds the concurrency of both passes when
// Settings.Workers is not positive.
const DefaultWorkers = 4

// Walker reports the image draws of a page.
type Walker interface {
	Walk(page *document.Page, v graphicsstate.Visitor) error
}

// Input is what a run operates on.
type Input struct {
	Pages []*document.Page
	Table ObjectTable

	Walker Walker // nil means graphicsstate.NewWalker()
	Codec  Codec  // nil means a Lanczos imagecodec.Codec
}

// Settings control a run.
type Settings struct {
	TargetDPI float64

	// Verbose logs each image's resolution and scale factor at info level
	// instead of debug.
	Verbose bool

	// JPEGImages is accepted for compatibility. Images always keep their
	// original format.
	JPEGImages bool

	Workers  int
	FailFast bool // abort on the first codec failure
	Logger   *slog.Logger
}

// Run downscales every image drawn on the given pages whose effective
// resolution exceeds the target.
//
// Pass 1 walks the pages concurrently and records, per image, the
// largest size at which it is drawn. Pass 2 derives each image's
// resolution from that size, plans a scale factor and, for factors
// below 1, resamples the image and substitutes it into the table. Each
// image is handled by exactly one worker.
//
// Codec failures are per image: they are collected in the report and
// returned joined after the run completes, unless FailFast is set, in
// which case the first one stops the run. The report is returned
// whenever pass 2 was reached, even alongside an error.
func Run(ctx context.Context, in Input, cfg Settings) (*Report, error) {
	if !validResolution(cfg.TargetDPI) {
		return nil, fmt.Errorf("%w: target %g dpi", ErrInvalidResolution, cfg.TargetDPI)
	}
	if in.Table == nil {
		return nil, errors.New("no object table")
	}

	r := &runner{
		in:      in,
		cfg:     cfg,
		logger:  cfg.Logger,
		workers: cfg.Workers,
		report:  &Report{Pages: len(in.Pages)},
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	if r.workers <= 0 {
		r.workers = DefaultWorkers
	}
	if r.in.Walker == nil {
		r.in.Walker = graphicsstate.NewWalker()
	}
	if r.in.Codec == nil {
		r.in.Codec = imagecodec.NewCodec(imagecodec.KernelLanczos, imagecodec.DefaultJPEGQuality)
	}
	if cfg.JPEGImages {
		r.logger.Debug("jpg_images requested; images keep their original format")
	}

	tracker, err := r.collect(ctx)
	if err != nil {
		return nil, err
	}
	r.report.Tracked = tracker.Len()
	r.logger.Debug("collected image extents", "pages", len(in.Pages), "images", tracker.Len())

	if err := r.plan(ctx, tracker); err != nil {
		return r.report, err
	}
	err = r.execute(ctx)
	r.report.sortFailures()
	return r.report, err
}

type runner struct {
	in      Input
	cfg     Settings
	logger  *slog.Logger
	workers int
	report  *Report
}

// collect runs pass 1: one tracker per page, merged at the end.
func (r *runner) collect(ctx context.Context) (*Tracker, error) {
	partial := make([]*Tracker, len(r.in.Pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, page := range r.in.Pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t := NewTracker()
			if err := r.in.Walker.Walk(page, t); err != nil {
				return err
			}
			partial[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to collect image extents: %w", err)
	}

	tracker := NewTracker()
	for _, t := range partial {
		tracker.Merge(t)
	}
	return tracker, nil
}

// plan decides what happens to each tracked image.
func (r *runner) plan(ctx context.Context, tracker *Tracker) error {
	extents := tracker.Extents()
	for _, ref := range tracker.Refs() {
		if err := ctx.Err(); err != nil {
			return err
		}

		var res *imagecodec.Resource
		obj, err := r.in.Table.Lookup(ref)
		if err == nil {
			res, err = imagecodec.Inspect(ref, obj, r.in.Table)
		}
		if err != nil {
			r.logger.Warn("skipping unreadable image", "ref", ref.String(), "error", err)
			r.skip(ref, SkipUnreadable, err)
			continue
		}

		width, height, err := res.Dimensions()
		if err != nil {
			r.logger.Debug("skipping image without dimensions", "ref", ref.String())
			r.skip(ref, SkipMissingDimensions, err)
			continue
		}

		extent := extents[ref]
		var scale float64
		dpi, err := ResolveDPI(width, height, extent.Width, extent.Height)
		if err == nil {
			scale, err = PlanScale(dpi, r.cfg.TargetDPI)
		}
		switch {
		case errors.Is(err, ErrDegenerateGeometry):
			r.logger.Warn("skipping image with degenerate placement",
				"ref", ref.String(), "width", extent.Width, "height", extent.Height)
			r.skip(ref, SkipDegenerateGeometry, err)
			continue
		case err != nil:
			r.logger.Warn("skipping image with unusable resolution",
				"ref", ref.String(), "dpi", dpi, "error", err)
			r.skip(ref, SkipInvalidResolution, err)
			continue
		}
		r.verbose(ctx, "current DPI of image", "ref", ref.String(), "dpi", dpi)

		if scale == 1 {
			r.skip(ref, SkipAtTarget, nil)
			continue
		}
		if err := res.Supported(); err != nil {
			r.logger.Info("skipping unsupported image", "ref", ref.String(), "error", err)
			r.skip(ref, SkipUnsupported, err)
			continue
		}

		w, h := TargetDimensions(width, height, scale)
		r.report.Plans = append(r.report.Plans, Plan{
			Ref:          ref,
			Resource:     res,
			CurrentDPI:   dpi,
			Scale:        scale,
			TargetWidth:  w,
			TargetHeight: h,
		})
	}
	return nil
}

// execute runs pass 2 on a bounded worker pool.
func (r *runner) execute(ctx context.Context) error {
	rescaler := NewRescaler(r.in.Codec)

	var (
		mu       sync.Mutex
		failures []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for _, plan := range r.report.Plans {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r.verbose(gctx, "resampling image with scale factor",
				"ref", plan.Ref.String(), "scale", plan.Scale,
				"width", plan.TargetWidth, "height", plan.TargetHeight)

			rep, err := rescaler.Apply(plan.Resource, plan.Scale)
			if err != nil {
				if !errors.Is(err, ErrCodecFailure) || r.cfg.FailFast {
					return err
				}
				r.logger.Warn("failed to rescale image", "ref", plan.Ref.String(), "error", err)
				mu.Lock()
				r.report.Failures = append(r.report.Failures, Failure{Ref: plan.Ref, Err: err})
				failures = append(failures, err)
				mu.Unlock()
				return nil
			}
			if err := rescaler.Commit(r.in.Table, rep); err != nil {
				return err
			}
			r.logger.Debug("rescaled image", "ref", plan.Ref.String(),
				"before", rep.BytesBefore, "after", rep.BytesAfter)
			return nil
		})
	}
	err := g.Wait()
	r.report.Savings = rescaler.Savings()
	if err != nil {
		var codecErr *CodecError
		if errors.As(err, &codecErr) {
			r.report.Failures = append(r.report.Failures, Failure{Ref: codecErr.Ref, Err: err})
		}
		return err
	}
	return errors.Join(failures...)
}

func (r *runner) skip(ref core.IndirectRef, reason SkipReason, err error) {
	r.report.Skipped = append(r.report.Skipped, Skip{Ref: ref, Reason: reason, Err: err})
}

// verbose logs at info level in verbose mode and at debug level otherwise.
func (r *runner) verbose(ctx context.Context, msg string, args ...any) {
	level := slog.LevelDebug
	if r.cfg.Verbose {
		level = slog.LevelInfo
	}
	r.logger.Log(ctx, level, msg, args...)
}
