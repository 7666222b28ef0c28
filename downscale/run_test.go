package downscale

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/tsawler/pdfmin/core"
	"github.com/tsawler/pdfmin/document"
	"github.com/tsawler/pdfmin/graphicsstate"
	"github.com/tsawler/pdfmin/internal/filters"
	"github.com/tsawler/pdfmin/model"
)

const pointsPerMM = 72 / 25.4

// place returns content drawing the named XObject at w x h millimetres.
func place(name string, wmm, hmm float64) string {
	return fmt.Sprintf("q %g 0 0 %g 10 10 cm /%s Do Q\n", wmm*pointsPerMM, hmm*pointsPerMM, name)
}

// addPage appends a page drawing content with the given XObjects.
func addPage(t *testing.T, doc *document.Document, xobjects core.Dict, content string) {
	t.Helper()
	contents := doc.Add(&core.Stream{
		Dict: core.Dict{"Length": core.Int(len(content))},
		Data: []byte(content),
	})
	if _, err := doc.AppendPage(core.Dict{
		"Resources": core.Dict{"XObject": xobjects},
		"Contents":  contents,
	}); err != nil {
		t.Fatalf("AppendPage failed: %v", err)
	}
}

func input(t *testing.T, doc *document.Document, codec Codec) Input {
	t.Helper()
	pages, err := doc.Pages()
	if err != nil {
		t.Fatalf("Pages failed: %v", err)
	}
	return Input{Pages: pages, Table: doc, Codec: codec}
}

func skipReasons(report *Report) map[core.IndirectRef]SkipReason {
	out := make(map[core.IndirectRef]SkipReason)
	for _, s := range report.Skipped {
		out[s.Ref] = s.Reason
	}
	return out
}

func TestRunWorkedExample(t *testing.T) {
	doc := document.New()
	img := doc.Add(rawImage(2000, 1000))
	addPage(t, doc, core.Dict{"Im1": img}, place("Im1", 100, 50))

	codec := newFakeCodec()
	report, err := Run(context.Background(), input(t, doc, codec), Settings{TargetDPI: 150})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(report.Plans) != 1 {
		t.Fatalf("expected 1 plan, got %d", len(report.Plans))
	}
	plan := report.Plans[0]
	if math.Abs(plan.CurrentDPI-508) > 1e-6 {
		t.Errorf("expected 508 dpi, got %v", plan.CurrentDPI)
	}
	if math.Abs(plan.Scale-0.2953) > 1e-4 {
		t.Errorf("expected scale ~0.2953, got %v", plan.Scale)
	}
	if c, _ := codec.call(img); c != [2]int{591, 295} {
		t.Errorf("expected codec call 591x295, got %v", c)
	}

	obj, _ := doc.Lookup(img)
	if w, _ := obj.(*core.Stream).Dict.GetInt("Width"); w != 591 {
		t.Errorf("table holds width %d, expected replacement", w)
	}
	if report.Pages != 1 || report.Tracked != 1 || report.Rescaled() != 1 {
		t.Errorf("unexpected counts: %+v", report)
	}
}

// TestRunPageOrder tests that an image shared by two pages is planned from
// its largest placement whichever page comes first
func TestRunPageOrder(t *testing.T) {
	for _, order := range [][2]float64{{50, 100}, {100, 50}} {
		t.Run(fmt.Sprint(order), func(t *testing.T) {
			doc := document.New()
			img := doc.Add(rawImage(1000, 1000))
			xobjects := core.Dict{"Im1": img}
			addPage(t, doc, xobjects, place("Im1", order[0], order[0]))
			addPage(t, doc, xobjects, place("Im1", order[1], order[1]))

			codec := newFakeCodec()
			if _, err := Run(context.Background(), input(t, doc, codec), Settings{TargetDPI: 100}); err != nil {
				t.Fatalf("Run failed: %v", err)
			}

			// 1000 px over 100 mm is 254 dpi; 100/254 of 1000 px is 394
			if c, _ := codec.call(img); c != [2]int{394, 394} {
				t.Errorf("expected 394x394, got %v", c)
			}
			if codec.total != 1 {
				t.Errorf("expected one codec call for the shared image, got %d", codec.total)
			}
		})
	}
}

func TestRunSkips(t *testing.T) {
	doc := document.New()

	noDims := rawImage(100, 100)
	noDims.Dict.Delete("Height")
	missing := doc.Add(noDims)
	degenerate := doc.Add(rawImage(100, 100))
	atTarget := doc.Add(rawImage(100, 100))
	jpx := rawImage(3000, 3000)
	jpx.Dict.Set("Filter", core.Name("JPXDecode"))
	unsupported := doc.Add(jpx)

	addPage(t, doc, core.Dict{
		"Missing": missing, "Degenerate": degenerate, "AtTarget": atTarget, "JPX": unsupported,
	}, place("Missing", 10, 10)+
		"q 0 0 0 0 0 0 cm /Degenerate Do Q\n"+
		place("AtTarget", 100, 100)+
		place("JPX", 10, 10))

	codec := newFakeCodec()
	report, err := Run(context.Background(), input(t, doc, codec), Settings{TargetDPI: 150})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := map[core.IndirectRef]SkipReason{
		missing:     SkipMissingDimensions,
		degenerate:  SkipDegenerateGeometry,
		atTarget:    SkipAtTarget,
		unsupported: SkipUnsupported,
	}
	got := skipReasons(report)
	for ref, reason := range want {
		if got[ref] != reason {
			t.Errorf("%s: expected skip %q, got %q", ref, reason, got[ref])
		}
	}
	if codec.total != 0 {
		t.Errorf("expected no codec calls, got %d", codec.total)
	}
	if report.Savings != (Savings{}) {
		t.Errorf("expected empty savings, got %+v", report.Savings)
	}
}

// TestRunSkipsUnreadable tests that one image with a broken dictionary
// does not stop the others, and that indirect filter entries resolve
func TestRunSkipsUnreadable(t *testing.T) {
	doc := document.New()
	good := doc.Add(rawImage(2000, 1000))
	indirect := rawImage(2000, 1000)
	indirect.Dict.Set("Filter", doc.Add(core.Array{core.Name("ASCIIHexDecode")}))
	indirectRef := doc.Add(indirect)
	broken := rawImage(2000, 1000)
	broken.Dict.Set("Filter", core.Int(3))
	brokenRef := doc.Add(broken)

	// The page content itself carries an indirect filter
	content := place("Good", 100, 50) + place("Indirect", 100, 50) + place("Broken", 100, 50)
	contents := doc.Add(&core.Stream{
		Dict: core.Dict{"Filter": doc.Add(core.Name("ASCIIHexDecode"))},
		Data: []byte(hex.EncodeToString([]byte(content)) + ">"),
	})
	if _, err := doc.AppendPage(core.Dict{
		"Resources": core.Dict{"XObject": core.Dict{"Good": good, "Indirect": indirectRef, "Broken": brokenRef}},
		"Contents":  contents,
	}); err != nil {
		t.Fatalf("AppendPage failed: %v", err)
	}

	codec := newFakeCodec()
	report, err := Run(context.Background(), input(t, doc, codec), Settings{TargetDPI: 150})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, ref := range []core.IndirectRef{good, indirectRef} {
		if c, ok := codec.call(ref); !ok || c != [2]int{591, 295} {
			t.Errorf("%s: expected rescale to 591x295, got %v (called %v)", ref, c, ok)
		}
	}
	if _, called := codec.call(brokenRef); called {
		t.Error("unreadable image reached the codec")
	}
	if got := skipReasons(report)[brokenRef]; got != SkipUnreadable {
		t.Errorf("expected skip %q, got %q", SkipUnreadable, got)
	}
	if report.Savings.Images != 2 {
		t.Errorf("expected 2 rescaled images, got %d", report.Savings.Images)
	}
}

// fixedWalker reports the same extents for every page.
type fixedWalker map[core.IndirectRef]model.Extent

func (w fixedWalker) Walk(page *document.Page, v graphicsstate.Visitor) error {
	for ref, ext := range w {
		if err := v.VisitDraw(graphicsstate.DrawEvent{Ref: ref, Extent: ext, Page: page.Index}); err != nil {
			return err
		}
	}
	return nil
}

func TestRunInvalidResolution(t *testing.T) {
	doc := document.New()
	tiny := doc.Add(rawImage(2000, 1000))
	flat := doc.Add(rawImage(2000, 1000))
	addPage(t, doc, core.Dict{}, "")

	in := input(t, doc, newFakeCodec())
	// A positive extent so small that the resolution overflows
	in.Walker = fixedWalker{
		tiny: {Width: 1e-320, Height: 1e-320},
		flat: {Width: 100, Height: 0},
	}
	report, err := Run(context.Background(), in, Settings{TargetDPI: 150})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got := skipReasons(report)
	if got[tiny] != SkipInvalidResolution {
		t.Errorf("expected skip %q, got %q", SkipInvalidResolution, got[tiny])
	}
	if got[flat] != SkipDegenerateGeometry {
		t.Errorf("expected skip %q, got %q", SkipDegenerateGeometry, got[flat])
	}
	for _, s := range report.Skipped {
		if s.Ref == tiny && !errors.Is(s.Err, ErrInvalidResolution) {
			t.Errorf("expected ErrInvalidResolution, got %v", s.Err)
		}
	}
}

// TestRunSavingsOnlyRescaled tests that images left at scale 1 are not
// counted
func TestRunSavingsOnlyRescaled(t *testing.T) {
	doc := document.New()
	big := doc.Add(rawImage(1200, 1200))
	small := doc.Add(rawImage(50, 50))
	addPage(t, doc, core.Dict{"Big": big, "Small": small},
		place("Big", 50.8, 50.8)+place("Small", 50.8, 50.8))

	codec := newFakeCodec()
	report, err := Run(context.Background(), input(t, doc, codec), Settings{TargetDPI: 300})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// 1200 px over 2 in is 600 dpi, halved to 600 px
	want := Savings{Images: 1, OriginalBytes: 1200 * 1200 * 3, NewBytes: 600 * 600}
	if report.Savings != want {
		t.Errorf("expected %+v, got %+v", want, report.Savings)
	}
	if _, called := codec.call(small); called {
		t.Error("image at target was re-encoded")
	}
}

func TestRunCodecFailure(t *testing.T) {
	build := func(t *testing.T) (*document.Document, core.IndirectRef, core.IndirectRef) {
		doc := document.New()
		bad := doc.Add(rawImage(1000, 1000))
		good := doc.Add(rawImage(1000, 1000))
		addPage(t, doc, core.Dict{"Bad": bad, "Good": good},
			place("Bad", 25.4, 25.4)+place("Good", 25.4, 25.4))
		return doc, bad, good
	}

	t.Run("continue", func(t *testing.T) {
		doc, bad, good := build(t)
		codec := newFakeCodec()
		codec.fail[bad] = true

		report, err := Run(context.Background(), input(t, doc, codec), Settings{TargetDPI: 100})
		if !errors.Is(err, ErrCodecFailure) {
			t.Fatalf("expected ErrCodecFailure, got %v", err)
		}
		if report == nil || len(report.Failures) != 1 || report.Failures[0].Ref != bad {
			t.Fatalf("unexpected failures: %+v", report)
		}
		if obj, _ := doc.Lookup(bad); obj.(*core.Stream).Dict["Width"] != core.Int(1000) {
			t.Error("failed image was modified")
		}
		if obj, _ := doc.Lookup(good); obj.(*core.Stream).Dict["Width"] != core.Int(100) {
			t.Error("good image was not replaced")
		}
		if report.Savings.Images != 1 {
			t.Errorf("expected 1 rescaled image, got %d", report.Savings.Images)
		}
	})

	t.Run("fail fast", func(t *testing.T) {
		doc, bad, good := build(t)
		codec := newFakeCodec()
		codec.fail[bad] = true

		report, err := Run(context.Background(), input(t, doc, codec),
			Settings{TargetDPI: 100, FailFast: true, Workers: 1})
		var codecErr *CodecError
		if !errors.As(err, &codecErr) || codecErr.Ref != bad {
			t.Fatalf("expected CodecError for %s, got %v", bad, err)
		}
		if len(report.Failures) != 1 {
			t.Errorf("expected 1 failure, got %d", len(report.Failures))
		}
		if _, called := codec.call(good); called {
			t.Error("run continued after failure")
		}
	})
}

func TestRunRealCodec(t *testing.T) {
	samples := make([]byte, 200*100*3)
	for i := range samples {
		samples[i] = byte(i % 251)
	}
	encoded, err := filters.FlateEncode(samples, filters.DefaultCompression)
	if err != nil {
		t.Fatalf("FlateEncode failed: %v", err)
	}
	img := rawImage(200, 100)
	img.Dict.Set("Filter", core.Name("FlateDecode"))
	img.Data = encoded

	doc := document.New()
	ref := doc.Add(img)
	addPage(t, doc, core.Dict{"Im1": ref}, place("Im1", 10, 5))

	report, err := Run(context.Background(), input(t, doc, nil), Settings{TargetDPI: 150, Workers: 2})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Rescaled() != 1 {
		t.Fatalf("expected 1 rescaled image, got %d", report.Rescaled())
	}

	obj, _ := doc.Lookup(ref)
	stream := obj.(*core.Stream)
	w, _ := stream.Dict.GetInt("Width")
	h, _ := stream.Dict.GetInt("Height")
	if w != 59 || h != 30 {
		t.Errorf("expected 59x30, got %dx%d", w, h)
	}
	data, err := stream.Decode()
	if err != nil {
		t.Fatalf("replacement does not decode: %v", err)
	}
	if len(data) != 59*30*3 {
		t.Errorf("expected %d samples, got %d", 59*30*3, len(data))
	}
}

func TestRunErrors(t *testing.T) {
	doc := document.New()
	img := doc.Add(rawImage(100, 100))
	addPage(t, doc, core.Dict{"Im1": img}, place("Im1", 1, 1))

	t.Run("invalid target", func(t *testing.T) {
		_, err := Run(context.Background(), input(t, doc, newFakeCodec()), Settings{TargetDPI: 0})
		if !errors.Is(err, ErrInvalidResolution) {
			t.Errorf("expected ErrInvalidResolution, got %v", err)
		}
	})

	t.Run("no table", func(t *testing.T) {
		if _, err := Run(context.Background(), Input{}, Settings{TargetDPI: 150}); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Run(ctx, input(t, doc, newFakeCodec()), Settings{TargetDPI: 150})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("walker error", func(t *testing.T) {
		bad := document.New()
		addPage(t, bad, core.Dict{}, "(unterminated")
		if _, err := Run(context.Background(), input(t, bad, newFakeCodec()), Settings{TargetDPI: 150}); err == nil {
			t.Error("expected walker error")
		}
	})
}

func TestRunVerboseLogging(t *testing.T) {
	tests := []struct {
		verbose bool
		want    bool
	}{
		{true, true},
		{false, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.verbose), func(t *testing.T) {
			doc := document.New()
			img := doc.Add(rawImage(1000, 1000))
			addPage(t, doc, core.Dict{"Im1": img}, place("Im1", 25.4, 25.4))

			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
			_, err := Run(context.Background(), input(t, doc, newFakeCodec()),
				Settings{TargetDPI: 100, Verbose: tt.verbose, Logger: logger})
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}

			out := buf.String()
			for _, msg := range []string{"current DPI of image", "resampling image with scale factor"} {
				if strings.Contains(out, msg) != tt.want {
					t.Errorf("verbose=%v: log contains %q = %v\n%s", tt.verbose, msg, !tt.want, out)
				}
			}
		})
	}
}
