package graphicsstate

import (
	"errors"
	"math"
	"testing"

	"github.com/tsawler/pdfmin/core"
	"github.com/tsawler/pdfmin/document"
	"github.com/tsawler/pdfmin/model"
)

func newStream(dict core.Dict, data string) *core.Stream {
	if dict == nil {
		dict = core.Dict{}
	}
	dict.Set("Length", core.Int(len(data)))
	return &core.Stream{Dict: dict, Data: []byte(data)}
}

func imageStream() *core.Stream {
	return newStream(core.Dict{
		"Type":    core.Name("XObject"),
		"Subtype": core.Name("Image"),
		"Width":   core.Int(10),
		"Height":  core.Int(10),
	}, "")
}

// onePage builds a document with a single page and returns that page.
func onePage(t *testing.T, doc *document.Document, page core.Dict) *document.Page {
	t.Helper()
	if _, err := doc.AppendPage(page); err != nil {
		t.Fatalf("AppendPage failed: %v", err)
	}
	pages, err := doc.Pages()
	if err != nil {
		t.Fatalf("Pages failed: %v", err)
	}
	return pages[len(pages)-1]
}

func collect(t *testing.T, page *document.Page) []DrawEvent {
	t.Helper()
	var events []DrawEvent
	err := NewWalker().Walk(page, VisitorFunc(func(ev DrawEvent) error {
		events = append(events, ev)
		return nil
	}))
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	return events
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestWalkImageExtent(t *testing.T) {
	doc := document.New()
	img := doc.Add(imageStream())
	page := onePage(t, doc, core.Dict{
		"Resources": core.Dict{"XObject": core.Dict{"Im1": img}},
		"Contents":  doc.Add(newStream(nil, "q 72 0 0 36 100 100 cm /Im1 Do Q")),
	})

	events := collect(t, page)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.Ref != img {
		t.Errorf("expected ref %s, got %s", img, ev.Ref)
	}
	if !approx(ev.Extent.Width, 25.4) || !approx(ev.Extent.Height, 12.7) {
		t.Errorf("expected 25.4x12.7 mm, got %vx%v", ev.Extent.Width, ev.Extent.Height)
	}
	if ev.Page != 0 {
		t.Errorf("expected page 0, got %d", ev.Page)
	}
}

func TestWalkExtents(t *testing.T) {
	tests := []struct {
		name    string
		content string
		page    core.Dict
		width   float64
		height  float64
	}{
		{"identity", "/Im1 Do", nil, 25.4 / 72, 25.4 / 72},
		{"mirrored", "-72 0 0 -72 0 0 cm /Im1 Do", nil, 25.4, 25.4},
		{"rotated 90", "0 72 -36 0 0 0 cm /Im1 Do", nil, 12.7, 25.4},
		{"nested cm", "2 0 0 2 0 0 cm 36 0 0 18 0 0 cm /Im1 Do", nil, 25.4, 12.7},
		{"restore discards scale", "q 10 0 0 10 0 0 cm Q 72 0 0 72 0 0 cm /Im1 Do", nil, 25.4, 25.4},
		{"unbalanced Q ignored", "Q Q 72 0 0 72 0 0 cm /Im1 Do", nil, 25.4, 25.4},
		{"user unit", "72 0 0 72 0 0 cm /Im1 Do", core.Dict{"UserUnit": core.Int(2)}, 50.8, 50.8},
		{"bad cm ignored", "72 0 0 72 0 0 cm (x) 0 0 1 0 0 cm /Im1 Do", nil, 25.4, 25.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := document.New()
			img := doc.Add(imageStream())
			page := core.Dict{}
			for k, v := range tt.page {
				page.Set(k, v)
			}
			page.Set("Resources", core.Dict{"XObject": core.Dict{"Im1": img}})
			page.Set("Contents", doc.Add(newStream(nil, tt.content)))

			events := collect(t, onePage(t, doc, page))
			if len(events) != 1 {
				t.Fatalf("expected 1 event, got %d", len(events))
			}
			got := events[0].Extent
			if !approx(got.Width, tt.width) || !approx(got.Height, tt.height) {
				t.Errorf("expected %vx%v, got %vx%v", tt.width, tt.height, got.Width, got.Height)
			}
		})
	}
}

// TestWalkRepeatedDraws tests that every draw yields an event
func TestWalkRepeatedDraws(t *testing.T) {
	doc := document.New()
	img := doc.Add(imageStream())
	page := onePage(t, doc, core.Dict{
		"Resources": core.Dict{"XObject": core.Dict{"Im1": img}},
		"Contents":  doc.Add(newStream(nil, "q 72 0 0 72 0 0 cm /Im1 Do Q q 144 0 0 144 0 0 cm /Im1 Do Q")),
	})

	events := collect(t, page)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if !approx(events[1].Extent.Width, 50.8) {
		t.Errorf("expected second draw 50.8 mm wide, got %v", events[1].Extent.Width)
	}
}

func TestWalkIgnoredDraws(t *testing.T) {
	doc := document.New()
	direct := imageStream()
	notStream := doc.Add(core.Dict{"Subtype": core.Name("Image")})
	ps := doc.Add(newStream(core.Dict{"Subtype": core.Name("PS")}, ""))
	page := onePage(t, doc, core.Dict{
		"Resources": core.Dict{"XObject": core.Dict{
			"Direct":    direct,
			"NotStream": notStream,
			"PS":        ps,
			"Dangling":  core.IndirectRef{Number: 999},
		}},
		"Contents": doc.Add(newStream(nil,
			"/Missing Do /Direct Do /NotStream Do /PS Do /Dangling Do 5 Do Do "+
				"BI /W 1 /H 1 /BPC 8 /CS /G ID \x00 EI")),
	})

	if events := collect(t, page); len(events) != 0 {
		t.Errorf("expected no events, got %v", events)
	}
}

// TestWalkContentsArray tests that q and Q pair up across content parts
func TestWalkContentsArray(t *testing.T) {
	doc := document.New()
	img := doc.Add(imageStream())
	page := onePage(t, doc, core.Dict{
		"Resources": core.Dict{"XObject": core.Dict{"Im1": img}},
		"Contents": core.Array{
			doc.Add(newStream(nil, "q 10 0 0 10 0 0 cm")),
			doc.Add(newStream(nil, "Q 72 0 0 72 0 0 cm /Im1 Do")),
		},
	})

	events := collect(t, page)
	if len(events) != 1 || !approx(events[0].Extent.Width, 25.4) {
		t.Errorf("unexpected events: %v", events)
	}
}

func TestWalkForm(t *testing.T) {
	doc := document.New()
	img := doc.Add(imageStream())
	form := doc.Add(newStream(core.Dict{
		"Subtype":   core.Name("Form"),
		"Matrix":    core.Array{core.Int(2), core.Int(0), core.Int(0), core.Int(2), core.Int(0), core.Int(0)},
		"Resources": core.Dict{"XObject": core.Dict{"Pic": img}},
	}, "q 36 0 0 36 0 0 cm /Pic Do Q Q Q"))
	page := onePage(t, doc, core.Dict{
		"Resources": core.Dict{"XObject": core.Dict{"Fm1": form, "Im1": img}},
		"Contents":  doc.Add(newStream(nil, "q 2 0 0 1 0 0 cm /Fm1 Do Q 72 0 0 72 0 0 cm /Im1 Do")),
	})

	events := collect(t, page)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	// 36pt x form matrix 2 x page cm (2, 1)
	if !approx(events[0].Extent.Width, 50.8) || !approx(events[0].Extent.Height, 25.4) {
		t.Errorf("form draw: expected 50.8x25.4, got %v", events[0].Extent)
	}
	// Unbalanced Q inside the form does not leak out
	if !approx(events[1].Extent.Width, 25.4) || !approx(events[1].Extent.Height, 25.4) {
		t.Errorf("page draw: expected 25.4x25.4, got %v", events[1].Extent)
	}
}

func TestWalkFormInheritsResources(t *testing.T) {
	doc := document.New()
	img := doc.Add(imageStream())
	form := doc.Add(newStream(core.Dict{"Subtype": core.Name("Form")}, "72 0 0 72 0 0 cm /Im1 Do"))
	page := onePage(t, doc, core.Dict{
		"Resources": core.Dict{"XObject": core.Dict{"Fm1": form, "Im1": img}},
		"Contents":  doc.Add(newStream(nil, "/Fm1 Do")),
	})

	events := collect(t, page)
	if len(events) != 1 || events[0].Ref != img {
		t.Errorf("unexpected events: %v", events)
	}
}

func TestWalkFormCycle(t *testing.T) {
	doc := document.New()
	img := doc.Add(imageStream())
	formRef := core.IndirectRef{Number: 100}
	doc.Set(formRef, newStream(core.Dict{
		"Subtype":   core.Name("Form"),
		"Resources": core.Dict{"XObject": core.Dict{"Self": formRef, "Im1": img}},
	}, "/Im1 Do /Self Do"))
	page := onePage(t, doc, core.Dict{
		"Resources": core.Dict{"XObject": core.Dict{"Fm1": formRef}},
		"Contents":  doc.Add(newStream(nil, "/Fm1 Do /Fm1 Do")),
	})

	// Each top-level draw enters the form once
	if events := collect(t, page); len(events) != 2 {
		t.Errorf("expected 2 events, got %d", len(events))
	}
}

func TestWalkVisitorError(t *testing.T) {
	doc := document.New()
	img := doc.Add(imageStream())
	page := onePage(t, doc, core.Dict{
		"Resources": core.Dict{"XObject": core.Dict{"Im1": img}},
		"Contents":  doc.Add(newStream(nil, "/Im1 Do /Im1 Do")),
	})

	stop := errors.New("stop")
	calls := 0
	err := NewWalker().Walk(page, VisitorFunc(func(DrawEvent) error {
		calls++
		return stop
	}))
	if !errors.Is(err, stop) {
		t.Errorf("expected visitor error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected walk to stop after 1 call, got %d", calls)
	}
}

func TestWalkParseError(t *testing.T) {
	doc := document.New()
	page := onePage(t, doc, core.Dict{
		"Contents": doc.Add(newStream(nil, "(unterminated")),
	})
	if err := NewWalker().Walk(page, VisitorFunc(func(DrawEvent) error { return nil })); err == nil {
		t.Error("expected parse error")
	}
}

func TestOperandsToMatrix(t *testing.T) {
	m, ok := operandsToMatrix([]core.Object{core.Int(1), core.Real(0.5), core.Int(0), core.Int(1), core.Int(3), core.Int(4)})
	if !ok || m != (model.Matrix{1, 0.5, 0, 1, 3, 4}) {
		t.Errorf("unexpected matrix %v, %v", m, ok)
	}
	if _, ok := operandsToMatrix([]core.Object{core.Int(1)}); ok {
		t.Error("expected failure for short operand list")
	}
}
