package viewport

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gk-tools/imconvt/pkg/types"
)

func testBuffer(width, height int) *types.Buffer {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x), uint8(y), 80, 255})
		}
	}
	return types.Wrap(img)
}

func wheel(delta int) Event { return Event{Kind: Wheel, Delta: delta} }

func TestZoomClamps(t *testing.T) {
	l := DefaultLimits()
	s := InitialState()

	for i := 0; i < 100; i++ {
		s = l.Reduce(s, wheel(1))
	}
	if s.Scale != l.MaxScale {
		t.Errorf("Expected scale clamped to %v, got %v", l.MaxScale, s.Scale)
	}

	for i := 0; i < 200; i++ {
		s = l.Reduce(s, wheel(-1))
	}
	if s.Scale != l.MinScale {
		t.Errorf("Expected scale clamped to %v, got %v", l.MinScale, s.Scale)
	}
}

func TestZoomSteps(t *testing.T) {
	l := DefaultLimits()

	s := l.Reduce(InitialState(), wheel(1))
	if s.Scale != 1.1 {
		t.Errorf("Expected 1.1 after zoom in, got %v", s.Scale)
	}
	s = l.Reduce(InitialState(), wheel(-3))
	if s.Scale != 0.9 {
		t.Errorf("Expected 0.9 after zoom out, got %v", s.Scale)
	}
	s = l.Reduce(InitialState(), wheel(0))
	if s.Scale != 1 {
		t.Errorf("Zero delta should not zoom, got %v", s.Scale)
	}
}

func TestNewFillsZeroLimits(t *testing.T) {
	v := New(Limits{Canvas: image.Rect(0, 0, 100, 100)})
	v.Handle(Event{Kind: Wheel, Delta: 1})
	if got := v.State().Scale; got != 1.1 {
		t.Errorf("Expected scale 1.1 after one zoom step, got %v", got)
	}
	for i := 0; i < 100; i++ {
		v.Handle(Event{Kind: Wheel, Delta: -1})
	}
	if got := v.State().Scale; got != 0.1 {
		t.Errorf("Expected scale clamped to 0.1, got %v", got)
	}
	if v.limits.Canvas != image.Rect(0, 0, 100, 100) {
		t.Errorf("Canvas lost: %v", v.limits.Canvas)
	}
}

func TestZoomAnchoredAtOrigin(t *testing.T) {
	l := DefaultLimits()
	s := State{Scale: 1, Offset: image.Pt(30, -12)}

	s = l.Reduce(s, Event{Kind: Wheel, Delta: 1, Point: image.Pt(200, 200)})
	if s.Offset != image.Pt(30, -12) {
		t.Errorf("Zoom moved the offset to %v", s.Offset)
	}
}

func TestPan(t *testing.T) {
	l := DefaultLimits()
	l.Canvas = image.Rect(0, 0, 400, 300)

	events := []Event{
		{Kind: Move, Point: image.Pt(10, 10)}, // ignored while idle
		{Kind: Press, Point: image.Pt(100, 100)},
		{Kind: Move, Point: image.Pt(120, 90)},
		{Kind: Move, Point: image.Pt(125, 95)},
		{Kind: Release},
		{Kind: Move, Point: image.Pt(300, 300)},
	}
	s := InitialState()
	for _, ev := range events {
		s = l.Reduce(s, ev)
	}

	want := State{Scale: 1, Offset: image.Pt(25, -5), Mode: Idle, Anchor: image.Pt(125, 95)}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("State mismatch (-want +got):\n%s", diff)
	}
}

func TestPressOutsideCanvasIgnored(t *testing.T) {
	l := DefaultLimits()
	l.Canvas = image.Rect(0, 0, 100, 100)

	s := l.Reduce(InitialState(), Event{Kind: Press, Point: image.Pt(150, 20)})
	if s.Mode != Idle {
		t.Error("Press outside the canvas should not start a drag")
	}
}

func TestReset(t *testing.T) {
	l := DefaultLimits()
	s := State{Scale: 3, Offset: image.Pt(5, 5), Mode: Dragging}

	if got := l.Reduce(s, Event{Kind: Reset}); got != InitialState() {
		t.Errorf("Reset returned %+v", got)
	}
}

func TestRenderScalesAndIsIdempotent(t *testing.T) {
	v := New(DefaultLimits())
	if _, ok := v.Render(); ok {
		t.Error("Render without an image should report false")
	}

	v.Load(testBuffer(200, 100))
	v.Handle(wheel(-1))

	first, ok := v.Render()
	if !ok {
		t.Fatal("Render failed")
	}
	if first.Image.Bounds().Dx() != 180 || first.Image.Bounds().Dy() != 90 {
		t.Errorf("Expected 180x90, got %v", first.Image.Bounds())
	}

	second, _ := v.Render()
	if !bytes.Equal(first.Image.Pix, second.Image.Pix) || first.Offset != second.Offset {
		t.Error("Render is not idempotent")
	}

	v.Handle(Event{Kind: Press, Point: image.Pt(0, 0)})
	v.Handle(Event{Kind: Move, Point: image.Pt(7, 3)})
	panned, _ := v.Render()
	if panned.Image != first.Image {
		t.Error("Panning should reuse the scaled image")
	}
	if panned.Offset != image.Pt(7, 3) {
		t.Errorf("Expected offset (7,3), got %v", panned.Offset)
	}
}

func TestRenderAtLeastOnePixel(t *testing.T) {
	v := New(DefaultLimits())
	v.Load(testBuffer(5, 3))
	for i := 0; i < 50; i++ {
		v.Handle(wheel(-1))
	}

	f, _ := v.Render()
	b := f.Image.Bounds()
	if b.Dx() < 1 || b.Dy() < 1 {
		t.Errorf("Rendered image is empty: %v", b)
	}

	if w, h := ScaledSize(5, 3, 0.1); w != 1 || h != 1 {
		t.Errorf("ScaledSize = %dx%d, want 1x1", w, h)
	}
}

func TestLoadResetsAndSetImageKeeps(t *testing.T) {
	v := New(DefaultLimits())
	v.Load(testBuffer(40, 40))
	v.Handle(wheel(1))
	v.Handle(Event{Kind: Press, Point: image.Pt(1, 1)})
	v.Handle(Event{Kind: Move, Point: image.Pt(11, 1)})

	v.SetImage(testBuffer(20, 20))
	s := v.State()
	if s.Scale != 1.1 || s.Offset != image.Pt(10, 0) {
		t.Errorf("SetImage should keep state, got %+v", s)
	}
	f, _ := v.Render()
	if f.Image.Bounds().Dx() != 22 {
		t.Errorf("Expected the replaced image at scale 1.1, got %v", f.Image.Bounds())
	}

	v.Load(testBuffer(20, 20))
	if v.State() != InitialState() {
		t.Errorf("Load should reset state, got %+v", v.State())
	}
}

func TestFrameCompose(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	f := Frame{Image: img, Offset: image.Pt(2, 1), Scale: 1}

	canvas := f.Compose(10, 8, color.Black)
	if canvas.Bounds().Dx() != 10 || canvas.Bounds().Dy() != 8 {
		t.Fatalf("Unexpected canvas size %v", canvas.Bounds())
	}
	if got := canvas.NRGBAAt(2, 1); got != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("Expected image pixel at offset, got %v", got)
	}
	if got := canvas.NRGBAAt(0, 0); got != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("Expected background at origin, got %v", got)
	}
}
