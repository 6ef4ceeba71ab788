// Package viewport implements zoom and pan over a displayed image.
//
// Input handling is a pure reducer over explicit events, so the geometry can
// be tested without any UI. Viewport wraps the reducer with the current image
// and a render cache.
package viewport

import (
	"image"
	"image/color"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/gk-tools/imconvt/pkg/pipeline"
	"github.com/gk-tools/imconvt/pkg/types"
)

// Mode is the pointer interaction state
type Mode int

const (
	Idle Mode = iota
	Dragging
)

// State is the zoom and pan state. Offset is where the image's top-left
// corner is drawn in canvas coordinates.
type State struct {
	Scale  float64
	Offset image.Point
	Mode   Mode
	Anchor image.Point
}

// InitialState is the state after loading an image
func InitialState() State {
	return State{Scale: 1}
}

// EventKind enumerates viewport input events
type EventKind int

const (
	Press EventKind = iota
	Move
	Release
	Wheel
	Reset
)

// Event is one input event. Point is in canvas coordinates; Delta is the
// wheel direction, positive to zoom in.
type Event struct {
	Kind  EventKind
	Point image.Point
	Delta int
}

// Limits bounds the zoom factor
type Limits struct {
	MinScale float64
	MaxScale float64
	ZoomIn   float64
	ZoomOut  float64
	// Canvas is the drawable area; presses outside it are ignored. An
	// empty rectangle accepts every press.
	Canvas image.Rectangle
}

// DefaultLimits returns the standard zoom limits
func DefaultLimits() Limits {
	return Limits{MinScale: 0.1, MaxScale: 10, ZoomIn: 1.1, ZoomOut: 0.9}
}

// withDefaults fills zero fields from DefaultLimits
func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MinScale <= 0 {
		l.MinScale = d.MinScale
	}
	if l.MaxScale <= 0 {
		l.MaxScale = d.MaxScale
	}
	if l.ZoomIn <= 0 {
		l.ZoomIn = d.ZoomIn
	}
	if l.ZoomOut <= 0 {
		l.ZoomOut = d.ZoomOut
	}
	return l
}

// Reduce returns the state after ev. Zoom is anchored at the canvas origin,
// so the offset is unchanged by Wheel events.
func (l Limits) Reduce(s State, ev Event) State {
	switch ev.Kind {
	case Press:
		if !l.Canvas.Empty() && !ev.Point.In(l.Canvas) {
			return s
		}
		s.Mode = Dragging
		s.Anchor = ev.Point
	case Move:
		if s.Mode != Dragging {
			return s
		}
		s.Offset = s.Offset.Add(ev.Point.Sub(s.Anchor))
		s.Anchor = ev.Point
	case Release:
		s.Mode = Idle
	case Wheel:
		switch {
		case ev.Delta > 0:
			s.Scale = l.clamp(s.Scale * l.ZoomIn)
		case ev.Delta < 0:
			s.Scale = l.clamp(s.Scale * l.ZoomOut)
		}
	case Reset:
		return InitialState()
	}
	return s
}

func (l Limits) clamp(scale float64) float64 {
	if scale < l.MinScale {
		return l.MinScale
	}
	if scale > l.MaxScale {
		return l.MaxScale
	}
	return scale
}

// Frame is a rendered view: the scaled image and where to draw it
type Frame struct {
	Image  *image.NRGBA
	Offset image.Point
	Scale  float64
}

// Compose draws the frame onto a width x height canvas filled with bg
func (f Frame) Compose(width, height int, bg color.Color) *image.NRGBA {
	canvas := imaging.New(width, height, bg)
	if f.Image == nil {
		return canvas
	}
	return imaging.Paste(canvas, f.Image, f.Offset)
}

// Viewport holds the displayed image and its zoom/pan state
type Viewport struct {
	mu     sync.Mutex
	limits Limits
	state  State
	image  *types.Buffer

	cached      *image.NRGBA
	cachedScale float64
}

// New creates an empty viewport
func New(limits Limits) *Viewport {
	return &Viewport{limits: limits.withDefaults(), state: InitialState()}
}

// Load displays a new image and resets zoom and pan
func (v *Viewport) Load(img *types.Buffer) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.image = img
	v.state = InitialState()
	v.cached = nil
}

// SetImage replaces the displayed pixels, keeping zoom and pan
func (v *Viewport) SetImage(img *types.Buffer) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.image = img
	v.cached = nil
}

// SetCanvas sets the drawable area used to filter presses
func (v *Viewport) SetCanvas(r image.Rectangle) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.limits.Canvas = r
}

// Handle applies ev and returns the new state
func (v *Viewport) Handle(ev Event) State {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = v.limits.Reduce(v.state, ev)
	return v.state
}

// State returns the current state
func (v *Viewport) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Render returns the image scaled to the current zoom. Each dimension is
// at least one pixel. The scaled image is cached per scale, so panning
// never resamples.
func (v *Viewport) Render() (Frame, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.image == nil || v.image.Image == nil {
		return Frame{}, false
	}
	if v.cached == nil || v.cachedScale != v.state.Scale {
		w, h := ScaledSize(v.image.Width(), v.image.Height(), v.state.Scale)
		v.cached = pipeline.Resample(v.image.Image, w, h)
		v.cachedScale = v.state.Scale
	}
	return Frame{Image: v.cached, Offset: v.state.Offset, Scale: v.state.Scale}, true
}

// ScaledSize returns (max(1, floor(w*scale)), max(1, floor(h*scale)))
func ScaledSize(w, h int, scale float64) (int, int) {
	return max(1, int(float64(w)*scale)), max(1, int(float64(h)*scale))
}
