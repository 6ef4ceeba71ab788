// Package preview renders debounced, single-flight previews of the
// pipeline on a bounded-size thumbnail of the source image.
package preview

import (
	"errors"
	"sync"
	"time"

	"github.com/gk-tools/imconvt/pkg/pipeline"
	"github.com/gk-tools/imconvt/pkg/processing"
	"github.com/gk-tools/imconvt/pkg/types"
)

// Defaults for Options
const (
	DefaultDelay        = 100 * time.Millisecond
	DefaultMaxDimension = 1920
)

// ErrNoSource is returned when a preview is rendered before SetSource
var ErrNoSource = errors.New("preview: no source image")

// RenderFunc produces a preview image from src and p
type RenderFunc func(src *types.Buffer, p types.Params) (*types.Buffer, error)

// Result is a delivered preview. Results are only delivered for the most
// recent request; superseded runs are dropped.
type Result struct {
	Image      *types.Buffer
	Params     types.Params
	Generation uint64
	Err        error
}

// Options configures a Scheduler
type Options struct {
	// Delay is the quiet period after the last Request before a run starts
	Delay time.Duration
	// MaxDimension bounds the longest side of the preview source
	MaxDimension int
	// OnResult receives each fresh result, one call at a time
	OnResult func(Result)
}

// Scheduler coalesces bursts of parameter changes into at most one
// pipeline run at a time
type Scheduler struct {
	render   RenderFunc
	delay    time.Duration
	maxDim   int
	onResult func(Result)
	codec    *processing.Processor

	mu      sync.Mutex
	source  *types.Buffer
	thumb   *types.Buffer
	latest  types.Params
	gen     uint64
	timer   *time.Timer
	pending bool
	running bool
	rerun   bool
	closed  bool
	idle    *sync.Cond
	wg      sync.WaitGroup
}

// New creates a Scheduler; a nil render uses pipeline.Transform
func New(render RenderFunc, opts Options) *Scheduler {
	if render == nil {
		render = pipeline.Transform
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = DefaultMaxDimension
	}
	s := &Scheduler{
		render:   render,
		delay:    opts.Delay,
		maxDim:   opts.MaxDimension,
		onResult: opts.OnResult,
		codec:    processing.NewProcessor(),
		latest:   types.DefaultParams(),
	}
	s.idle = sync.NewCond(&s.mu)
	return s
}

// SetSource replaces the source image. Any run in flight for the previous
// source is discarded when it completes.
func (s *Scheduler) SetSource(src *types.Buffer) {
	var thumb *types.Buffer
	if src != nil {
		thumb = s.codec.Thumbnail(src, s.maxDim)
	}

	s.mu.Lock()
	s.source = src
	s.thumb = thumb
	s.gen++
	s.mu.Unlock()
}

// Thumbnail returns the bounded preview source, or nil
func (s *Scheduler) Thumbnail() *types.Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.thumb
}

// Request records p as the latest parameters and restarts the debounce
// timer. It never blocks on rendering.
func (s *Scheduler) Request(p types.Params) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.gen
	}
	s.latest = p.Clone()
	s.gen++
	s.pending = true
	// a follow-up for an older expired timer would run before this one settles
	s.rerun = false
	if s.timer == nil {
		s.timer = time.AfterFunc(s.delay, s.fire)
	} else {
		s.timer.Reset(s.delay)
	}
	return s.gen
}

// Render runs the pipeline once on the thumbnail, bypassing the debounce.
// It cancels any pending request, waits for the run in flight and takes
// its slot, so the in-flight result is dropped and no two runs overlap.
func (s *Scheduler) Render(p types.Params) (*types.Buffer, error) {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.latest = p.Clone()
	s.gen++
	s.pending = false
	s.rerun = false
	for s.running {
		s.idle.Wait()
	}
	source, thumb := s.source, s.thumb
	if thumb == nil {
		s.mu.Unlock()
		return nil, ErrNoSource
	}
	s.running = true
	s.wg.Add(1)
	s.mu.Unlock()

	img, err := s.render(thumb, ThumbnailParams(source, thumb, p))

	s.mu.Lock()
	if s.rerun && !s.closed {
		// a debounced request expired while we held the slot
		s.rerun = false
		gen, next, source, thumb := s.gen, s.latest, s.source, s.thumb
		s.mu.Unlock()
		go s.run(gen, next, source, thumb)
		return img, err
	}
	s.running = false
	s.idle.Broadcast()
	s.mu.Unlock()
	s.wg.Done()
	return img, err
}

// Close cancels any pending run and waits for the one in flight, whose
// result is dropped
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.pending = false
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	if s.closed || !s.pending {
		s.mu.Unlock()
		return
	}
	s.pending = false
	if s.running {
		s.rerun = true
		s.mu.Unlock()
		return
	}
	s.running = true
	s.wg.Add(1)
	gen, p, source, thumb := s.gen, s.latest, s.source, s.thumb
	s.mu.Unlock()

	s.run(gen, p, source, thumb)
}

// run owns the slot taken by the caller and releases it when no expired
// request is waiting
func (s *Scheduler) run(gen uint64, p types.Params, source, thumb *types.Buffer) {
	defer s.wg.Done()

	for {
		res := Result{Params: p, Generation: gen}
		if thumb == nil {
			res.Err = ErrNoSource
		} else {
			res.Image, res.Err = s.render(thumb, ThumbnailParams(source, thumb, p))
		}

		s.mu.Lock()
		fresh := gen == s.gen && !s.closed
		again := s.rerun && !s.closed
		s.rerun = false
		if again {
			gen, p, source, thumb = s.gen, s.latest, s.source, s.thumb
		} else {
			s.running = false
			s.idle.Broadcast()
		}
		s.mu.Unlock()

		if fresh && s.onResult != nil {
			s.onResult(res)
		}
		if !again {
			return
		}
	}
}

// ThumbnailParams maps p from source pixel space into thumbnail space.
// Only the crop rect of an identity resize needs mapping: with a resize the
// crop is already expressed in the resized grid.
func ThumbnailParams(source, thumb *types.Buffer, p types.Params) types.Params {
	if p.Crop == nil || !p.Resize.Empty() || source == nil || thumb == nil {
		return p
	}
	sw, tw := source.Width(), thumb.Width()
	sh, th := source.Height(), thumb.Height()
	if sw == tw && sh == th {
		return p
	}

	p = p.Clone()
	p.Crop.X1 = p.Crop.X1 * tw / sw
	p.Crop.X2 = p.Crop.X2 * tw / sw
	p.Crop.Y1 = p.Crop.Y1 * th / sh
	p.Crop.Y2 = p.Crop.Y2 * th / sh
	return p
}
