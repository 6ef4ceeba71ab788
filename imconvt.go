// Package imconvt converts, resizes and color-adjusts images, one at a time
// or whole folders at once, with a debounced live preview and a zoomable
// viewport.
//
// Basic usage:
//
//	package main
//
//	import (
//		"log"
//
//		"github.com/gk-tools/imconvt"
//		"github.com/gk-tools/imconvt/pkg/types"
//	)
//
//	func main() {
//		s := imconvt.New(imconvt.Options{})
//		defer s.Close()
//
//		if err := s.Open("photo.jpg"); err != nil {
//			log.Fatal(err)
//		}
//
//		p := s.Params()
//		p.Resize = types.ResizeSpec{Width: 1280, KeepRatio: true}
//		p.Adjust.Contrast = 1.2
//		p.Output.Format = types.WEBP
//		if err := s.SetParams(p); err != nil {
//			log.Fatal(err)
//		}
//
//		if _, err := s.Save("photo.webp"); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// The package ties together four components:
//
// 1. Pipeline (pkg/pipeline): resize, adjust, overlay, crop and encode
// 2. Batch (pkg/batch): folder conversion on a fixed worker pool
// 3. Preview (pkg/preview): debounced single-flight preview rendering
// 4. Viewport (pkg/viewport): zoom and pan over the displayed image
package imconvt

import (
	"context"
	"fmt"
	"sync"

	"github.com/gk-tools/imconvt/internal/config"
	"github.com/gk-tools/imconvt/internal/utils"
	"github.com/gk-tools/imconvt/pkg/batch"
	"github.com/gk-tools/imconvt/pkg/pipeline"
	"github.com/gk-tools/imconvt/pkg/preview"
	"github.com/gk-tools/imconvt/pkg/processing"
	"github.com/gk-tools/imconvt/pkg/types"
	"github.com/gk-tools/imconvt/pkg/viewport"
)

// Version of the imconvt library
const Version = "1.0.0"

// Options configures a Session
type Options struct {
	Preview preview.Options
	Limits  viewport.Limits
	Batch   batch.Options
	// Params are the initial parameters; DefaultParams when zero
	Params *types.Params
}

// Session holds the state of one interactive editing session: the loaded
// source image, the current parameters, the preview scheduler and the
// viewport showing its results.
type Session struct {
	mu     sync.Mutex
	codec  *processing.Processor
	source *types.Buffer
	path   string
	params types.Params

	preview *preview.Scheduler
	view    *viewport.Viewport
	batch   *batch.Executor
}

// New creates a Session
func New(opts Options) *Session {
	s := &Session{
		codec:  processing.NewProcessor(),
		params: types.DefaultParams(),
		view:   viewport.New(opts.Limits),
		batch:  batch.New(opts.Batch),
	}
	if opts.Params != nil {
		s.params = opts.Params.Clone()
	}

	onResult := opts.Preview.OnResult
	opts.Preview.OnResult = func(res preview.Result) {
		if res.Err == nil {
			s.view.SetImage(res.Image)
		}
		if onResult != nil {
			onResult(res)
		}
	}
	s.preview = preview.New(nil, opts.Preview)
	return s
}

// NewWithConfig creates a Session from a validated configuration
func NewWithConfig(cfg *config.Config) (*Session, error) {
	params, err := cfg.Params()
	if err != nil {
		return nil, err
	}
	return New(Options{
		Preview: cfg.PreviewOptions(),
		Limits:  cfg.ViewportLimits(),
		Batch:   cfg.BatchOptions(),
		Params:  &params,
	}), nil
}

// Open loads a source image from a file path or http(s) URL. On failure
// the previously loaded image stays displayed.
func (s *Session) Open(source string) error {
	buf, err := s.codec.LoadImageSmart(source)
	if err != nil {
		return &pipeline.StageError{Stage: pipeline.StageDecode, Err: err}
	}

	s.mu.Lock()
	s.source = buf
	s.path = source
	params := s.params
	s.mu.Unlock()

	s.preview.SetSource(buf)
	s.view.Load(s.preview.Thumbnail())
	s.preview.Request(params)
	return nil
}

// Source returns the loaded image and its path, or nil
func (s *Session) Source() (*types.Buffer, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source, s.path
}

// Params returns a copy of the current parameters
func (s *Session) Params() types.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params.Clone()
}

// SetParams validates and stores p, then schedules a preview
func (s *Session) SetParams(p types.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p = p.Clone()

	s.mu.Lock()
	s.params = p
	loaded := s.source != nil
	s.mu.Unlock()

	if loaded {
		s.preview.Request(p)
	}
	return nil
}

// Update applies fn to a copy of the current parameters and stores the result
func (s *Session) Update(fn func(*types.Params)) error {
	p := s.Params()
	fn(&p)
	return s.SetParams(p)
}

// Info returns metadata for the loaded image
func (s *Session) Info() (types.ImageInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source == nil {
		return types.ImageInfo{}, false
	}
	return s.source.Info(), true
}

// Preview renders the current parameters on the preview thumbnail
// immediately, bypassing the debounce
func (s *Session) Preview() (*types.Buffer, error) {
	img, err := s.preview.Render(s.Params())
	if err != nil {
		return nil, err
	}
	s.view.SetImage(img)
	return img, nil
}

// Viewport returns the viewport showing preview results
func (s *Session) Viewport() *viewport.Viewport {
	return s.view
}

// Render runs the pipeline on the full-resolution source
func (s *Session) Render() (*pipeline.Result, error) {
	s.mu.Lock()
	src, params := s.source, s.params
	s.mu.Unlock()

	if src == nil {
		return nil, fmt.Errorf("no image loaded")
	}
	return pipeline.Run(src, params)
}

// Save renders the full-resolution source and writes it to dest
func (s *Session) Save(dest string) (*pipeline.Result, error) {
	res, err := s.Render()
	if err != nil {
		return nil, err
	}
	if err := utils.WriteFileAtomic(dest, res.Data); err != nil {
		return nil, &pipeline.StageError{Stage: pipeline.StageWrite, Err: err}
	}
	return res, nil
}

// Batch converts files into outDir with the current parameters, taken once
// for the whole batch
func (s *Session) Batch(ctx context.Context, files []string, outDir, prefix string) []batch.Result {
	jobs := batch.Plan(files, outDir, prefix, s.Params())
	return s.batch.Run(ctx, jobs)
}

// BatchProgress returns the running batch's progress
func (s *Session) BatchProgress() batch.Progress {
	return s.batch.Progress()
}

// StopBatch stops the running batch after its in-flight jobs
func (s *Session) StopBatch() {
	s.batch.Stop()
}

// Close stops preview rendering
func (s *Session) Close() {
	s.preview.Close()
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
