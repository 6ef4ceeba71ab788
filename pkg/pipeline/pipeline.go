// Package pipeline implements the ordered image transform chain:
// resize, color adjust, overlay composite, crop and encode.
//
// Stage order is fixed. Overlay placement and crop coordinates are defined
// in the pixel grid of the buffer produced by the preceding stages, not in
// the source image's grid.
//
// Every stage consumes one buffer and returns a new one, so a caller may
// keep the source buffer and re-run the pipeline with different
// parameters. Failures are reported as *StageError values naming the stage.
package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/gk-tools/imconvt/pkg/cropper"
	"github.com/gk-tools/imconvt/pkg/processing"
	"github.com/gk-tools/imconvt/pkg/types"
)

// Stage names a pipeline step for error attribution
type Stage string

const (
	StageDecode  Stage = "decode"
	StageResize  Stage = "resize"
	StageAdjust  Stage = "adjust"
	StageOverlay Stage = "overlay"
	StageCrop    Stage = "crop"
	StageEncode  Stage = "encode"
	StageWrite   Stage = "write"
)

// StageError attributes a failure to the stage that produced it
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf returns the stage of the first *StageError in err's chain, or ""
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

func stageErr(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// Result is the output of a full pipeline run
type Result struct {
	Image  *types.Buffer
	Data   []byte
	Format types.Format
}

var codec = processing.NewProcessor()

// Load decodes a source file; failures are reported as StageDecode
func Load(path string) (*types.Buffer, error) {
	buf, err := codec.LoadImage(path)
	if err != nil {
		return nil, stageErr(StageDecode, err)
	}
	return buf, nil
}

// Transform runs the resize, adjust, overlay and crop stages
func Transform(src *types.Buffer, p types.Params) (*types.Buffer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return transform(src, p)
}

func transform(src *types.Buffer, p types.Params) (*types.Buffer, error) {
	if src == nil || src.Image == nil || src.Image.Bounds().Empty() {
		return nil, stageErr(StageResize, types.ErrEmptyImage)
	}

	b := src.Image.Bounds()
	if w, h, ok := TargetSize(b.Dx(), b.Dy(), p.Resize); ok && (w > types.MaxDimension || h > types.MaxDimension) {
		return nil, stageErr(StageResize, fmt.Errorf("%w: %dx%d exceeds %d", types.ErrInvalidDimension, w, h, types.MaxDimension))
	}

	img := ResizeStage(src.Image, p.Resize)
	img = Adjust(img, p.Adjust)
	img = Composite(img, p.Overlay)
	img = DrawText(img, p.Text)
	img = CropStage(img, p.Crop)

	return types.Wrap(img), nil
}

// Run executes every stage and returns the encoded bytes. Configuration
// errors are returned before any stage runs.
func Run(src *types.Buffer, p types.Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	out, err := transform(src, p)
	if err != nil {
		return nil, err
	}

	data, err := Encode(out.Image, p.Output)
	if err != nil {
		return nil, stageErr(StageEncode, err)
	}

	return &Result{
		Image:  out,
		Data:   data,
		Format: p.Output.Format,
	}, nil
}

// Encode serializes img in the requested format
func Encode(img image.Image, out types.OutputSpec) ([]byte, error) {
	var buf bytes.Buffer
	if err := codec.Encode(&buf, img, out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CropStage applies rect when it is present and normalized
func CropStage(img *image.NRGBA, rect *types.CropRect) *image.NRGBA {
	if rect == nil {
		return imaging.Clone(img)
	}
	return cropper.Apply(img, *rect)
}
