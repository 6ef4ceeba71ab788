package types

import (
	"errors"
	"image"

	"github.com/disintegration/imaging"
)

// ErrEmptyImage is returned for zero-sized images
var ErrEmptyImage = errors.New("image has no pixels")

// Mode is the color mode of a buffer
type Mode int

const (
	RGB Mode = iota
	RGBA
)

// String returns "RGB" or "RGBA"
func (m Mode) String() string {
	if m == RGBA {
		return "RGBA"
	}
	return "RGB"
}

// Buffer is decoded pixel data. Pixels are always stored as zero-origin
// NRGBA; Mode records whether any pixel is translucent.
type Buffer struct {
	Image *image.NRGBA
	Mode  Mode
}

// NewBuffer copies img into a fresh zero-origin NRGBA buffer
func NewBuffer(img image.Image) (*Buffer, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	return Wrap(imaging.Clone(img)), nil
}

// Wrap takes ownership of nrgba without copying
func Wrap(nrgba *image.NRGBA) *Buffer {
	mode := RGB
	if !nrgba.Opaque() {
		mode = RGBA
	}
	return &Buffer{Image: nrgba, Mode: mode}
}

// Width returns the width in pixels
func (b *Buffer) Width() int { return b.Image.Bounds().Dx() }

// Height returns the height in pixels
func (b *Buffer) Height() int { return b.Image.Bounds().Dy() }

// Clone returns a deep copy
func (b *Buffer) Clone() *Buffer {
	return &Buffer{Image: imaging.Clone(b.Image), Mode: b.Mode}
}

// Info returns basic metadata about the buffer
func (b *Buffer) Info() ImageInfo {
	w, h := b.Width(), b.Height()
	return ImageInfo{
		Width:       w,
		Height:      h,
		AspectRatio: float64(w) / float64(h),
		Mode:        b.Mode.String(),
	}
}

// ImageInfo contains basic image metadata
type ImageInfo struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AspectRatio float64 `json:"aspect_ratio"`
	Mode        string  `json:"mode"`
}
