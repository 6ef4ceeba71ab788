package pipeline

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/gk-tools/imconvt/pkg/types"
)

// TargetSize computes the output dimensions for spec applied to a
// srcW x srcH image. ok is false when spec has no target dimensions.
//
// With KeepRatio the height is derived from the width as
// floor(W * srcH / srcW), ignoring any requested height; when only a height
// is given the width is derived the same way. Without KeepRatio a missing
// dimension keeps the source value. Both results are at least 1.
func TargetSize(srcW, srcH int, spec types.ResizeSpec) (w, h int, ok bool) {
	if spec.Empty() || srcW <= 0 || srcH <= 0 {
		return srcW, srcH, false
	}

	w, h = spec.Width, spec.Height
	switch {
	case spec.KeepRatio && w > 0:
		h = w * srcH / srcW
	case spec.KeepRatio:
		w = h * srcW / srcH
	default:
		if w <= 0 {
			w = srcW
		}
		if h <= 0 {
			h = srcH
		}
	}

	return max(1, w), max(1, h), true
}

// Filter picks the resampling filter for a size change: Lanczos whenever
// either axis shrinks, bilinear for pure enlargement.
func Filter(srcW, srcH, dstW, dstH int) imaging.ResampleFilter {
	if dstW < srcW || dstH < srcH {
		return imaging.Lanczos
	}
	return imaging.Linear
}

// Resample scales img to w x h using Filter. An unchanged size yields an
// exact copy.
func Resample(img image.Image, w, h int) *image.NRGBA {
	b := img.Bounds()
	w, h = max(1, w), max(1, h)
	if w == b.Dx() && h == b.Dy() {
		return imaging.Clone(img)
	}
	return imaging.Resize(img, w, h, Filter(b.Dx(), b.Dy(), w, h))
}

// ResizeStage applies spec to img
func ResizeStage(img *image.NRGBA, spec types.ResizeSpec) *image.NRGBA {
	b := img.Bounds()
	w, h, ok := TargetSize(b.Dx(), b.Dy(), spec)
	if !ok {
		return imaging.Clone(img)
	}
	return Resample(img, w, h)
}
