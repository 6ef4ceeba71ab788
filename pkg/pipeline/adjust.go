package pipeline

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/disintegration/imaging"

	"github.com/gk-tools/imconvt/pkg/types"
)

// smoothKernel is the 3x3 smoothing filter sharpness blends away from
var smoothKernel = [9]float64{
	1, 1, 1,
	1, 5, 1,
	1, 1, 1,
}

// Adjust applies brightness, contrast, saturation and sharpness in that
// order. Each enhancement interpolates between a degenerate image and the
// input by its factor; a factor of exactly 1.0 is skipped so the identity
// parameters return a bit-exact copy.
func Adjust(img *image.NRGBA, p types.AdjustmentParams) *image.NRGBA {
	out := imaging.Clone(img)
	if p.Brightness != 1 {
		out = Brightness(out, p.Brightness)
	}
	if p.Contrast != 1 {
		out = Contrast(out, p.Contrast)
	}
	if p.Saturation != 1 {
		out = Saturation(out, p.Saturation)
	}
	if p.Sharpness != 1 {
		out = Sharpness(out, p.Sharpness)
	}
	return out
}

// Brightness scales each channel toward black
func Brightness(img *image.NRGBA, factor float64) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: blend(0, c.R, factor),
			G: blend(0, c.G, factor),
			B: blend(0, c.B, factor),
			A: c.A,
		}
	})
}

// Contrast moves each channel away from (or toward) the mean luma
func Contrast(img *image.NRGBA, factor float64) *image.NRGBA {
	mean := meanLuma(img)
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: blend(mean, c.R, factor),
			G: blend(mean, c.G, factor),
			B: blend(mean, c.B, factor),
			A: c.A,
		}
	})
}

// Saturation interpolates each pixel against its own gray level
func Saturation(img *image.NRGBA, factor float64) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		l := luma(c.R, c.G, c.B)
		return color.NRGBA{
			R: blend(l, c.R, factor),
			G: blend(l, c.G, factor),
			B: blend(l, c.B, factor),
			A: c.A,
		}
	})
}

// Sharpness interpolates against a smoothed copy. Factors above 1 sharpen,
// below 1 blur. The outermost pixel ring is left as is.
func Sharpness(img *image.NRGBA, factor float64) *image.NRGBA {
	smooth := imaging.Convolve3x3(img, smoothKernel, &imaging.ConvolveOptions{Normalize: true})
	out := imaging.Clone(img)
	b := out.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 3 || h < 3 {
		return out
	}

	parallel.Line(h, func(start, end int) {
		for y := max(start, 1); y < min(end, h-1); y++ {
			row := y * out.Stride
			for x := 1; x < w-1; x++ {
				i := row + x*4
				for c := 0; c < 3; c++ {
					out.Pix[i+c] = blend(float64(smooth.Pix[i+c]), out.Pix[i+c], factor)
				}
			}
		}
	})
	return out
}

// blend returns degenerate + (v - degenerate) * factor, rounded and clamped
func blend(degenerate float64, v uint8, factor float64) uint8 {
	return clampUint8(degenerate + (float64(v)-degenerate)*factor)
}

func clampUint8(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// luma is the ITU-R 601-2 gray level in fixed point
func luma(r, g, b uint8) float64 {
	return float64((uint32(r)*19595 + uint32(g)*38470 + uint32(b)*7471 + 0x8000) >> 16)
}

// meanLuma is the average gray level rounded to an integer
func meanLuma(img *image.NRGBA) float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return 0
	}
	var sum uint64
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < len(row); x += 4 {
			sum += uint64(luma(row[x], row[x+1], row[x+2]))
		}
	}
	return math.Floor(float64(sum)/float64(w*h) + 0.5)
}
