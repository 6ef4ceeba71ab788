package pipeline

import (
	"image"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/gk-tools/imconvt/pkg/types"
)

// OverlayLimit is the longest side an overlay may have on a hostW x hostH image
func OverlayLimit(hostW, hostH int, scale float64) int {
	if scale <= 0 {
		scale = types.DefaultOverlayScale
	}
	return int(scale * float64(min(hostW, hostH)))
}

// AnchorPoint returns the top-left position for a w x h box placed at the
// anchor corner of a hostW x hostH image with margin, clamped so the box
// starts inside the host.
func AnchorPoint(hostW, hostH, w, h int, anchor types.Anchor, margin int) image.Point {
	x, y := margin, margin
	switch anchor {
	case types.TopRight:
		x = hostW - w - margin
	case types.BottomLeft:
		y = hostH - h - margin
	case types.BottomRight:
		x = hostW - w - margin
		y = hostH - h - margin
	}
	return image.Pt(clampInt(x, 0, max(0, hostW-w)), clampInt(y, 0, max(0, hostH-h)))
}

// FitOverlay scales logo down, never up, so its longest side is at most limit
func FitOverlay(logo image.Image, limit int) *image.NRGBA {
	if limit < 1 {
		return nil
	}
	fitted := imaging.Fit(logo, limit, limit, imaging.Lanczos)
	if fitted.Bounds().Empty() {
		return nil
	}
	return fitted
}

// Composite alpha-blends spec's image onto host. A nil spec or an overlay
// that fits into zero pixels leaves the host unchanged.
func Composite(host *image.NRGBA, spec *types.OverlaySpec) *image.NRGBA {
	out := imaging.Clone(host)
	if spec == nil || spec.Image == nil || spec.Image.Image == nil {
		return out
	}

	hb := out.Bounds()
	logo := FitOverlay(spec.Image.Image, OverlayLimit(hb.Dx(), hb.Dy(), spec.Scale))
	if logo == nil {
		return out
	}
	lb := logo.Bounds()
	pos := AnchorPoint(hb.Dx(), hb.Dy(), lb.Dx(), lb.Dy(), spec.Anchor, spec.Margin)
	over(out, logo, pos)
	return out
}

// over composites src onto dst at pos using straight alpha. Pixels with
// zero alpha are skipped so the destination bytes stay untouched.
// Both images must have zero-origin bounds.
func over(dst, src *image.NRGBA, pos image.Point) {
	r := image.Rectangle{Min: pos, Max: pos.Add(src.Bounds().Size())}.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}

	parallel.Line(r.Dy(), func(start, end int) {
		for y := r.Min.Y + start; y < r.Min.Y+end; y++ {
			di := y*dst.Stride + r.Min.X*4
			si := (y-pos.Y)*src.Stride + (r.Min.X-pos.X)*4
			for x := r.Min.X; x < r.Max.X; x++ {
				sa := src.Pix[si+3]
				switch sa {
				case 0:
				case 255:
					copy(dst.Pix[di:di+4], src.Pix[si:si+4])
				default:
					as := float64(sa) / 255
					ad := float64(dst.Pix[di+3]) / 255 * (1 - as)
					ao := as + ad
					for c := 0; c < 3; c++ {
						v := (float64(src.Pix[si+c])*as + float64(dst.Pix[di+c])*ad) / ao
						dst.Pix[di+c] = clampUint8(v)
					}
					dst.Pix[di+3] = clampUint8(ao * 255)
				}
				di += 4
				si += 4
			}
		}
	})
}

// DrawText renders t onto a copy of img with a fixed 7x13 bitmap face
func DrawText(img *image.NRGBA, t *types.TextOverlay) *image.NRGBA {
	out := imaging.Clone(img)
	if t == nil || t.Text == "" {
		return out
	}

	face := basicfont.Face7x13
	w := font.MeasureString(face, t.Text).Ceil()
	metrics := face.Metrics()
	h := metrics.Height.Ceil()
	b := out.Bounds()
	pos := AnchorPoint(b.Dx(), b.Dy(), w, h, t.Anchor, t.Margin)

	d := &font.Drawer{
		Dst:  out,
		Src:  image.NewUniform(t.Color),
		Face: face,
		Dot:  fixed.P(pos.X, pos.Y+metrics.Ascent.Ceil()),
	}
	d.DrawString(t.Text)
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
