package cropper

import (
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/gk-tools/imconvt/pkg/types"
)

// SizePreset is a named target size for social media exports
type SizePreset struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// AspectRatio returns width/height
func (p SizePreset) AspectRatio() float64 {
	return float64(p.Width) / float64(p.Height)
}

// ResizeSpec returns an exact-size resize for the preset
func (p SizePreset) ResizeSpec() types.ResizeSpec {
	return types.ResizeSpec{Width: p.Width, Height: p.Height}
}

// Common presets
var (
	InstagramPost  = SizePreset{"Instagram Post (1:1)", 1080, 1080}
	InstagramStory = SizePreset{"Instagram Story / Reel (9:16)", 1080, 1920}
	YouTubeThumb   = SizePreset{"YouTube Thumbnail (16:9)", 1280, 720}
	FacebookPost   = SizePreset{"Facebook Post (1200x630)", 1200, 630}
	TwitterPost    = SizePreset{"Twitter Post (1200x675)", 1200, 675}
	YouTubeBanner  = SizePreset{"YouTube Banner", 2560, 1440}
)

// Presets returns the built-in size presets
func Presets() []SizePreset {
	return []SizePreset{InstagramPost, InstagramStory, YouTubeThumb, FacebookPost, TwitterPost, YouTubeBanner}
}

// PresetByName finds a preset by case-insensitive name prefix, e.g. "youtube thumb"
func PresetByName(name string) (SizePreset, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return SizePreset{}, fmt.Errorf("%w: empty preset name", types.ErrConfig)
	}
	for _, p := range Presets() {
		if strings.HasPrefix(strings.ToLower(p.Name), key) {
			return p, nil
		}
	}
	return SizePreset{}, fmt.Errorf("%w: unknown preset %q", types.ErrConfig, name)
}

// AutoDetect suggests a preset from the image shape: nearly square images
// (sides within 100px) get the square post, portrait images the story size
// and everything else the 16:9 thumbnail.
func AutoDetect(width, height int) SizePreset {
	d := width - height
	if d < 0 {
		d = -d
	}
	switch {
	case d < 100:
		return InstagramPost
	case height > width:
		return InstagramStory
	default:
		return YouTubeThumb
	}
}

// Apply crops img to rect. A rect that is not normalized, or that does not
// overlap the image, leaves the image unchanged; otherwise the rect is
// clamped to the image bounds. The result is always a new image.
func Apply(img *image.NRGBA, rect types.CropRect) *image.NRGBA {
	if !rect.Normalized() {
		return imaging.Clone(img)
	}

	b := img.Bounds()
	r := image.Rect(rect.X1, rect.Y1, rect.X2, rect.Y2).Add(b.Min).Intersect(b)
	if r.Empty() {
		return imaging.Clone(img)
	}
	return imaging.Crop(img, r)
}

// CenterCropRect returns the largest rect of the given aspect ratio
// (width/height) centered in a srcW x srcH image
func CenterCropRect(srcW, srcH int, ratio float64) types.CropRect {
	if srcW <= 0 || srcH <= 0 || ratio <= 0 {
		return types.CropRect{}
	}

	w, h := srcW, srcH
	if float64(srcW)/float64(srcH) > ratio {
		w = max(1, int(float64(srcH)*ratio+0.5))
	} else {
		h = max(1, int(float64(srcW)/ratio+0.5))
	}
	w, h = min(w, srcW), min(h, srcH)

	x := (srcW - w) / 2
	y := (srcH - h) / 2
	return types.CropRect{X1: x, Y1: y, X2: x + w, Y2: y + h}
}

// Fill returns the resize and crop that cover a preset's frame: the image
// is scaled with its aspect ratio kept until it covers the frame, then
// center-cropped to the preset's aspect ratio
func Fill(srcW, srcH int, p SizePreset) (types.ResizeSpec, types.CropRect) {
	if srcW <= 0 || srcH <= 0 {
		return p.ResizeSpec(), types.CropRect{}
	}

	var spec types.ResizeSpec
	w, h := p.Width, p.Height
	if srcW*p.Height >= srcH*p.Width {
		spec = types.ResizeSpec{Height: p.Height, KeepRatio: true}
		w = max(1, p.Height*srcW/srcH)
	} else {
		spec = types.ResizeSpec{Width: p.Width, KeepRatio: true}
		h = max(1, p.Width*srcH/srcW)
	}
	return spec, CenterCropRect(w, h, p.AspectRatio())
}
