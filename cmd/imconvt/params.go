package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gk-tools/imconvt/internal/config"
	"github.com/gk-tools/imconvt/pkg/cropper"
	"github.com/gk-tools/imconvt/pkg/types"
)

// addParamFlags registers the flags that override config values
func addParamFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("width", "", "target width in pixels (blank keeps the source size)")
	f.String("height", "", "target height in pixels (ignored with --keep-ratio when width is set)")
	f.Bool("keep-ratio", true, "derive the height from the width to keep the aspect ratio")
	f.Float64("brightness", 1, "brightness factor (0.2-2.0)")
	f.Float64("contrast", 1, "contrast factor (0.2-2.0)")
	f.Float64("saturation", 1, "saturation factor (0.0-2.0)")
	f.Float64("sharpness", 1, "sharpness factor (0.0-2.0)")
	f.StringP("format", "f", "", "output format: png|jpeg|jpg|webp")
	f.Int("quality", 0, "JPEG/WebP quality (1-100)")
	f.String("background", "", "background color for formats without alpha, e.g. #ffffff")
	f.String("overlay", "", "overlay (logo) image path or URL")
	f.String("anchor", "", "overlay corner: top-left|top-right|bottom-left|bottom-right")
	f.Float64("overlay-scale", 0, "overlay size as a fraction of the shorter side")
	f.String("text", "", "caption text drawn in the overlay corner")
	f.String("crop", "", "crop rectangle x1,y1,x2,y2 in resized-image pixels")
}

// applyParamFlags copies explicitly set flags over cfg
func applyParamFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()

	if f.Changed("width") || f.Changed("height") || f.Changed("keep-ratio") {
		w, _ := f.GetString("width")
		h, _ := f.GetString("height")
		keep, _ := f.GetBool("keep-ratio")
		spec, err := types.ParseResizeSpec(w, h, keep)
		if err != nil {
			return err
		}
		if !f.Changed("width") && !f.Changed("height") {
			spec.Width, spec.Height = cfg.Resize.Width, cfg.Resize.Height
		}
		cfg.Resize = spec
	}

	for name, dst := range map[string]*float64{
		"brightness":    &cfg.Adjust.Brightness,
		"contrast":      &cfg.Adjust.Contrast,
		"saturation":    &cfg.Adjust.Saturation,
		"sharpness":     &cfg.Adjust.Sharpness,
		"overlay-scale": &cfg.Overlay.Scale,
	} {
		if f.Changed(name) {
			*dst, _ = f.GetFloat64(name)
		}
	}

	for name, dst := range map[string]*string{
		"format":     &cfg.Output.Format,
		"background": &cfg.Output.Background,
		"overlay":    &cfg.Overlay.Path,
		"anchor":     &cfg.Overlay.Anchor,
		"text":       &cfg.Overlay.Text,
	} {
		if f.Changed(name) {
			*dst, _ = f.GetString(name)
		}
	}

	if f.Changed("quality") {
		cfg.Output.Quality, _ = f.GetInt("quality")
	}
	return nil
}

// resolveParams builds the run parameters from config and flags
func resolveParams(cmd *cobra.Command, cfg *config.Config) (types.Params, error) {
	if err := applyParamFlags(cmd, cfg); err != nil {
		return types.Params{}, err
	}
	p, err := cfg.Params()
	if err != nil {
		return types.Params{}, err
	}

	raw, _ := cmd.Flags().GetString("crop")
	crop, err := types.ParseCropRect(raw)
	if err != nil {
		return types.Params{}, err
	}
	p.Crop = crop
	return p, nil
}

// applyPreset resizes and crops p to fill a preset frame. name "auto" picks
// the preset from the source shape.
func applyPreset(p *types.Params, name string, srcW, srcH int) (cropper.SizePreset, error) {
	var preset cropper.SizePreset
	if name == "auto" {
		preset = cropper.AutoDetect(srcW, srcH)
	} else {
		var err error
		if preset, err = cropper.PresetByName(name); err != nil {
			return preset, err
		}
	}

	spec, rect := cropper.Fill(srcW, srcH, preset)
	p.Resize = spec
	p.Crop = &rect
	return preset, nil
}

func formatSize(w, h int) string {
	return strconv.Itoa(w) + "x" + strconv.Itoa(h)
}

func describe(p types.Params) string {
	return fmt.Sprintf("resize=%+v adjust=%+v format=%s quality=%d", p.Resize, p.Adjust, p.Output.Format, p.Output.Quality)
}
