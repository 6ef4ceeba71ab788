package main

import (
	"errors"
	"testing"

	"github.com/spf13/cobra"

	"github.com/gk-tools/imconvt/internal/config"
	"github.com/gk-tools/imconvt/pkg/cropper"
	"github.com/gk-tools/imconvt/pkg/types"
)

func newTestCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addParamFlags(cmd)
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return cmd
}

func TestResolveParamsOverridesConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Adjust.Contrast = 1.3

	cmd := newTestCommand(t, "--width", "640", "--brightness", "1.5", "--format", "jpg", "--crop", "0,0,100,50")
	p, err := resolveParams(cmd, cfg)
	if err != nil {
		t.Fatalf("resolveParams failed: %v", err)
	}

	if p.Resize != (types.ResizeSpec{Width: 640, KeepRatio: true}) {
		t.Errorf("Unexpected resize %+v", p.Resize)
	}
	if p.Adjust.Brightness != 1.5 || p.Adjust.Contrast != 1.3 {
		t.Errorf("Unexpected adjust %+v", p.Adjust)
	}
	if p.Output.Format != types.JPEG {
		t.Errorf("Expected JPEG, got %v", p.Output.Format)
	}
	if p.Crop == nil || *p.Crop != (types.CropRect{X1: 0, Y1: 0, X2: 100, Y2: 50}) {
		t.Errorf("Unexpected crop %+v", p.Crop)
	}
}

func TestResolveParamsKeepsConfigSize(t *testing.T) {
	cfg := config.Default()
	cfg.Resize = types.ResizeSpec{Width: 300, Height: 200, KeepRatio: true}

	p, err := resolveParams(newTestCommand(t, "--keep-ratio=false"), cfg)
	if err != nil {
		t.Fatalf("resolveParams failed: %v", err)
	}
	if p.Resize != (types.ResizeSpec{Width: 300, Height: 200}) {
		t.Errorf("Unexpected resize %+v", p.Resize)
	}
}

func TestResolveParamsErrors(t *testing.T) {
	tests := []struct {
		args []string
		want error
	}{
		{[]string{"--width", "abc"}, types.ErrInvalidDimension},
		{[]string{"--format", "gif"}, types.ErrUnsupportedFormat},
		{[]string{"--saturation", "2.5"}, types.ErrInvalidAdjustment},
		{[]string{"--crop", "1,2"}, types.ErrConfig},
	}

	for _, tt := range tests {
		_, err := resolveParams(newTestCommand(t, tt.args...), config.Default())
		if !errors.Is(err, tt.want) {
			t.Errorf("%v: expected %v, got %v", tt.args, tt.want, err)
		}
	}
}

func TestApplyPreset(t *testing.T) {
	p := types.DefaultParams()

	preset, err := applyPreset(&p, "auto", 1000, 1000)
	if err != nil {
		t.Fatalf("applyPreset failed: %v", err)
	}
	if preset != cropper.InstagramPost {
		t.Errorf("Expected Instagram post, got %s", preset.Name)
	}
	if p.Crop == nil || p.Crop.Width() != 1080 || p.Crop.Height() != 1080 {
		t.Errorf("Unexpected crop %+v", p.Crop)
	}

	if _, err := applyPreset(&p, "billboard", 10, 10); err == nil {
		t.Error("Expected error for unknown preset")
	}
}

func TestSign(t *testing.T) {
	if sign(5) != 1 || sign(-3) != -1 || sign(0) != 0 {
		t.Error("Unexpected sign result")
	}
}
