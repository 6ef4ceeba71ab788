package types

import (
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		token   string
		want    Format
		wantErr bool
	}{
		{"png", PNG, false},
		{"PNG", PNG, false},
		{"jpeg", JPEG, false},
		{"JPG", JPEG, false},
		{".webp", WEBP, false},
		{" WebP ", WEBP, false},
		{"gif", PNG, true},
		{"", PNG, true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.token)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.token, err, tt.wantErr)
			continue
		}
		if err != nil {
			if !errors.Is(err, ErrUnsupportedFormat) || !errors.Is(err, ErrConfig) {
				t.Errorf("ParseFormat(%q) error %v should wrap ErrUnsupportedFormat and ErrConfig", tt.token, err)
			}
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}
}

func TestFormatExtension(t *testing.T) {
	want := map[Format]string{PNG: "png", JPEG: "jpeg", WEBP: "webp"}
	for f, ext := range want {
		if f.Extension() != ext {
			t.Errorf("%v.Extension() = %q, want %q", f, f.Extension(), ext)
		}
	}
	if JPEG.HasAlpha() || !PNG.HasAlpha() || !WEBP.HasAlpha() {
		t.Error("Unexpected HasAlpha result")
	}
}

func TestFormatJSON(t *testing.T) {
	var v struct {
		Format Format `json:"format"`
	}
	if err := json.Unmarshal([]byte(`{"format":"jpg"}`), &v); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if v.Format != JPEG {
		t.Errorf("Expected JPEG, got %v", v.Format)
	}

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"format":"JPEG"}` {
		t.Errorf("Unexpected JSON %s", data)
	}

	if err := json.Unmarshal([]byte(`{"format":"tga"}`), &v); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestParseAnchor(t *testing.T) {
	for _, s := range []string{"bottom-right", "Bottom-Right", "bottom_right", "bottomright"} {
		a, err := ParseAnchor(s)
		if err != nil || a != BottomRight {
			t.Errorf("ParseAnchor(%q) = %v, %v", s, a, err)
		}
	}
	if a, err := ParseAnchor("top-left"); err != nil || a != TopLeft {
		t.Errorf("ParseAnchor(top-left) = %v, %v", a, err)
	}
	if _, err := ParseAnchor("middle"); !errors.Is(err, ErrConfig) {
		t.Errorf("Expected ErrConfig, got %v", err)
	}
}

func TestParseResizeSpec(t *testing.T) {
	got, err := ParseResizeSpec("800", "", true)
	if err != nil {
		t.Fatalf("ParseResizeSpec failed: %v", err)
	}
	if diff := cmp.Diff(ResizeSpec{Width: 800, KeepRatio: true}, got); diff != "" {
		t.Errorf("ParseResizeSpec mismatch (-want +got):\n%s", diff)
	}

	got, err = ParseResizeSpec(" ", "  ", false)
	if err != nil || !got.Empty() {
		t.Errorf("Expected empty spec, got %+v, %v", got, err)
	}

	for _, bad := range [][2]string{{"abc", ""}, {"", "12px"}, {"0", ""}, {"-5", ""}, {"999999999", ""}, {"", "16384"}} {
		if _, err := ParseResizeSpec(bad[0], bad[1], false); !errors.Is(err, ErrInvalidDimension) {
			t.Errorf("ParseResizeSpec(%q, %q): expected ErrInvalidDimension, got %v", bad[0], bad[1], err)
		}
	}
}

func TestAdjustmentValidate(t *testing.T) {
	if err := IdentityAdjustments().Validate(); err != nil {
		t.Errorf("Identity should be valid: %v", err)
	}
	if !IdentityAdjustments().IsIdentity() {
		t.Error("IdentityAdjustments should report IsIdentity")
	}

	valid := AdjustmentParams{Brightness: 0.2, Contrast: 2, Saturation: 0, Sharpness: 0}
	if err := valid.Validate(); err != nil {
		t.Errorf("Range limits should be valid: %v", err)
	}

	invalid := []AdjustmentParams{
		{Brightness: 0.1, Contrast: 1, Saturation: 1, Sharpness: 1},
		{Brightness: 1, Contrast: 2.1, Saturation: 1, Sharpness: 1},
		{Brightness: 1, Contrast: 1, Saturation: -0.1, Sharpness: 1},
		{Brightness: 1, Contrast: 1, Saturation: 1, Sharpness: 3},
		{Brightness: math.NaN(), Contrast: 1, Saturation: 1, Sharpness: 1},
		{Brightness: 1, Contrast: 1, Saturation: math.NaN(), Sharpness: 1},
	}
	for _, a := range invalid {
		if err := a.Validate(); !errors.Is(err, ErrInvalidAdjustment) {
			t.Errorf("%+v: expected ErrInvalidAdjustment, got %v", a, err)
		}
	}
}

func TestParamsValidate(t *testing.T) {
	p := DefaultParams()
	if err := p.Validate(); err != nil {
		t.Fatalf("Default params should be valid: %v", err)
	}

	p.Output.Format = Format(9)
	if err := p.Validate(); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}

	p = DefaultParams()
	p.Resize.Width = -1
	if err := p.Validate(); !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("Expected ErrInvalidDimension, got %v", err)
	}

	p = DefaultParams()
	p.Resize = ResizeSpec{Width: MaxDimension + 1, KeepRatio: true}
	if err := p.Validate(); !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("Expected ErrInvalidDimension for oversized target, got %v", err)
	}

	p.Resize = ResizeSpec{Width: MaxDimension, Height: MaxDimension}
	if err := p.Validate(); err != nil {
		t.Errorf("Largest target should be valid: %v", err)
	}

	p = DefaultParams()
	p.Output.Quality = 101
	if err := p.Validate(); !errors.Is(err, ErrConfig) {
		t.Errorf("Expected ErrConfig, got %v", err)
	}
}

func TestParamsCopyIsSnapshot(t *testing.T) {
	p := DefaultParams()
	p.Resize = ResizeSpec{Width: 100, KeepRatio: true}
	snapshot := p

	p.Resize.Width = 200
	p.Adjust.Brightness = 1.5

	if snapshot.Resize.Width != 100 || snapshot.Adjust.Brightness != 1 {
		t.Errorf("Snapshot changed: %+v", snapshot)
	}
}

func TestParseCropRect(t *testing.T) {
	r, err := ParseCropRect("10, 20,110,220")
	if err != nil {
		t.Fatalf("ParseCropRect failed: %v", err)
	}
	if diff := cmp.Diff(&CropRect{X1: 10, Y1: 20, X2: 110, Y2: 220}, r); diff != "" {
		t.Errorf("ParseCropRect mismatch (-want +got):\n%s", diff)
	}
	if r.Width() != 100 || r.Height() != 200 || !r.Normalized() {
		t.Errorf("Unexpected geometry for %+v", r)
	}

	if r, err := ParseCropRect(""); r != nil || err != nil {
		t.Errorf("Expected nil rect for empty input, got %v, %v", r, err)
	}
	for _, bad := range []string{"1,2,3", "a,b,c,d"} {
		if _, err := ParseCropRect(bad); !errors.Is(err, ErrConfig) {
			t.Errorf("ParseCropRect(%q): expected ErrConfig, got %v", bad, err)
		}
	}

	if (CropRect{X1: 5, Y1: 0, X2: 5, Y2: 10}).Normalized() {
		t.Error("Zero-width rect should not be normalized")
	}
}

func TestNewJobDescriptor(t *testing.T) {
	a := NewJobDescriptor("a.png", "out/a.png", DefaultParams())
	b := NewJobDescriptor("a.png", "out/a.png", DefaultParams())

	if a.ID == "" || a.ID == b.ID {
		t.Errorf("Expected distinct non-empty ids, got %q and %q", a.ID, b.ID)
	}
}

func TestBuffer(t *testing.T) {
	if _, err := NewBuffer(image.NewNRGBA(image.Rect(0, 0, 0, 5))); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("Expected ErrEmptyImage, got %v", err)
	}

	// offset bounds are normalized to a zero origin
	src := image.NewRGBA(image.Rect(10, 10, 40, 30))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	buf, err := NewBuffer(src)
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}
	if buf.Image.Bounds().Min != (image.Point{}) {
		t.Errorf("Expected zero origin, got %v", buf.Image.Bounds())
	}
	if buf.Mode != RGB {
		t.Errorf("Expected RGB for opaque image, got %v", buf.Mode)
	}

	info := buf.Info()
	if info.Width != 30 || info.Height != 20 || info.AspectRatio != 1.5 || info.Mode != "RGB" {
		t.Errorf("Unexpected info %+v", info)
	}

	buf.Image.SetNRGBA(0, 0, color.NRGBA{1, 2, 3, 128})
	if Wrap(buf.Image).Mode != RGBA {
		t.Error("Expected RGBA for translucent image")
	}

	clone := buf.Clone()
	clone.Image.Pix[0] = 99
	if buf.Image.Pix[0] == 99 {
		t.Error("Clone shares pixel data")
	}
}
