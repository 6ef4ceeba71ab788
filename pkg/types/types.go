package types

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Anchor is the host corner an overlay is placed against
type Anchor int

const (
	TopLeft Anchor = iota
	TopRight
	BottomLeft
	BottomRight
)

var anchorNames = map[Anchor]string{
	TopLeft:     "top-left",
	TopRight:    "top-right",
	BottomLeft:  "bottom-left",
	BottomRight: "bottom-right",
}

// String returns the anchor token used in config files and flags
func (a Anchor) String() string {
	if name, ok := anchorNames[a]; ok {
		return name
	}
	return fmt.Sprintf("anchor(%d)", int(a))
}

// ParseAnchor accepts "bottom-right", "Bottom-Right", "bottom_right" or "bottomright"
func ParseAnchor(s string) (Anchor, error) {
	key := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	for a, name := range anchorNames {
		if strings.ReplaceAll(name, "-", "") == key {
			return a, nil
		}
	}
	return BottomRight, fmt.Errorf("%w: unknown anchor %q", ErrConfig, s)
}

// ResizeSpec describes the resize stage. Zero width or height means the
// dimension was left blank.
type ResizeSpec struct {
	Width     int  `json:"width"`
	Height    int  `json:"height"`
	KeepRatio bool `json:"keep_ratio"`
}

// Empty reports whether no target dimension was given
func (r ResizeSpec) Empty() bool {
	return r.Width <= 0 && r.Height <= 0
}

// ParseResizeSpec builds a ResizeSpec from raw text entries. Blank entries
// are absent; anything else must be a positive integer.
func ParseResizeSpec(width, height string, keepRatio bool) (ResizeSpec, error) {
	w, err := parseDimension("width", width)
	if err != nil {
		return ResizeSpec{}, err
	}
	h, err := parseDimension("height", height)
	if err != nil {
		return ResizeSpec{}, err
	}
	return ResizeSpec{Width: w, Height: h, KeepRatio: keepRatio}, nil
}

// MaxDimension bounds each side of a resize target, the largest size a
// WebP encoder accepts
const MaxDimension = 16383

func parseDimension(name, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", ErrInvalidDimension, name, raw)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidDimension, name, v)
	}
	if v > MaxDimension {
		return 0, fmt.Errorf("%w: %s %d exceeds %d", ErrInvalidDimension, name, v, MaxDimension)
	}
	return v, nil
}

// AdjustmentParams holds the four enhancement factors; 1.0 leaves the image untouched
type AdjustmentParams struct {
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
	Saturation float64 `json:"saturation"`
	Sharpness  float64 `json:"sharpness"`
}

// Adjustment factor ranges accepted by Validate
const (
	MinBrightness = 0.2
	MinContrast   = 0.2
	MinSaturation = 0.0
	MinSharpness  = 0.0
	MaxFactor     = 2.0
)

// IdentityAdjustments returns factors that leave pixels unchanged
func IdentityAdjustments() AdjustmentParams {
	return AdjustmentParams{Brightness: 1, Contrast: 1, Saturation: 1, Sharpness: 1}
}

// IsIdentity reports whether every factor is exactly 1.0
func (a AdjustmentParams) IsIdentity() bool {
	return a == IdentityAdjustments()
}

// Validate checks each factor against its slider range
func (a AdjustmentParams) Validate() error {
	checks := []struct {
		name  string
		value float64
		min   float64
	}{
		{"brightness", a.Brightness, MinBrightness},
		{"contrast", a.Contrast, MinContrast},
		{"saturation", a.Saturation, MinSaturation},
		{"sharpness", a.Sharpness, MinSharpness},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || c.value < c.min || c.value > MaxFactor {
			return fmt.Errorf("%w: %s %.2f outside [%.1f, %.1f]", ErrInvalidAdjustment, c.name, c.value, c.min, MaxFactor)
		}
	}
	return nil
}

// Default overlay geometry
const (
	DefaultOverlayScale  = 1.0 / 6.0
	DefaultOverlayMargin = 10
)

// OverlaySpec places a logo over the host image
type OverlaySpec struct {
	Image  *Buffer
	Anchor Anchor
	// Scale is the fraction of the host's shorter side the overlay's longest side may occupy
	Scale  float64
	Margin int
}

// TextOverlay draws a short caption in a host corner
type TextOverlay struct {
	Text   string
	Anchor Anchor
	Color  color.NRGBA
	Margin int
}

// CropRect is a crop region in current-buffer pixel coordinates.
// (X1, Y1) is inclusive, (X2, Y2) exclusive.
type CropRect struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Normalized reports whether the rect has X1 < X2 and Y1 < Y2
func (r CropRect) Normalized() bool {
	return r.X1 < r.X2 && r.Y1 < r.Y2
}

// Width returns X2-X1
func (r CropRect) Width() int { return r.X2 - r.X1 }

// Height returns Y2-Y1
func (r CropRect) Height() int { return r.Y2 - r.Y1 }

// ParseCropRect parses "x1,y1,x2,y2"; an empty string yields nil
func ParseCropRect(s string) (*CropRect, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("%w: crop %q must be x1,y1,x2,y2", ErrConfig, s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("%w: crop %q: %v", ErrConfig, s, err)
		}
		v[i] = n
	}
	return &CropRect{X1: v[0], Y1: v[1], X2: v[2], Y2: v[3]}, nil
}

// DefaultQuality is the fixed quality for lossy encoders
const DefaultQuality = 95

// OutputSpec selects the encoder
type OutputSpec struct {
	Format  Format
	Quality int
	// Background is the opaque color alpha is flattened onto for formats without alpha
	Background color.NRGBA
}

// Params is the fully-resolved parameter set for one pipeline run. It is
// a value type: copying it takes a snapshot.
type Params struct {
	Resize  ResizeSpec
	Adjust  AdjustmentParams
	Overlay *OverlaySpec
	Text    *TextOverlay
	Crop    *CropRect
	Output  OutputSpec
}

// DefaultParams returns identity parameters encoding to PNG
func DefaultParams() Params {
	return Params{
		Adjust: IdentityAdjustments(),
		Output: OutputSpec{
			Format:     PNG,
			Quality:    DefaultQuality,
			Background: color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		},
	}
}

// Clone returns a deep copy of p. The overlay image buffer is shared;
// pipeline stages never write to it.
func (p Params) Clone() Params {
	if p.Overlay != nil {
		overlay := *p.Overlay
		p.Overlay = &overlay
	}
	if p.Text != nil {
		text := *p.Text
		p.Text = &text
	}
	if p.Crop != nil {
		crop := *p.Crop
		p.Crop = &crop
	}
	return p
}

// Validate rejects configuration errors before any stage runs
func (p Params) Validate() error {
	if !p.Output.Format.Valid() {
		return fmt.Errorf("%w: format %d", ErrUnsupportedFormat, int(p.Output.Format))
	}
	if p.Resize.Width < 0 || p.Resize.Height < 0 {
		return fmt.Errorf("%w: negative target size %dx%d", ErrInvalidDimension, p.Resize.Width, p.Resize.Height)
	}
	if p.Resize.Width > MaxDimension || p.Resize.Height > MaxDimension {
		return fmt.Errorf("%w: target size %dx%d exceeds %d", ErrInvalidDimension, p.Resize.Width, p.Resize.Height, MaxDimension)
	}
	if p.Output.Quality < 0 || p.Output.Quality > 100 {
		return fmt.Errorf("%w: quality %d outside [0, 100]", ErrConfig, p.Output.Quality)
	}
	return p.Adjust.Validate()
}

// JobDescriptor is one batch unit of work. It must not be modified once enqueued.
type JobDescriptor struct {
	ID          string
	Source      string
	Destination string
	Params      Params
}

// NewJobDescriptor assigns a fresh job id
func NewJobDescriptor(source, destination string, params Params) JobDescriptor {
	return JobDescriptor{
		ID:          uuid.NewString(),
		Source:      source,
		Destination: destination,
		Params:      params,
	}
}
