package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gk-tools/imconvt/pkg/batch"
	"github.com/gk-tools/imconvt/pkg/preview"
	"github.com/gk-tools/imconvt/pkg/processing"
	"github.com/gk-tools/imconvt/pkg/types"
	"github.com/gk-tools/imconvt/pkg/viewport"
)

// EnvConfigPath overrides the default configuration file location
const EnvConfigPath = "IMCONVT_CONFIG"

// Config holds the application configuration
type Config struct {
	Resize   types.ResizeSpec       `json:"resize"`
	Adjust   types.AdjustmentParams `json:"adjust"`
	Output   OutputConfig           `json:"output"`
	Overlay  OverlayConfig          `json:"overlay"`
	Batch    BatchConfig            `json:"batch"`
	Preview  PreviewConfig          `json:"preview"`
	Viewport ViewportConfig         `json:"viewport"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	Format     string `json:"format"`
	Prefix     string `json:"prefix"`
	OutputDir  string `json:"output_dir"`
	Quality    int    `json:"quality"`
	Background string `json:"background"`
}

// OverlayConfig holds the logo and caption overlay settings. An empty Path
// disables the logo and an empty Text disables the caption.
type OverlayConfig struct {
	Path      string  `json:"path"`
	Anchor    string  `json:"anchor"`
	Scale     float64 `json:"scale"`
	Margin    int     `json:"margin"`
	Text      string  `json:"text"`
	TextColor string  `json:"text_color"`
}

// BatchConfig holds configuration for folder processing
type BatchConfig struct {
	Concurrency      int      `json:"concurrency"`
	SupportedFormats []string `json:"supported_formats"`
}

// PreviewConfig holds configuration for live preview
type PreviewConfig struct {
	MaxDimension int `json:"max_dimension"`
	DebounceMS   int `json:"debounce_ms"`
}

// ViewportConfig holds the zoom limits
type ViewportConfig struct {
	MinScale float64 `json:"min_scale"`
	MaxScale float64 `json:"max_scale"`
}

// Default returns a configuration with default values
func Default() *Config {
	limits := viewport.DefaultLimits()
	return &Config{
		Resize: types.ResizeSpec{KeepRatio: true},
		Adjust: types.IdentityAdjustments(),
		Output: OutputConfig{
			Format:     "png",
			Prefix:     batch.DefaultPrefix,
			OutputDir:  "./output",
			Quality:    types.DefaultQuality,
			Background: "#ffffff",
		},
		Overlay: OverlayConfig{
			Anchor:    types.BottomRight.String(),
			Scale:     types.DefaultOverlayScale,
			Margin:    types.DefaultOverlayMargin,
			TextColor: "#ffffff",
		},
		Batch: BatchConfig{
			Concurrency:      batch.DefaultConcurrency,
			SupportedFormats: append([]string(nil), types.SupportedInputExtensions...),
		},
		Preview: PreviewConfig{
			MaxDimension: preview.DefaultMaxDimension,
			DebounceMS:   int(preview.DefaultDelay / time.Millisecond),
		},
		Viewport: ViewportConfig{
			MinScale: limits.MinScale,
			MaxScale: limits.MaxScale,
		},
	}
}

// LoadFromFile loads configuration from a JSON file. Fields missing from
// the file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// LoadOrDefault loads filename, falling back to Default when it does not exist
func LoadOrDefault(filename string) (*Config, error) {
	config, err := LoadFromFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return config, err
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Resize.Width < 0 || c.Resize.Height < 0 {
		return fmt.Errorf("%w: resize width and height must not be negative", types.ErrInvalidDimension)
	}
	if c.Resize.Width > types.MaxDimension || c.Resize.Height > types.MaxDimension {
		return fmt.Errorf("%w: resize width and height must not exceed %d", types.ErrInvalidDimension, types.MaxDimension)
	}

	if err := c.Adjust.Validate(); err != nil {
		return err
	}

	if _, err := types.ParseFormat(c.Output.Format); err != nil {
		return err
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("%w: output.quality must be between 1 and 100", types.ErrConfig)
	}

	if _, err := processing.ParseColor(c.Output.Background); err != nil {
		return err
	}

	if _, err := types.ParseAnchor(c.Overlay.Anchor); err != nil {
		return err
	}

	if c.Overlay.Scale <= 0 || c.Overlay.Scale > 1 {
		return fmt.Errorf("%w: overlay.scale must be in (0, 1]", types.ErrConfig)
	}

	if c.Overlay.Margin < 0 {
		return fmt.Errorf("%w: overlay.margin must not be negative", types.ErrConfig)
	}

	if c.Overlay.Text != "" {
		if _, err := processing.ParseColor(c.Overlay.TextColor); err != nil {
			return err
		}
	}

	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("%w: batch.concurrency must be positive", types.ErrConfig)
	}

	if len(c.Batch.SupportedFormats) == 0 {
		return fmt.Errorf("%w: batch.supported_formats cannot be empty", types.ErrConfig)
	}

	if c.Preview.MaxDimension < 1 {
		return fmt.Errorf("%w: preview.max_dimension must be positive", types.ErrConfig)
	}

	if c.Preview.DebounceMS < 0 {
		return fmt.Errorf("%w: preview.debounce_ms must not be negative", types.ErrConfig)
	}

	if c.Viewport.MinScale <= 0 || c.Viewport.MaxScale < c.Viewport.MinScale {
		return fmt.Errorf("%w: viewport scale limits must satisfy 0 < min_scale <= max_scale", types.ErrConfig)
	}

	return nil
}

// Params resolves the configuration into a validated parameter snapshot.
// The overlay image, if any, is loaded from disk.
func (c *Config) Params() (types.Params, error) {
	if err := c.Validate(); err != nil {
		return types.Params{}, err
	}

	format, _ := types.ParseFormat(c.Output.Format)
	background, _ := processing.ParseColor(c.Output.Background)
	anchor, _ := types.ParseAnchor(c.Overlay.Anchor)

	p := types.Params{
		Resize: c.Resize,
		Adjust: c.Adjust,
		Output: types.OutputSpec{
			Format:     format,
			Quality:    c.Output.Quality,
			Background: background,
		},
	}

	if c.Overlay.Path != "" {
		logo, err := processing.NewProcessor().LoadImageSmart(c.Overlay.Path)
		if err != nil {
			return types.Params{}, fmt.Errorf("failed to load overlay image: %w", err)
		}
		p.Overlay = &types.OverlaySpec{
			Image:  logo,
			Anchor: anchor,
			Scale:  c.Overlay.Scale,
			Margin: c.Overlay.Margin,
		}
	}

	if c.Overlay.Text != "" {
		textColor, _ := processing.ParseColor(c.Overlay.TextColor)
		p.Text = &types.TextOverlay{
			Text:   c.Overlay.Text,
			Anchor: anchor,
			Color:  textColor,
			Margin: c.Overlay.Margin,
		}
	}

	return p, nil
}

// PreviewOptions returns scheduler options for the preview section
func (c *Config) PreviewOptions() preview.Options {
	return preview.Options{
		Delay:        time.Duration(c.Preview.DebounceMS) * time.Millisecond,
		MaxDimension: c.Preview.MaxDimension,
	}
}

// ViewportLimits returns the zoom limits for the viewport section
func (c *Config) ViewportLimits() viewport.Limits {
	limits := viewport.DefaultLimits()
	limits.MinScale = c.Viewport.MinScale
	limits.MaxScale = c.Viewport.MaxScale
	return limits
}

// BatchOptions returns executor options for the batch section
func (c *Config) BatchOptions() batch.Options {
	return batch.Options{Concurrency: c.Batch.Concurrency}
}

// InputExtensions returns the configured source extensions, lower case without dot
func (c *Config) InputExtensions() []string {
	exts := make([]string, 0, len(c.Batch.SupportedFormats))
	for _, f := range c.Batch.SupportedFormats {
		exts = append(exts, strings.ToLower(strings.TrimPrefix(strings.TrimSpace(f), ".")))
	}
	return exts
}

// GetConfigPath returns the configuration file path, honoring IMCONVT_CONFIG
func GetConfigPath() string {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "imconvt", "config.json")
}
