package processing

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gk-tools/imconvt/pkg/types"
)

// Processor handles decoding and encoding of image files
type Processor struct {
	client *http.Client
}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	return &Processor{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// LoadImageFromURL downloads and decodes an image from a URL
func (p *Processor) LoadImageFromURL(imageURL string) (*types.Buffer, error) {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", parsedURL.Scheme)
	}

	req, err := http.NewRequest(http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "imconvt/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("URL does not point to an image (Content-Type: %s)", contentType)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return p.DecodeBytes(imageData)
}

// LoadImage decodes an image file. EXIF orientation is applied for JPEGs.
func (p *Processor) LoadImage(path string) (*types.Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p.DecodeBytes(data)
}

// LoadImageSmart loads an image from either a file path or URL
func (p *Processor) LoadImageSmart(source string) (*types.Buffer, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return p.LoadImageFromURL(source)
	}
	return p.LoadImage(source)
}

// Decode reads and decodes a whole image stream
func (p *Processor) Decode(r io.Reader) (*types.Buffer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return p.DecodeBytes(data)
}

// DecodeBytes decodes with the registered decoders, falling back to the
// libwebp decoder for WebP variants the pure-Go decoder rejects
func (p *Processor) DecodeBytes(data []byte) (*types.Buffer, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		var werr error
		img, werr = webp.Decode(bytes.NewReader(data))
		if werr != nil {
			return nil, fmt.Errorf("image: unknown or unsupported format: %w", err)
		}
	}
	return types.NewBuffer(img)
}

// Thumbnail returns a copy whose longest side is at most maxDim. Images
// already within bounds are cloned unchanged.
func (p *Processor) Thumbnail(buf *types.Buffer, maxDim int) *types.Buffer {
	w, h := buf.Width(), buf.Height()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return buf.Clone()
	}
	return types.Wrap(imaging.Fit(buf.Image, maxDim, maxDim, imaging.Lanczos))
}

// Encode writes img in the requested container. Formats without an alpha
// channel get their pixels flattened onto out.Background first.
func (p *Processor) Encode(w io.Writer, img image.Image, out types.OutputSpec) error {
	quality := out.Quality
	if quality <= 0 {
		quality = types.DefaultQuality
	}

	switch out.Format {
	case types.WEBP:
		opts := &webp.Options{Lossless: false, Quality: float32(quality)}
		return webp.Encode(w, img, opts)
	case types.PNG:
		return imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(png.DefaultCompression))
	case types.JPEG:
		return imaging.Encode(w, Flatten(img, out.Background), imaging.JPEG, imaging.JPEGQuality(quality))
	default:
		return fmt.Errorf("%w: %s", types.ErrUnsupportedFormat, out.Format)
	}
}

// SaveImage encodes img to path
func (p *Processor) SaveImage(img image.Image, path string, out types.OutputSpec) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := p.Encode(f, img, out); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Flatten composites img over an opaque background of color bg
func Flatten(img image.Image, bg color.NRGBA) *image.NRGBA {
	bg.A = 255
	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), bg)
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}

// ParseColor parses "#rrggbb" into an opaque color
func ParseColor(hex string) (color.NRGBA, error) {
	c, err := colorful.Hex(strings.TrimSpace(hex))
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: color %q: %v", types.ErrConfig, hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}
