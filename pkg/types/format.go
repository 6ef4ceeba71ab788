package types

import (
	"errors"
	"fmt"
	"strings"
)

// Configuration errors. All of them wrap ErrConfig.
var (
	ErrConfig            = errors.New("invalid configuration")
	ErrInvalidDimension  = fmt.Errorf("%w: invalid dimension", ErrConfig)
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported output format", ErrConfig)
	ErrInvalidAdjustment = fmt.Errorf("%w: adjustment out of range", ErrConfig)
)

// Format is an output container
type Format int

const (
	PNG Format = iota
	JPEG
	WEBP
)

// ParseFormat maps a user token to a Format. Matching is case-insensitive
// and "jpg" is an alias of "jpeg".
func ParseFormat(token string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(token), ".")) {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "webp":
		return WEBP, nil
	default:
		return PNG, fmt.Errorf("%w: %q", ErrUnsupportedFormat, token)
	}
}

// Valid reports whether f is a known format
func (f Format) Valid() bool {
	return f == PNG || f == JPEG || f == WEBP
}

// String returns the upper-case display name
func (f Format) String() string {
	switch f {
	case PNG:
		return "PNG"
	case JPEG:
		return "JPEG"
	case WEBP:
		return "WEBP"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Extension returns the output file extension without the dot
func (f Format) Extension() string {
	switch f {
	case JPEG:
		return "jpeg"
	case WEBP:
		return "webp"
	default:
		return "png"
	}
}

// HasAlpha reports whether the container keeps an alpha channel
func (f Format) HasAlpha() bool {
	return f != JPEG
}

// MarshalText implements encoding.TextMarshaler
func (f Format) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedFormat, int(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (f *Format) UnmarshalText(b []byte) error {
	v, err := ParseFormat(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// SupportedInputExtensions lists readable source extensions, lower case without dot
var SupportedInputExtensions = []string{"png", "jpg", "jpeg", "webp", "bmp", "tiff", "tif"}
