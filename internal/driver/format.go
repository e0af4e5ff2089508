package driver

import (
	"fmt"
	"strings"
)

// PixelFormat is the grayscale encoding a device delivers.
type PixelFormat int

const (
	Mono8 PixelFormat = iota + 1
	// Mono12 samples are stored MSB-aligned in a 16-bit container.
	Mono12
	Mono16
)

// PixelFormats lists the supported formats in operator menu order.
var PixelFormats = []PixelFormat{Mono8, Mono12, Mono16}

func (f PixelFormat) String() string {
	switch f {
	case Mono8:
		return "mono8"
	case Mono12:
		return "mono12"
	case Mono16:
		return "mono16"
	default:
		return fmt.Sprintf("PixelFormat(%d)", int(f))
	}
}

// ParsePixelFormat accepts "mono8", "Mono12", "16" and similar spellings.
func ParsePixelFormat(value string) (PixelFormat, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.TrimPrefix(normalized, "mono")
	switch normalized {
	case "8":
		return Mono8, nil
	case "12":
		return Mono12, nil
	case "16":
		return Mono16, nil
	default:
		return 0, fmt.Errorf("unsupported pixel format %q", value)
	}
}

// Valid reports whether f is one of the supported formats.
func (f PixelFormat) Valid() bool {
	return f >= Mono8 && f <= Mono16
}

// BitDepth is the number of significant bits per sample.
func (f PixelFormat) BitDepth() int {
	switch f {
	case Mono8:
		return 8
	case Mono12:
		return 12
	case Mono16:
		return 16
	default:
		return 0
	}
}

// BytesPerPixel is the container size of one sample.
func (f PixelFormat) BytesPerPixel() int {
	if f == Mono8 {
		return 1
	}
	return 2
}
