package driver

import "fmt"

// ConvertRaw builds an Image from raw sensor samples. Samples hold bits
// significant bits each; they are rescaled into the target format.
// Mono12 output keeps 12 significant bits shifted into the high end of the
// 16-bit container.
func ConvertRaw(width, height int, samples []uint16, bits int, format PixelFormat) (*Image, error) {
	if len(samples) != width*height {
		return nil, fmt.Errorf("raw buffer has %d samples, want %d", len(samples), width*height)
	}
	if bits < 1 || bits > 16 {
		return nil, fmt.Errorf("unsupported raw bit depth %d", bits)
	}
	img, err := NewImage(width, height, format)
	if err != nil {
		return nil, err
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set16(x, y, scaleSample(samples[y*width+x], bits, format))
		}
	}
	return img, nil
}

// scaleSample returns the 16-bit container value for one raw sample.
func scaleSample(v uint16, bits int, format PixelFormat) uint16 {
	full := v << (16 - bits)
	switch format {
	case Mono12:
		return full &^ 0x000f
	case Mono16:
		if bits < 16 {
			// replicate high bits into the vacated low bits
			full |= full >> bits
		}
		return full
	default:
		return full & 0xff00
	}
}
