package driver

import (
	"fmt"
	"image"
)

// Image is a converted, session-owned frame. Sixteen-bit samples are stored
// big-endian so the buffer can back an image.Gray16 without copying.
type Image struct {
	Width  int
	Height int
	Format PixelFormat
	Stride int
	Pix    []byte
}

// NewImage allocates a zeroed image.
func NewImage(width, height int, format PixelFormat) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", width, height)
	}
	if !format.Valid() {
		return nil, fmt.Errorf("invalid pixel format %s", format)
	}
	stride := width * format.BytesPerPixel()
	return &Image{
		Width:  width,
		Height: height,
		Format: format,
		Stride: stride,
		Pix:    make([]byte, stride*height),
	}, nil
}

// Set16 stores a 16-bit container value at (x, y). For Mono8 images the top
// byte is kept.
func (img *Image) Set16(x, y int, v uint16) {
	if img.Format == Mono8 {
		img.Pix[y*img.Stride+x] = uint8(v >> 8)
		return
	}
	off := y*img.Stride + x*2
	img.Pix[off] = uint8(v >> 8)
	img.Pix[off+1] = uint8(v)
}

// At16 returns the 16-bit container value at (x, y).
func (img *Image) At16(x, y int) uint16 {
	if img.Format == Mono8 {
		v := uint16(img.Pix[y*img.Stride+x])
		return v<<8 | v
	}
	off := y*img.Stride + x*2
	return uint16(img.Pix[off])<<8 | uint16(img.Pix[off+1])
}

// Gray returns a standard library view sharing Pix: *image.Gray for Mono8,
// *image.Gray16 otherwise.
func (img *Image) Gray() image.Image {
	rect := image.Rect(0, 0, img.Width, img.Height)
	if img.Format == Mono8 {
		return &image.Gray{Pix: img.Pix, Stride: img.Stride, Rect: rect}
	}
	return &image.Gray16{Pix: img.Pix, Stride: img.Stride, Rect: rect}
}

// SizeBytes is the length of the pixel buffer.
func (img *Image) SizeBytes() int {
	if img == nil {
		return 0
	}
	return len(img.Pix)
}
