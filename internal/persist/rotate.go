package persist

import (
	"image"

	"github.com/disintegration/imaging"
)

// Rotate270 rotates img 270 degrees counter-clockwise, keeping grayscale
// images grayscale at their original depth.
func Rotate270(img image.Image) image.Image {
	switch src := img.(type) {
	case *image.Gray16:
		return rotateGray16(src)
	case *image.Gray:
		return toGray(imaging.Rotate270(src))
	default:
		return imaging.Rotate270(img)
	}
}

func rotateGray16(src *image.Gray16) *image.Gray16 {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray16(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.SetGray16(h-1-y, x, src.Gray16At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

// toGray collapses a gray NRGBA image back to one channel.
func toGray(src *image.NRGBA) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < b.Dx(); x++ {
			dst.Pix[y*dst.Stride+x] = row[x*4]
		}
	}
	return dst
}
