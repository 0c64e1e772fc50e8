// Package preprocess turns a screenshot into a clean binary image for
// Tesseract: channel-emphasized grayscale, 2x Lanczos upscale, 3x3 median,
// Otsu threshold, then a 4-connected morphological close.
//
// Every stage is a pure function of its input.
package preprocess

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/nfnt/resize"
)

// Scale is the upscaling factor applied before denoising.
const Scale = 2

// ForOCR runs the full pipeline. The result is Scale times larger than src in
// both dimensions and only contains the values 0 and 255.
func ForOCR(src image.Image) *image.Gray {
	gray := EmphasizedGray(src)
	up := Upscale(gray, Scale)
	denoised := Median(up)
	binary := Threshold(denoised, OtsuLevel(denoised))
	return Close(binary)
}

// Upscale resizes img by factor with a Lanczos3 kernel.
func Upscale(img *image.Gray, factor int) *image.Gray {
	b := img.Bounds()
	w, h := uint(b.Dx()*factor), uint(b.Dy()*factor)
	return toGray(resize.Resize(w, h, img, resize.Lanczos3))
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// rgb reads the 8-bit straight (non-premultiplied) color channels of every
// pixel in row-major order, dropping alpha.
func rgb(img image.Image) (w, h int, pix []uint8) {
	b := img.Bounds()
	w, h = b.Dx(), b.Dy()
	pix = make([]uint8, 0, w*h*3)

	if src, ok := img.(*image.RGBA); ok && opaque(src) {
		for y := 0; y < h; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+w*4]
			for x := 0; x < w; x++ {
				pix = append(pix, row[x*4], row[x*4+1], row[x*4+2])
			}
		}
		return w, h, pix
	}
	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < h; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+w*4]
			for x := 0; x < w; x++ {
				pix = append(pix, row[x*4], row[x*4+1], row[x*4+2])
			}
		}
		return w, h, pix
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			pix = append(pix, c.R, c.G, c.B)
		}
	}
	return w, h, pix
}

// opaque reports whether every pixel has full alpha, in which case
// premultiplied and straight values coincide.
func opaque(img *image.RGBA) bool {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			if row[x*4+3] != 0xff {
				return false
			}
		}
	}
	return true
}
