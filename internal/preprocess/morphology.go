package preprocess

import "image"

// cross is the L1 unit ball: the pixel and its four direct neighbours.
var cross = [5]image.Point{{0, 0}, {1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// Close dilates then erodes a binary image with the 4-connected cross,
// bridging one-pixel gaps in white strokes. Neighbours outside the image are
// ignored.
func Close(src *image.Gray) *image.Gray {
	return Erode(Dilate(src))
}

// Dilate sets a pixel to 255 when it or any 4-neighbour is non-zero.
func Dilate(src *image.Gray) *image.Gray {
	return morph(src, func(found bool) uint8 {
		if found {
			return 255
		}
		return 0
	}, func(p uint8) bool { return p != 0 })
}

// Erode sets a pixel to 0 when it or any 4-neighbour is zero.
func Erode(src *image.Gray) *image.Gray {
	return morph(src, func(found bool) uint8 {
		if found {
			return 0
		}
		return 255
	}, func(p uint8) bool { return p == 0 })
}

func morph(src *image.Gray, result func(bool) uint8, hit func(uint8) bool) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			found := false
			for _, d := range cross {
				xx, yy := x+d.X, y+d.Y
				if xx < 0 || yy < 0 || xx >= w || yy >= h {
					continue
				}
				if hit(src.Pix[yy*src.Stride+xx]) {
					found = true
					break
				}
			}
			out.Pix[y*out.Stride+x] = result(found)
		}
	}
	return out
}
