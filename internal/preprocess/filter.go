package preprocess

import "image"

// Median applies a 3x3 median filter. Pixels beyond the border repeat the
// nearest edge pixel.
func Median(src *image.Gray) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))

	var win [9]uint8
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			k := 0
			for dy := -1; dy <= 1; dy++ {
				yy := clamp(y+dy, 0, h-1)
				for dx := -1; dx <= 1; dx++ {
					xx := clamp(x+dx, 0, w-1)
					win[k] = src.Pix[yy*src.Stride+xx]
					k++
				}
			}
			out.Pix[y*out.Stride+x] = median9(&win)
		}
	}
	return out
}

func median9(v *[9]uint8) uint8 {
	for i := 1; i < len(v); i++ {
		for j := i; j > 0 && v[j-1] > v[j]; j-- {
			v[j-1], v[j] = v[j], v[j-1]
		}
	}
	return v[4]
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// OtsuLevel returns the threshold that maximizes the between-class variance
// of src's histogram. Pixels at or below the level form the background class.
func OtsuLevel(src *image.Gray) uint8 {
	var hist [256]uint64
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	for y := 0; y < h; y++ {
		for _, p := range src.Pix[y*src.Stride : y*src.Stride+w] {
			hist[p]++
		}
	}

	total := float64(w * h)
	if total == 0 {
		return 0
	}
	var sumAll float64
	for i, c := range hist {
		sumAll += float64(i) * float64(c)
	}

	var (
		weightB, sumB float64
		best          float64
		level         uint8
	)
	for t := 0; t < 256; t++ {
		weightB += float64(hist[t])
		if weightB == 0 {
			continue
		}
		weightF := total - weightB
		if weightF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		meanB := sumB / weightB
		meanF := (sumAll - sumB) / weightF
		between := weightB * weightF * (meanB - meanF) * (meanB - meanF)
		if between > best {
			best = between
			level = uint8(t)
		}
	}
	return level
}

// Threshold maps pixels above level to 255 and the rest to 0.
func Threshold(src *image.Gray, level uint8) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w]
		for x, p := range row {
			if p > level {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}
