package preprocess

import (
	"image"
	"math"
)

// DominantChannel returns the index (0=R, 1=G, 2=B) of the channel with the
// largest total absolute deviation from its mean. Ties go to the later
// channel.
func DominantChannel(img image.Image) int {
	w, h, pix := rgb(img)
	return dominantChannel(pix, w*h)
}

func dominantChannel(pix []uint8, n int) int {
	if n == 0 {
		return 0
	}

	var sum [3]uint64
	for i := 0; i < len(pix); i += 3 {
		sum[0] += uint64(pix[i])
		sum[1] += uint64(pix[i+1])
		sum[2] += uint64(pix[i+2])
	}
	var mean [3]float32
	for c := range mean {
		mean[c] = float32(sum[c] / uint64(n))
	}

	var contrast [3]float32
	for i := 0; i < len(pix); i += 3 {
		for c := 0; c < 3; c++ {
			d := float32(pix[i+c]) - mean[c]
			if d < 0 {
				d = -d
			}
			contrast[c] += d
		}
	}

	best := 0
	for c := 1; c < 3; c++ {
		if contrast[c] >= contrast[best] {
			best = c
		}
	}
	return best
}

// EmphasizedGray converts img to grayscale by taking its most contrasted
// channel minus half of each other channel, then stretching the result to
// 0..255. Saturated text (red on white, say) keeps far more contrast than
// with a luminance conversion.
func EmphasizedGray(img image.Image) *image.Gray {
	w, h, pix := rgb(img)
	out := image.NewGray(image.Rect(0, 0, w, h))
	n := w * h
	if n == 0 {
		return out
	}

	best := dominantChannel(pix, n)
	o1, o2 := (best+1)%3, (best+2)%3

	values := make([]float32, n)
	minV, maxV := float32(math.Inf(1)), float32(math.Inf(-1))
	for i := range values {
		p := pix[i*3 : i*3+3]
		v := float32(p[best]) - 0.5*float32(p[o1]) - 0.5*float32(p[o2])
		values[i] = v
		minV = min(minV, v)
		maxV = max(maxV, v)
	}

	span := max(maxV-minV, 1)
	for i, v := range values {
		norm := (v - minV) / span * 255
		out.Pix[(i/w)*out.Stride+i%w] = uint8(min(max(norm, 0), 255))
	}
	return out
}
