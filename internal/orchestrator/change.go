package orchestrator

import (
	"bytes"
	"image"
	_ "image/png" // PNG decoder
	"log/slog"
	"sync"

	"github.com/corona10/goimagehash"
	xdraw "golang.org/x/image/draw"
)

// ChangeDetector compares each capture's perceptual hash with the previous
// distinct one.
type ChangeDetector struct {
	mu       sync.Mutex
	lastHash *goimagehash.ImageHash
	maxDist  int
}

// NewChangeDetector creates a detector treating distances <= maxDist as
// unchanged.
func NewChangeDetector(maxDist int) *ChangeDetector {
	return &ChangeDetector{maxDist: maxDist}
}

// Observe reports whether png differs from the last distinct capture. The
// first capture, and anything that fails to hash, counts as changed.
func (d *ChangeDetector) Observe(png []byte) bool {
	img, _, err := image.Decode(bytes.NewReader(png))
	if err != nil {
		return true
	}
	hash, err := goimagehash.PerceptionHash(hashSample(img))
	if err != nil {
		return true
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.lastHash == nil {
		d.lastHash = hash
		return true
	}
	dist, err := d.lastHash.Distance(hash)
	if err != nil {
		d.lastHash = hash
		return true
	}
	if dist <= d.maxDist {
		slog.Debug("capture unchanged", "distance", dist)
		return false
	}
	d.lastHash = hash
	return true
}

// hashSample returns a nearest-neighbour copy of img whose longer side is at
// most HashSampleSize, so hashing a 4K frame costs the same as a small one.
func hashSample(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= HashSampleSize && h <= HashSampleSize {
		return img
	}
	if w >= h {
		w, h = HashSampleSize, max(1, h*HashSampleSize/w)
	} else {
		w, h = max(1, w*HashSampleSize/h), HashSampleSize
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
