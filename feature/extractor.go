package feature

import (
	"fmt"
	"image"
	"math"
	"slices"

	"golang.org/x/image/draw"

	"github.com/hupe1980/dbow"
)

const (
	gridCells   = 4
	orientBins  = 8
	descLength  = gridCells * gridCells * orientBins
	clipValue   = 0.2
	twoPi       = 2 * math.Pi
	minNormSqrd = 1e-24
)

// Extractor computes the local descriptors of an image.
type Extractor interface {
	Extract(img image.Image) ([]dbow.Descriptor, error)
}

// DenseExtractor describes square patches sampled on a regular grid with a
// 4x4x8 gradient orientation histogram (128 elements).
type DenseExtractor struct {
	// Step is the grid spacing in pixels.
	Step int
	// PatchSize is the patch side in pixels. Must be a multiple of 4.
	PatchSize int
	// MaxFeatures caps the number of descriptors; the patches with the
	// highest mean gradient magnitude are kept. 0 means no limit.
	MaxFeatures int
	// ContrastThreshold drops patches whose mean gradient magnitude (pixel
	// intensities in [0, 1]) is below it.
	ContrastThreshold float64
	// MaxImageSide downscales images whose longer side exceeds it. 0 keeps
	// the original size.
	MaxImageSide int
}

// DefaultDenseExtractor returns an extractor with 8 px steps, 16 px patches,
// a contrast threshold of 0.04 and images downscaled to 640 px.
func DefaultDenseExtractor() *DenseExtractor {
	return &DenseExtractor{
		Step:              8,
		PatchSize:         16,
		ContrastThreshold: 0.04,
		MaxImageSide:      640,
	}
}

// Validate checks the extractor parameters.
func (e *DenseExtractor) Validate() error {
	if e.Step < 1 {
		return fmt.Errorf("%w: step must be positive, got %d", dbow.ErrInvalidInput, e.Step)
	}
	if e.PatchSize < gridCells || e.PatchSize%gridCells != 0 {
		return fmt.Errorf("%w: patch size must be a positive multiple of %d, got %d", dbow.ErrInvalidInput, gridCells, e.PatchSize)
	}
	if e.MaxFeatures < 0 || e.MaxImageSide < 0 || e.ContrastThreshold < 0 {
		return fmt.Errorf("%w: negative limit", dbow.ErrInvalidInput)
	}
	return nil
}

type patch struct {
	desc     dbow.Descriptor
	contrast float64
	order    int
}

// Extract implements Extractor.
func (e *DenseExtractor) Extract(img image.Image) ([]dbow.Descriptor, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	gray := e.grayscale(img)
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	if w < e.PatchSize || h < e.PatchSize {
		return nil, nil
	}
	mag, ori := gradients(gray)

	var patches []patch
	for y := 0; y+e.PatchSize <= h; y += e.Step {
		for x := 0; x+e.PatchSize <= w; x += e.Step {
			d, contrast := e.describe(mag, ori, w, x, y)
			if d == nil || contrast < e.ContrastThreshold {
				continue
			}
			patches = append(patches, patch{desc: d, contrast: contrast, order: len(patches)})
		}
	}

	if e.MaxFeatures > 0 && len(patches) > e.MaxFeatures {
		slices.SortStableFunc(patches, func(a, b patch) int {
			switch {
			case a.contrast > b.contrast:
				return -1
			case a.contrast < b.contrast:
				return 1
			default:
				return 0
			}
		})
		patches = patches[:e.MaxFeatures]
		slices.SortFunc(patches, func(a, b patch) int { return a.order - b.order })
	}

	out := make([]dbow.Descriptor, len(patches))
	for i, p := range patches {
		out[i] = p.desc
	}
	return out, nil
}

// grayscale converts img to 8-bit gray, downscaled so that its longer side
// is at most MaxImageSide.
func (e *DenseExtractor) grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if side := max(w, h); e.MaxImageSide > 0 && side > e.MaxImageSide {
		scale := float64(e.MaxImageSide) / float64(side)
		w = max(1, int(math.Round(float64(w)*scale)))
		h = max(1, int(math.Round(float64(h)*scale)))
		dst := image.NewGray(image.Rect(0, 0, w, h))
		draw.ApproxBiLinear.Scale(dst, dst.Rect, img, b, draw.Src, nil)
		return dst
	}
	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
	return dst
}

// gradients returns per-pixel gradient magnitude and orientation in
// [0, 2*pi), using central differences with clamped borders.
func gradients(g *image.Gray) (mag, ori []float64) {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	at := func(x, y int) float64 {
		x = min(max(x, 0), w-1)
		y = min(max(y, 0), h-1)
		return float64(g.Pix[y*g.Stride+x]) / 255
	}
	mag = make([]float64, w*h)
	ori = make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx := (at(x+1, y) - at(x-1, y)) / 2
			dy := (at(x, y+1) - at(x, y-1)) / 2
			i := y*w + x
			mag[i] = math.Hypot(dx, dy)
			a := math.Atan2(dy, dx)
			if a < 0 {
				a += twoPi
			}
			ori[i] = a
		}
	}
	return mag, ori
}

// describe builds the descriptor of the patch with top-left corner (x0, y0).
// It returns nil for a patch without gradient.
func (e *DenseExtractor) describe(mag, ori []float64, w, x0, y0 int) (dbow.Descriptor, float64) {
	cell := e.PatchSize / gridCells
	var hist [descLength]float64
	var total float64
	for py := 0; py < e.PatchSize; py++ {
		for px := 0; px < e.PatchSize; px++ {
			i := (y0+py)*w + x0 + px
			m := mag[i]
			if m == 0 {
				continue
			}
			total += m
			bin := int(ori[i] / twoPi * orientBins)
			if bin >= orientBins {
				bin = orientBins - 1
			}
			hist[((py/cell)*gridCells+px/cell)*orientBins+bin] += m
		}
	}
	contrast := total / float64(e.PatchSize*e.PatchSize)

	if !normalize(hist[:]) {
		return nil, contrast
	}
	for i := range hist {
		hist[i] = min(hist[i], clipValue)
	}
	normalize(hist[:])

	d := make(dbow.Descriptor, descLength)
	for i, v := range hist {
		d[i] = float32(v)
	}
	return d, contrast
}

// normalize scales v to unit L2 norm. It reports false for a zero vector.
func normalize(v []float64) bool {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum < minNormSqrd {
		return false
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] *= inv
	}
	return true
}
