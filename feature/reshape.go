package feature

import (
	"fmt"

	"github.com/hupe1980/dbow"
)

// Reshape splits a flat row-major buffer into descriptors of dim elements.
// The descriptors share memory with flat.
func Reshape(flat []float32, dim int) ([]dbow.Descriptor, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: descriptor length must be positive, got %d", dbow.ErrInvalidInput, dim)
	}
	if len(flat)%dim != 0 {
		return nil, fmt.Errorf("%w: buffer of %d values is not a multiple of %d", dbow.ErrInvalidInput, len(flat), dim)
	}
	out := make([]dbow.Descriptor, len(flat)/dim)
	for i := range out {
		out[i] = dbow.Descriptor(flat[i*dim : (i+1)*dim : (i+1)*dim])
	}
	return out, nil
}
