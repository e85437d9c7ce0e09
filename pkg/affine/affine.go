// Package affine wraps the 4x4 homogeneous transform that carries the
// metric correction between atlas and user space. The matrix itself is
// produced by an external registration step; this package reads it,
// inverts it, applies it to points, and resamples volumes through it.
//
// A Transform is read-only after construction and safe to share across
// any number of concurrent readers.
package affine

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Transform is an invertible 4x4 homogeneous matrix mapping coordinates
// from one space to another, together with the unit context its entries
// assume. The unit context travels with the matrix so that a transform
// built at one atlas resolution can be rejected when used at another.
type Transform struct {
	m *mat.Dense

	// Units names the coordinate units the matrix rows and columns
	// assume, e.g. "voxel" or "micron".
	Units string

	// Resolution is the atlas resolution (in microns) the transform was
	// computed at, or 0 when unknown.
	Resolution float64
}

// New builds a Transform from a 4x4 matrix. The matrix is copied.
func New(m *mat.Dense) (*Transform, error) {
	r, c := m.Dims()
	if r != 4 || c != 4 {
		return nil, fmt.Errorf("affine matrix must be 4x4, got %dx%d", r, c)
	}
	return &Transform{m: mat.DenseCopyOf(m)}, nil
}

// Identity returns the identity transform.
func Identity() *Transform {
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		m.Set(i, i, 1)
	}
	return &Transform{m: m}
}

// FromElements builds a Transform from 16 row-major elements.
func FromElements(elems [16]float64) *Transform {
	return &Transform{m: mat.NewDense(4, 4, elems[:])}
}

// At returns matrix element (i, j).
func (t *Transform) At(i, j int) float64 {
	return t.m.At(i, j)
}

// Matrix returns a copy of the underlying 4x4 matrix.
func (t *Transform) Matrix() *mat.Dense {
	return mat.DenseCopyOf(t.m)
}

// Invert returns the inverse transform. The unit context is preserved.
func (t *Transform) Invert() (*Transform, error) {
	var inv mat.Dense
	if err := inv.Inverse(t.m); err != nil {
		return nil, fmt.Errorf("affine matrix is not invertible: %w", err)
	}
	return &Transform{m: &inv, Units: t.Units, Resolution: t.Resolution}, nil
}

// ApplyToPoint maps a single 3D point through the transform.
func (t *Transform) ApplyToPoint(p [3]float64) [3]float64 {
	var out [3]float64
	for i := 0; i < 3; i++ {
		out[i] = t.m.At(i, 0)*p[0] + t.m.At(i, 1)*p[1] + t.m.At(i, 2)*p[2] + t.m.At(i, 3)
	}
	return out
}

// Compose returns the transform equivalent to applying u first, then t.
func (t *Transform) Compose(u *Transform) *Transform {
	var out mat.Dense
	out.Mul(t.m, u.m)
	return &Transform{m: &out, Units: t.Units, Resolution: t.Resolution}
}
