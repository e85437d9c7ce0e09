// Package orientation relates the axis conventions of two 3D reference
// frames. A convention names, for each array axis, the anatomical
// direction in which that axis increases (e.g. "PIR": posterior,
// inferior, right). The mapping between two conventions is a permutation
// of the three axes plus a per-axis sign flip, applied without any
// numeric interpolation.
package orientation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Code is a single anatomical direction label.
type Code byte

// The six direction labels, paired per axis of the canonical R/A/S frame:
// R/L along axis 0, A/P along axis 1, S/I along axis 2. The first of each
// pair is the positive direction.
const (
	Right     Code = 'R'
	Left      Code = 'L'
	Anterior  Code = 'A'
	Posterior Code = 'P'
	Superior  Code = 'S'
	Inferior  Code = 'I'
)

// Convention is an ordered triple of direction labels, one per array
// axis. A valid convention touches each canonical axis exactly once.
type Convention [3]Code

// InvalidConventionError reports axis codes that do not form a bijection
// on the three canonical axes. This is fatal and not retryable: it means
// the reference volume's metadata is malformed.
type InvalidConventionError struct {
	Codes  string
	Reason string
}

func (e *InvalidConventionError) Error() string {
	return fmt.Sprintf("invalid axis convention %q: %s", e.Codes, e.Reason)
}

// canonicalAxis returns the canonical axis index and sign for a label.
func canonicalAxis(c Code) (axis, sign int, ok bool) {
	switch c {
	case Right:
		return 0, 1, true
	case Left:
		return 0, -1, true
	case Anterior:
		return 1, 1, true
	case Posterior:
		return 1, -1, true
	case Superior:
		return 2, 1, true
	case Inferior:
		return 2, -1, true
	}
	return 0, 0, false
}

// positive direction labels per canonical axis, and their opposites.
var posLabels = [3]Code{Right, Anterior, Superior}
var negLabels = [3]Code{Left, Posterior, Inferior}

// Parse builds a Convention from a three-letter code string such as
// "PIR" or "RAS".
func Parse(codes string) (Convention, error) {
	var conv Convention
	if len(codes) != 3 {
		return conv, &InvalidConventionError{Codes: codes, Reason: "need exactly three axis codes"}
	}
	seen := [3]bool{}
	for i := 0; i < 3; i++ {
		c := Code(codes[i])
		axis, _, ok := canonicalAxis(c)
		if !ok {
			return conv, &InvalidConventionError{Codes: codes, Reason: fmt.Sprintf("unknown axis code %q", string(c))}
		}
		if seen[axis] {
			return conv, &InvalidConventionError{Codes: codes, Reason: "axis codes are not a bijection on the three axes"}
		}
		seen[axis] = true
		conv[i] = c
	}
	return conv, nil
}

// MustParse is Parse for compile-time constant codes; it panics on error.
func MustParse(codes string) Convention {
	conv, err := Parse(codes)
	if err != nil {
		panic(err)
	}
	return conv
}

// String returns the three-letter code form of the convention.
func (c Convention) String() string {
	return string([]byte{byte(c[0]), byte(c[1]), byte(c[2])})
}

// Validate checks that the convention is a bijection on the canonical
// axes with known labels.
func (c Convention) Validate() error {
	_, err := Parse(c.String())
	return err
}

// ornt returns, for each array axis i, the canonical axis it runs along
// and the sign of that direction. The convention must be valid.
func (c Convention) ornt() (axes [3]int, signs [3]int, err error) {
	seen := [3]bool{}
	for i := 0; i < 3; i++ {
		axis, sign, ok := canonicalAxis(c[i])
		if !ok {
			return axes, signs, &InvalidConventionError{Codes: c.String(), Reason: fmt.Sprintf("unknown axis code %q", string(c[i]))}
		}
		if seen[axis] {
			return axes, signs, &InvalidConventionError{Codes: c.String(), Reason: "axis codes are not a bijection on the three axes"}
		}
		seen[axis] = true
		axes[i] = axis
		signs[i] = sign
	}
	return axes, signs, nil
}

// FromAffine derives the axis codes of a reference volume from its 4x4
// voxel-to-world affine: column j of the 3x3 part is the world direction
// of voxel axis j, and the dominant component of that direction names the
// axis. Malformed affines (zero columns, two axes claiming the same world
// direction) yield an InvalidConventionError.
func FromAffine(affine *mat.Dense) (Convention, error) {
	var conv Convention
	r, cc := affine.Dims()
	if r < 3 || cc < 3 {
		return conv, &InvalidConventionError{Codes: "", Reason: fmt.Sprintf("affine is %dx%d, need at least 3x3", r, cc)}
	}
	seen := [3]bool{}
	for j := 0; j < 3; j++ {
		best, bestAbs := -1, 0.0
		for i := 0; i < 3; i++ {
			if a := math.Abs(affine.At(i, j)); a > bestAbs {
				best, bestAbs = i, a
			}
		}
		if best < 0 || bestAbs == 0 {
			return conv, &InvalidConventionError{Codes: "", Reason: fmt.Sprintf("affine column %d has no dominant direction", j)}
		}
		if seen[best] {
			return conv, &InvalidConventionError{Codes: "", Reason: "two voxel axes map onto the same world axis"}
		}
		seen[best] = true
		if affine.At(best, j) > 0 {
			conv[j] = posLabels[best]
		} else {
			conv[j] = negLabels[best]
		}
	}
	return conv, nil
}

// VoxelSizeFromAffine returns the voxel edge lengths implied by a
// voxel-to-world affine: the Euclidean norm of each of its first three
// columns.
func VoxelSizeFromAffine(affine *mat.Dense) [3]float64 {
	var size [3]float64
	for j := 0; j < 3; j++ {
		s := 0.0
		for i := 0; i < 3; i++ {
			v := affine.At(i, j)
			s += v * v
		}
		size[j] = math.Sqrt(s)
	}
	return size
}

// AxisMap describes where one source axis goes: destination axis index
// and a sign, -1 when the axis direction is reversed.
type AxisMap struct {
	To   int
	Flip int
}

// Mapping is a permutation plus per-axis sign flip between two
// conventions. Entry i describes source axis i.
type Mapping [3]AxisMap

// MapBetween derives the mapping that carries data laid out in the src
// convention into the dst convention. The relation is symmetric and
// involutive: composing the result with MapBetween(dst, src) is the
// identity on every axis, signs included.
func MapBetween(src, dst Convention) (Mapping, error) {
	var m Mapping
	srcAxes, srcSigns, err := src.ornt()
	if err != nil {
		return m, err
	}
	dstAxes, dstSigns, err := dst.ornt()
	if err != nil {
		return m, err
	}
	for i := 0; i < 3; i++ {
		found := false
		for j := 0; j < 3; j++ {
			if srcAxes[i] == dstAxes[j] {
				flip := 1
				if srcSigns[i] != dstSigns[j] {
					flip = -1
				}
				m[i] = AxisMap{To: j, Flip: flip}
				found = true
				break
			}
		}
		if !found {
			return m, &InvalidConventionError{Codes: dst.String(), Reason: fmt.Sprintf("no axis matches source axis %d", i)}
		}
	}
	return m, nil
}

// Inverse returns the mapping that undoes m.
func (m Mapping) Inverse() Mapping {
	var inv Mapping
	for i := 0; i < 3; i++ {
		inv[m[i].To] = AxisMap{To: i, Flip: m[i].Flip}
	}
	return inv
}

// Validate checks that the mapping is a bijection on {0,1,2} with signs
// in {+1,-1}.
func (m Mapping) Validate() error {
	seen := [3]bool{}
	for i := 0; i < 3; i++ {
		if m[i].To < 0 || m[i].To > 2 || seen[m[i].To] {
			return &InvalidConventionError{Reason: fmt.Sprintf("mapping destination axes are not a permutation: %v", m)}
		}
		seen[m[i].To] = true
		if m[i].Flip != 1 && m[i].Flip != -1 {
			return &InvalidConventionError{Reason: fmt.Sprintf("mapping flip must be +1 or -1: %v", m)}
		}
	}
	return nil
}

// opposite returns the label of the reversed direction.
func opposite(c Code) Code {
	switch c {
	case Right:
		return Left
	case Left:
		return Right
	case Anterior:
		return Posterior
	case Posterior:
		return Anterior
	case Superior:
		return Inferior
	case Inferior:
		return Superior
	}
	return c
}

// Apply carries a convention through the mapping, returning the codes of
// data that started in conv and was permuted and flipped by m.
func (m Mapping) Apply(conv Convention) Convention {
	var out Convention
	for i := 0; i < 3; i++ {
		label := conv[i]
		if m[i].Flip == -1 {
			label = opposite(label)
		}
		out[m[i].To] = label
	}
	return out
}

// IsIdentity reports whether the mapping leaves every axis in place with
// no flips.
func (m Mapping) IsIdentity() bool {
	for i := 0; i < 3; i++ {
		if m[i].To != i || m[i].Flip != 1 {
			return false
		}
	}
	return true
}
