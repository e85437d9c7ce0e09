// Package volume defines the dense 3D volume value type used throughout
// the pipeline and its axis reorientation. A Volume always carries the
// axis convention, resolution and origin it was sampled under, so that
// no caller has to inspect imaging-library metadata to interpret the
// array.
package volume

import (
	"fmt"

	"mouse2mri/internal/models"
	"mouse2mri/pkg/orientation"
)

// Volume is a dense 3D array (optionally multi-channel for display data)
// plus the sampling metadata needed to place it in physical space.
type Volume struct {
	// Data holds voxel values in row-major order: axis 0 slowest, the
	// channel index fastest.
	Data []float64

	// Shape is the extent along each of the three spatial axes, in voxels.
	Shape models.Index

	// Channels is 1 for scalar volumes, >1 for multi-channel display
	// volumes (e.g. RGB projection maps).
	Channels int

	// Convention is the axis convention the data is laid out in.
	Convention orientation.Convention

	// Resolution is the voxel edge length in physical units.
	Resolution float64

	// Origin is the physical coordinate of voxel (0,0,0).
	Origin [3]float64
}

// New allocates a zero-filled scalar volume with the given shape.
func New(shape models.Index) *Volume {
	return NewMultiChannel(shape, 1)
}

// NewMultiChannel allocates a zero-filled volume with the given shape and
// channel count.
func NewMultiChannel(shape models.Index, channels int) *Volume {
	return &Volume{
		Data:     make([]float64, shape[0]*shape[1]*shape[2]*channels),
		Shape:    shape,
		Channels: channels,
	}
}

// offset returns the flat index of (i,j,k) channel c.
func (v *Volume) offset(i, j, k, c int) int {
	return ((i*v.Shape[1]+j)*v.Shape[2]+k)*v.Channels + c
}

// At returns the value at (i,j,k) in channel 0.
func (v *Volume) At(i, j, k int) float64 {
	return v.Data[v.offset(i, j, k, 0)]
}

// Set stores a value at (i,j,k) in channel 0.
func (v *Volume) Set(i, j, k int, value float64) {
	v.Data[v.offset(i, j, k, 0)] = value
}

// validate checks that the data length matches the declared geometry.
func (v *Volume) validate() error {
	if v.Channels < 1 {
		return fmt.Errorf("volume has %d channels, need at least 1", v.Channels)
	}
	want := v.Shape[0] * v.Shape[1] * v.Shape[2] * v.Channels
	if len(v.Data) != want {
		return fmt.Errorf("volume data length %d does not match shape %v x %d channels (want %d)",
			len(v.Data), v.Shape, v.Channels, want)
	}
	return nil
}

// Reorient applies a permutation-plus-flip mapping to the volume,
// physically reordering the data with no interpolation. A source voxel at
// index x on axis i lands on destination axis m[i].To, at the same index
// when the axis keeps its direction and at shape-1-x when it is flipped.
//
// Applying the inverse mapping to the output restores the input exactly,
// bit for bit.
func (v *Volume) Reorient(m orientation.Mapping) (*Volume, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := v.validate(); err != nil {
		return nil, err
	}

	var outShape models.Index
	for i := 0; i < 3; i++ {
		outShape[m[i].To] = v.Shape[i]
	}

	out := NewMultiChannel(outShape, v.Channels)
	out.Convention = m.Apply(v.Convention)
	out.Resolution = v.Resolution
	out.Origin = v.Origin

	var dst models.Index
	for i := 0; i < v.Shape[0]; i++ {
		for j := 0; j < v.Shape[1]; j++ {
			for k := 0; k < v.Shape[2]; k++ {
				src := models.Index{i, j, k}
				for a := 0; a < 3; a++ {
					x := src[a]
					if m[a].Flip == -1 {
						x = v.Shape[a] - 1 - x
					}
					dst[m[a].To] = x
				}
				so := v.offset(i, j, k, 0)
				do := out.offset(dst[0], dst[1], dst[2], 0)
				copy(out.Data[do:do+v.Channels], v.Data[so:so+v.Channels])
			}
		}
	}
	return out, nil
}

// Clone returns a deep copy of the volume.
func (v *Volume) Clone() *Volume {
	out := *v
	out.Data = make([]float64, len(v.Data))
	copy(out.Data, v.Data)
	return &out
}

// ClampNegative zeroes every negative value in place. Density-like data
// is non-negative by construction; smooth interpolation can undershoot,
// and callers that know their data is a density apply this afterwards.
func (v *Volume) ClampNegative() {
	for i, x := range v.Data {
		if x < 0 {
			v.Data[i] = 0
		}
	}
}
