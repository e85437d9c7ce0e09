package affine

import (
	"fmt"
	"math"

	"mouse2mri/internal/models"
	"mouse2mri/pkg/volume"
)

// Interpolation selects how voxel values are sampled during resampling.
type Interpolation int

const (
	// InterpNearest is nearest-neighbor sampling, the default. It never
	// invents values, which matters for label and density volumes.
	InterpNearest Interpolation = iota

	// InterpCubic is smooth separable cubic (Catmull-Rom) sampling. It
	// can overshoot below zero near sharp edges; density data should be
	// clamped afterwards (see volume.ClampNegative).
	InterpCubic
)

// String returns the interpolator name.
func (i Interpolation) String() string {
	switch i {
	case InterpNearest:
		return "nearestNeighbor"
	case InterpCubic:
		return "cubic"
	}
	return fmt.Sprintf("Interpolation(%d)", int(i))
}

// Registrar is the contract around the external registration routine.
// ComputeAffine estimates the transform aligning moving onto fixed;
// ApplyAffine resamples a volume through a transform onto a target grid.
// The optimizer itself is a black box to this system: callers inject
// whichever implementation their registration tool provides.
type Registrar interface {
	ComputeAffine(moving, fixed *volume.Volume) (*Transform, error)
	ApplyAffine(moving *volume.Volume, tx *Transform, targetShape models.Index, interp Interpolation) (*volume.Volume, error)
}

// Resampler is the built-in Registrar implementation for the apply side.
// It maps every target voxel through the transform into the moving
// volume and samples there; coordinates outside the moving volume read
// as zero. It does not implement the registration optimizer.
type Resampler struct{}

var _ Registrar = Resampler{}

// ComputeAffine always fails: estimating the transform requires an
// external registration tool, injected as its own Registrar.
func (Resampler) ComputeAffine(moving, fixed *volume.Volume) (*Transform, error) {
	return nil, fmt.Errorf("affine estimation requires an external registration adapter; Resampler only applies transforms")
}

// ApplyAffine resamples moving onto a grid of targetShape. The transform
// maps target voxel coordinates to moving voxel coordinates.
func (Resampler) ApplyAffine(moving *volume.Volume, tx *Transform, targetShape models.Index, interp Interpolation) (*volume.Volume, error) {
	if interp != InterpNearest && interp != InterpCubic {
		return nil, fmt.Errorf("unknown interpolation %d", int(interp))
	}
	out := volume.NewMultiChannel(targetShape, moving.Channels)
	out.Resolution = moving.Resolution
	out.Convention = moving.Convention

	for i := 0; i < targetShape[0]; i++ {
		for j := 0; j < targetShape[1]; j++ {
			for k := 0; k < targetShape[2]; k++ {
				src := tx.ApplyToPoint([3]float64{float64(i), float64(j), float64(k)})
				for c := 0; c < moving.Channels; c++ {
					var val float64
					if interp == InterpNearest {
						val = sampleNearest(moving, src, c)
					} else {
						val = sampleCubic(moving, src, c)
					}
					out.Data[((i*targetShape[1]+j)*targetShape[2]+k)*moving.Channels+c] = val
				}
			}
		}
	}
	return out, nil
}

// atChannel reads (i,j,k) of channel c, returning 0 outside the volume.
func atChannel(v *volume.Volume, i, j, k, c int) float64 {
	if i < 0 || i >= v.Shape[0] || j < 0 || j >= v.Shape[1] || k < 0 || k >= v.Shape[2] {
		return 0
	}
	return v.Data[((i*v.Shape[1]+j)*v.Shape[2]+k)*v.Channels+c]
}

func sampleNearest(v *volume.Volume, p [3]float64, c int) float64 {
	return atChannel(v,
		int(math.Round(p[0])),
		int(math.Round(p[1])),
		int(math.Round(p[2])), c)
}

// catmullRom evaluates the cubic kernel for four samples at fractional
// offset t in [0,1) between s1 and s2.
func catmullRom(s0, s1, s2, s3, t float64) float64 {
	a := -0.5*s0 + 1.5*s1 - 1.5*s2 + 0.5*s3
	b := s0 - 2.5*s1 + 2.0*s2 - 0.5*s3
	cc := -0.5*s0 + 0.5*s2
	return ((a*t+b)*t+cc)*t + s1
}

func sampleCubic(v *volume.Volume, p [3]float64, c int) float64 {
	i0 := int(math.Floor(p[0]))
	j0 := int(math.Floor(p[1]))
	k0 := int(math.Floor(p[2]))
	ti := p[0] - float64(i0)
	tj := p[1] - float64(j0)
	tk := p[2] - float64(k0)

	var planes [4]float64
	for di := -1; di <= 2; di++ {
		var rows [4]float64
		for dj := -1; dj <= 2; dj++ {
			var vals [4]float64
			for dk := -1; dk <= 2; dk++ {
				vals[dk+1] = atChannel(v, i0+di, j0+dj, k0+dk, c)
			}
			rows[dj+1] = catmullRom(vals[0], vals[1], vals[2], vals[3], tk)
		}
		planes[di+1] = catmullRom(rows[0], rows[1], rows[2], rows[3], tj)
	}
	return catmullRom(planes[0], planes[1], planes[2], planes[3], ti)
}
