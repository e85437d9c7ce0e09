// Package atlas holds the fixed properties of the Allen mouse brain
// reference space: its canonical P/I/R axis order, its physical extents,
// and the enumerated set of voxel resolutions it is published at.
//
// The physical extents are domain constants of the atlas itself, not
// configuration: 13200 x 8000 x 11400 microns along the posterior,
// inferior and right axes respectively.
package atlas

import (
	"fmt"

	"mouse2mri/internal/models"
)

// Physical extents of the atlas along its canonical P, I and R axes,
// in microns.
const (
	ExtentP = 13200
	ExtentI = 8000
	ExtentR = 11400
)

// AxisCodes is the canonical axis ordering of the atlas: posterior,
// inferior, right.
const AxisCodes = "PIR"

// Resolution is an atlas voxel edge length in microns. Only the values
// published by the atlas are valid; see Validate.
type Resolution int

// Resolutions published for the full template volumes. The 10 micron
// resolution exists for annotation volumes only and is accepted by
// ValidateAnnotation.
const (
	Res25  Resolution = 25
	Res50  Resolution = 50
	Res100 Resolution = 100
	Res10  Resolution = 10
)

// TemplateResolutions lists the resolutions valid for template and
// projection-density volumes.
var TemplateResolutions = []Resolution{Res25, Res50, Res100}

// UnsupportedResolutionError reports a resolution outside the enumerated
// set. It is fatal at entry: no transform is attempted with an unknown
// resolution.
type UnsupportedResolutionError struct {
	Resolution Resolution
}

func (e *UnsupportedResolutionError) Error() string {
	return fmt.Sprintf("unsupported atlas resolution %d um (valid: 25, 50, 100)", e.Resolution)
}

// Validate checks that the resolution is one of the published template
// resolutions {25, 50, 100}.
func (r Resolution) Validate() error {
	switch r {
	case Res25, Res50, Res100:
		return nil
	}
	return &UnsupportedResolutionError{Resolution: r}
}

// ValidateAnnotation is like Validate but additionally accepts the
// 10 micron resolution available for annotation volumes.
func (r Resolution) ValidateAnnotation() error {
	if r == Res10 {
		return nil
	}
	return r.Validate()
}

// BoundingBox returns the voxel-grid extent of the atlas along P, I and R
// at the given resolution, by integer floor division of the physical
// extents.
func BoundingBox(res Resolution) models.Index {
	return models.Index{
		ExtentP / int(res),
		ExtentI / int(res),
		ExtentR / int(res),
	}
}

// ToVoxels converts an atlas point from microns to voxel indices at the
// given resolution. The conversion truncates: it is lossy whenever a
// component is not an exact multiple of the resolution, and callers must
// not expect ToMicrons to undo it.
func ToVoxels(p models.MicronPoint, res Resolution) models.Index {
	return models.Index{
		int(p[0] / float64(res)),
		int(p[1] / float64(res)),
		int(p[2] / float64(res)),
	}
}

// ToMicrons converts an atlas voxel index to microns at the given
// resolution. Exact for all integer inputs.
func ToMicrons(v models.Index, res Resolution) models.MicronPoint {
	return models.MicronPoint{
		float64(v[0] * int(res)),
		float64(v[1] * int(res)),
		float64(v[2] * int(res)),
	}
}

// InBounds reports whether the voxel index lies inside the bounding box,
// i.e. 0 <= v[i] < bbox[i] on every axis.
func InBounds(v models.Index, bbox models.Index) bool {
	for i := 0; i < 3; i++ {
		if v[i] < 0 || v[i] >= bbox[i] {
			return false
		}
	}
	return true
}
