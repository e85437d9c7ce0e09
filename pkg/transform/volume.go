package transform

import (
	"fmt"

	"mouse2mri/internal/models"
	"mouse2mri/pkg/affine"
	"mouse2mri/pkg/atlas"
	"mouse2mri/pkg/orientation"
	"mouse2mri/pkg/volume"
)

// WarpOptions selects the resampling policy for a volume warp.
type WarpOptions struct {
	// Interpolation is nearest-neighbor by default; InterpCubic gives a
	// smooth result for template-like data.
	Interpolation affine.Interpolation

	// ClampNegative zeroes negative values introduced by smooth
	// interpolation. Appropriate for density-like data only.
	ClampNegative bool
}

// VolumeTransformer warps whole volumes from atlas space into user
// space: the volume is first axis-corrected by reorientation, then
// resampled through the registration affine by the injected Registrar.
type VolumeTransformer struct {
	registrar affine.Registrar
	userConv  orientation.Convention
}

// NewVolumeTransformer builds a transformer resampling with the given
// Registrar onto grids in the given user axis convention.
func NewVolumeTransformer(registrar affine.Registrar, userConv orientation.Convention) (*VolumeTransformer, error) {
	if err := userConv.Validate(); err != nil {
		return nil, err
	}
	return &VolumeTransformer{registrar: registrar, userConv: userConv}, nil
}

// Warp maps an atlas volume onto a user grid of targetShape. The volume
// must enter the resampler already axis-corrected, so reorientation
// always happens first; volumes with no convention set are assumed to be
// in the canonical atlas layout.
func (vt *VolumeTransformer) Warp(vol *volume.Volume, tx *affine.Transform, targetShape models.Index, opts WarpOptions) (*volume.Volume, error) {
	srcConv := vol.Convention
	if srcConv.Validate() != nil {
		srcConv = orientation.MustParse(atlas.AxisCodes)
	}
	mapping, err := orientation.MapBetween(srcConv, vt.userConv)
	if err != nil {
		return nil, err
	}

	reoriented := vol
	if !mapping.IsIdentity() {
		reoriented, err = vol.Reorient(mapping)
		if err != nil {
			return nil, fmt.Errorf("reorienting volume: %w", err)
		}
	}

	warped, err := vt.registrar.ApplyAffine(reoriented, tx, targetShape, opts.Interpolation)
	if err != nil {
		return nil, fmt.Errorf("applying affine: %w", err)
	}

	if opts.ClampNegative {
		warped.ClampNegative()
	}
	warped.Convention = vt.userConv
	return warped, nil
}
