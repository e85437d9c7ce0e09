// Package transform composes the orientation mapping, the voxel/micron
// unit conversion and the registration affine into full point, streamline
// and volume transforms between atlas space and a user-supplied target
// space.
//
// All transformers are immutable after construction and safe for
// concurrent use.
package transform

import (
	"fmt"
	"math"

	"mouse2mri/internal/models"
	"mouse2mri/pkg/affine"
	"mouse2mri/pkg/atlas"
	"mouse2mri/pkg/orientation"
	"mouse2mri/pkg/volume"
)

// OutOfRangeError reports a coordinate outside the valid voxel grid. The
// point is surfaced to the caller rather than clamped: whether to retry
// with a different resolution or registration matrix is a caller policy.
type OutOfRangeError struct {
	Point models.Index
	BBox  models.Index
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("coordinate %v is outside the bounding box %v", e.Point, e.BBox)
}

// ReorientPoint maps an integer voxel index between axis layouts by
// direct arithmetic: index x on source axis i lands on destination axis
// m[i].To, at x when the direction is kept and at extent-1-x when it is
// flipped. extents is the bounding box of the layout p currently lives
// in.
//
// This produces bit-identical results to routing the point through a
// tracer volume (ReorientPointTracer) without allocating anything.
func ReorientPoint(p models.Index, m orientation.Mapping, extents models.Index) models.Index {
	var out models.Index
	for i := 0; i < 3; i++ {
		x := p[i]
		if m[i].Flip == -1 {
			x = extents[i] - 1 - x
		}
		out[m[i].To] = x
	}
	return out
}

// reorientPointF is ReorientPoint on continuous coordinates, used for
// streamline vertices which are fractional voxel positions.
func reorientPointF(p models.VoxelPoint, m orientation.Mapping, extents models.Index) models.VoxelPoint {
	var out models.VoxelPoint
	for i := 0; i < 3; i++ {
		x := p[i]
		if m[i].Flip == -1 {
			x = float64(extents[i]-1) - x
		}
		out[m[i].To] = x
	}
	return out
}

// ReorientPointTracer maps a voxel index between axis layouts by
// synthesizing a tracer volume: a zero volume of the given extents with a
// single on-bit at p is reoriented, and the position of the bit in the
// output is read back. Numerically exact but asymptotically wasteful; it
// exists as the ground truth the arithmetic implementation is verified
// against, and for callers that already hold a reoriented volume.
func ReorientPointTracer(p models.Index, m orientation.Mapping, extents models.Index) (models.Index, error) {
	if !atlas.InBounds(p, extents) {
		return models.Index{}, &OutOfRangeError{Point: p, BBox: extents}
	}
	tracer := volume.New(extents)
	tracer.Set(p[0], p[1], p[2], 1)
	reoriented, err := tracer.Reorient(m)
	if err != nil {
		return models.Index{}, err
	}
	for i := 0; i < reoriented.Shape[0]; i++ {
		for j := 0; j < reoriented.Shape[1]; j++ {
			for k := 0; k < reoriented.Shape[2]; k++ {
				if reoriented.At(i, j, k) == 1 {
					return models.Index{i, j, k}, nil
				}
			}
		}
	}
	return models.Index{}, fmt.Errorf("tracer bit lost during reorientation of %v", p)
}

// PointTransformer maps single points between atlas space and user space.
// It bundles the derived orientation mapping, the atlas bounding box at
// the working resolution, and the registration affine (which maps user
// voxel coordinates to atlas-oriented voxel coordinates, so the forward
// atlas-to-user direction applies its inverse).
type PointTransformer struct {
	res      atlas.Resolution
	bbox     models.Index // atlas layout
	userBBox models.Index // atlas grid permuted into user layout
	forward  orientation.Mapping
	backward orientation.Mapping
	tx       *affine.Transform
	txInv    *affine.Transform
}

// NewPointTransformer builds a transformer for the given atlas
// resolution, user axis convention, and registration transform. The
// transform's resolution context, when present, must match res.
func NewPointTransformer(res atlas.Resolution, userConv orientation.Convention, tx *affine.Transform) (*PointTransformer, error) {
	if err := res.Validate(); err != nil {
		return nil, err
	}
	if tx.Resolution != 0 && tx.Resolution != float64(res) {
		return nil, fmt.Errorf("transform was computed at %g um but the transformer is for %d um", tx.Resolution, res)
	}
	pir := orientation.MustParse(atlas.AxisCodes)
	fwd, err := orientation.MapBetween(pir, userConv)
	if err != nil {
		return nil, err
	}
	inv, err := tx.Invert()
	if err != nil {
		return nil, err
	}
	bbox := atlas.BoundingBox(res)
	var userBBox models.Index
	for i := 0; i < 3; i++ {
		userBBox[fwd[i].To] = bbox[i]
	}
	return &PointTransformer{
		res:      res,
		bbox:     bbox,
		userBBox: userBBox,
		forward:  fwd,
		backward: fwd.Inverse(),
		tx:       tx,
		txInv:    inv,
	}, nil
}

// Resolution returns the atlas resolution the transformer works at.
func (t *PointTransformer) Resolution() atlas.Resolution { return t.res }

// BoundingBox returns the atlas bounding box in the atlas axis layout.
func (t *PointTransformer) BoundingBox() models.Index { return t.bbox }

// Mapping returns the forward atlas-to-user orientation mapping.
func (t *PointTransformer) Mapping() orientation.Mapping { return t.forward }

// AtlasToUser maps a point given in atlas microns to user voxel
// coordinates: microns are truncated to atlas voxels, the voxel index is
// validated against the bounding box, reoriented into the user axis
// layout, and pushed through the inverted registration affine.
func (t *PointTransformer) AtlasToUser(p models.MicronPoint) (models.VoxelPoint, error) {
	vox := atlas.ToVoxels(p, t.res)
	if !atlas.InBounds(vox, t.bbox) {
		return models.VoxelPoint{}, &OutOfRangeError{Point: vox, BBox: t.bbox}
	}
	reoriented := ReorientPoint(vox, t.forward, t.bbox)
	out := t.txInv.ApplyToPoint([3]float64{
		float64(reoriented[0]), float64(reoriented[1]), float64(reoriented[2]),
	})
	return models.VoxelPoint(out), nil
}

// UserToAtlas maps a point given in user voxel coordinates to atlas
// microns: the registration affine carries it into the atlas-oriented
// grid, the truncated index is validated there, reoriented back into the
// atlas axis layout, and scaled to microns.
//
// Truncation is toward zero, so a mapped coordinate in (-1, 0) lands in
// voxel 0 and is accepted. Points at or below -1 are out of range.
func (t *PointTransformer) UserToAtlas(p models.VoxelPoint) (models.MicronPoint, error) {
	mapped := t.tx.ApplyToPoint([3]float64(p))
	idx := models.Index{int(mapped[0]), int(mapped[1]), int(mapped[2])}
	if !atlas.InBounds(idx, t.userBBox) {
		return models.MicronPoint{}, &OutOfRangeError{Point: idx, BBox: t.userBBox}
	}
	pir := ReorientPoint(idx, t.backward, t.userBBox)
	return atlas.ToMicrons(pir, t.res), nil
}

// TransformVertex maps a single streamline vertex, already in atlas
// voxel units, into user voxel coordinates. Vertices are continuous
// positions, so no truncation or bounds check applies; a non-finite
// result (a degenerate affine, a NaN input) is reported as an error so
// that callers can attribute it to the offending vertex.
func (t *PointTransformer) TransformVertex(p models.VoxelPoint) (models.VoxelPoint, error) {
	reoriented := reorientPointF(p, t.forward, t.bbox)
	out := t.txInv.ApplyToPoint([3]float64(reoriented))
	for i := 0; i < 3; i++ {
		if math.IsNaN(out[i]) || math.IsInf(out[i], 0) {
			return models.VoxelPoint{}, fmt.Errorf("vertex %v produced non-finite coordinate %v", p, out)
		}
	}
	return models.VoxelPoint(out), nil
}
