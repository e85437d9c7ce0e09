package transform

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"mouse2mri/internal/models"
	"mouse2mri/pkg/affine"
	"mouse2mri/pkg/orientation"
	"mouse2mri/pkg/volume"
)

func TestWarpReorientsBeforeResampling(t *testing.T) {
	vol := volume.New(models.Index{3, 4, 5})
	vol.Convention = orientation.MustParse("PIR")
	for i := range vol.Data {
		vol.Data[i] = float64(i + 1)
	}

	vt, err := NewVolumeTransformer(affine.Resampler{}, orientation.MustParse("RAS"))
	if err != nil {
		t.Fatal(err)
	}

	// With the identity affine the warp reduces to pure reorientation.
	out, err := vt.Warp(vol, affine.Identity(), models.Index{5, 3, 4}, WarpOptions{})
	if err != nil {
		t.Fatal(err)
	}

	m, err := orientation.MapBetween(vol.Convention, orientation.MustParse("RAS"))
	if err != nil {
		t.Fatal(err)
	}
	want, err := vol.Reorient(m)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want.Data, out.Data); diff != "" {
		t.Errorf("warped data mismatch (-want +got):\n%s", diff)
	}
	if out.Convention != orientation.MustParse("RAS") {
		t.Errorf("warped convention = %s, want RAS", out.Convention)
	}
}

func TestWarpAssumesAtlasLayoutWhenUnset(t *testing.T) {
	// A volume with no convention set is treated as canonical atlas
	// (PIR) data.
	vol := volume.New(models.Index{2, 3, 4})
	for i := range vol.Data {
		vol.Data[i] = float64(i)
	}

	vt, err := NewVolumeTransformer(affine.Resampler{}, orientation.MustParse("RAS"))
	if err != nil {
		t.Fatal(err)
	}
	out, err := vt.Warp(vol, affine.Identity(), models.Index{4, 2, 3}, WarpOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if out.Shape != (models.Index{4, 2, 3}) {
		t.Errorf("warped shape = %v", out.Shape)
	}
}

// TestWarpClampPolicy checks that the non-negativity clamp is applied
// only when asked for: it is a caller policy for density data, not a
// property of the resampler.
func TestWarpClampPolicy(t *testing.T) {
	vol := volume.New(models.Index{1, 1, 5})
	copy(vol.Data, []float64{0, 0, 10, 0, 0})
	vol.Convention = orientation.MustParse("RAS")

	halfShift := affine.FromElements([16]float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0.5,
		0, 0, 0, 1,
	})

	vt, err := NewVolumeTransformer(affine.Resampler{}, orientation.MustParse("RAS"))
	if err != nil {
		t.Fatal(err)
	}

	raw, err := vt.Warp(vol, halfShift, vol.Shape, WarpOptions{Interpolation: affine.InterpCubic})
	if err != nil {
		t.Fatal(err)
	}
	hasNegative := false
	for _, v := range raw.Data {
		if v < 0 {
			hasNegative = true
		}
	}
	if !hasNegative {
		t.Fatalf("expected cubic undershoot without clamping: %v", raw.Data)
	}

	clamped, err := vt.Warp(vol, halfShift, vol.Shape, WarpOptions{
		Interpolation: affine.InterpCubic,
		ClampNegative: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range clamped.Data {
		if v < 0 {
			t.Errorf("clamped output still negative at %d: %v", i, v)
		}
	}
}

func TestNewVolumeTransformerRejectsBadConvention(t *testing.T) {
	var bad orientation.Convention
	if _, err := NewVolumeTransformer(affine.Resampler{}, bad); err == nil {
		t.Error("invalid target convention should be rejected")
	}
}
