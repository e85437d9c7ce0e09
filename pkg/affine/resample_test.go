package affine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mouse2mri/internal/models"
	"mouse2mri/pkg/volume"
)

func TestResamplerIdentityNearest(t *testing.T) {
	moving := volume.New(models.Index{3, 4, 5})
	for i := range moving.Data {
		moving.Data[i] = float64(i)
	}

	out, err := Resampler{}.ApplyAffine(moving, Identity(), moving.Shape, InterpNearest)
	require.NoError(t, err)
	assert.Equal(t, moving.Shape, out.Shape)
	assert.Equal(t, moving.Data, out.Data)
}

func TestResamplerTranslation(t *testing.T) {
	moving := volume.New(models.Index{1, 1, 5})
	copy(moving.Data, []float64{1, 2, 3, 4, 5})

	// The transform maps target voxels to moving voxels, so a +1 shift
	// along the last axis reads each target voxel from its successor.
	shift := FromElements([16]float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 1,
		0, 0, 0, 1,
	})
	out, err := Resampler{}.ApplyAffine(moving, shift, moving.Shape, InterpNearest)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3, 4, 5, 0}, out.Data)
}

// TestResamplerCubicOvershoot pins the behavior the clamp policy exists
// for: smooth interpolation near a sharp edge can produce values below
// zero even when every input sample is non-negative.
func TestResamplerCubicOvershoot(t *testing.T) {
	moving := volume.New(models.Index{1, 1, 5})
	copy(moving.Data, []float64{0, 0, 10, 0, 0})

	halfShift := FromElements([16]float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0.5,
		0, 0, 0, 1,
	})

	out, err := Resampler{}.ApplyAffine(moving, halfShift, moving.Shape, InterpCubic)
	require.NoError(t, err)

	hasNegative := false
	for _, v := range out.Data {
		if v < 0 {
			hasNegative = true
		}
	}
	assert.True(t, hasNegative, "cubic interpolation across the spike should undershoot: %v", out.Data)

	// Nearest-neighbor on the same input never invents values.
	nn, err := Resampler{}.ApplyAffine(moving, halfShift, moving.Shape, InterpNearest)
	require.NoError(t, err)
	for _, v := range nn.Data {
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestResamplerMultiChannel(t *testing.T) {
	moving := volume.NewMultiChannel(models.Index{2, 2, 2}, 3)
	for i := range moving.Data {
		moving.Data[i] = float64(i)
	}
	out, err := Resampler{}.ApplyAffine(moving, Identity(), moving.Shape, InterpNearest)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Channels)
	assert.Equal(t, moving.Data, out.Data)
}

func TestResamplerComputeAffineIsExternal(t *testing.T) {
	_, err := Resampler{}.ComputeAffine(nil, nil)
	assert.Error(t, err)
}

func TestInterpolationString(t *testing.T) {
	assert.Equal(t, "nearestNeighbor", InterpNearest.String())
	assert.Equal(t, "cubic", InterpCubic.String())
}
