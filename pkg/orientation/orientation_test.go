package orientation

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestParse(t *testing.T) {
	valid := []string{"PIR", "RAS", "LPI", "ASL", "SLA"}
	for _, codes := range valid {
		conv, err := Parse(codes)
		if err != nil {
			t.Errorf("Parse(%q) failed: %v", codes, err)
		}
		if conv.String() != codes {
			t.Errorf("Parse(%q).String() = %q", codes, conv.String())
		}
	}

	invalid := []string{"", "PI", "PIRX", "PIQ", "RAP", "RRS"}
	for _, codes := range invalid {
		_, err := Parse(codes)
		if err == nil {
			t.Errorf("Parse(%q) should fail", codes)
			continue
		}
		var invalidConv *InvalidConventionError
		if !errors.As(err, &invalidConv) {
			t.Errorf("Parse(%q) returned %T, want *InvalidConventionError", codes, err)
		}
	}
}

func TestMapBetweenKnownPairs(t *testing.T) {
	cases := []struct {
		src, dst string
		want     Mapping
	}{
		// PIR -> RAS: P runs opposite to A on world axis 1, I opposite
		// to S on axis 2, R equal to R on axis 0.
		{"PIR", "RAS", Mapping{{1, -1}, {2, -1}, {0, 1}}},
		{"PIR", "LPI", Mapping{{1, 1}, {2, 1}, {0, -1}}},
		{"PIR", "ASL", Mapping{{0, -1}, {1, -1}, {2, -1}}},
		{"RAS", "RAS", Mapping{{0, 1}, {1, 1}, {2, 1}}},
	}
	for _, c := range cases {
		m, err := MapBetween(MustParse(c.src), MustParse(c.dst))
		if err != nil {
			t.Fatalf("MapBetween(%s, %s) failed: %v", c.src, c.dst, err)
		}
		if m != c.want {
			t.Errorf("MapBetween(%s, %s) = %v, want %v", c.src, c.dst, m, c.want)
		}
	}
}

// TestMappingInvolution checks that composing the forward and backward
// mappings is the identity on every axis, signs included, for all
// ordered pairs of a representative convention set.
func TestMappingInvolution(t *testing.T) {
	conventions := []string{"PIR", "RAS", "LPI", "ASL", "SLA", "IRP"}
	for _, a := range conventions {
		for _, b := range conventions {
			fwd, err := MapBetween(MustParse(a), MustParse(b))
			if err != nil {
				t.Fatalf("MapBetween(%s, %s) failed: %v", a, b, err)
			}
			bwd, err := MapBetween(MustParse(b), MustParse(a))
			if err != nil {
				t.Fatalf("MapBetween(%s, %s) failed: %v", b, a, err)
			}
			if fwd.Inverse() != bwd {
				t.Errorf("Inverse of %s->%s is %v, want %v", a, b, fwd.Inverse(), bwd)
			}
			for axis := 0; axis < 3; axis++ {
				to := fwd[axis].To
				if bwd[to].To != axis || bwd[to].Flip != fwd[axis].Flip {
					t.Errorf("%s->%s axis %d does not round-trip: fwd %v bwd %v", a, b, axis, fwd, bwd)
				}
			}
		}
	}
}

func TestMappingApply(t *testing.T) {
	fwd, err := MapBetween(MustParse("PIR"), MustParse("RAS"))
	if err != nil {
		t.Fatal(err)
	}
	if got := fwd.Apply(MustParse("PIR")); got != MustParse("RAS") {
		t.Errorf("applying PIR->RAS mapping to PIR gave %s, want RAS", got)
	}
}

func TestFromAffine(t *testing.T) {
	t.Run("IdentityIsRAS", func(t *testing.T) {
		affine := mat.NewDense(4, 4, []float64{
			1, 0, 0, 0,
			0, 1, 0, 0,
			0, 0, 1, 0,
			0, 0, 0, 1,
		})
		conv, err := FromAffine(affine)
		if err != nil {
			t.Fatal(err)
		}
		if conv.String() != "RAS" {
			t.Errorf("identity affine gave %s, want RAS", conv)
		}
	})

	t.Run("ScaledLPS", func(t *testing.T) {
		affine := mat.NewDense(4, 4, []float64{
			-0.5, 0, 0, 10,
			0, -0.5, 0, 20,
			0, 0, 0.5, -5,
			0, 0, 0, 1,
		})
		conv, err := FromAffine(affine)
		if err != nil {
			t.Fatal(err)
		}
		if conv.String() != "LPS" {
			t.Errorf("LPS affine gave %s, want LPS", conv)
		}
		size := VoxelSizeFromAffine(affine)
		for i, s := range size {
			if s != 0.5 {
				t.Errorf("voxel size[%d] = %g, want 0.5", i, s)
			}
		}
	})

	t.Run("PermutedOblique", func(t *testing.T) {
		// A mildly oblique affine: dominant directions are still
		// unambiguous (S, L, A).
		affine := mat.NewDense(4, 4, []float64{
			0.1, -1.0, 0.2, 0,
			-0.2, 0.1, 1.0, 0,
			1.0, 0.1, -0.1, 0,
			0, 0, 0, 1,
		})
		conv, err := FromAffine(affine)
		if err != nil {
			t.Fatal(err)
		}
		if conv.String() != "SLA" {
			t.Errorf("oblique affine gave %s, want SLA", conv)
		}
	})

	t.Run("DegenerateFails", func(t *testing.T) {
		var invalidConv *InvalidConventionError

		zeroColumn := mat.NewDense(4, 4, []float64{
			1, 0, 0, 0,
			0, 0, 0, 0,
			0, 0, 1, 0,
			0, 0, 0, 1,
		})
		if _, err := FromAffine(zeroColumn); !errors.As(err, &invalidConv) {
			t.Errorf("zero column affine gave %v, want InvalidConventionError", err)
		}

		collapsed := mat.NewDense(4, 4, []float64{
			1, 1, 0, 0,
			0.1, 0.1, 0, 0,
			0, 0, 1, 0,
			0, 0, 0, 1,
		})
		if _, err := FromAffine(collapsed); !errors.As(err, &invalidConv) {
			t.Errorf("collapsed affine gave %v, want InvalidConventionError", err)
		}
	})
}

func TestMappingValidate(t *testing.T) {
	bad := Mapping{{0, 1}, {0, 1}, {2, 1}}
	if err := bad.Validate(); err == nil {
		t.Error("duplicate destination axes should fail validation")
	}
	badFlip := Mapping{{0, 1}, {1, 0}, {2, 1}}
	if err := badFlip.Validate(); err == nil {
		t.Error("zero flip should fail validation")
	}
}
