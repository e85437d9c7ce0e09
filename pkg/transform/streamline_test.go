package transform

import (
	"errors"
	"math"
	"testing"

	"mouse2mri/internal/models"
	"mouse2mri/pkg/affine"
	"mouse2mri/pkg/atlas"
)

func testSet() models.StreamlineSet {
	return models.StreamlineSet{
		{{0, 0, 0}, {1, 2, 3}, {5, 4, 6}},
		{{10, 10, 10}},
		{{1, 1, 1}, {2, 2, 2}, {3, 3, 3}, {4, 4, 4}, {5, 5, 5}},
		{},
		{{100, 60, 90}, {99, 59, 89}},
	}
}

// TestStreamlineStructurePreservation checks the shape contract: the
// output has exactly as many streamlines as the input, with the same
// per-streamline vertex counts, in the same order.
func TestStreamlineStructurePreservation(t *testing.T) {
	pt := mustTransformer(t, atlas.Res100, "RAS", affine.Identity())
	for _, workers := range []int{1, 4} {
		st := NewStreamlineTransformer(pt)
		st.Workers = workers

		set := testSet()
		out, err := st.Transform(set)
		if err != nil {
			t.Fatalf("Transform failed with %d workers: %v", workers, err)
		}
		if len(out) != len(set) {
			t.Fatalf("got %d streamlines, want %d", len(out), len(set))
		}
		wantCounts := set.Counts()
		gotCounts := out.Counts()
		for i := range wantCounts {
			if gotCounts[i] != wantCounts[i] {
				t.Errorf("streamline %d has %d vertices, want %d", i, gotCounts[i], wantCounts[i])
			}
		}
	}
}

// TestStreamlineEndToEnd is the full single-streamline scenario at
// resolution 100 with the identity affine and an RAS target: vertices in
// microns are scaled to voxels and each lands on its manually computed
// permutation+flip+rebasing.
func TestStreamlineEndToEnd(t *testing.T) {
	pt := mustTransformer(t, atlas.Res100, "RAS", affine.Identity())
	st := NewStreamlineTransformer(pt)

	microns := models.StreamlineSet{
		{{0, 0, 0}, {10, 10, 10}, {50, 40, 60}},
	}
	set := microns.Scale(100)

	out, err := st.Transform(set)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || len(out[0]) != 3 {
		t.Fatalf("output shape wrong: %d streamlines, counts %v", len(out), out.Counts())
	}

	// Bounding box (132, 80, 114); PIR->RAS sends axis 0 to 1 flipped,
	// axis 1 to 2 flipped, axis 2 to 0.
	want := models.Streamline{
		{0, 131, 79},
		{0.1, 130.9, 78.9},
		{0.6, 130.5, 78.6},
	}
	for v := range want {
		for i := 0; i < 3; i++ {
			if math.Abs(out[0][v][i]-want[v][i]) > 1e-9 {
				t.Errorf("vertex %d = %v, want %v", v, out[0][v], want[v])
				break
			}
		}
	}
}

// TestStreamlineVertexError checks that a malformed vertex is reported
// with its streamline and vertex indices instead of silently corrupting
// the output, and that the other streamlines still transform.
func TestStreamlineVertexError(t *testing.T) {
	pt := mustTransformer(t, atlas.Res100, "RAS", affine.Identity())
	st := NewStreamlineTransformer(pt)
	st.Workers = 2

	set := models.StreamlineSet{
		{{1, 1, 1}, {2, 2, 2}},
		{{0, 0, 0}, {math.NaN(), 0, 0}, {3, 3, 3}},
		{{5, 5, 5}},
	}
	out, err := st.Transform(set)
	if err == nil {
		t.Fatal("expected a vertex error")
	}

	var vertexErr *VertexError
	if !errors.As(err, &vertexErr) {
		t.Fatalf("got %T, want *VertexError", err)
	}
	if vertexErr.Streamline != 1 || vertexErr.Vertex != 1 {
		t.Errorf("error identifies streamline %d vertex %d, want 1/1", vertexErr.Streamline, vertexErr.Vertex)
	}

	// The healthy streamlines are present; the failed one is nil.
	if out[0] == nil || out[2] == nil {
		t.Error("healthy streamlines should still be transformed")
	}
	if out[1] != nil {
		t.Error("failed streamline should be nil in the output")
	}
}

func TestStreamlineFailFast(t *testing.T) {
	pt := mustTransformer(t, atlas.Res100, "RAS", affine.Identity())
	st := NewStreamlineTransformer(pt)
	st.Workers = 1
	st.FailFast = true

	set := models.StreamlineSet{
		{{math.NaN(), 0, 0}},
		{{1, 1, 1}},
	}
	_, err := st.Transform(set)
	if err == nil {
		t.Fatal("expected a vertex error")
	}
	var vertexErr *VertexError
	if !errors.As(err, &vertexErr) {
		t.Fatalf("got %T, want *VertexError", err)
	}
}

func TestStreamlineSetHelpers(t *testing.T) {
	set := testSet()
	if got := set.TotalVertices(); got != 11 {
		t.Errorf("TotalVertices = %d, want 11", got)
	}
	scaled := set.Scale(10)
	if scaled[0][1] != (models.VoxelPoint{0.1, 0.2, 0.3}) {
		t.Errorf("Scale(10) gave %v", scaled[0][1])
	}
}
