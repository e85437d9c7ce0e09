// Package models defines the plain data types shared by the transform
// pipeline. Coordinates are unit-tagged by type so that a point in atlas
// microns cannot be passed where a point in voxels is expected.
package models

// MicronPoint is a coordinate in atlas space expressed in microns along
// the canonical P/I/R axes.
type MicronPoint [3]float64

// VoxelPoint is a coordinate expressed in voxel units. Which grid it
// indexes (atlas or user reference) is stated by the function that
// produces or consumes it.
type VoxelPoint [3]float64

// Index is an integer voxel coordinate, used where a point addresses a
// concrete grid cell rather than a continuous position.
type Index [3]int

// Streamline is an ordered 3D polyline. Vertex order is significant and
// must be preserved by every transformation.
type Streamline []VoxelPoint

// StreamlineSet is a collection of streamlines sharing one space/unit tag.
// Order across streamlines carries no meaning, but transforms keep it
// stable so that outputs can be matched back to inputs by index.
type StreamlineSet []Streamline

// Counts returns the number of vertices in each streamline, in set order.
func (s StreamlineSet) Counts() []int {
	counts := make([]int, len(s))
	for i, sl := range s {
		counts[i] = len(sl)
	}
	return counts
}

// TotalVertices returns the number of vertices across all streamlines.
func (s StreamlineSet) TotalVertices() int {
	total := 0
	for _, sl := range s {
		total += len(sl)
	}
	return total
}

// Scale divides every vertex component by the given factor, returning a
// new set. Used to bring raw micron streamlines into voxel units before
// a space transform.
func (s StreamlineSet) Scale(factor float64) StreamlineSet {
	out := make(StreamlineSet, len(s))
	for i, sl := range s {
		scaled := make(Streamline, len(sl))
		for j, p := range sl {
			scaled[j] = VoxelPoint{p[0] / factor, p[1] / factor, p[2] / factor}
		}
		out[i] = scaled
	}
	return out
}
