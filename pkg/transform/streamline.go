package transform

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"mouse2mri/internal/models"
)

// VertexError identifies a single vertex that could not be transformed.
// One malformed vertex never silently corrupts the output: the streamline
// it belongs to is reported with both indices, and the remaining
// streamlines are still processed unless fail-fast is requested.
type VertexError struct {
	Streamline int
	Vertex     int
	Err        error
}

func (e *VertexError) Error() string {
	return fmt.Sprintf("streamline %d vertex %d: %v", e.Streamline, e.Vertex, e.Err)
}

func (e *VertexError) Unwrap() error { return e.Err }

// StreamlineTransformer maps every vertex of a streamline set from atlas
// voxel coordinates into user space, preserving streamline count,
// per-streamline vertex counts and vertex order exactly.
//
// Streamlines are independent of each other, so the work is distributed
// over a pool of workers; there is no shared mutable state beyond the
// result slots, each owned by exactly one streamline.
type StreamlineTransformer struct {
	points *PointTransformer

	// Workers is the number of parallel workers. Zero means one worker
	// per CPU.
	Workers int

	// FailFast stops submitting new streamlines after the first vertex
	// error. Already-computed streamlines remain valid; nothing is
	// rolled back.
	FailFast bool
}

// NewStreamlineTransformer builds a transformer over the given point
// transformer.
func NewStreamlineTransformer(points *PointTransformer) *StreamlineTransformer {
	return &StreamlineTransformer{points: points}
}

// Transform maps the whole set. On success the returned set has exactly
// the same shape as the input. When vertices fail, their streamlines are
// left nil in the output and the joined VertexErrors are returned
// alongside the partial result.
func (st *StreamlineTransformer) Transform(set models.StreamlineSet) (models.StreamlineSet, error) {
	workers := st.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	out := make(models.StreamlineSet, len(set))

	type job struct {
		idx int
	}
	jobs := make(chan job)
	var wg sync.WaitGroup

	var mu sync.Mutex
	var errs []error
	failed := false

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				sl, err := st.transformOne(j.idx, set[j.idx])
				mu.Lock()
				if err != nil {
					errs = append(errs, err)
					failed = true
				} else {
					out[j.idx] = sl
				}
				mu.Unlock()
			}
		}()
	}

	for i := range set {
		if st.FailFast {
			mu.Lock()
			stop := failed
			mu.Unlock()
			if stop {
				break
			}
		}
		jobs <- job{idx: i}
	}
	close(jobs)
	wg.Wait()

	if len(errs) > 0 {
		return out, errors.Join(errs...)
	}
	return out, nil
}

// transformOne maps a single streamline, vertex by vertex in original
// order.
func (st *StreamlineTransformer) transformOne(idx int, sl models.Streamline) (models.Streamline, error) {
	result := make(models.Streamline, len(sl))
	for v, p := range sl {
		mapped, err := st.points.TransformVertex(p)
		if err != nil {
			return nil, &VertexError{Streamline: idx, Vertex: v, Err: err}
		}
		result[v] = mapped
	}
	return result, nil
}
