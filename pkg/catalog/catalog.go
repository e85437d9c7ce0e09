// Package catalog provides read-only access to atlas metadata: the
// connectivity experiments and the anatomical structure tree. The
// transform core never touches cached state directly; callers inject a
// Provider and the core stays a pure function of its inputs.
package catalog

import (
	"fmt"

	"mouse2mri/internal/models"
	"mouse2mri/pkg/atlas"
)

// Experiment is one tracer-injection experiment, with its injection site
// in atlas microns (P/I/R order).
type Experiment struct {
	ID              int64   `json:"id"`
	StructureAbbrev string  `json:"structure_abbrev"`
	InjectionX      float64 `json:"injection_x"`
	InjectionY      float64 `json:"injection_y"`
	InjectionZ      float64 `json:"injection_z"`
}

// Structure is one node of the anatomical structure tree.
type Structure struct {
	ID       int64  `json:"id"`
	Acronym  string `json:"acronym"`
	Name     string `json:"name"`
	ParentID int64  `json:"parent_id"`
}

// Provider is the read-only data source the rest of the system depends
// on. Implementations must be safe for concurrent readers.
type Provider interface {
	Experiments() ([]Experiment, error)
	StructureTree() ([]Structure, error)
}

// Hemisphere labels for injection sites.
const (
	HemisphereLeft  = "L"
	HemisphereRight = "R"
)

// InjectionInfo returns the injection structure acronym, the injection
// coordinates, and the hemisphere of an experiment. The R/L split is the
// midpoint of the atlas extent along the right axis.
func InjectionInfo(e Experiment) (roi string, pos models.MicronPoint, hemisphere string) {
	pos = models.MicronPoint{e.InjectionX, e.InjectionY, e.InjectionZ}
	hemisphere = HemisphereLeft
	if e.InjectionZ >= atlas.ExtentR/2 {
		hemisphere = HemisphereRight
	}
	return e.StructureAbbrev, pos, hemisphere
}

// FindExperiment looks an experiment up by ID.
func FindExperiment(exps []Experiment, id int64) (Experiment, error) {
	for _, e := range exps {
		if e.ID == id {
			return e, nil
		}
	}
	return Experiment{}, fmt.Errorf("experiment %d not found in catalog", id)
}

// AncestorPath returns the structures from the root down to the given
// structure, inclusive, following parent links through the tree.
func AncestorPath(tree []Structure, id int64) ([]Structure, error) {
	byID := make(map[int64]Structure, len(tree))
	for _, s := range tree {
		byID[s.ID] = s
	}
	var path []Structure
	cur, ok := byID[id]
	if !ok {
		return nil, fmt.Errorf("structure %d not found in tree", id)
	}
	for {
		path = append(path, cur)
		if cur.ParentID == 0 {
			break
		}
		parent, ok := byID[cur.ParentID]
		if !ok {
			return nil, fmt.Errorf("structure %d has unknown parent %d", cur.ID, cur.ParentID)
		}
		if len(path) > len(tree) {
			return nil, fmt.Errorf("structure tree contains a cycle at %d", cur.ID)
		}
		cur = parent
	}
	// Root first.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}
