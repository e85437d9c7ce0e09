package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// JSONProvider reads the catalog from two JSON files on disk, the same
// shape the upstream connectivity cache stores. Files are read lazily,
// once, and the decoded results are kept for subsequent calls.
type JSONProvider struct {
	ExperimentsPath string
	StructuresPath  string

	expsOnce sync.Once
	exps     []Experiment
	expsErr  error

	treeOnce sync.Once
	tree     []Structure
	treeErr  error
}

var _ Provider = (*JSONProvider)(nil)

// NewJSONProvider builds a provider over the given file paths.
func NewJSONProvider(experimentsPath, structuresPath string) *JSONProvider {
	return &JSONProvider{ExperimentsPath: experimentsPath, StructuresPath: structuresPath}
}

// Experiments returns the experiment list.
func (p *JSONProvider) Experiments() ([]Experiment, error) {
	p.expsOnce.Do(func() {
		if err := readJSON(p.ExperimentsPath, &p.exps); err != nil {
			p.expsErr = fmt.Errorf("loading experiments catalog: %w", err)
		}
	})
	return p.exps, p.expsErr
}

// StructureTree returns the anatomical structure tree.
func (p *JSONProvider) StructureTree() ([]Structure, error) {
	p.treeOnce.Do(func() {
		if err := readJSON(p.StructuresPath, &p.tree); err != nil {
			p.treeErr = fmt.Errorf("loading structure tree: %w", err)
		}
	})
	return p.tree, p.treeErr
}

func readJSON(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
