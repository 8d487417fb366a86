// Package upgrade brings chunks written by older game versions up to the
// data version the chunk store is created for.
package upgrade

import (
	"fmt"
	"sort"

	"github.com/pyropy/chunkfmt/core/chunktree"
)

const (
	UnknownVersion int32 = -1

	keyDataVersion = "DataVersion"
)

// Upgrader migrates a chunk tree from the given data version.
type Upgrader interface {
	Upgrade(tree chunktree.Compound, fromVersion int32) (chunktree.Compound, error)
}

// Step is a single migration introduced at Version.
type Step struct {
	Version int32
	Name    string
	Apply   func(tree chunktree.Compound) error
}

// Fixer applies every step newer than the chunk and no newer than the target,
// in version order. Chunks at or above the target are left untouched.
type Fixer struct {
	target int32
	steps  []Step
}

func NewFixer(target int32, steps ...Step) *Fixer {
	sorted := make([]Step, len(steps))
	copy(sorted, steps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Version < sorted[j].Version
	})

	return &Fixer{
		target: target,
		steps:  sorted,
	}
}

func (f *Fixer) Target() int32 {
	return f.target
}

func (f *Fixer) Steps() []Step {
	return f.steps
}

func (f *Fixer) Upgrade(tree chunktree.Compound, fromVersion int32) (chunktree.Compound, error) {
	if fromVersion >= f.target {
		return tree, nil
	}

	for _, step := range f.steps {
		if step.Version <= fromVersion || step.Version > f.target {
			continue
		}

		if err := step.Apply(tree); err != nil {
			return nil, fmt.Errorf("upgrade step %d %q: %w", step.Version, step.Name, err)
		}
	}

	tree.SetInt(keyDataVersion, f.target)
	return tree, nil
}

// DataVersion returns the data version stamped on the chunk, or UnknownVersion.
func DataVersion(tree chunktree.Compound) int32 {
	v, ok := tree.Int(keyDataVersion)
	if !ok {
		return UnknownVersion
	}

	return v
}
