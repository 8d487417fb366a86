package upgrade

import (
	"errors"
	"strings"
	"testing"

	"github.com/pyropy/chunkfmt/core/chunktree"
)

func recordingSteps(applied *[]int32, versions ...int32) []Step {
	steps := make([]Step, 0, len(versions))
	for _, v := range versions {
		v := v
		steps = append(steps, Step{
			Version: v,
			Apply: func(tree chunktree.Compound) error {
				*applied = append(*applied, v)
				return nil
			},
		})
	}

	return steps
}

func TestFixerAppliesStepsInOrder(t *testing.T) {
	var applied []int32
	f := NewFixer(1343, recordingSteps(&applied, 1300, 1000, 1343, 1500, 1200)...)

	tree, err := f.Upgrade(chunktree.Compound{"DataVersion": int32(1100)}, 1100)
	if err != nil {
		t.Fatalf("Upgrade failed: %v", err)
	}

	expected := []int32{1200, 1300, 1343}
	if len(applied) != len(expected) {
		t.Fatalf("Expected steps %v, got %v", expected, applied)
	}
	for i := range expected {
		if applied[i] != expected[i] {
			t.Errorf("Expected steps %v, got %v", expected, applied)
			break
		}
	}

	if v := DataVersion(tree); v != 1343 {
		t.Errorf("Expected DataVersion stamped to 1343, got %d", v)
	}
}

func TestFixerLeavesNewerChunks(t *testing.T) {
	var applied []int32
	f := NewFixer(1343, recordingSteps(&applied, 1000, 1343)...)

	tree, err := f.Upgrade(chunktree.Compound{"DataVersion": int32(1631)}, 1631)
	if err != nil {
		t.Fatalf("Upgrade failed: %v", err)
	}

	if len(applied) != 0 {
		t.Errorf("Expected no steps for a newer chunk, got %v", applied)
	}
	if v := DataVersion(tree); v != 1631 {
		t.Errorf("Expected DataVersion untouched, got %d", v)
	}
}

func TestFixerUnknownVersion(t *testing.T) {
	var applied []int32
	f := NewFixer(1343, recordingSteps(&applied, 0, 100)...)

	tree := chunktree.Compound{}
	if _, err := f.Upgrade(tree, DataVersion(tree)); err != nil {
		t.Fatalf("Upgrade failed: %v", err)
	}

	if len(applied) != 2 {
		t.Errorf("Expected every step for a chunk without version, got %v", applied)
	}
}

func TestFixerStepError(t *testing.T) {
	boom := errors.New("boom")
	f := NewFixer(10, Step{Version: 5, Name: "explode", Apply: func(chunktree.Compound) error { return boom }})

	_, err := f.Upgrade(chunktree.Compound{}, UnknownVersion)
	if !errors.Is(err, boom) {
		t.Fatalf("Expected step error, got %v", err)
	}
	if !strings.Contains(err.Error(), "explode") {
		t.Errorf("Expected step name in error, got %v", err)
	}
}
