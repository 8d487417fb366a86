package upgrade

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pyropy/chunkfmt/core/chunktree"
	"gopkg.in/yaml.v2"
)

var (
	ErrInvalidRule = errors.New("invalid upgrade rule")
)

// Rules is the YAML form of a fixer:
//
//	target: 1343
//	steps:
//	  - version: 1022
//	    name: heightmap
//	    rename:
//	      Level.HeightMap: Level.Heightmap
//	    remove: [Level.Legacy]
//	    defaults:
//	      - path: Level.InhabitedTime
//	        type: long
//	        value: 0
type Rules struct {
	Target int32      `yaml:"target"`
	Steps  []RuleStep `yaml:"steps"`
}

type RuleStep struct {
	Version  int32             `yaml:"version"`
	Name     string            `yaml:"name"`
	Rename   map[string]string `yaml:"rename"`
	Remove   []string          `yaml:"remove"`
	Defaults []Default         `yaml:"defaults"`
}

// Default sets Path to Value when the path is missing.
type Default struct {
	Path  string      `yaml:"path"`
	Type  string      `yaml:"type"`
	Value interface{} `yaml:"value"`
}

// LoadRules reads a rules file. The target of the file wins over the given
// target when set.
func LoadRules(path string, target int32) (*Fixer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseRules(file, target)
}

func ParseRules(r io.Reader, target int32) (*Fixer, error) {
	var rules Rules
	d := yaml.NewDecoder(r)
	if err := d.Decode(&rules); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse upgrade rules: %w", err)
	}

	if rules.Target != 0 {
		target = rules.Target
	}

	steps := make([]Step, 0, len(rules.Steps))
	for _, rs := range rules.Steps {
		step, err := rs.compile()
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}

	return NewFixer(target, steps...), nil
}

type defaultValue struct {
	path  string
	value any
}

func (rs RuleStep) compile() (Step, error) {
	if rs.Version <= 0 {
		return Step{}, fmt.Errorf("%w: step %q has no version", ErrInvalidRule, rs.Name)
	}

	defaults := make([]defaultValue, 0, len(rs.Defaults))
	for _, d := range rs.Defaults {
		if d.Path == "" {
			return Step{}, fmt.Errorf("%w: step %d: default without path", ErrInvalidRule, rs.Version)
		}

		v, err := convertValue(d.Type, d.Value)
		if err != nil {
			return Step{}, fmt.Errorf("%w: step %d: %s: %v", ErrInvalidRule, rs.Version, d.Path, err)
		}

		defaults = append(defaults, defaultValue{path: d.Path, value: v})
	}

	name := rs.Name
	if name == "" {
		name = fmt.Sprintf("step-%d", rs.Version)
	}

	renames := make([]string, 0, len(rs.Rename))
	for from := range rs.Rename {
		renames = append(renames, from)
	}
	sort.Strings(renames)

	apply := func(tree chunktree.Compound) error {
		for _, from := range renames {
			to := rs.Rename[from]
			v, ok := tree.Lookup(from)
			if !ok {
				continue
			}
			if !tree.SetPath(to, v) {
				return fmt.Errorf("rename %s to %s: parent is not a compound", from, to)
			}
			tree.RemovePath(from)
		}

		for _, p := range rs.Remove {
			tree.RemovePath(p)
		}

		for _, d := range defaults {
			if _, ok := tree.Lookup(d.path); ok {
				continue
			}
			if !tree.SetPath(d.path, d.value) {
				return fmt.Errorf("default %s: parent is not a compound", d.path)
			}
		}

		return nil
	}

	return Step{
		Version: rs.Version,
		Name:    name,
		Apply:   apply,
	}, nil
}

func convertValue(typ string, value interface{}) (any, error) {
	switch typ {
	case "", "int":
		n, err := toInt64(value)
		return int32(n), err
	case "byte":
		n, err := toInt64(value)
		return int8(n), err
	case "short":
		n, err := toInt64(value)
		return int16(n), err
	case "long":
		return toInt64(value)
	case "float":
		f, err := toFloat64(value)
		return float32(f), err
	case "double":
		return toFloat64(value)
	case "string":
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", value)
		}
		return s, nil
	case "compound":
		return chunktree.Compound{}, nil
	default:
		return nil, fmt.Errorf("unknown type %q", typ)
	}
}

func toInt64(value interface{}) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case uint64:
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", value)
	}
}

func toFloat64(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("expected number, got %T", value)
	}
}
