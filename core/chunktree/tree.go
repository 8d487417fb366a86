package chunktree

import (
	"strings"

	"github.com/Tnze/go-mc/nbt"
)

// Compound is a mutable NBT compound. Values hold the decoded Go form of each
// tag: int8, int16, int32, int64, float32, float64, string, []byte, []int32,
// []int64, List and Compound for nested compounds.
type Compound map[string]any

// List is an NBT list. Elem is the element tag type, which an empty list
// keeps from the data it was decoded from.
type List struct {
	Elem   byte
	Values []any
}

// NewList builds a list typed after its first value, or TagEnd when empty.
func NewList(values ...any) List {
	l := List{Elem: nbt.TagEnd, Values: values}
	if len(values) > 0 {
		l.Elem = TagOf(values[0])
	}
	if l.Values == nil {
		l.Values = []any{}
	}

	return l
}

func (l List) Len() int {
	return len(l.Values)
}

// TagOf returns the NBT tag type a value encodes as, or TagEnd when unknown.
func TagOf(v any) byte {
	switch v.(type) {
	case int8, uint8, bool:
		return nbt.TagByte
	case int16:
		return nbt.TagShort
	case int32:
		return nbt.TagInt
	case int64:
		return nbt.TagLong
	case float32:
		return nbt.TagFloat
	case float64:
		return nbt.TagDouble
	case []byte, []int8:
		return nbt.TagByteArray
	case string:
		return nbt.TagString
	case List, []any:
		return nbt.TagList
	case Compound, map[string]any:
		return nbt.TagCompound
	case []int32:
		return nbt.TagIntArray
	case []int64:
		return nbt.TagLongArray
	default:
		return nbt.TagEnd
	}
}

func (c Compound) Has(name string, tagType byte) bool {
	v, ok := c[name]
	return ok && TagOf(v) == tagType
}

func (c Compound) Int(name string) (int32, bool) {
	v, ok := c[name].(int32)
	return v, ok
}

func (c Compound) Long(name string) (int64, bool) {
	v, ok := c[name].(int64)
	return v, ok
}

func (c Compound) ByteArray(name string) ([]byte, bool) {
	switch v := c[name].(type) {
	case []byte:
		return v, true
	case []int8:
		b := make([]byte, len(v))
		for i := range v {
			b[i] = byte(v[i])
		}
		return b, true
	default:
		return nil, false
	}
}

func (c Compound) Compound(name string) (Compound, bool) {
	switch v := c[name].(type) {
	case Compound:
		return v, true
	case map[string]any:
		return Compound(v), true
	default:
		return nil, false
	}
}

// List returns the named list. A plain []any value is typed after its first
// element and stored back so edits through Values stick.
func (c Compound) List(name string) (List, bool) {
	switch v := c[name].(type) {
	case List:
		return v, true
	case []any:
		l := NewList(v...)
		c[name] = l
		return l, true
	default:
		return List{}, false
	}
}

func (c Compound) SetInt(name string, v int32) {
	c[name] = v
}

func (c Compound) SetLong(name string, v int64) {
	c[name] = v
}

func (c Compound) SetByteArray(name string, v []byte) {
	c[name] = v
}

func (c Compound) SetCompound(name string, v Compound) {
	c[name] = v
}

func (c Compound) Remove(name string) {
	delete(c, name)
}

// Lookup resolves a dotted path such as "Level.Sections" through nested compounds.
func (c Compound) Lookup(path string) (any, bool) {
	parent, leaf, ok := c.parent(path, false)
	if !ok {
		return nil, false
	}

	v, ok := parent[leaf]
	return v, ok
}

// SetPath stores v at a dotted path, creating intermediate compounds.
// It reports false when an intermediate element exists but is not a compound.
func (c Compound) SetPath(path string, v any) bool {
	parent, leaf, ok := c.parent(path, true)
	if !ok {
		return false
	}

	parent[leaf] = v
	return true
}

// RemovePath deletes the value at a dotted path and reports whether it existed.
func (c Compound) RemovePath(path string) bool {
	parent, leaf, ok := c.parent(path, false)
	if !ok {
		return false
	}

	_, existed := parent[leaf]
	delete(parent, leaf)
	return existed
}

func (c Compound) parent(path string, create bool) (Compound, string, bool) {
	parts := strings.Split(path, ".")
	cur := c
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur.Compound(p)
		if !ok {
			if _, taken := cur[p]; taken || !create {
				return nil, "", false
			}
			next = Compound{}
			cur[p] = next
		}
		cur = next
	}

	return cur, parts[len(parts)-1], true
}
