package chunktree

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/Tnze/go-mc/nbt"
)

// Codec turns serialized chunk data into a tree and back.
type Codec interface {
	Encode(tree Compound) ([]byte, error)
	Decode(data []byte) (Compound, error)
}

// NBT is the binary NBT codec used by region files.
type NBT struct{}

var errNotCompound = errors.New("root tag is not a compound")

func (NBT) Encode(tree Compound) ([]byte, error) {
	var buf bytes.Buffer
	if err := nbt.NewEncoder(&buf).Encode(tree, ""); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (NBT) Decode(data []byte) (Compound, error) {
	var root nbt.RawMessage
	if _, err := nbt.NewDecoder(bytes.NewReader(data)).Decode(&root); err != nil {
		return nil, fmt.Errorf("decode nbt: %w", err)
	}
	if root.Type != nbt.TagCompound {
		return nil, fmt.Errorf("decode nbt: %w", errNotCompound)
	}

	v, err := decodeRaw(root)
	if err != nil {
		return nil, fmt.Errorf("decode nbt: %w", err)
	}

	return v.(Compound), nil
}

// decodeRaw expands one tag at a time so lists keep their element type.
func decodeRaw(raw nbt.RawMessage) (any, error) {
	switch raw.Type {
	case nbt.TagCompound:
		var entries map[string]nbt.RawMessage
		if err := raw.Unmarshal(&entries); err != nil {
			return nil, err
		}

		c := make(Compound, len(entries))
		for k, e := range entries {
			v, err := decodeRaw(e)
			if err != nil {
				return nil, fmt.Errorf("tag %q: %w", k, err)
			}
			c[k] = v
		}
		return c, nil

	case nbt.TagList:
		var elems []nbt.RawMessage
		if err := raw.Unmarshal(&elems); err != nil {
			return nil, err
		}

		l := List{Elem: raw.Data[0], Values: make([]any, len(elems))}
		for i, e := range elems {
			v, err := decodeRaw(e)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			l.Values[i] = v
		}
		return l, nil

	default:
		var v any
		if err := raw.Unmarshal(&v); err != nil {
			return nil, err
		}
		return normalizeValue(v), nil
	}
}

func normalizeValue(v any) any {
	switch v := v.(type) {
	case uint8:
		return int8(v)
	case []int8:
		b := make([]byte, len(v))
		for i := range v {
			b[i] = byte(v[i])
		}
		return b
	default:
		return v
	}
}

func (c Compound) TagType() byte {
	return nbt.TagCompound
}

// MarshalNBT writes the entries in key order followed by TagEnd.
func (c Compound) MarshalNBT(w io.Writer) error {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	enc := nbt.NewEncoder(w)
	for _, k := range keys {
		if err := enc.Encode(marshaler(c[k]), k); err != nil {
			return fmt.Errorf("encode %q: %w", k, err)
		}
	}

	_, err := w.Write([]byte{nbt.TagEnd})
	return err
}

func (l List) TagType() byte {
	return nbt.TagList
}

// MarshalNBT writes the element type, the length and every element payload.
func (l List) MarshalNBT(w io.Writer) error {
	if len(l.Values) > 0 && l.Elem == nbt.TagEnd {
		return errors.New("list has values but no element type")
	}

	if _, err := w.Write([]byte{l.Elem}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, int32(len(l.Values))); err != nil {
		return err
	}

	for i, v := range l.Values {
		if t := TagOf(v); t != l.Elem {
			return fmt.Errorf("list element %d has tag %d, list holds %d", i, t, l.Elem)
		}
		if err := writePayload(w, v); err != nil {
			return fmt.Errorf("list element %d: %w", i, err)
		}
	}

	return nil
}

// marshaler maps plain Go containers onto the ordered writers.
func marshaler(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return Compound(v)
	case []any:
		return NewList(v...)
	default:
		return v
	}
}

func writePayload(w io.Writer, v any) error {
	if m, ok := marshaler(v).(nbt.Marshaler); ok {
		return m.MarshalNBT(w)
	}

	var buf bytes.Buffer
	if err := nbt.NewEncoder(&buf).Encode(v, ""); err != nil {
		return err
	}

	// Skip the tag type and the empty name ahead of the payload.
	_, err := w.Write(buf.Bytes()[3:])
	return err
}
