// Package normalize reconciles the chunk fields that region files carry but
// the chunk store omits.
package normalize

import (
	"github.com/Tnze/go-mc/nbt"
	"github.com/pyropy/chunkfmt/core/chunktree"
	"github.com/pyropy/chunkfmt/core/model"
)

const (
	DefaultDataVersion = 1343
	SkyLightSize       = 2048

	keyDataVersion = "DataVersion"
	keyLevel       = "Level"
	keyXPos        = "xPos"
	keyZPos        = "zPos"
	keyLastUpdate  = "LastUpdate"
	keySections    = "Sections"
	keySkyLight    = "SkyLight"
)

// Pack prepares a chunk read from a region file for the store. Skylight is
// dropped from every section of a dimension without natural light.
func Pack(tree chunktree.Compound, hasSkyLight bool) chunktree.Compound {
	if hasSkyLight {
		return tree
	}

	level, ok := tree.Compound(keyLevel)
	if !ok {
		return tree
	}

	eachSection(level, func(section chunktree.Compound) {
		section.Remove(keySkyLight)
	})

	return tree
}

// Unpack restores the fields a region file needs from a chunk read out of the
// store. The coordinate overrides whatever position the tree carries.
func Unpack(tree chunktree.Compound, pos model.ChunkPos, dataVersion int32, hasSkyLight bool) chunktree.Compound {
	if tree == nil {
		tree = chunktree.Compound{}
	}

	tree.SetInt(keyDataVersion, dataVersion)

	level, ok := tree.Compound(keyLevel)
	if !ok {
		level = chunktree.Compound{}
	}
	tree.SetCompound(keyLevel, level)

	level.SetInt(keyXPos, pos.X)
	level.SetInt(keyZPos, pos.Z)

	if !level.Has(keyLastUpdate, nbt.TagLong) {
		level.SetLong(keyLastUpdate, 0)
	}

	eachSection(level, func(section chunktree.Compound) {
		if !hasSkyLight {
			section.Remove(keySkyLight)
			return
		}

		if !section.Has(keySkyLight, nbt.TagByteArray) {
			section.SetByteArray(keySkyLight, make([]byte, SkyLightSize))
		}
	})

	return tree
}

func eachSection(level chunktree.Compound, fn func(section chunktree.Compound)) {
	sections, ok := level.List(keySections)
	if !ok {
		return
	}

	for i, s := range sections.Values {
		var section chunktree.Compound
		switch s := s.(type) {
		case chunktree.Compound:
			section = s
		case map[string]any:
			section = chunktree.Compound(s)
			sections.Values[i] = section
		default:
			continue
		}

		fn(section)
	}
}
