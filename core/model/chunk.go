package model

import (
	"fmt"

	"github.com/Tnze/go-mc/save/region"
)

const RegionWidth = 32

// ChunkPos is a chunk coordinate in chunk units.
type ChunkPos struct {
	X int32
	Z int32
}

func (p ChunkPos) Region() RegionPos {
	x, z := region.At(int(p.X), int(p.Z))
	return RegionPos{X: int32(x), Z: int32(z)}
}

// Local returns the position of the chunk inside its region, both in [0, 32).
func (p ChunkPos) Local() (int, int) {
	return region.In(int(p.X), int(p.Z))
}

func (p ChunkPos) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Z)
}

// RegionPos is a region coordinate in region units.
type RegionPos struct {
	X int32
	Z int32
}

func (r RegionPos) Chunk(localX, localZ int) ChunkPos {
	return ChunkPos{
		X: r.X*RegionWidth + int32(localX),
		Z: r.Z*RegionWidth + int32(localZ),
	}
}

func (r RegionPos) String() string {
	return fmt.Sprintf("(%d, %d)", r.X, r.Z)
}

// ChunkRecord is a single chunk payload in flight between a region file and the store.
type ChunkRecord struct {
	Pos    ChunkPos
	Scheme byte   // region compression scheme, zero when the payload is zstd
	Data   []byte
}
