package region

const (
	SectorSize     = 4096
	SlotCount      = 1024
	HeaderSectors  = 2
	HeaderSize     = HeaderSectors * SectorSize
	OversizedCount = 255

	// MaxInlineSectors is the longest span a body entry can claim, since a
	// count of 255 marks the chunk as oversized.
	MaxInlineSectors = OversizedCount - 1

	// MaxInlinePayload is the largest compressed payload kept in the body.
	// Each entry carries a 4-byte length and a scheme byte ahead of the data.
	MaxInlinePayload = MaxInlineSectors*SectorSize - entryOverhead

	entryOverhead = 5
	maxOffset     = 1<<24 - 1
)

type location uint32

func newLocation(offset, count int) location {
	return location(uint32(offset)<<8 | uint32(count&0xff))
}

func (l location) offset() int {
	return int(l >> 8)
}

func (l location) count() int {
	return int(l & 0xff)
}

func (l location) absent() bool {
	return l == 0
}

func (l location) oversized() bool {
	return l.count() == OversizedCount
}

func slotIndex(x, z int) int {
	return z*32 + x
}

// sectorsFor returns the number of sectors a payload of n bytes occupies
// once the entry header is prepended.
func sectorsFor(n int) int {
	return (n + entryOverhead + SectorSize - 1) / SectorSize
}

// sectorMap tracks which sectors of a region file are claimed by the header
// or by a body entry.
type sectorMap struct {
	used []bool
}

func newSectorMap(sectors int) *sectorMap {
	if sectors < HeaderSectors {
		sectors = HeaderSectors
	}

	m := &sectorMap{used: make([]bool, sectors)}
	for i := 0; i < HeaderSectors; i++ {
		m.used[i] = true
	}

	return m
}

func (m *sectorMap) grow(sectors int) {
	for len(m.used) < sectors {
		m.used = append(m.used, false)
	}
}

// claim reports false when any sector of the span is already taken.
func (m *sectorMap) claim(offset, count int) bool {
	m.grow(offset + count)
	for i := offset; i < offset+count; i++ {
		if m.used[i] {
			return false
		}
	}

	for i := offset; i < offset+count; i++ {
		m.used[i] = true
	}

	return true
}

func (m *sectorMap) release(offset, count int) {
	for i := offset; i < offset+count && i < len(m.used); i++ {
		if i >= HeaderSectors {
			m.used[i] = false
		}
	}
}

// allocate returns the first run of count free sectors, extending the map
// past the end of the file when no run fits.
func (m *sectorMap) allocate(count int) int {
	run := 0
	for i := HeaderSectors; i < len(m.used); i++ {
		if m.used[i] {
			run = 0
			continue
		}

		run++
		if run == count {
			start := i - count + 1
			m.claim(start, count)
			return start
		}
	}

	start := len(m.used) - run
	m.claim(start, count)
	return start
}

func (m *sectorMap) size() int {
	return len(m.used)
}
