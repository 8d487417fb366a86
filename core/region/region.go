package region

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pyropy/chunkfmt/core/model"
)

// File is an open region file. All methods are safe for concurrent use;
// writes to the same file are serialized.
type File struct {
	mu sync.Mutex

	f        *os.File
	path     string
	dir      string
	pos      model.RegionPos
	writable bool

	locations  [SlotCount]location
	timestamps [SlotCount]uint32
	// headerSlots is the number of location entries fully present on disk.
	headerSlots int
	size        int64
	sectors     *sectorMap
	// claimed marks slots whose span is held in the sector map.
	claimed [SlotCount]bool

	now func() time.Time
}

// Open opens an existing region file for reading.
func Open(path string) (*File, error) {
	return open(path, false)
}

// OpenOrCreate opens a region file for reading and writing, creating it with
// an empty header when it does not exist.
func OpenOrCreate(path string) (*File, error) {
	return open(path, true)
}

func open(path string, writable bool) (*File, error) {
	pos, err := ParseFileName(filepath.Base(path))
	if err != nil {
		return nil, err
	}

	flag := os.O_RDONLY
	if writable {
		flag = os.O_RDWR | os.O_CREATE
	}

	f, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return nil, err
	}

	r := &File{
		f:        f,
		path:     path,
		dir:      filepath.Dir(path),
		pos:      pos,
		writable: writable,
		now:      time.Now,
	}

	if err := r.load(); err != nil {
		f.Close()
		return nil, err
	}

	return r, nil
}

func (r *File) load() error {
	info, err := r.f.Stat()
	if err != nil {
		return err
	}

	r.size = info.Size()
	if r.writable && r.size < HeaderSize {
		if err := r.f.Truncate(HeaderSize); err != nil {
			return err
		}
		r.size = HeaderSize
	}

	header := make([]byte, HeaderSize)
	n, err := r.f.ReadAt(header, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	r.headerSlots = n / 4
	if r.headerSlots > SlotCount || r.size == 0 {
		r.headerSlots = SlotCount
	}

	for i := 0; i < r.headerSlots; i++ {
		r.locations[i] = location(binary.BigEndian.Uint32(header[i*4:]))
	}

	for i := 0; i < SlotCount; i++ {
		at := SectorSize + i*4
		if at+4 > n {
			break
		}
		r.timestamps[i] = binary.BigEndian.Uint32(header[at:])
	}

	r.sectors = newSectorMap(int((r.size + SectorSize - 1) / SectorSize))
	for i := 0; i < r.headerSlots; i++ {
		loc := r.locations[i]
		if loc.absent() || loc.oversized() || !r.spanValid(loc) {
			continue
		}
		r.claimed[i] = r.sectors.claim(loc.offset(), loc.count())
	}

	return nil
}

func (r *File) spanValid(loc location) bool {
	if loc.offset() < HeaderSectors || loc.count() == 0 {
		return false
	}

	end := int64(loc.offset()+loc.count()) * SectorSize
	// the last sector may be short when the file was not padded
	return end-SectorSize < r.size
}

func (r *File) Pos() model.RegionPos {
	return r.pos
}

func (r *File) Path() string {
	return r.path
}

func checkBounds(x, z int) error {
	if x < 0 || x >= 32 || z < 0 || z >= 32 {
		return fmt.Errorf("%w: (%d, %d)", ErrOutOfBounds, x, z)
	}

	return nil
}

// Exists reports whether the slot holds a chunk.
func (r *File) Exists(x, z int) bool {
	if checkBounds(x, z) != nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return !r.locations[slotIndex(x, z)].absent()
}

// Timestamp returns the last modification time of the slot in epoch seconds.
func (r *File) Timestamp(x, z int) uint32 {
	if checkBounds(x, z) != nil {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.timestamps[slotIndex(x, z)]
}

// ChunkCount returns the number of populated slots.
func (r *File) ChunkCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, loc := range r.locations {
		if !loc.absent() {
			n++
		}
	}

	return n
}

// ReadChunk returns the compressed payload of the slot and its scheme byte.
func (r *File) ReadChunk(x, z int) ([]byte, byte, error) {
	if err := checkBounds(x, z); err != nil {
		return nil, 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	idx := slotIndex(x, z)
	if idx >= r.headerSlots {
		return nil, 0, corrupt(x, z, "header truncated at %d bytes", r.size)
	}

	loc := r.locations[idx]
	if loc.absent() {
		return nil, 0, ErrChunkAbsent
	}

	if loc.oversized() {
		return r.readOversized(x, z)
	}

	if loc.offset() < HeaderSectors {
		return nil, 0, corrupt(x, z, "offset %d points into the header", loc.offset())
	}

	start := int64(loc.offset()) * SectorSize
	if start+entryOverhead > r.size {
		return nil, 0, corrupt(x, z, "offset %d beyond end of file", loc.offset())
	}

	var head [entryOverhead]byte
	if _, err := r.f.ReadAt(head[:], start); err != nil {
		return nil, 0, corrupt(x, z, "read entry header: %v", err)
	}

	length := int64(binary.BigEndian.Uint32(head[:4]))
	if length == 0 {
		return nil, 0, corrupt(x, z, "zero length entry")
	}
	if length+4 > int64(loc.count())*SectorSize {
		return nil, 0, corrupt(x, z, "length %d exceeds %d sectors", length, loc.count())
	}
	if start+4+length > r.size {
		return nil, 0, corrupt(x, z, "entry truncated")
	}

	data := make([]byte, length-1)
	if _, err := r.f.ReadAt(data, start+entryOverhead); err != nil {
		return nil, 0, corrupt(x, z, "read entry body: %v", err)
	}

	return data, head[4], nil
}

// WriteChunk stores a compressed payload in the slot. The body is written
// before the header entries that reference it.
func (r *File) WriteChunk(x, z int, data []byte, scheme byte) error {
	if err := checkBounds(x, z); err != nil {
		return err
	}
	if !r.writable {
		return ErrReadOnly
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	idx := slotIndex(x, z)
	old := r.locations[idx]

	if len(data) > MaxInlinePayload {
		if err := r.writeOversized(x, z, data, scheme); err != nil {
			return err
		}
		if err := r.setEntry(idx, newLocation(0, OversizedCount)); err != nil {
			return err
		}
		r.releaseSlot(idx, old)

		return nil
	}

	count := sectorsFor(len(data))
	var offset int
	switch {
	case r.claimed[idx] && old.count() >= count:
		offset = old.offset()
		r.sectors.release(offset+count, old.count()-count)
	default:
		offset = r.sectors.allocate(count)
	}

	if offset > maxOffset {
		return fmt.Errorf("region %s: sector offset %d overflows the header", r.pos, offset)
	}

	buf := make([]byte, count*SectorSize)
	binary.BigEndian.PutUint32(buf, uint32(len(data)+1))
	buf[4] = scheme
	copy(buf[entryOverhead:], data)

	at := int64(offset) * SectorSize
	if _, err := r.f.WriteAt(buf, at); err != nil {
		return err
	}
	if end := at + int64(len(buf)); end > r.size {
		r.size = end
	}

	if err := r.setEntry(idx, newLocation(offset, count)); err != nil {
		return err
	}

	switch {
	case old.absent():
	case old.oversized():
		if err := r.removeOversized(x, z); err != nil {
			return err
		}
	case old.offset() != offset:
		r.releaseSlot(idx, old)
	}
	r.claimed[idx] = true

	return nil
}

func (r *File) releaseSlot(idx int, old location) {
	if r.claimed[idx] {
		r.sectors.release(old.offset(), old.count())
	}
	r.claimed[idx] = false
}

func (r *File) setEntry(idx int, loc location) error {
	ts := uint32(r.now().Unix())

	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(loc))
	if _, err := r.f.WriteAt(b[:], int64(idx*4)); err != nil {
		return err
	}

	binary.BigEndian.PutUint32(b[:], ts)
	if _, err := r.f.WriteAt(b[:], int64(SectorSize+idx*4)); err != nil {
		return err
	}

	r.locations[idx] = loc
	r.timestamps[idx] = ts
	if r.headerSlots < SlotCount {
		r.headerSlots = SlotCount
	}

	return nil
}

// Flush forces header and body writes to durable storage.
func (r *File) Flush() error {
	if !r.writable {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.f.Sync()
}

func (r *File) Close() error {
	if err := r.Flush(); err != nil {
		r.f.Close()
		return err
	}

	return r.f.Close()
}
