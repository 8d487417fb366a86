package region

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// CompanionName returns the name of the file holding an oversized chunk,
// keyed by absolute chunk coordinates.
func CompanionName(chunkX, chunkZ int32) string {
	return fmt.Sprintf("c.%d.%d.mcc", chunkX, chunkZ)
}

func (r *File) companionPath(x, z int) string {
	pos := r.pos.Chunk(x, z)
	return filepath.Join(r.dir, CompanionName(pos.X, pos.Z))
}

func (r *File) readOversized(x, z int) ([]byte, byte, error) {
	b, err := os.ReadFile(r.companionPath(x, z))
	if err != nil {
		return nil, 0, corrupt(x, z, "oversized companion: %v", err)
	}

	if len(b) < entryOverhead {
		return nil, 0, corrupt(x, z, "oversized companion is %d bytes", len(b))
	}

	length := int(binary.BigEndian.Uint32(b[:4]))
	if length == 0 || length > len(b)-4 {
		return nil, 0, corrupt(x, z, "oversized companion length %d, file has %d", length, len(b)-4)
	}

	return b[entryOverhead : 4+length], b[4], nil
}

func (r *File) writeOversized(x, z int, data []byte, scheme byte) error {
	buf := make([]byte, entryOverhead+len(data))
	binary.BigEndian.PutUint32(buf, uint32(len(data)+1))
	buf[4] = scheme
	copy(buf[entryOverhead:], data)

	return os.WriteFile(r.companionPath(x, z), buf, 0644)
}

func (r *File) removeOversized(x, z int) error {
	err := os.Remove(r.companionPath(x, z))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return nil
}
