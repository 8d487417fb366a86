package region

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/pyropy/chunkfmt/core/model"
	cmap "github.com/pyropy/chunkfmt/lib/concurrent_map"
)

type cacheEntry struct {
	once sync.Once
	file *File
	err  error
}

// Cache keeps one writable handle per region file of a directory. Handles are
// opened on first use and live until Close.
type Cache struct {
	dir   string
	files *cmap.Map[model.RegionPos, *cacheEntry]
}

func NewCache(dir string) *Cache {
	return &Cache{
		dir:   dir,
		files: cmap.NewMap[model.RegionPos, *cacheEntry](),
	}
}

// File returns the handle for the region, opening it once.
func (c *Cache) File(pos model.RegionPos) (*File, error) {
	entry, _ := c.files.GetOrSet(pos, &cacheEntry{})
	entry.once.Do(func() {
		entry.file, entry.err = OpenOrCreate(filepath.Join(c.dir, FileName(pos)))
	})

	return entry.file, entry.err
}

// WriteChunk routes the payload to the region file owning pos.
func (c *Cache) WriteChunk(pos model.ChunkPos, data []byte, scheme byte) error {
	f, err := c.File(pos.Region())
	if err != nil {
		return err
	}

	x, z := pos.Local()
	return f.WriteChunk(x, z, data, scheme)
}

// Len returns the number of region files touched so far.
func (c *Cache) Len() int {
	return c.files.Len()
}

// Close flushes and closes every open handle.
func (c *Cache) Close() error {
	var errs []error
	c.files.Range(func(pos model.RegionPos, entry *cacheEntry) bool {
		if entry.file != nil {
			if err := entry.file.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		c.files.Delete(pos)
		return true
	})

	return errors.Join(errs...)
}
