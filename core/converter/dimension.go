package converter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pyropy/chunkfmt/core/model"
)

const (
	dimPrefix = "DIM"
	RegionDir = "region"
)

// ResolveDimension picks the dimension folder of a world: the first entry
// whose name starts with DIM, or the world folder itself.
func ResolveDimension(worldDir string) (model.Dimension, error) {
	entries, err := os.ReadDir(worldDir)
	if err != nil {
		return model.Dimension{}, err
	}

	dir := worldDir
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), dimPrefix) {
			dir = filepath.Join(worldDir, e.Name())
			break
		}
	}

	info, err := os.Stat(dir)
	if err != nil {
		return model.Dimension{}, err
	}
	if !info.IsDir() {
		return model.Dimension{}, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	return NewDimension(dir), nil
}

// NewDimension describes dir without touching the filesystem.
func NewDimension(dir string) model.Dimension {
	return model.Dimension{
		Dir:         dir,
		HasSkyLight: !strings.HasPrefix(filepath.Base(filepath.Clean(dir)), dimPrefix),
	}
}

func regionDir(dim model.Dimension) string {
	return filepath.Join(dim.Dir, RegionDir)
}
