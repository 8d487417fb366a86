package region

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pyropy/chunkfmt/core/model"
)

const (
	filePrefix = "r."
	fileSuffix = ".mca"
)

var fileNameRe = regexp.MustCompile(`^r\.(-?\d+)\.(-?\d+)\.mca$`)

func FileName(pos model.RegionPos) string {
	return fmt.Sprintf("r.%d.%d.mca", pos.X, pos.Z)
}

// IsRegionFile reports whether name looks like a region file. Names passing
// this check may still fail ParseFileName.
func IsRegionFile(name string) bool {
	return strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileSuffix)
}

func ParseFileName(name string) (model.RegionPos, error) {
	m := fileNameRe.FindStringSubmatch(name)
	if m == nil {
		return model.RegionPos{}, fmt.Errorf("%w: %q", ErrUnparseableFileName, name)
	}

	x, err := strconv.ParseInt(m[1], 10, 32)
	if err != nil {
		return model.RegionPos{}, fmt.Errorf("%w: %q: %v", ErrUnparseableFileName, name, err)
	}

	z, err := strconv.ParseInt(m[2], 10, 32)
	if err != nil {
		return model.RegionPos{}, fmt.Errorf("%w: %q: %v", ErrUnparseableFileName, name, err)
	}

	return model.RegionPos{X: int32(x), Z: int32(z)}, nil
}
