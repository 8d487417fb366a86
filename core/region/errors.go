package region

import (
	"errors"
	"fmt"
)

var (
	ErrChunkAbsent         = errors.New("chunk absent")
	ErrCorruptRegion       = errors.New("corrupt region data")
	ErrUnparseableFileName = errors.New("unparseable region file name")
	ErrReadOnly            = errors.New("region file is read-only")
	ErrOutOfBounds         = errors.New("local chunk coordinate out of bounds")
	ErrUnknownScheme       = errors.New("unknown compression scheme")
)

func corrupt(x, z int, format string, args ...any) error {
	return fmt.Errorf("%w: slot (%d, %d): %s", ErrCorruptRegion, x, z, fmt.Sprintf(format, args...))
}
