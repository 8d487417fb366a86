package converter

import (
	"errors"
	"fmt"

	"github.com/pyropy/chunkfmt/core/region"
	"github.com/pyropy/chunkfmt/core/store"
)

var (
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrAlreadyRun         = errors.New("converter already ran")
	ErrNotDirectory       = errors.New("not a directory")
)

// Category groups unit failures for the run summary.
type Category string

const (
	CategoryPrecondition  Category = "PreconditionFailed"
	CategoryCorruptRegion Category = "CorruptRegionData"
	CategoryCorruptRow    Category = "CorruptStoreRow"
	CategoryUnparseable   Category = "UnparseableFileName"
	CategoryOther         Category = "Other"
)

var Categories = []Category{
	CategoryPrecondition,
	CategoryCorruptRegion,
	CategoryCorruptRow,
	CategoryUnparseable,
	CategoryOther,
}

func Classify(err error) Category {
	switch {
	case errors.Is(err, ErrPreconditionFailed):
		return CategoryPrecondition
	case errors.Is(err, region.ErrUnparseableFileName):
		return CategoryUnparseable
	case errors.Is(err, region.ErrCorruptRegion):
		return CategoryCorruptRegion
	case errors.Is(err, store.ErrCorruptRow):
		return CategoryCorruptRow
	default:
		return CategoryOther
	}
}

func precondition(reason string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrPreconditionFailed, reason)
	}

	return fmt.Errorf("%w: %s: %w", ErrPreconditionFailed, reason, err)
}
