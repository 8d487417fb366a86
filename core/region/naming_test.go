package region

import (
	"errors"
	"testing"

	"github.com/pyropy/chunkfmt/core/model"
)

func TestParseFileName(t *testing.T) {
	testCases := []struct {
		name     string
		region   bool
		expected model.RegionPos
		err      error
	}{
		{"r.0.0.mca", true, model.RegionPos{X: 0, Z: 0}, nil},
		{"r.-1.0.mca", true, model.RegionPos{X: -1, Z: 0}, nil},
		{"r.12.-340.mca", true, model.RegionPos{X: 12, Z: -340}, nil},
		{"r.abc.mca", true, model.RegionPos{}, ErrUnparseableFileName},
		{"r.1.2.3.mca", true, model.RegionPos{}, ErrUnparseableFileName},
		{"r.99999999999.0.mca", true, model.RegionPos{}, ErrUnparseableFileName},
		{"r.0.0.mcr", false, model.RegionPos{}, ErrUnparseableFileName},
		{"c.1.2.mcc", false, model.RegionPos{}, ErrUnparseableFileName},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsRegionFile(tc.name); got != tc.region {
				t.Errorf("Expected IsRegionFile %v, got %v", tc.region, got)
			}

			pos, err := ParseFileName(tc.name)
			if tc.err != nil {
				if !errors.Is(err, tc.err) {
					t.Errorf("Expected error %v, got %v", tc.err, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseFileName failed: %v", err)
			}
			if pos != tc.expected {
				t.Errorf("Expected %v, got %v", tc.expected, pos)
			}
			if FileName(pos) != tc.name {
				t.Errorf("Expected FileName to give %s, got %s", tc.name, FileName(pos))
			}
		})
	}
}
