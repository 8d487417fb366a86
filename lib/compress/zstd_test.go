package compress

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func TestZstdRoundTrip(t *testing.T) {
	z, err := NewZstd(DefaultLevel)
	if err != nil {
		t.Fatalf("NewZstd failed: %v", err)
	}
	defer z.Close()

	testCases := []struct {
		name string
		data []byte
	}{
		{"tiny", []byte("xz")},
		{"under 256 bytes", bytes.Repeat([]byte{1, 2, 3}, 40)},
		{"repetitive", bytes.Repeat([]byte("chunk"), 10000)},
		{"sector sized", make([]byte, 4096)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			compressed := z.Compress(tc.data)

			size, err := z.DecompressedSize(compressed)
			if err != nil {
				t.Fatalf("DecompressedSize failed: %v", err)
			}
			if size != len(tc.data) {
				t.Errorf("Expected frame size %d, got %d", len(tc.data), size)
			}

			out, err := z.Decompress(compressed, size)
			if err != nil {
				t.Fatalf("Decompress failed: %v", err)
			}
			if !bytes.Equal(out, tc.data) {
				t.Error("Decompressed data does not match input")
			}
		})
	}
}

func TestZstdLevels(t *testing.T) {
	for _, level := range []int{MinLevel, 1, 9, 19, MaxLevel} {
		z, err := NewZstd(level)
		if err != nil {
			t.Fatalf("NewZstd(%d) failed: %v", level, err)
		}

		data := bytes.Repeat([]byte("level"), 500)
		out, err := z.DecompressFrame(z.Compress(data))
		if err != nil {
			t.Fatalf("DecompressFrame at level %d failed: %v", level, err)
		}
		if !bytes.Equal(out, data) {
			t.Errorf("Round trip mismatch at level %d", level)
		}
		z.Close()
	}
}

func TestZstdInvalidLevel(t *testing.T) {
	if _, err := NewZstd(23); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("Expected ErrInvalidLevel, got %v", err)
	}
	if _, err := NewZstd(-1); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("Expected ErrInvalidLevel, got %v", err)
	}
}

func TestZstdSizeMismatch(t *testing.T) {
	z, err := NewZstd(DefaultLevel)
	if err != nil {
		t.Fatalf("NewZstd failed: %v", err)
	}
	defer z.Close()

	compressed := z.Compress(bytes.Repeat([]byte{9}, 1000))
	if _, err := z.Decompress(compressed, 10); err == nil {
		t.Error("Expected an error when the caller size disagrees with the frame")
	}
}

func TestZstdGarbage(t *testing.T) {
	z, err := NewZstd(DefaultLevel)
	if err != nil {
		t.Fatalf("NewZstd failed: %v", err)
	}
	defer z.Close()

	if _, err := z.DecompressFrame([]byte{0xde, 0xad, 0xbe, 0xef, 0x00}); err == nil {
		t.Error("Expected an error for non-zstd input")
	}
}

// frameDeclaring builds a single segment frame whose header claims size
// bytes of content, followed by one raw block of a single byte.
func frameDeclaring(size uint64) []byte {
	frame := []byte{0x28, 0xb5, 0x2f, 0xfd, 0xe0}
	frame = binary.LittleEndian.AppendUint64(frame, size)
	return append(frame, 0x09, 0x00, 0x00, 'x')
}

func TestZstdDeclaredSizeLimit(t *testing.T) {
	z, err := NewZstd(DefaultLevel)
	if err != nil {
		t.Fatalf("NewZstd failed: %v", err)
	}
	defer z.Close()

	testCases := []struct {
		name string
		size uint64
	}{
		{"just over the limit", MaxFrameSize + 1},
		{"terabyte", 1 << 40},
		{"beyond int range", 1 << 62},
		{"max uint64", math.MaxUint64},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			frame := frameDeclaring(tc.size)

			if _, err := z.DecompressedSize(frame); !errors.Is(err, ErrFrameTooLarge) {
				t.Errorf("Expected ErrFrameTooLarge from DecompressedSize, got %v", err)
			}
			if _, err := z.DecompressFrame(frame); !errors.Is(err, ErrFrameTooLarge) {
				t.Errorf("Expected ErrFrameTooLarge from DecompressFrame, got %v", err)
			}
		})
	}

	if _, err := z.Decompress(frameDeclaring(1), 1<<40); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("Expected ErrFrameTooLarge for a caller size over the limit, got %v", err)
	}
	if _, err := z.Decompress(frameDeclaring(1), -1); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("Expected ErrFrameTooLarge for a negative size, got %v", err)
	}
}
