package compress

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

const (
	MinLevel     = 0
	MaxLevel     = 22
	DefaultLevel = 3

	// MaxFrameSize bounds the content size a frame header may declare.
	MaxFrameSize = 64 << 20
)

var (
	ErrUnknownSize   = errors.New("zstd frame does not carry a content size")
	ErrSizeMismatch  = errors.New("decompressed size does not match frame header")
	ErrInvalidLevel  = errors.New("compression level out of range")
	ErrFrameTooLarge = errors.New("zstd frame content size exceeds limit")
)

// Zstd compresses chunk payloads into single zstd frames. Every frame is
// written as a single segment so the header always records the exact
// decompressed size. Safe for concurrent use.
type Zstd struct {
	level int
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

func NewZstd(level int) (*Zstd, error) {
	if level < MinLevel || level > MaxLevel {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}

	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
		zstd.WithSingleSegment(true),
	)
	if err != nil {
		return nil, err
	}

	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxFrameSize))
	if err != nil {
		enc.Close()
		return nil, err
	}

	return &Zstd{
		level: level,
		enc:   enc,
		dec:   dec,
	}, nil
}

func (z *Zstd) Level() int {
	return z.level
}

func (z *Zstd) Compress(src []byte) []byte {
	return z.enc.EncodeAll(src, make([]byte, 0, len(src)/2+64))
}

// DecompressedSize reads the content size recorded in the frame header.
func (z *Zstd) DecompressedSize(src []byte) (int, error) {
	if len(src) == 0 {
		return 0, nil
	}

	var h zstd.Header
	if err := h.Decode(src); err != nil {
		return 0, err
	}
	if !h.HasFCS {
		return 0, ErrUnknownSize
	}
	if h.FrameContentSize > MaxFrameSize {
		return 0, fmt.Errorf("%w: %d", ErrFrameTooLarge, h.FrameContentSize)
	}

	return int(h.FrameContentSize), nil
}

// Decompress decodes src into a buffer allocated once with the given size.
func (z *Zstd) Decompress(src []byte, size int) ([]byte, error) {
	if len(src) == 0 {
		return []byte{}, nil
	}
	if size < 0 || size > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d", ErrFrameTooLarge, size)
	}

	out, err := z.dec.DecodeAll(src, make([]byte, 0, size))
	if err != nil {
		return nil, err
	}
	if len(out) != size {
		return nil, fmt.Errorf("%w: header %d, got %d", ErrSizeMismatch, size, len(out))
	}

	return out, nil
}

// DecompressFrame is Decompress driven by the frame's own content size.
func (z *Zstd) DecompressFrame(src []byte) ([]byte, error) {
	size, err := z.DecompressedSize(src)
	if err != nil {
		return nil, err
	}

	return z.Decompress(src, size)
}

func (z *Zstd) Close() {
	z.enc.Close()
	z.dec.Close()
}
