package april

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf8"
)

// cursor is a bounds-checked sequential reader over container bytes.
// Reads advance the position monotonically; seekTo repositions it.
// Exhaustion surfaces as ErrTruncated, an out-of-range seek target as
// ErrInvalidOffset.
type cursor struct {
	data []byte
	off  int
}

func (c *cursor) readN(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative read length %d", ErrCorruptFile, n)
	}
	end := c.off + n
	if end < c.off || end > len(c.data) {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, n, c.off, len(c.data)-c.off)
	}
	b := c.data[c.off:end]
	c.off = end
	return b, nil
}

func (c *cursor) readU32() (uint32, error) {
	b, err := c.readN(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *cursor) readI32() (int32, error) {
	v, err := c.readU32()
	return int32(v), err
}

func (c *cursor) readU64() (uint64, error) {
	b, err := c.readN(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (c *cursor) seekTo(off uint64) error {
	if off > uint64(len(c.data)) {
		return fmt.Errorf("%w: seek to %d past end %d", ErrInvalidOffset, off, len(c.data))
	}
	c.off = int(off)
	return nil
}

// readString reads a u64 byte length followed by that many bytes,
// decoded strictly as UTF-8.
func (c *cursor) readString() (string, error) {
	n, err := c.readU64()
	if err != nil {
		return "", err
	}
	if n > uint64(len(c.data)-c.off) {
		return "", fmt.Errorf("%w: string length %d exceeds remaining %d bytes", ErrTruncated, n, len(c.data)-c.off)
	}
	b, err := c.readN(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: string at offset %d", ErrInvalidEncoding, c.off-len(b))
	}
	return string(b), nil
}

// readLanguage reads the fixed 8-byte NUL-padded language tag.
func (c *cursor) readLanguage() (string, error) {
	b, err := c.readN(languageSize)
	if err != nil {
		return "", fmt.Errorf("read language tag: %w", err)
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: language tag", ErrInvalidEncoding)
	}
	return strings.TrimRight(string(b), "\x00"), nil
}

// readToken reads an i32 byte length followed by that many bytes,
// decoded as UTF-8 with trailing NUL padding stripped.
func (c *cursor) readToken() (string, error) {
	n, err := c.readI32()
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", fmt.Errorf("%w: negative token length %d", ErrCorruptFile, n)
	}
	b, err := c.readN(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: token at offset %d", ErrInvalidEncoding, c.off-len(b))
	}
	return strings.TrimRight(string(b), "\x00"), nil
}
