package april

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// File is a parsed, fully validated APRIL container.
//
// Network payloads are zero-copy views into the underlying data; they
// remain valid until Close. The structure is built once during parsing
// and never mutated afterwards.
type File struct {
	Version     uint32
	HeaderSize  uint64
	Language    string
	Name        string
	Description string
	Type        ModelType
	Params      Params

	networks []NetworkDescriptor
	data     []byte
	mmapped  bool
}

// Open maps an APRIL container read-only and parses it. If mmap is
// unavailable, it falls back to ReadAt-based loading. The returned
// file must be closed to release any mapping.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size64 := stat.Size()
	if size64 > int64(int(^uint(0)>>1)) {
		// cannot index this file safely as []byte on this architecture.
		return nil, fmt.Errorf("%w: file too large to map", ErrInvalidOffset)
	}
	size := int(size64)

	// Prefer mmap where available for zero-copy network payloads.
	data, err := unix.Mmap(
		int(f.Fd()),
		0,
		size,
		unix.PROT_READ,
		unix.MAP_SHARED,
	)
	if err == nil {
		mf, parseErr := parseData(data, true)
		if parseErr != nil {
			_ = unix.Munmap(data)
			return nil, parseErr
		}
		return mf, nil
	}

	// Fallback path that does not require mmap support.
	data, err = readAllAt(f, size)
	if err != nil {
		return nil, err
	}
	return parseData(data, false)
}

// OpenReaderAt parses a container from a random-access reader without mmap.
func OpenReaderAt(r io.ReaderAt, size int64) (*File, error) {
	if size < 0 || size > int64(int(^uint(0)>>1)) {
		return nil, fmt.Errorf("%w: bad source size %d", ErrInvalidOffset, size)
	}
	data, err := readAllAt(r, int(size))
	if err != nil {
		return nil, err
	}
	return parseData(data, false)
}

// ParseBytes parses a container held in memory. The returned File
// retains data; Close releases nothing.
func ParseBytes(data []byte) (*File, error) {
	return parseData(data, false)
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}

// parseData decodes and validates the whole container in the strict
// file order: header and metadata first, then the network descriptors
// (which sit directly after the parameter metadata), then a seek to
// the parameter block for the fixed fields and the vocabulary.
func parseData(data []byte, mmapped bool) (*File, error) {
	c := &cursor{data: data}

	magic, err := c.readN(len(Magic))
	if err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if string(magic) != Magic {
		return nil, fmt.Errorf("%w: %q", ErrBadMagic, string(magic))
	}
	version, err := c.readU32()
	if err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	headerSize, err := c.readU64()
	if err != nil {
		return nil, fmt.Errorf("read header size: %w", err)
	}

	language, err := c.readLanguage()
	if err != nil {
		return nil, err
	}
	name, err := c.readString()
	if err != nil {
		return nil, fmt.Errorf("read name: %w", err)
	}
	description, err := c.readString()
	if err != nil {
		return nil, fmt.Errorf("read description: %w", err)
	}

	typ, err := c.readU32()
	if err != nil {
		return nil, fmt.Errorf("read model type: %w", err)
	}

	paramOffset, err := c.readU64()
	if err != nil {
		return nil, fmt.Errorf("read parameter offset: %w", err)
	}
	// The declared parameter block size is informational only; bounds
	// come from the real data length.
	if _, err := c.readU64(); err != nil {
		return nil, fmt.Errorf("read parameter size: %w", err)
	}
	numNetworks, err := c.readU64()
	if err != nil {
		return nil, fmt.Errorf("read network count: %w", err)
	}
	if numNetworks > MaxNetworks {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrTooManyNetworks, numNetworks, MaxNetworks)
	}
	if numNetworks == 0 {
		return nil, fmt.Errorf("%w: zero networks", ErrCorruptFile)
	}

	networks := make([]NetworkDescriptor, numNetworks)
	for i := range networks {
		off, err := c.readU64()
		if err != nil {
			return nil, fmt.Errorf("read network %d offset: %w", i, err)
		}
		sz, err := c.readU64()
		if err != nil {
			return nil, fmt.Errorf("read network %d size: %w", i, err)
		}
		networks[i] = NetworkDescriptor{Offset: off, Size: sz}
	}

	// Validate every payload range up-front so a bad descriptor fails
	// the parse rather than a later payload access.
	for i, nd := range networks {
		end := nd.Offset + nd.Size
		if end < nd.Offset {
			return nil, fmt.Errorf("%w: network %d range overflow", ErrInvalidOffset, i)
		}
		if end > uint64(len(data)) {
			return nil, fmt.Errorf("%w: network %d covers [%d,%d) past end %d", ErrInvalidOffset, i, nd.Offset, end, len(data))
		}
	}

	if err := c.seekTo(paramOffset); err != nil {
		return nil, fmt.Errorf("seek parameter block: %w", err)
	}
	if _, err := c.readN(8); err != nil {
		return nil, fmt.Errorf("read parameter block reserved field: %w", err)
	}

	var raw rawParams
	for _, p := range raw.fields() {
		v, err := c.readI32()
		if err != nil {
			return nil, fmt.Errorf("read parameter block: %w", err)
		}
		*p = v
	}
	if err := raw.validate(); err != nil {
		return nil, err
	}

	// The vocabulary follows the fixed fields directly, no seek.
	tokens := make([]string, raw.tokenCount)
	for i := range tokens {
		tok, err := c.readToken()
		if err != nil {
			return nil, fmt.Errorf("read token %d: %w", i, err)
		}
		tokens[i] = tok
	}

	params := raw.params()
	params.Tokens = tokens

	return &File{
		Version:     version,
		HeaderSize:  headerSize,
		Language:    language,
		Name:        name,
		Description: description,
		Type:        ModelType(typ),
		Params:      params,
		networks:    networks,
		data:        data,
		mmapped:     mmapped,
	}, nil
}

// Close releases file resources and any mmap backing.
func (f *File) Close() error {
	if f == nil {
		return nil
	}
	if f.data != nil {
		var err error
		if f.mmapped {
			err = unix.Munmap(f.data)
		}
		f.data = nil
		f.networks = nil
		f.mmapped = false
		return err
	}
	f.networks = nil
	return nil
}

// NetworkCount returns the number of embedded networks.
func (f *File) NetworkCount() int {
	return len(f.networks)
}

// Descriptors returns a copy of the network descriptors in file order.
func (f *File) Descriptors() []NetworkDescriptor {
	out := make([]NetworkDescriptor, len(f.networks))
	copy(out, f.networks)
	return out
}

// Network returns a zero-copy view of network i's payload bytes, or
// nil when i is out of range. The caller must not retain the slice
// after File.Close().
func (f *File) Network(i int) []byte {
	if f == nil || f.data == nil || i < 0 || i >= len(f.networks) {
		return nil
	}
	nd := f.networks[i]
	// Safe because parseData rejects descriptors outside the data.
	return f.data[nd.Offset : nd.Offset+nd.Size]
}

// Networks returns the payloads of all embedded networks in descriptor
// order, as zero-copy views.
func (f *File) Networks() [][]byte {
	out := make([][]byte, len(f.networks))
	for i := range out {
		out[i] = f.Network(i)
	}
	return out
}
