package april

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"
)

const writerCopyBufSize = 1 << 20 // 1 MiB

// Writer builds an APRIL container.
//
// Metadata, parameters and the vocabulary are collected in memory;
// network payloads may be supplied as byte slices or streamed from
// readers with a known size. Finalise computes the full layout
// deterministically, writes the file in one pass and syncs it.
type Writer struct {
	f *os.File

	version     uint32
	language    string
	name        string
	description string
	typ         ModelType
	params      Params

	networks []networkSource
	closed   bool
}

type networkSource struct {
	data []byte
	r    io.Reader
	size uint64
}

// NewWriter creates a writer targeting the given file, truncating it.
func NewWriter(f *os.File) (*Writer, error) {
	if f == nil {
		return nil, errors.New("april: nil file")
	}
	if err := f.Truncate(0); err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return &Writer{f: f, version: CurrentVersion}, nil
}

// SetVersion overrides the format version recorded in the header.
func (w *Writer) SetVersion(v uint32) {
	w.version = v
}

// SetInfo records the container metadata. The language tag must fit
// the fixed 8-byte field; it is NUL-padded on write.
func (w *Writer) SetInfo(language, name, description string, typ ModelType) {
	w.language = language
	w.name = name
	w.description = description
	w.typ = typ
}

// SetParams records the parameter block, including the vocabulary.
func (w *Writer) SetParams(p Params) {
	w.params = p
}

// AddNetwork appends one network payload held in memory.
func (w *Writer) AddNetwork(data []byte) error {
	return w.addNetwork(networkSource{data: data, size: uint64(len(data))})
}

// AddNetworkReader appends one network payload streamed from r.
// Exactly size bytes are consumed during Finalise.
func (w *Writer) AddNetworkReader(r io.Reader, size uint64) error {
	if r == nil {
		return errors.New("april: nil reader")
	}
	return w.addNetwork(networkSource{r: r, size: size})
}

func (w *Writer) addNetwork(src networkSource) error {
	if w.closed {
		return errors.New("april: writer already finalised")
	}
	if len(w.networks) >= MaxNetworks {
		return fmt.Errorf("%w: %d (max %d)", ErrTooManyNetworks, len(w.networks)+1, MaxNetworks)
	}
	w.networks = append(w.networks, src)
	return nil
}

// Finalise validates everything, lays the container out and writes it.
// After Finalise the writer must not be used again; closing the file
// is the caller's responsibility.
func (w *Writer) Finalise() error {
	if w.closed {
		return errors.New("april: writer already finalised")
	}
	w.closed = true

	if len(w.networks) == 0 {
		return errors.New("april: no networks added")
	}
	if len(w.language) > languageSize {
		return fmt.Errorf("april: language tag %q exceeds %d bytes", w.language, languageSize)
	}
	if !utf8.ValidString(w.language) {
		return fmt.Errorf("%w: language tag", ErrInvalidEncoding)
	}
	if !utf8.ValidString(w.name) || !utf8.ValidString(w.description) {
		return fmt.Errorf("%w: name or description", ErrInvalidEncoding)
	}

	raw := rawFromParams(w.params)
	if err := raw.validate(); err != nil {
		return err
	}

	// The whole layout is computable up front: header region, then the
	// parameter block with its vocabulary, then the payloads in order.
	headerLen := fixedHeaderSize + languageSize +
		8 + len(w.name) + 8 + len(w.description) +
		4 + paramMetaSize + descriptorSize*len(w.networks)

	paramSize := paramFixedSize
	for _, tok := range w.params.Tokens {
		paramSize += 4 + len(tok)
	}

	paramOffset := uint64(headerLen)
	payloadOffset := paramOffset + uint64(paramSize)

	buf := make([]byte, 0, headerLen+paramSize)
	buf = append(buf, Magic...)
	buf = binary.LittleEndian.AppendUint32(buf, w.version)
	buf = binary.LittleEndian.AppendUint64(buf, fixedHeaderSize)

	var lang [languageSize]byte
	copy(lang[:], w.language)
	buf = append(buf, lang[:]...)

	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(w.name)))
	buf = append(buf, w.name...)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(w.description)))
	buf = append(buf, w.description...)

	buf = binary.LittleEndian.AppendUint32(buf, uint32(w.typ))

	buf = binary.LittleEndian.AppendUint64(buf, paramOffset)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(paramSize))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(w.networks)))

	off := payloadOffset
	for _, src := range w.networks {
		buf = binary.LittleEndian.AppendUint64(buf, off)
		buf = binary.LittleEndian.AppendUint64(buf, src.size)
		off += src.size
	}

	// Parameter block: reserved field, the fixed i32 fields in file
	// order, then the length-prefixed vocabulary.
	buf = append(buf, make([]byte, 8)...)
	for _, p := range raw.fields() {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(*p))
	}
	for _, tok := range w.params.Tokens {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(tok)))
		buf = append(buf, tok...)
	}

	if err := writeFull(w.f, buf); err != nil {
		return err
	}

	copyBuf := make([]byte, writerCopyBufSize)
	for i, src := range w.networks {
		if src.r == nil {
			if err := writeFull(w.f, src.data); err != nil {
				return err
			}
			continue
		}
		n, err := io.CopyBuffer(w.f, io.LimitReader(src.r, int64(src.size)), copyBuf)
		if err != nil {
			return fmt.Errorf("write network %d: %w", i, err)
		}
		if uint64(n) != src.size {
			return fmt.Errorf("write network %d: short payload: got %d bytes, want %d", i, n, src.size)
		}
	}

	// Critical if the target file was reused.
	fileSize, err := w.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if err := w.f.Truncate(fileSize); err != nil {
		return err
	}

	return w.f.Sync()
}

func writeFull(f *os.File, p []byte) error {
	for len(p) > 0 {
		n, err := f.Write(p)
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}
