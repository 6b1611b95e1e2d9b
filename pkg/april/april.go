// Package april implements the APRIL speech model container format.
//
// An APRIL container bundles a speech-recognition model's metadata,
// runtime parameters, token vocabulary and embedded network payloads
// into a single binary file. The package parses and validates existing
// containers and serialises new ones; network payload bytes are opaque
// to it and are handed whole to an inference runtime.
package april

import "fmt"

const (
	// Magic is the 8-byte file magic for all APRIL containers.
	Magic = "APRILMDL"

	// CurrentVersion is the container format version this package writes.
	CurrentVersion uint32 = 1

	// MaxNetworks is the fixed upper bound on embedded networks.
	MaxNetworks = 8
)

// Fixed field widths of the container layout, little-endian, no padding.
const (
	fixedHeaderSize = 8 + 4 + 8 // magic, version, header_size
	languageSize    = 8
	paramMetaSize   = 8 + 8 + 8 // param_offset, param_size, num_networks
	descriptorSize  = 8 + 8     // offset, size
	paramFixedSize  = 8 + 13*4  // reserved field plus the i32 parameters
)

// ModelType identifies the network architecture a container carries.
//
// The tag range is open-ended: unknown future values parse fine and are
// reported as-is. Parsing never gates on the tag; callers decide
// whether an unsupported type is fatal.
type ModelType uint32

const (
	ModelUnknown                 ModelType = 0
	ModelLstmTransducerStateless ModelType = 1

	// modelTypeMax bounds the recognised tag range.
	modelTypeMax ModelType = 2
)

func (t ModelType) String() string {
	switch t {
	case ModelUnknown:
		return "unknown"
	case ModelLstmTransducerStateless:
		return "lstm_transducer_stateless"
	default:
		return fmt.Sprintf("type(%d)", uint32(t))
	}
}

// Known reports whether the tag is within the recognised range.
func (t ModelType) Known() bool {
	return t < modelTypeMax
}

// Supported reports whether this package's consumers can run the model.
func (t ModelType) Supported() bool {
	return t == ModelLstmTransducerStateless
}

// NetworkDescriptor locates one embedded network payload in the file.
type NetworkDescriptor struct {
	Offset uint64
	Size   uint64
}
