// Package modelstore loads APRIL containers on behalf of the inference
// runtime. The parser accepts any model type tag; this is the layer
// where unsupported models become an error and where the fixed network
// roles of the transducer layout are assigned.
package modelstore

import (
	"fmt"

	"github.com/samcharles93/april/pkg/april"
)

// NetworkRole names the fixed payload positions of a stateless LSTM
// transducer container: index 0 is the encoder, 1 the decoder, 2 the
// joiner.
type NetworkRole int

const (
	RoleEncoder NetworkRole = iota
	RoleDecoder
	RoleJoiner

	transducerNetworks = 3
)

func (r NetworkRole) String() string {
	switch r {
	case RoleEncoder:
		return "encoder"
	case RoleDecoder:
		return "decoder"
	case RoleJoiner:
		return "joiner"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// SessionShape is the input/output tensor count contract the inference
// runtime verifies when it builds one execution session per network.
type SessionShape struct {
	Inputs  int
	Outputs int
}

// TransducerShapes maps each role to its session contract.
var TransducerShapes = map[NetworkRole]SessionShape{
	RoleEncoder: {Inputs: 3, Outputs: 3},
	RoleDecoder: {Inputs: 1, Outputs: 1},
	RoleJoiner:  {Inputs: 2, Outputs: 1},
}

// Model is an opened container whose type and network count have been
// checked against the supported transducer contract.
type Model struct {
	file *april.File
}

// Load opens and parses path, then gates on the supported model type
// and the transducer's fixed network count.
func Load(path string) (*Model, error) {
	f, err := april.Open(path)
	if err != nil {
		return nil, err
	}

	cleanup := func(err error) (*Model, error) {
		_ = f.Close()
		return nil, err
	}

	if !f.Type.Supported() {
		return cleanup(fmt.Errorf("%w: %s", april.ErrUnsupportedModelType, f.Type))
	}
	if f.NetworkCount() != transducerNetworks {
		return cleanup(fmt.Errorf("%w: transducer container carries %d networks, want %d",
			april.ErrCorruptFile, f.NetworkCount(), transducerNetworks))
	}

	return &Model{file: f}, nil
}

// Close releases the underlying container mapping.
func (m *Model) Close() error {
	if m == nil || m.file == nil {
		return nil
	}
	err := m.file.Close()
	m.file = nil
	return err
}

// Params returns the validated runtime parameters, vocabulary included.
func (m *Model) Params() april.Params {
	return m.file.Params
}

// Tokens returns the vocabulary in index order.
func (m *Model) Tokens() []string {
	return m.file.Params.Tokens
}

// Language returns the container's language tag.
func (m *Model) Language() string {
	return m.file.Language
}

// Network returns the payload for the given role as a zero-copy view,
// valid until Close.
func (m *Model) Network(role NetworkRole) []byte {
	return m.file.Network(int(role))
}

func (m *Model) Encoder() []byte { return m.Network(RoleEncoder) }
func (m *Model) Decoder() []byte { return m.Network(RoleDecoder) }
func (m *Model) Joiner() []byte  { return m.Network(RoleJoiner) }
