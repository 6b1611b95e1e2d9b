package pack

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/samcharles93/april/pkg/april"
)

// Manifest describes a container to build. Network paths are resolved
// relative to the manifest file's directory unless absolute.
type Manifest struct {
	Language    string `yaml:"language"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	ModelType   string `yaml:"model_type"`

	Params ParamsManifest `yaml:"params"`

	Tokens   []string `yaml:"tokens"`
	Networks []string `yaml:"networks"`
}

// ParamsManifest mirrors the container's parameter block field for
// field so manifests read like the format they produce.
type ParamsManifest struct {
	BatchSize   int32 `yaml:"batch_size"`
	SegmentSize int32 `yaml:"segment_size"`
	SegmentStep int32 `yaml:"segment_step"`
	MelFeatures int32 `yaml:"mel_features"`
	SampleRate  int32 `yaml:"sample_rate"`

	FrameShiftMS  int32 `yaml:"frame_shift_ms"`
	FrameLengthMS int32 `yaml:"frame_length_ms"`
	RoundPow2     bool  `yaml:"round_pow2"`
	MelLow        int32 `yaml:"mel_low"`
	MelHigh       int32 `yaml:"mel_high"`
	SnipEdges     bool  `yaml:"snip_edges"`

	BlankID int32 `yaml:"blank_id"`
}

// LoadManifest reads and validates a pack manifest. Parameter bounds
// are not checked here; the container writer enforces them when the
// file is built.
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	if m.Language == "" {
		return nil, errors.New("pack: manifest missing language")
	}
	if len(m.Tokens) == 0 {
		return nil, errors.New("pack: manifest missing tokens")
	}
	if len(m.Networks) == 0 {
		return nil, errors.New("pack: manifest missing networks")
	}
	if _, err := m.modelType(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) modelType() (april.ModelType, error) {
	switch m.ModelType {
	case "", "lstm_transducer_stateless":
		return april.ModelLstmTransducerStateless, nil
	case "unknown":
		return april.ModelUnknown, nil
	default:
		return 0, fmt.Errorf("pack: unknown model_type %q", m.ModelType)
	}
}

func (m *Manifest) params() april.Params {
	p := m.Params
	return april.Params{
		BatchSize:   p.BatchSize,
		SegmentSize: p.SegmentSize,
		SegmentStep: p.SegmentStep,
		MelFeatures: p.MelFeatures,
		SampleRate:  p.SampleRate,

		FrameShiftMS:  p.FrameShiftMS,
		FrameLengthMS: p.FrameLengthMS,
		RoundPow2:     p.RoundPow2,
		MelLow:        p.MelLow,
		MelHigh:       p.MelHigh,
		SnipEdges:     p.SnipEdges,

		BlankID: p.BlankID,
		Tokens:  m.Tokens,
	}
}
