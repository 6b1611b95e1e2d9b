package pack

import (
	json "github.com/goccy/go-json"

	"github.com/samcharles93/april/pkg/april"
)

// Summary is a JSON-friendly view of a container's structure, for
// tooling that wants to show what a file holds without touching the
// payload bytes.
type Summary struct {
	Version     uint32 `json:"version"`
	Language    string `json:"language"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ModelType   string `json:"model_type"`

	Params ParamsSummary `json:"params"`

	TokenCount int              `json:"token_count"`
	Networks   []NetworkSummary `json:"networks"`
}

type ParamsSummary struct {
	BatchSize   int32 `json:"batch_size"`
	SegmentSize int32 `json:"segment_size"`
	SegmentStep int32 `json:"segment_step"`
	MelFeatures int32 `json:"mel_features"`
	SampleRate  int32 `json:"sample_rate"`

	FrameShiftMS  int32 `json:"frame_shift_ms"`
	FrameLengthMS int32 `json:"frame_length_ms"`
	RoundPow2     bool  `json:"round_pow2"`
	MelLow        int32 `json:"mel_low"`
	MelHigh       int32 `json:"mel_high"`
	SnipEdges     bool  `json:"snip_edges"`

	BlankID int32 `json:"blank_id"`
}

type NetworkSummary struct {
	Offset uint64 `json:"offset"`
	Size   uint64 `json:"size"`
}

// Inspect parses the container at path and returns its summary.
func Inspect(path string) (*Summary, error) {
	f, err := april.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return summarize(f), nil
}

func summarize(f *april.File) *Summary {
	p := f.Params
	s := &Summary{
		Version:     f.Version,
		Language:    f.Language,
		Name:        f.Name,
		Description: f.Description,
		ModelType:   f.Type.String(),

		Params: ParamsSummary{
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
		},

		TokenCount: len(p.Tokens),
	}
	for _, d := range f.Descriptors() {
		s.Networks = append(s.Networks, NetworkSummary{Offset: d.Offset, Size: d.Size})
	}
	return s
}

// JSON renders the summary with indentation for human consumption.
func (s *Summary) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
