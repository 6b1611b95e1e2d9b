package pack

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samcharles93/april/internal/logger"
	"github.com/samcharles93/april/pkg/april"
)

const fixtureManifest = `language: en
name: english-tiny
description: pack test fixture
model_type: lstm_transducer_stateless
params:
  batch_size: 1
  segment_size: 9
  segment_step: 4
  mel_features: 80
  sample_rate: 16000
  frame_shift_ms: 10
  frame_length_ms: 25
  round_pow2: true
  mel_low: 20
  mel_high: 0
  snip_edges: true
  blank_id: 0
tokens:
  - "<blank>"
  - a
  - b
networks:
  - encoder.onnx
  - decoder.onnx
  - joiner.onnx
`

func writeFixtureTree(t *testing.T) (manifestPath string, payloads [][]byte) {
	t.Helper()

	dir := t.TempDir()
	manifestPath = filepath.Join(dir, "model.yaml")
	if err := os.WriteFile(manifestPath, []byte(fixtureManifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	payloads = [][]byte{
		bytes.Repeat([]byte{0xe0}, 64),
		bytes.Repeat([]byte{0xd0}, 32),
		bytes.Repeat([]byte{0x10}, 16),
	}
	for i, name := range []string{"encoder.onnx", "decoder.onnx", "joiner.onnx"} {
		if err := os.WriteFile(filepath.Join(dir, name), payloads[i], 0o644); err != nil {
			t.Fatalf("write network %s: %v", name, err)
		}
	}
	return manifestPath, payloads
}

func TestPackAndReopen(t *testing.T) {
	t.Parallel()

	manifestPath, payloads := writeFixtureTree(t)
	outPath := filepath.Join(t.TempDir(), "model.april")

	err := Pack(Options{
		ManifestPath: manifestPath,
		OutputPath:   outPath,
		Log:          logger.Discard(),
	})
	if err != nil {
		t.Fatalf("pack: %v", err)
	}

	f, err := april.Open(outPath)
	if err != nil {
		t.Fatalf("open packed container: %v", err)
	}
	defer func() { _ = f.Close() }()

	if f.Name != "english-tiny" || f.Language != "en" {
		t.Fatalf("metadata mismatch: %q %q", f.Name, f.Language)
	}
	if f.Type != april.ModelLstmTransducerStateless {
		t.Fatalf("model type: got %v", f.Type)
	}
	if got := f.Params.Tokens; len(got) != 3 || got[0] != "<blank>" || got[2] != "b" {
		t.Fatalf("tokens: got %q", got)
	}
	if f.Params.SampleRate != 16000 || !f.Params.RoundPow2 {
		t.Fatalf("params mismatch: %+v", f.Params)
	}
	for i, want := range payloads {
		if !bytes.Equal(f.Network(i), want) {
			t.Fatalf("network %d payload mismatch", i)
		}
	}
}

func TestPackRejectsOutOfRangeManifest(t *testing.T) {
	t.Parallel()

	manifestPath, _ := writeFixtureTree(t)
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	bad := strings.Replace(string(raw), "segment_step: 4", "segment_step: 40", 1)
	if err := os.WriteFile(manifestPath, []byte(bad), 0o644); err != nil {
		t.Fatalf("rewrite manifest: %v", err)
	}

	err = Pack(Options{
		ManifestPath: manifestPath,
		OutputPath:   filepath.Join(t.TempDir(), "model.april"),
		Log:          logger.Discard(),
	})
	if err == nil {
		t.Fatalf("expected parameter range error")
	}
}

func TestLoadManifestValidation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cases := []struct {
		name    string
		content string
	}{
		{"missing language", "name: x\ntokens: [a]\nnetworks: [n]\n"},
		{"missing tokens", "language: en\nnetworks: [n]\n"},
		{"missing networks", "language: en\ntokens: [a]\n"},
		{"bad model type", "language: en\nmodel_type: bogus\ntokens: [a]\nnetworks: [n]\n"},
	}
	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, err := LoadManifest(path); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestInspectSummary(t *testing.T) {
	t.Parallel()

	manifestPath, payloads := writeFixtureTree(t)
	outPath := filepath.Join(t.TempDir(), "model.april")
	if err := Pack(Options{ManifestPath: manifestPath, OutputPath: outPath, Log: logger.Discard()}); err != nil {
		t.Fatalf("pack: %v", err)
	}

	s, err := Inspect(outPath)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if s.ModelType != "lstm_transducer_stateless" {
		t.Fatalf("model type: got %q", s.ModelType)
	}
	if s.TokenCount != 3 {
		t.Fatalf("token count: got %d", s.TokenCount)
	}
	if len(s.Networks) != 3 || s.Networks[0].Size != uint64(len(payloads[0])) {
		t.Fatalf("network summaries: %+v", s.Networks)
	}

	out, err := s.JSON()
	if err != nil {
		t.Fatalf("marshal summary: %v", err)
	}
	for _, want := range []string{`"model_type"`, `"sample_rate": 16000`, `"token_count": 3`} {
		if !strings.Contains(string(out), want) {
			t.Fatalf("summary JSON missing %s:\n%s", want, out)
		}
	}
}
