// Package pack builds APRIL containers from YAML manifests and
// summarises existing ones for tooling.
package pack

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/samcharles93/april/internal/logger"
	"github.com/samcharles93/april/pkg/april"
)

// Options control a pack run.
type Options struct {
	// ManifestPath is the YAML manifest to build from.
	ManifestPath string

	// OutputPath is the .april file to create.
	OutputPath string

	// Log receives progress events. Defaults to logger.Default().
	Log logger.Logger
}

// Pack builds a container according to the manifest. Network payloads
// are streamed from their files rather than buffered.
func Pack(opts Options) error {
	if opts.ManifestPath == "" {
		return errors.New("pack: ManifestPath required")
	}
	if opts.OutputPath == "" {
		return errors.New("pack: OutputPath required")
	}
	log := opts.Log
	if log == nil {
		log = logger.Default()
	}

	man, err := LoadManifest(opts.ManifestPath)
	if err != nil {
		return err
	}
	typ, err := man.modelType()
	if err != nil {
		return err
	}
	baseDir := filepath.Dir(opts.ManifestPath)

	outF, err := os.Create(opts.OutputPath)
	if err != nil {
		return err
	}
	defer func() { _ = outF.Close() }()

	w, err := april.NewWriter(outF)
	if err != nil {
		return err
	}
	w.SetInfo(man.Language, man.Name, man.Description, typ)
	w.SetParams(man.params())

	for _, rel := range man.Networks {
		path := rel
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, rel)
		}
		nf, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open network %s: %w", rel, err)
		}
		defer func() { _ = nf.Close() }()

		st, err := nf.Stat()
		if err != nil {
			return fmt.Errorf("stat network %s: %w", rel, err)
		}
		if err := w.AddNetworkReader(nf, uint64(st.Size())); err != nil {
			return fmt.Errorf("add network %s: %w", rel, err)
		}
		log.Debug("added network", "path", rel, "bytes", st.Size())
	}

	log.Info("packing container",
		"output", opts.OutputPath,
		"model", man.Name,
		"networks", len(man.Networks),
		"tokens", len(man.Tokens),
	)
	if err := w.Finalise(); err != nil {
		return err
	}

	st, err := outF.Stat()
	if err != nil {
		return err
	}
	log.Info("packed container", "output", opts.OutputPath, "bytes", st.Size())
	return outF.Close()
}
