package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dshills/phraseclip/pkg/types"
)

// DefaultManifestName is the file the clip metadata is written to
const DefaultManifestName = "clips-metadata.json"

// WriteManifest encodes entries as an indented JSON array. An empty run
// still produces "[]".
func WriteManifest(w io.Writer, entries []types.NewPhrase) error {
	if entries == nil {
		entries = []types.NewPhrase{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return nil
}

// WriteManifestFile writes the manifest to path, creating its directory
func WriteManifestFile(path string, entries []types.NewPhrase) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return WriteManifest(f, entries)
}
