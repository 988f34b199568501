package synth

import (
	"fmt"
	"os"
	"path/filepath"
)

// ArtifactStore persists the current parser artifact at a single well-known
// path. Single-slot overwrite semantics: at most one artifact exists, either
// the latest sanitized candidate or the fallback.
type ArtifactStore struct {
	path string
}

// NewStore creates a store for the given artifact path.
func NewStore(path string) *ArtifactStore {
	return &ArtifactStore{path: path}
}

// Path returns the well-known artifact location.
func (s *ArtifactStore) Path() string { return s.path }

// Write atomically replaces the stored artifact: the source is written to a
// temporary file in the target directory and renamed into place.
func (s *ArtifactStore) Write(src string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".artifact-*.go")
	if err != nil {
		return fmt.Errorf("failed to create temp artifact: %w", err)
	}
	if _, err := tmp.WriteString(src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to install artifact: %w", err)
	}
	return nil
}

// Read returns the currently stored artifact source.
func (s *ArtifactStore) Read() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("failed to read stored artifact: %w", err)
	}
	return string(data), nil
}
