package synth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreWriteReadRoundtrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "parser.go"))

	require.NoError(t, store.Write("func Parse() {}"))
	got, err := store.Read()
	require.NoError(t, err)
	assert.Equal(t, "func Parse() {}", got)
}

func TestStoreOverwritesSingleSlot(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "parser.go"))

	require.NoError(t, store.Write("first"))
	require.NoError(t, store.Write("second"))

	got, err := store.Read()
	require.NoError(t, err)
	assert.Equal(t, "second", got)
}

func TestStoreCreatesNestedDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom_parsers", "deep", "icici_parser.go")
	store := NewStore(path)

	require.NoError(t, store.Write(FallbackArtifact))
	_, err := os.Stat(path)
	assert.NoError(t, err)
	assert.Equal(t, path, store.Path())
}

func TestStoreReadMissingArtifact(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "parser.go"))

	_, err := store.Read()
	assert.ErrorContains(t, err, "failed to read stored artifact")
}

func TestStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "parser.go"))
	require.NoError(t, store.Write("func Parse() {}"))

	leftovers, err := filepath.Glob(filepath.Join(dir, ".artifact-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}
