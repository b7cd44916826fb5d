package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSaveYAMLConfigRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	settings := validSettings()
	settings.Main.Name = "TestNode"

	require.NoError(t, SaveYAMLConfig(path, settings))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got Settings
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, "TestNode", got.Main.Name)
	assert.Equal(t, "8080", got.Server.Port)
	assert.True(t, got.Output.SQLite.Enabled)
}

func TestSaveYAMLConfigKeepsBackup(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	original := []byte("main:\n  name: Original\n")
	require.NoError(t, os.WriteFile(path, original, 0o644))

	require.NoError(t, SaveYAMLConfig(path, validSettings()))

	backup, err := os.ReadFile(path + ".backup")
	require.NoError(t, err)
	assert.Equal(t, original, backup)

	// No stray temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
