package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Contains(t, cfg.Patterns.Directories, "node_modules")
	assert.Contains(t, cfg.Patterns.Directories, "*.egg-info")
	assert.Contains(t, cfg.Patterns.Files, ".DS_Store")
	assert.Equal(t, DaysUnset, cfg.Days)
	assert.False(t, cfg.HasRetention())
}

func TestLoadFile(t *testing.T) {
	dir := chdirTemp(t)

	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
days = 30

[patterns]
directories = ["node_modules", "target"]
files = [".DS_Store"]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"node_modules", "target"}, cfg.Patterns.Directories)
	assert.Equal(t, []string{".DS_Store"}, cfg.Patterns.Files)
	assert.Equal(t, 30, cfg.Days)
	assert.True(t, cfg.HasRetention())
}

func TestLoadDefaultFileName(t *testing.T) {
	dir := chdirTemp(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFileName), []byte(`
[patterns]
directories = ["only_this"]
`), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"only_this"}, cfg.Patterns.Directories)
	// File left files untouched, defaults survive the merge.
	assert.Contains(t, cfg.Patterns.Files, ".pyc")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	chdirTemp(t)

	_, err := Load("does-not-exist.toml")
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFileName), []byte(`
days = 7

[patterns]
directories = ["from_file"]
`), 0o644))

	t.Setenv("SWEEPER_DIRS", "node_modules, target ,dist")
	t.Setenv("SWEEPER_FILES", ".pyc,~")
	t.Setenv("SWEEPER_DAYS", "14")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"node_modules", "target", "dist"}, cfg.Patterns.Directories)
	assert.Equal(t, []string{".pyc", "~"}, cfg.Patterns.Files)
	assert.Equal(t, 14, cfg.Days)
}

func TestMatcherFromConfig(t *testing.T) {
	chdirTemp(t)
	t.Setenv("SWEEPER_DIRS", "node_modules")
	t.Setenv("SWEEPER_FILES", ".tmp")

	cfg, err := Load("")
	require.NoError(t, err)

	m := cfg.Matcher()
	assert.True(t, m.IsTempDir("node_modules"))
	assert.False(t, m.IsTempDir("target"))
	assert.True(t, m.IsTempFile("scratch.tmp"))
}

// chdirTemp moves the test into a fresh directory so a stray
// sweeper.toml in the repo cannot leak into default-lookup tests.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}
