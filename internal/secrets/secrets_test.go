// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		check func(t *testing.T, s *Store)
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, KCIKeyFile, "  kci_abc123  \n")
				writeFile(t, dir, RISSKeyFile, "riss_xyz789")
				writeFile(t, dir, OpenAIKeyFile, "sk-test\n")
				return dir
			},
			check: func(t *testing.T, s *Store) {
				assert.Equal(t, "kci_abc123", s.KCIKey())
				assert.Equal(t, "riss_xyz789", s.RISSKey())
				assert.Equal(t, "sk-test", s.OpenAIKey())
				assert.Equal(t, 3, s.Len())
			},
		},
		{
			name: "empty store for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			check: func(t *testing.T, s *Store) {
				assert.Equal(t, 0, s.Len())
			},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, KCIKeyFile, "valid-key")
				writeFile(t, dir, RISSKeyFile, "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				return dir
			},
			check: func(t *testing.T, s *Store) {
				assert.Equal(t, "valid-key", s.KCIKey())
				assert.Equal(t, 1, s.Len())
			},
		},
		{
			name: "skips dotfiles and subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				writeFile(t, dir, RISSKeyFile, "riss_real")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			check: func(t *testing.T, s *Store) {
				assert.Equal(t, "riss_real", s.RISSKey())
				assert.Equal(t, 1, s.Len())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Load(tt.setup(t))
			require.NoError(t, err)
			tt.check(t, s)
		})
	}
}

func TestEnvironmentFallback(t *testing.T) {
	t.Setenv("KCI_API_KEY", "kci_from_env")
	t.Setenv("RISS_API_KEY", " riss_from_env \n")

	dir := t.TempDir()
	writeFile(t, dir, KCIKeyFile, "kci_from_file")

	s, err := Load(dir)
	require.NoError(t, err)

	// File wins over the environment; the environment fills gaps.
	assert.Equal(t, "kci_from_file", s.KCIKey())
	assert.Equal(t, "riss_from_env", s.RISSKey())
}

func TestLoadUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, KCIKeyFile, "value123")

	badPath := filepath.Join(dir, "bad-key")
	require.NoError(t, os.WriteFile(badPath, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	s, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "value123", s.KCIKey())
	assert.Equal(t, "", s.Get("bad-key", ""))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
