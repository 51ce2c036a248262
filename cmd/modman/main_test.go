package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/modman/cmd/modman/commands"
	"go.trai.ch/modman/internal/core/domain"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("NO_COLOR", "1")
	t.Setenv("MODMAN_NO_PROGRESS", "true")
	return t.TempDir()
}

func withArgs(out *bytes.Buffer, args ...string) func(*commands.CLI) {
	return func(c *commands.CLI) {
		c.SetArgs(args)
		c.SetOutput(out, out)
	}
}

func TestRun(t *testing.T) {
	tests := []struct {
		name         string
		args         func(dir string) []string
		expectedExit int
		expectedOut  string
	}{
		{
			name:         "Version",
			args:         func(string) []string { return []string{"version"} },
			expectedExit: 0,
			expectedOut:  "modman dev",
		},
		{
			name: "Init",
			args: func(dir string) []string {
				return []string{"init", "--dir", dir, "--game-version", "1.21.1", "--loader", "quilt"}
			},
			expectedExit: 0,
			expectedOut:  "Created modman.toml for quilt 1.21.1",
		},
		{
			name:         "Init without game version",
			args:         func(dir string) []string { return []string{"init", "--dir", dir} },
			expectedExit: 1,
		},
		{
			name:         "Sync without config",
			args:         func(dir string) []string { return []string{"sync", "--dir", dir} },
			expectedExit: 1,
		},
		{
			name:         "List without lockfile",
			args:         func(dir string) []string { return []string{"list", "--dir", dir} },
			expectedExit: 0,
			expectedOut:  "No mods installed.",
		},
		{
			name:         "Invalid output format",
			args:         func(dir string) []string { return []string{"list", "--dir", dir, "--output", "xml"} },
			expectedExit: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := setupEnv(t)
			var out bytes.Buffer

			exitCode := run(withArgs(&out, tt.args(dir)...))
			assert.Equal(t, tt.expectedExit, exitCode, out.String())
			if tt.expectedOut != "" {
				assert.Contains(t, out.String(), tt.expectedOut)
			}
		})
	}
}

func TestRun_InitThenStatus(t *testing.T) {
	dir := setupEnv(t)
	var out bytes.Buffer

	require.Equal(t, 0, run(withArgs(&out, "init", "--dir", dir, "--game-version", "1.21.1")))
	assert.FileExists(t, filepath.Join(dir, domain.ConfigFileName))
	assert.DirExists(t, filepath.Join(dir, domain.DefaultModsDirName))

	out.Reset()
	require.Equal(t, 0, run(withArgs(&out, "status", "--dir", dir)))
	assert.Contains(t, out.String(), "Everything is in sync")

	out.Reset()
	assert.Equal(t, 1, run(withArgs(&out, "init", "--dir", dir, "--game-version", "1.20.1")))

	data, err := os.ReadFile(filepath.Join(dir, domain.ConfigFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "1.21.1")
}
