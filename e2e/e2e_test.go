//go:build e2e

package e2e_test

import (
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

// e2eVersion is linked into the binary so scripts can tell it apart from a dev build.
const e2eVersion = "0.0.0-e2e"

var (
	modmanBinary string
	registryURL  string
)

func TestMain(m *testing.M) {
	tmpDir, err := os.MkdirTemp("", "modman-e2e-*")
	if err != nil {
		panic(err)
	}

	modmanBinary = filepath.Join(tmpDir, "modman")

	//nolint:gosec // Building binary with static arguments, not user input
	cmd := exec.Command("go", "build",
		"-ldflags", "-X go.trai.ch/modman/internal/build.Version="+e2eVersion,
		"-o", modmanBinary, "./cmd/modman")
	cmd.Dir = ".."
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		panic("failed to build modman binary: " + err.Error())
	}

	server := httptest.NewServer(nil)
	server.Config.Handler = newRegistry(server.URL).routes()
	registryURL = server.URL

	exitCode := m.Run()

	server.Close()
	_ = os.RemoveAll(tmpDir)

	os.Exit(exitCode)
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir:   "testdata",
		Setup: setupE2E,
	})
}

func setupE2E(env *testscript.Env) error {
	env.Setenv("NO_COLOR", "1")
	env.Setenv("CI", "true")
	env.Setenv("MODMAN_REGISTRY_URL", registryURL)
	env.Setenv("MODMAN_NO_PROGRESS", "true")

	binDir := filepath.Dir(modmanBinary)
	currentPath := env.Getenv("PATH")
	env.Setenv("PATH", binDir+string(os.PathListSeparator)+currentPath)

	homeDir := filepath.Join(env.WorkDir, ".home")
	if err := os.MkdirAll(homeDir, 0o750); err != nil {
		return err
	}
	env.Setenv("HOME", homeDir)
	env.Setenv("XDG_CONFIG_HOME", filepath.Join(homeDir, ".config"))

	return nil
}
