package domain

import "path/filepath"

const (
	// ConfigFileName is the name of the declared configuration file.
	ConfigFileName = "modman.toml"

	// LockFileName is the name of the resolved lockfile.
	LockFileName = "modman.lock"

	// StateDirName is the name of the internal workspace directory.
	StateDirName = ".modman"

	// RunLockFileName is the name of the advisory lock file inside StateDirName.
	RunLockFileName = "run.lock"

	// DefaultModsDirName is the mods directory used when the config names none.
	DefaultModsDirName = "mods"

	// ArtifactExt is the extension of mod artifacts.
	ArtifactExt = ".jar"

	// TempFilePattern is the pattern for in-flight downloads. It does not end in ArtifactExt,
	// so scans never pick up partial files.
	TempFilePattern = ".modman-download-*"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// ConfigPath returns the config path under root.
func ConfigPath(root string) string {
	return filepath.Join(root, ConfigFileName)
}

// LockfilePath returns the lockfile path under root.
func LockfilePath(root string) string {
	return filepath.Join(root, LockFileName)
}

// RunLockPath returns the advisory lock path under root.
// It joins .modman and run.lock.
func RunLockPath(root string) string {
	return filepath.Join(root, StateDirName, RunLockFileName)
}

// ModsPath resolves the mods directory of cfg against root.
func ModsPath(root string, cfg *Config) string {
	dir := cfg.ModsDir()
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}
