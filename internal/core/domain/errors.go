package domain

import (
	"fmt"

	"go.trai.ch/zerr"
)

var (
	// ErrNotFound is returned when the registry has no project, version or file matching a request.
	ErrNotFound = zerr.New("not found")

	// ErrTransportFailure is returned when a registry or artifact request fails below the protocol level.
	ErrTransportFailure = zerr.New("transport failure")

	// ErrChecksumMismatch is returned when downloaded content does not hash to the expected value.
	ErrChecksumMismatch = zerr.New("checksum mismatch")

	// ErrIncompatibleDependency is returned when a resolved mod declares an incompatible dependency.
	ErrIncompatibleDependency = zerr.New("incompatible dependency")

	// ErrUnsupportedSource is returned when a mod names a source no registry adapter serves.
	ErrUnsupportedSource = zerr.New("unsupported source")

	// ErrAlreadyInstalled marks a requested mod that is already present. It is informational.
	ErrAlreadyInstalled = zerr.New("already installed")

	// ErrCorruptState is returned when the config or lockfile cannot be decoded or fails validation.
	ErrCorruptState = zerr.New("corrupt state file")

	// ErrStateAbsent is returned when a state file does not exist.
	ErrStateAbsent = zerr.New("state file is absent")

	// ErrStateEmpty is returned when a state file exists but holds no content.
	ErrStateEmpty = zerr.New("state file is empty")

	// ErrConfigNotFound is returned when a command needs modman.toml and none exists.
	ErrConfigNotFound = zerr.New("no modman.toml found, run 'modman init' first")

	// ErrConfigExists is returned by init when a config already exists.
	ErrConfigExists = zerr.New("modman.toml already exists")

	// ErrInvalidSource is returned when a source name cannot be parsed.
	ErrInvalidSource = zerr.New("invalid source, expected 'modrinth', 'curseforge' or 'local'")

	// ErrInvalidDependencyKind is returned when a dependency kind cannot be parsed.
	ErrInvalidDependencyKind = zerr.New("invalid dependency type, expected 'required', 'optional', 'incompatible' or 'embedded'")

	// ErrInvalidLoader is returned when a loader name cannot be parsed.
	ErrInvalidLoader = zerr.New("invalid loader, expected 'fabric', 'quilt', 'forge' or 'neoforge'")

	// ErrInvalidReleaseChannel is returned when a release channel cannot be parsed.
	ErrInvalidReleaseChannel = zerr.New("invalid release type, expected 'release', 'beta' or 'alpha'")

	// ErrInvalidModSpec is returned when a command line mod spec is malformed.
	ErrInvalidModSpec = zerr.New("invalid mod spec, expected [source@]id")

	// ErrMissingGameVersion is returned when the config has no game version.
	ErrMissingGameVersion = zerr.New("game version is required")

	// ErrDuplicateModID is returned when two lockfile entries share an id.
	ErrDuplicateModID = zerr.New("duplicate mod id")

	// ErrDuplicateFileName is returned when two lockfile entries share a file name.
	ErrDuplicateFileName = zerr.New("duplicate file name")

	// ErrModNotDeclared is returned when removing a mod that is not in the config.
	ErrModNotDeclared = zerr.New("mod is not declared in modman.toml")

	// ErrNoModsSpecified is returned when a command needs at least one mod argument.
	ErrNoModsSpecified = zerr.New("no mods specified")

	// ErrInvalidArtifactName is returned when a registry names an artifact that cannot live in the mods directory.
	ErrInvalidArtifactName = zerr.New("artifact file name must be a plain .jar file name")

	// ErrDirLocked is returned when another modman process holds the project lock.
	ErrDirLocked = zerr.New("another modman process is running in this directory")

	// ErrAborted is returned when the user declines the install plan.
	ErrAborted = zerr.New("aborted by user")

	// ErrResolutionFailed is returned when at least one requested mod could not be resolved.
	ErrResolutionFailed = zerr.New("some mods could not be resolved")

	// ErrSomeDownloadsFailed is returned when at least one artifact failed to download or verify.
	ErrSomeDownloadsFailed = zerr.New("some downloads failed")

	// ErrSaveFailed is returned when a state file cannot be written.
	ErrSaveFailed = zerr.New("failed to save state file")

	// ErrScanFailed is returned when the mods directory cannot be enumerated.
	ErrScanFailed = zerr.New("failed to scan mods directory")

	// ErrHashFailed is returned when an artifact cannot be hashed.
	ErrHashFailed = zerr.New("failed to hash artifact")

	// ErrRenameFailed is returned when an artifact cannot be moved to its canonical name.
	ErrRenameFailed = zerr.New("failed to rename artifact")

	// ErrRemoveFailed is returned when an artifact cannot be deleted.
	ErrRemoveFailed = zerr.New("failed to remove artifact")

	// ErrWatcherFailed is returned when the filesystem watcher cannot be started.
	ErrWatcherFailed = zerr.New("failed to start watcher")

	// ErrInvalidOutputFormat is returned when --output names an unknown format.
	ErrInvalidOutputFormat = zerr.New("invalid output format, expected 'text', 'json' or 'yaml'")
)

// Mark returns sentinel annotated with key and value. errors.Is(err, sentinel) keeps holding,
// which zerr.With alone does not guarantee because it copies the error.
func Mark(sentinel error, key string, value any) error {
	return zerr.With(zerr.Wrap(sentinel, ""), key, value)
}

// Classify chains cause under sentinel so callers can match either with errors.Is.
func Classify(sentinel, cause error) error {
	return fmt.Errorf("%w: %w", sentinel, cause)
}

// ChecksumError reports a content hash mismatch for one artifact.
type ChecksumError struct {
	ID       string
	Expected string
	Actual   string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: expected %s, got %s", e.ID, short(e.Expected), short(e.Actual))
}

// Unwrap makes errors.Is(err, ErrChecksumMismatch) hold.
func (e *ChecksumError) Unwrap() error {
	return ErrChecksumMismatch
}

func short(hash string) string {
	const n = 12
	if len(hash) <= n {
		return hash
	}
	return hash[:n]
}
