package domain

import (
	"errors"
	"slices"
	"strings"
)

// ReconcileReport is the corrective action set computed from disk, lockfile and config.
type ReconcileReport struct {
	// MissingDependencies are Required dependencies with no artifact on disk.
	MissingDependencies []DependencyRef `json:"missing_dependencies" yaml:"missing_dependencies"`
	// NewMods are declared roots with no lockfile entry.
	NewMods []DeclaredMod `json:"new_mods" yaml:"new_mods"`
	// ReinstallBadChecksum are entries whose file content drifted from the recorded hash.
	ReinstallBadChecksum []ResolvedMod `json:"reinstall_bad_checksum" yaml:"reinstall_bad_checksum"`
	// Adopted are untracked files the registry recognized by hash.
	Adopted []ResolvedMod `json:"adopted,omitempty" yaml:"adopted,omitempty"`
	// Localized are untracked files recorded with a Local source.
	Localized []ResolvedMod `json:"localized,omitempty" yaml:"localized,omitempty"`
	// Pruned are entries removed because nothing declared needs them any more.
	Pruned []ResolvedMod `json:"pruned,omitempty" yaml:"pruned,omitempty"`
	// Unidentified are files skipped because the registry could not be reached.
	Unidentified []string `json:"unidentified,omitempty" yaml:"unidentified,omitempty"`
}

// HasWork reports whether anything needs resolving or downloading.
func (r *ReconcileReport) HasWork() bool {
	return len(r.MissingDependencies) > 0 || len(r.NewMods) > 0 || len(r.ReinstallBadChecksum) > 0
}

// IsClean reports whether the run found no drift at all.
func (r *ReconcileReport) IsClean() bool {
	return !r.HasWork() && len(r.Adopted) == 0 && len(r.Localized) == 0 &&
		len(r.Pruned) == 0 && len(r.Unidentified) == 0
}

// Roots returns the mods that must be resolved to repair the drift, deduplicated by id.
func (r *ReconcileReport) Roots() []DeclaredMod {
	seen := make(map[string]struct{})
	var out []DeclaredMod
	add := func(m DeclaredMod) {
		if _, ok := seen[m.ID]; ok {
			return
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	for _, m := range r.NewMods {
		add(m)
	}
	for _, m := range r.ReinstallBadChecksum {
		add(m.Declared())
	}
	for _, d := range r.MissingDependencies {
		add(DeclaredMod{Source: d.Source, ID: d.TargetID, Name: d.TargetID})
	}
	return out
}

// FailureClass groups resolution failures by cause.
type FailureClass uint8

const (
	// FailureNotFound means the registry has no matching version.
	FailureNotFound FailureClass = iota + 1
	// FailureTransport means the registry could not be reached or answered badly.
	FailureTransport
	// FailureIncompatible means a resolved mod declared an incompatible dependency.
	FailureIncompatible
	// FailureUnsupported means no registry adapter serves the mod's source.
	FailureUnsupported
)

func (c FailureClass) String() string {
	switch c {
	case FailureNotFound:
		return "not-found"
	case FailureTransport:
		return "transport"
	case FailureIncompatible:
		return "incompatible"
	case FailureUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c FailureClass) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// ClassifyFailure maps an error to its failure class. Unknown errors count as transport failures.
func ClassifyFailure(err error) FailureClass {
	switch {
	case errors.Is(err, ErrNotFound):
		return FailureNotFound
	case errors.Is(err, ErrIncompatibleDependency):
		return FailureIncompatible
	case errors.Is(err, ErrUnsupportedSource):
		return FailureUnsupported
	default:
		return FailureTransport
	}
}

// ResolutionFailure names a mod that could not be resolved.
type ResolutionFailure struct {
	ID     string       `json:"id" yaml:"id"`
	Source Source       `json:"source" yaml:"source"`
	Parent string       `json:"parent,omitempty" yaml:"parent,omitempty"`
	Root   string       `json:"root" yaml:"root"`
	Class  FailureClass `json:"class" yaml:"class"`
	Err    error        `json:"-" yaml:"-"`
}

// Detail returns the underlying error text.
func (f ResolutionFailure) Detail() string {
	if f.Err == nil {
		return ""
	}
	return f.Err.Error()
}

// Resolution is the result of expanding requested roots into an install plan.
type Resolution struct {
	Mods             []ResolvedMod       `json:"mods" yaml:"mods"`
	Failures         []ResolutionFailure `json:"failures,omitempty" yaml:"failures,omitempty"`
	AlreadyInstalled []string            `json:"already_installed,omitempty" yaml:"already_installed,omitempty"`
	// Aliases maps requested root ids to the canonical id the registry answered with.
	Aliases map[string]string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// Canonical returns the canonical id for a requested root id.
func (r *Resolution) Canonical(id string) string {
	if canonical, ok := r.Aliases[id]; ok {
		return canonical
	}
	return id
}

// TotalSize returns the sum of artifact sizes in the plan.
func (r *Resolution) TotalSize() int64 {
	var total int64
	for _, m := range r.Mods {
		total += m.Size
	}
	return total
}

// DownloadStatus is the terminal state of one download.
type DownloadStatus uint8

const (
	// DownloadVerified means the artifact is on disk and its hash matched.
	DownloadVerified DownloadStatus = iota + 1
	// DownloadChecksumMismatch means the content did not hash to the expected value.
	DownloadChecksumMismatch
	// DownloadTransportFailure means the content could not be fetched or written.
	DownloadTransportFailure
)

func (s DownloadStatus) String() string {
	switch s {
	case DownloadVerified:
		return "verified"
	case DownloadChecksumMismatch:
		return "checksum-mismatch"
	case DownloadTransportFailure:
		return "transport-failure"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s DownloadStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// DownloadItem is one artifact to materialize.
type DownloadItem struct {
	ModID        string `json:"id" yaml:"id"`
	Source       Source `json:"source" yaml:"source"`
	DisplayName  string `json:"name" yaml:"name"`
	URL          string `json:"url" yaml:"url"`
	Destination  string `json:"destination" yaml:"destination"`
	ExpectedHash string `json:"sha512" yaml:"sha512"`
	Size         int64  `json:"size" yaml:"size"`
}

// DownloadOutcome is the result of one DownloadItem.
type DownloadOutcome struct {
	Item       DownloadItem   `json:"item" yaml:"item"`
	Status     DownloadStatus `json:"status" yaml:"status"`
	ActualHash string         `json:"actual_hash,omitempty" yaml:"actual_hash,omitempty"`
	Err        error          `json:"-" yaml:"-"`
}

// Verified reports whether the item may be committed.
func (o DownloadOutcome) Verified() bool {
	return o.Status == DownloadVerified
}

// SortDependencyRefs orders refs by target id.
func SortDependencyRefs(refs []DependencyRef) {
	slices.SortFunc(refs, func(a, b DependencyRef) int {
		return strings.Compare(a.TargetID, b.TargetID)
	})
}

// SortResolvedMods orders mods by id.
func SortResolvedMods(mods []ResolvedMod) {
	slices.SortFunc(mods, func(a, b ResolvedMod) int {
		return strings.Compare(a.ID, b.ID)
	})
}

// SortDeclaredMods orders mods by id.
func SortDeclaredMods(mods []DeclaredMod) {
	slices.SortFunc(mods, func(a, b DeclaredMod) int {
		return strings.Compare(a.ID, b.ID)
	})
}
