package domain

import "strings"

// DeclaredMod is a root mod the user asked for. It is the unit modman.toml stores.
type DeclaredMod struct {
	Source Source `toml:"source" json:"source" yaml:"source"`
	ID     string `toml:"id" json:"id" yaml:"id"`
	Name   string `toml:"name" json:"name" yaml:"name"`
}

// ResolvedMod is one concretely installable artifact recorded in the lockfile.
// Entries are replaced as a whole, never edited field by field.
type ResolvedMod struct {
	Name         string          `toml:"name" json:"name" yaml:"name"`
	Source       Source          `toml:"source" json:"source" yaml:"source"`
	ID           string          `toml:"id" json:"id" yaml:"id"`
	Version      string          `toml:"version" json:"version" yaml:"version"`
	FileName     string          `toml:"file_name" json:"file_name" yaml:"file_name"`
	PublishedAt  string          `toml:"release_date" json:"release_date" yaml:"release_date"`
	ContentHash  string          `toml:"sha512" json:"sha512" yaml:"sha512"`
	DownloadURL  string          `toml:"download_url" json:"download_url" yaml:"download_url"`
	Dependencies []DependencyRef `toml:"dependencies" json:"dependencies" yaml:"dependencies"`
	Size         int64           `toml:"size" json:"size" yaml:"size"`
}

// Declared returns the config entry that declares m as a root.
func (m ResolvedMod) Declared() DeclaredMod {
	return DeclaredMod{Source: m.Source, ID: m.ID, Name: m.Name}
}

// Requires returns the ids of m's Required dependencies in declaration order.
func (m ResolvedMod) Requires() []string {
	var ids []string
	for _, dep := range m.Dependencies {
		if dep.Kind == DependencyRequired {
			ids = append(ids, dep.TargetID)
		}
	}
	return ids
}

// LocalVersion is the version recorded for artifacts whose origin is unknown.
const LocalVersion = "0"

// NewLocalMod builds the opaque entry for an on-disk artifact no registry recognized.
func NewLocalMod(fileName, hash string, size int64) ResolvedMod {
	return ResolvedMod{
		Name:        fileName,
		Source:      SourceLocal,
		ID:          fileName,
		Version:     LocalVersion,
		FileName:    fileName,
		ContentHash: hash,
		Size:        size,
	}
}

// ArtifactFile describes one downloadable file of a registry version.
type ArtifactFile struct {
	FileName    string
	URL         string
	ContentHash string
	Size        int64
}

// VersionInfo is the registry's canonical answer for one project version.
type VersionInfo struct {
	ID           string
	Name         string
	Version      string
	Source       Source
	PublishedAt  string
	File         ArtifactFile
	Dependencies []DependencyRef
}

// ResolvedMod converts the registry answer into a lockfile entry.
func (v VersionInfo) ResolvedMod() ResolvedMod {
	deps := make([]DependencyRef, len(v.Dependencies))
	copy(deps, v.Dependencies)
	return ResolvedMod{
		Name:         v.Name,
		Source:       v.Source,
		ID:           v.ID,
		Version:      v.Version,
		FileName:     v.File.FileName,
		PublishedAt:  v.PublishedAt,
		ContentHash:  v.File.ContentHash,
		DownloadURL:  v.File.URL,
		Dependencies: deps,
		Size:         v.File.Size,
	}
}

// ParseModSpec parses a command line mod spec of the form [source@]id. The source defaults to
// Modrinth. Local artifacts cannot be requested by spec.
func ParseModSpec(spec string) (DeclaredMod, error) {
	spec = strings.TrimSpace(spec)
	source := SourceModrinth
	id := spec
	if before, after, ok := strings.Cut(spec, "@"); ok {
		parsed, err := ParseSource(before)
		if err != nil || !parsed.IsRegistry() {
			return DeclaredMod{}, Mark(ErrInvalidModSpec, "spec", spec)
		}
		source = parsed
		id = after
	}
	if id == "" || strings.ContainsAny(id, "@/\\ ") {
		return DeclaredMod{}, Mark(ErrInvalidModSpec, "spec", spec)
	}
	return DeclaredMod{Source: source, ID: id, Name: id}, nil
}
