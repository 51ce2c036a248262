package domain

import (
	"strings"
)

// Source identifies where a mod comes from.
type Source uint8

const (
	// SourceModrinth is the Modrinth registry.
	SourceModrinth Source = iota + 1
	// SourceCurseForge is the CurseForge registry. No adapter serves it yet.
	SourceCurseForge
	// SourceLocal marks an artifact present on disk whose registry origin is unknown.
	SourceLocal
)

// ParseSource parses a source name. Matching is case-insensitive.
func ParseSource(s string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "modrinth":
		return SourceModrinth, nil
	case "curseforge":
		return SourceCurseForge, nil
	case "local":
		return SourceLocal, nil
	default:
		return 0, Mark(ErrInvalidSource, "source", s)
	}
}

// String returns the canonical name used in state files.
func (s Source) String() string {
	switch s {
	case SourceModrinth:
		return "Modrinth"
	case SourceCurseForge:
		return "CurseForge"
	case SourceLocal:
		return "Local"
	default:
		return "Unknown"
	}
}

// IsRegistry reports whether artifacts from s can be fetched from a remote registry.
func (s Source) IsRegistry() bool {
	return s == SourceModrinth || s == SourceCurseForge
}

// MarshalText implements encoding.TextMarshaler.
func (s Source) MarshalText() ([]byte, error) {
	if s < SourceModrinth || s > SourceLocal {
		return nil, Mark(ErrInvalidSource, "source", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Source) UnmarshalText(text []byte) error {
	parsed, err := ParseSource(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
