package domain

import "strings"

// DependencyKind says how a mod relates to one of its dependencies.
type DependencyKind uint8

const (
	// DependencyRequired must be installed alongside the parent.
	DependencyRequired DependencyKind = iota + 1
	// DependencyOptional is never installed automatically.
	DependencyOptional
	// DependencyIncompatible cannot coexist with the parent.
	DependencyIncompatible
	// DependencyEmbedded is bundled inside the parent artifact.
	DependencyEmbedded
)

// ParseDependencyKind parses a dependency kind. Matching is case-insensitive.
func ParseDependencyKind(s string) (DependencyKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "required":
		return DependencyRequired, nil
	case "optional":
		return DependencyOptional, nil
	case "incompatible":
		return DependencyIncompatible, nil
	case "embedded":
		return DependencyEmbedded, nil
	default:
		return 0, Mark(ErrInvalidDependencyKind, "dependency_type", s)
	}
}

func (k DependencyKind) String() string {
	switch k {
	case DependencyRequired:
		return "required"
	case DependencyOptional:
		return "optional"
	case DependencyIncompatible:
		return "incompatible"
	case DependencyEmbedded:
		return "embedded"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k DependencyKind) MarshalText() ([]byte, error) {
	if k < DependencyRequired || k > DependencyEmbedded {
		return nil, Mark(ErrInvalidDependencyKind, "dependency_type", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *DependencyKind) UnmarshalText(text []byte) error {
	parsed, err := ParseDependencyKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// DependencyRef is an edge from a resolved mod to another project.
type DependencyRef struct {
	Source   Source         `toml:"source" json:"source" yaml:"source"`
	TargetID string         `toml:"project_id" json:"project_id" yaml:"project_id"`
	Kind     DependencyKind `toml:"dependency_type" json:"dependency_type" yaml:"dependency_type"`
}
