package domain

import "strings"

// Loader is the mod loader a game instance runs.
type Loader uint8

const (
	// LoaderFabric is the Fabric loader.
	LoaderFabric Loader = iota + 1
	// LoaderQuilt is the Quilt loader.
	LoaderQuilt
	// LoaderForge is the Forge loader.
	LoaderForge
	// LoaderNeoForge is the NeoForge loader.
	LoaderNeoForge
)

// ParseLoader parses a loader name. Matching is case-insensitive.
func ParseLoader(s string) (Loader, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fabric":
		return LoaderFabric, nil
	case "quilt":
		return LoaderQuilt, nil
	case "forge":
		return LoaderForge, nil
	case "neoforge":
		return LoaderNeoForge, nil
	default:
		return 0, Mark(ErrInvalidLoader, "loader", s)
	}
}

func (l Loader) String() string {
	switch l {
	case LoaderFabric:
		return "fabric"
	case LoaderQuilt:
		return "quilt"
	case LoaderForge:
		return "forge"
	case LoaderNeoForge:
		return "neoforge"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l Loader) MarshalText() ([]byte, error) {
	if l < LoaderFabric || l > LoaderNeoForge {
		return nil, Mark(ErrInvalidLoader, "loader", int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Loader) UnmarshalText(text []byte) error {
	parsed, err := ParseLoader(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ReleaseChannel is the stability class a registry assigns to a version.
type ReleaseChannel uint8

const (
	// ChannelRelease is a stable release.
	ChannelRelease ReleaseChannel = iota + 1
	// ChannelBeta is a beta release.
	ChannelBeta
	// ChannelAlpha is an alpha release.
	ChannelAlpha
)

// ParseReleaseChannel parses a release channel. Matching is case-insensitive.
func ParseReleaseChannel(s string) (ReleaseChannel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "release":
		return ChannelRelease, nil
	case "beta":
		return ChannelBeta, nil
	case "alpha":
		return ChannelAlpha, nil
	default:
		return 0, Mark(ErrInvalidReleaseChannel, "release_type", s)
	}
}

func (c ReleaseChannel) String() string {
	switch c {
	case ChannelRelease:
		return "release"
	case ChannelBeta:
		return "beta"
	case ChannelAlpha:
		return "alpha"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c ReleaseChannel) MarshalText() ([]byte, error) {
	if c < ChannelRelease || c > ChannelAlpha {
		return nil, Mark(ErrInvalidReleaseChannel, "release_type", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *ReleaseChannel) UnmarshalText(text []byte) error {
	parsed, err := ParseReleaseChannel(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Constraint narrows registry lookups to versions that run on one game instance.
type Constraint struct {
	GameVersion string
	Loader      Loader
	Channels    []ReleaseChannel
}

// Allows reports whether versions published on channel c satisfy the constraint.
// An empty channel list allows only stable releases.
func (c Constraint) Allows(ch ReleaseChannel) bool {
	if len(c.Channels) == 0 {
		return ch == ChannelRelease
	}
	for _, allowed := range c.Channels {
		if allowed == ch {
			return true
		}
	}
	return false
}
