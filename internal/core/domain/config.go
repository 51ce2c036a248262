package domain

import (
	"slices"
	"strings"
)

// Config is the declared state of a project, stored in modman.toml.
type Config struct {
	GameVersion     string           `toml:"game_version" json:"game_version" yaml:"game_version"`
	Loader          Loader           `toml:"game_loader" json:"game_loader" yaml:"game_loader"`
	ReleaseChannels []ReleaseChannel `toml:"allowed_release_types" json:"allowed_release_types" yaml:"allowed_release_types"`
	ModsDirectory   string           `toml:"mods_folder" json:"mods_folder" yaml:"mods_folder"`
	Mods            []DeclaredMod    `toml:"mods" json:"mods" yaml:"mods"`
}

// NewConfig returns a config with defaults filled in.
func NewConfig(gameVersion string, loader Loader, channels []ReleaseChannel) *Config {
	if len(channels) == 0 {
		channels = []ReleaseChannel{ChannelRelease}
	}
	return &Config{
		GameVersion:     gameVersion,
		Loader:          loader,
		ReleaseChannels: channels,
		ModsDirectory:   DefaultModsDirName,
		Mods:            []DeclaredMod{},
	}
}

// Validate checks the fields a registry lookup depends on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.GameVersion) == "" {
		return ErrMissingGameVersion
	}
	if c.Loader == 0 {
		return ErrInvalidLoader
	}
	seen := make(map[string]struct{}, len(c.Mods))
	for _, m := range c.Mods {
		if _, ok := seen[m.ID]; ok {
			return Mark(ErrDuplicateModID, "mod_id", m.ID)
		}
		seen[m.ID] = struct{}{}
	}
	return nil
}

// Constraint returns the registry constraint this project resolves against.
func (c *Config) Constraint() Constraint {
	return Constraint{
		GameVersion: c.GameVersion,
		Loader:      c.Loader,
		Channels:    slices.Clone(c.ReleaseChannels),
	}
}

// ModsDir returns the mods directory, falling back to the default when unset.
func (c *Config) ModsDir() string {
	if c.ModsDirectory == "" {
		return DefaultModsDirName
	}
	return c.ModsDirectory
}

// Declares reports whether id is a declared root.
func (c *Config) Declares(id string) bool {
	return slices.ContainsFunc(c.Mods, func(m DeclaredMod) bool { return m.ID == id })
}

// Declare adds m as a root unless a root with the same id exists. It reports whether m was added.
func (c *Config) Declare(m DeclaredMod) bool {
	if c.Declares(m.ID) {
		return false
	}
	c.Mods = append(c.Mods, m)
	return true
}

// Undeclare removes the root with the given id or name. It reports whether anything was removed.
func (c *Config) Undeclare(idOrName string) bool {
	before := len(c.Mods)
	c.Mods = slices.DeleteFunc(c.Mods, func(m DeclaredMod) bool {
		return m.ID == idOrName || strings.EqualFold(m.Name, idOrName)
	})
	return len(c.Mods) != before
}

// Rekey replaces the id of the root declared as from with to. When to is already declared the
// from entry is dropped instead. It reports whether the config changed.
func (c *Config) Rekey(from, to string) bool {
	if from == to {
		return false
	}
	i := slices.IndexFunc(c.Mods, func(m DeclaredMod) bool { return m.ID == from })
	if i < 0 {
		return false
	}
	if c.Declares(to) {
		c.Mods = slices.Delete(c.Mods, i, i+1)
		return true
	}
	c.Mods[i].ID = to
	return true
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.ReleaseChannels = slices.Clone(c.ReleaseChannels)
	out.Mods = slices.Clone(c.Mods)
	return &out
}
