package domain

import (
	"slices"
	"strings"
)

// LockfileVersion is the current lockfile schema version.
const LockfileVersion = 1

// Lockfile records every artifact modman has verified on disk.
type Lockfile struct {
	// Version is the schema version. Zero is read as LockfileVersion.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Mods holds one entry per installed artifact.
	Mods []ResolvedMod `toml:"mods" json:"mods" yaml:"mods"`
}

// NewLockfile returns an empty lockfile at the current schema version.
func NewLockfile() *Lockfile {
	return &Lockfile{Version: LockfileVersion, Mods: []ResolvedMod{}}
}

// Validate enforces unique ids and unique file names.
func (l *Lockfile) Validate() error {
	ids := make(map[string]struct{}, len(l.Mods))
	files := make(map[string]struct{}, len(l.Mods))
	for _, m := range l.Mods {
		if _, ok := ids[m.ID]; ok {
			return Mark(ErrDuplicateModID, "mod_id", m.ID)
		}
		ids[m.ID] = struct{}{}
		if _, ok := files[m.FileName]; ok {
			return Mark(ErrDuplicateFileName, "file_name", m.FileName)
		}
		files[m.FileName] = struct{}{}
	}
	return nil
}

// Get returns the entry with the given id.
func (l *Lockfile) Get(id string) (ResolvedMod, bool) {
	i := l.index(id)
	if i < 0 {
		return ResolvedMod{}, false
	}
	return l.Mods[i], true
}

// Has reports whether an entry with the given id exists.
func (l *Lockfile) Has(id string) bool {
	return l.index(id) >= 0
}

// HasFile reports whether an entry occupies the given file name.
func (l *Lockfile) HasFile(fileName string) bool {
	return slices.ContainsFunc(l.Mods, func(m ResolvedMod) bool { return m.FileName == fileName })
}

// Put inserts m, replacing any entry with the same id.
func (l *Lockfile) Put(m ResolvedMod) {
	if i := l.index(m.ID); i >= 0 {
		l.Mods[i] = m
		return
	}
	l.Mods = append(l.Mods, m)
}

// Remove deletes the entry with the given id and returns it.
func (l *Lockfile) Remove(id string) (ResolvedMod, bool) {
	i := l.index(id)
	if i < 0 {
		return ResolvedMod{}, false
	}
	m := l.Mods[i]
	l.Mods = slices.Delete(l.Mods, i, i+1)
	return m, true
}

// IDs returns the set of ids in the lockfile.
func (l *Lockfile) IDs() map[string]struct{} {
	out := make(map[string]struct{}, len(l.Mods))
	for _, m := range l.Mods {
		out[m.ID] = struct{}{}
	}
	return out
}

// Sort orders entries by id so that persisted output is deterministic.
func (l *Lockfile) Sort() {
	slices.SortFunc(l.Mods, func(a, b ResolvedMod) int {
		return strings.Compare(a.ID, b.ID)
	})
}

// Clone returns a deep copy.
func (l *Lockfile) Clone() *Lockfile {
	out := &Lockfile{Version: l.Version, Mods: make([]ResolvedMod, len(l.Mods))}
	for i, m := range l.Mods {
		m.Dependencies = slices.Clone(m.Dependencies)
		out.Mods[i] = m
	}
	return out
}

func (l *Lockfile) index(id string) int {
	return slices.IndexFunc(l.Mods, func(m ResolvedMod) bool { return m.ID == id })
}
