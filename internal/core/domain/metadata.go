package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// DependencyFlags describes how strictly a plugin depends on another plugin.
type DependencyFlags int32

const (
	// HardDependency must be present or the load order cannot be computed.
	HardDependency DependencyFlags = 1
	// SoftDependency is ordered before the dependent when present and ignored otherwise.
	SoftDependency DependencyFlags = 2
)

// String returns "hard" or "soft".
func (f DependencyFlags) String() string {
	if f == SoftDependency {
		return "soft"
	}
	return "hard"
}

// MarshalText encodes the flags as "hard" or "soft".
func (f DependencyFlags) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText decodes flags written by MarshalText.
func (f *DependencyFlags) UnmarshalText(text []byte) error {
	parsed, ok := ParseDependencyFlags(string(text))
	if !ok {
		return zerr.With(zerr.Wrap(ErrInvalidDependencyFlags, "cannot decode dependency flags"), "flags", string(text))
	}
	*f = parsed
	return nil
}

// ParseDependencyFlags converts "hard" or "soft" (any case) to DependencyFlags.
// Empty input yields HardDependency.
func ParseDependencyFlags(s string) (DependencyFlags, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "hard", "1":
		return HardDependency, true
	case "soft", "2":
		return SoftDependency, true
	default:
		return 0, false
	}
}

// Dependency is a reference from one plugin to another by GUID.
type Dependency struct {
	GUID  string          `json:"guid" yaml:"guid"`
	Flags DependencyFlags `json:"flags" yaml:"flags"`
}

// Required reports whether the dependency is hard.
func (d Dependency) Required() bool {
	return d.Flags != SoftDependency
}

// PluginMetadata is the cached summary of one plugin type.
type PluginMetadata struct {
	GUID         string       `json:"guid" yaml:"guid"`
	Name         string       `json:"name" yaml:"name"`
	Version      string       `json:"version" yaml:"version"`
	TypeName     string       `json:"type" yaml:"type"`
	Location     string       `json:"location" yaml:"location"`
	Dependencies []Dependency `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Processes    []string     `json:"processes,omitempty" yaml:"processes,omitempty"`
}

// Save writes the record.
func (m *PluginMetadata) Save(w *BinaryWriter) {
	w.WriteString(m.TypeName)
	w.WriteString(m.Location)
	w.WriteString(m.GUID)
	w.WriteString(m.Name)
	w.WriteString(m.Version)

	w.WriteCount(len(m.Dependencies))
	for _, dep := range m.Dependencies {
		w.WriteString(dep.GUID)
		w.WriteInt32(int32(dep.Flags))
	}

	w.WriteStrings(m.Processes)
}

// Load reads a record written by Save.
func (m *PluginMetadata) Load(r *BinaryReader) {
	m.TypeName = r.ReadString()
	m.Location = r.ReadString()
	m.GUID = r.ReadString()
	m.Name = r.ReadString()
	m.Version = r.ReadString()

	m.Dependencies = nil
	if n := r.ReadCount(); n > 0 {
		m.Dependencies = make([]Dependency, 0, n)
		for range n {
			guid := r.ReadString()
			flags := DependencyFlags(r.ReadInt32())
			m.Dependencies = append(m.Dependencies, Dependency{GUID: guid, Flags: flags})
		}
	}

	m.Processes = r.ReadStrings()
}

// Descriptor converts the record into resolver input.
func (m *PluginMetadata) Descriptor() PluginDescriptor {
	d := PluginDescriptor{ID: m.GUID}
	if len(m.Dependencies) > 0 {
		d.Dependencies = make([]DependencyRef, 0, len(m.Dependencies))
		for _, dep := range m.Dependencies {
			d.Dependencies = append(d.Dependencies, DependencyRef{
				TargetID: dep.GUID,
				Required: dep.Required(),
			})
		}
	}
	return d
}

// PatcherMetadata is the cached summary of one patcher type.
type PatcherMetadata struct {
	TypeName string   `json:"type" yaml:"type"`
	Location string   `json:"location" yaml:"location"`
	Targets  []string `json:"targets,omitempty" yaml:"targets,omitempty"`
}

// Save writes the record.
func (m *PatcherMetadata) Save(w *BinaryWriter) {
	w.WriteString(m.TypeName)
	w.WriteString(m.Location)
	w.WriteStrings(m.Targets)
}

// Load reads a record written by Save.
func (m *PatcherMetadata) Load(r *BinaryReader) {
	m.TypeName = r.ReadString()
	m.Location = r.ReadString()
	m.Targets = r.ReadStrings()
}
