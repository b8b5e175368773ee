package domain

import (
	"path/filepath"
	"slices"
)

// Config is the resolved configuration for one pipeline invocation.
// All paths are absolute once returned by a ConfigLoader.
type Config struct {
	// Source is the configuration file the values were read from. Empty when defaults are used.
	Source string
	// Root is the directory relative paths are resolved against.
	Root string
	// PluginDir is scanned for plugin binaries.
	PluginDir string
	// PatcherDir is scanned for patcher binaries.
	PatcherDir string
	// CacheDir holds the metadata cache files.
	CacheDir string
	// CacheEnabled gates both loading and saving of metadata caches.
	CacheEnabled bool
	// Patterns are the file name globs treated as candidate binaries.
	Patterns []string
	// Ignore lists directory names skipped during enumeration.
	Ignore []string
	// Process is the host process name used to filter plugins that declare process constraints.
	Process string
	// SDKModule is the module path a binary must reference to be considered a plugin.
	SDKModule string
}

// DefaultConfig returns the configuration used when no configuration file exists.
func DefaultConfig(root string) *Config {
	return &Config{
		Root:         root,
		PluginDir:    filepath.Join(root, DefaultPluginDir),
		PatcherDir:   filepath.Join(root, DefaultPatcherDir),
		CacheDir:     filepath.Join(root, DefaultCachePath()),
		CacheEnabled: true,
		Patterns:     DefaultBinaryPatterns(),
		SDKModule:    DefaultSDKModule,
	}
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c
	out.Patterns = slices.Clone(c.Patterns)
	out.Ignore = slices.Clone(c.Ignore)
	return &out
}
