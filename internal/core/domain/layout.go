package domain

import "path/filepath"

const (
	// WorkDirName is the name of the internal workspace directory.
	WorkDirName = ".chainload"

	// CacheDirName is the name of the metadata cache directory.
	CacheDirName = "cache"

	// ConfigFileName is the name of the YAML configuration file.
	ConfigFileName = "chainload.yaml"

	// ConfigTOMLFileName is the name of the TOML configuration file.
	ConfigTOMLFileName = "chainload.toml"

	// CacheFileSuffix is appended to a cache name to build its file name.
	CacheFileSuffix = "_typeloader.dat"

	// PluginCacheName is the cache name used for plugin scans.
	PluginCacheName = "chainloader"

	// PatcherCacheName is the cache name used for patcher scans.
	PatcherCacheName = "preloader"

	// DefaultPluginDir is the default plugin directory, relative to the root.
	DefaultPluginDir = "plugins"

	// DefaultPatcherDir is the default patcher directory, relative to the root.
	DefaultPatcherDir = "patchers"

	// DefaultSDKModule is the module path plugins reference to be considered for extraction.
	DefaultSDKModule = "go.trai.ch/chainload/sdk"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultBinaryPatterns lists the file name globs treated as candidate binaries.
func DefaultBinaryPatterns() []string {
	return []string{"*.so", "*.dll", "*.dylib"}
}

// DefaultCachePath returns the default cache directory.
// It joins .chainload and cache.
func DefaultCachePath() string {
	return filepath.Join(WorkDirName, CacheDirName)
}

// CacheFileName returns the file name of the cache with the given name.
func CacheFileName(name string) string {
	return name + CacheFileSuffix
}
