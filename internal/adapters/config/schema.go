package config

// File represents the structure of chainload.yaml and chainload.toml.
type File struct {
	Root    string   `yaml:"root" toml:"root"`
	Paths   PathsDTO `yaml:"paths" toml:"paths"`
	Cache   CacheDTO `yaml:"cache" toml:"cache"`
	Scan    ScanDTO  `yaml:"scan" toml:"scan"`
	Process string   `yaml:"process" toml:"process"`
	SDK     string   `yaml:"sdk" toml:"sdk"`
}

// PathsDTO holds the directories used by the pipeline. Relative paths resolve against the root.
type PathsDTO struct {
	Plugins  string `yaml:"plugins" toml:"plugins"`
	Patchers string `yaml:"patchers" toml:"patchers"`
	Cache    string `yaml:"cache" toml:"cache"`
}

// CacheDTO controls the metadata cache.
type CacheDTO struct {
	Enabled *bool `yaml:"enabled" toml:"enabled"`
}

// ScanDTO controls binary enumeration.
type ScanDTO struct {
	Patterns []string `yaml:"patterns" toml:"patterns"`
	Ignore   []string `yaml:"ignore" toml:"ignore"`
}
