// Package config provides the configuration loader for chainload.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.trai.ch/chainload/internal/core/domain"
	"go.trai.ch/chainload/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader for chainload.yaml and chainload.toml.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load finds the nearest configuration file at or above cwd. Without one, the defaults rooted
// at cwd are returned.
func (l *Loader) Load(cwd string) (*domain.Config, error) {
	cwd, err := filepath.Abs(cwd)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	path, found := l.findConfiguration(cwd)
	if !found {
		l.Logger.Debug(fmt.Sprintf("no %s found, using defaults rooted at %s", domain.ConfigFileName, cwd))
		return domain.DefaultConfig(cwd), nil
	}

	var file File
	if err := decodeFile(path, &file); err != nil {
		return nil, zerr.With(err, "path", path)
	}

	cfg, err := build(path, &file)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}

	l.Logger.Debug("using configuration " + path)
	return cfg, nil
}

// findConfiguration walks up from cwd. Within one directory the YAML file wins over the TOML file.
func (l *Loader) findConfiguration(cwd string) (string, bool) {
	for dir := cwd; ; {
		yamlPath := filepath.Join(dir, domain.ConfigFileName)
		tomlPath := filepath.Join(dir, domain.ConfigTOMLFileName)
		hasYAML, hasTOML := isFile(yamlPath), isFile(tomlPath)

		switch {
		case hasYAML && hasTOML:
			l.Logger.Warn(fmt.Sprintf("both %s and %s exist in %s, using %s",
				domain.ConfigFileName, domain.ConfigTOMLFileName, dir, domain.ConfigFileName))
			return yamlPath, true
		case hasYAML:
			return yamlPath, true
		case hasTOML:
			return tomlPath, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// decodeFile reads path strictly: unknown and duplicate keys are rejected.
func decodeFile(path string, target *File) error {
	// #nosec G304 -- path is found by walking up from the working directory
	data, err := os.ReadFile(path)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(target); err != nil {
			return zerr.Wrap(err, domain.ErrConfigParseFailed.Error())
		}
		return nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return zerr.Wrap(err, domain.ErrConfigParseFailed.Error())
	}
	return nil
}

func build(path string, file *File) (*domain.Config, error) {
	root := resolveRoot(path, file.Root)
	cfg := domain.DefaultConfig(root)
	cfg.Source = path

	if file.Paths.Plugins != "" {
		cfg.PluginDir = resolvePath(root, file.Paths.Plugins)
	}
	if file.Paths.Patchers != "" {
		cfg.PatcherDir = resolvePath(root, file.Paths.Patchers)
	}
	if file.Paths.Cache != "" {
		cfg.CacheDir = resolvePath(root, file.Paths.Cache)
	}
	if file.Cache.Enabled != nil {
		cfg.CacheEnabled = *file.Cache.Enabled
	}
	if len(file.Scan.Patterns) > 0 {
		cfg.Patterns = file.Scan.Patterns
	}
	cfg.Ignore = file.Scan.Ignore
	cfg.Process = strings.TrimSpace(file.Process)
	if file.SDK != "" {
		cfg.SDKModule = file.SDK
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *domain.Config) error {
	for _, pattern := range append(append([]string{}, cfg.Patterns...), cfg.Ignore...) {
		if strings.ContainsRune(pattern, filepath.Separator) {
			return zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "patterns match base names only"), "pattern", pattern)
		}
		if _, err := filepath.Match(pattern, ""); err != nil {
			return zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "malformed glob pattern"), "pattern", pattern)
		}
	}
	return nil
}

func resolveRoot(configPath, configuredRoot string) string {
	configDir := filepath.Dir(configPath)
	if configuredRoot == "" {
		return filepath.Clean(configDir)
	}
	return resolvePath(configDir, configuredRoot)
}

func resolvePath(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Clean(filepath.Join(base, p))
}
