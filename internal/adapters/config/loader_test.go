package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/chainload/internal/adapters/config"
	"go.trai.ch/chainload/internal/core/domain"
	"go.trai.ch/chainload/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func createFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), domain.DirPerm))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newLoader(t *testing.T) (*config.Loader, *mocks.MockLogger) {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	return config.NewLoader(log), log
}

func TestLoader_Load_Defaults(t *testing.T) {
	loader, _ := newLoader(t)
	dir := t.TempDir()

	cfg, err := loader.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultConfig(dir), cfg)
	assert.Empty(t, cfg.Source)
	assert.True(t, cfg.CacheEnabled)
	assert.Equal(t, filepath.Join(dir, "plugins"), cfg.PluginDir)
	assert.Equal(t, filepath.Join(dir, ".chainload", "cache"), cfg.CacheDir)
}

func TestLoader_Load_YAML(t *testing.T) {
	loader, _ := newLoader(t)
	dir := t.TempDir()

	path := createFile(t, dir, domain.ConfigFileName, `
root: game
paths:
  plugins: game/plugins
  patchers: /opt/patchers
  cache: cache
cache:
  enabled: false
scan:
  patterns: ["*.so"]
  ignore: [disabled]
process: Game.exe
sdk: example.com/sdk
`)

	cfg, err := loader.Load(dir)
	require.NoError(t, err)

	root := filepath.Join(dir, "game")
	assert.Equal(t, &domain.Config{
		Source:       path,
		Root:         root,
		PluginDir:    filepath.Join(root, "game", "plugins"),
		PatcherDir:   "/opt/patchers",
		CacheDir:     filepath.Join(root, "cache"),
		CacheEnabled: false,
		Patterns:     []string{"*.so"},
		Ignore:       []string{"disabled"},
		Process:      "Game.exe",
		SDKModule:    "example.com/sdk",
	}, cfg)
}

func TestLoader_Load_TOML(t *testing.T) {
	loader, _ := newLoader(t)
	dir := t.TempDir()

	createFile(t, dir, domain.ConfigTOMLFileName, `
process = "editor"

[paths]
plugins = "mods"

[cache]
enabled = true

[scan]
patterns = ["*.dll"]
`)

	cfg, err := loader.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "mods"), cfg.PluginDir)
	assert.Equal(t, filepath.Join(dir, "patchers"), cfg.PatcherDir)
	assert.True(t, cfg.CacheEnabled)
	assert.Equal(t, []string{"*.dll"}, cfg.Patterns)
	assert.Equal(t, "editor", cfg.Process)
	assert.Equal(t, domain.DefaultSDKModule, cfg.SDKModule)
}

func TestLoader_Load_WalksUp(t *testing.T) {
	loader, _ := newLoader(t)
	dir := t.TempDir()
	path := createFile(t, dir, domain.ConfigFileName, "process: game\n")

	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, domain.DirPerm))

	cfg, err := loader.Load(nested)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Source)
	assert.Equal(t, dir, cfg.Root, "root defaults to the config file directory")
}

func TestLoader_Load_NearestWins(t *testing.T) {
	loader, _ := newLoader(t)
	dir := t.TempDir()
	createFile(t, dir, domain.ConfigFileName, "process: outer\n")
	createFile(t, dir, filepath.Join("inner", domain.ConfigTOMLFileName), "process = \"inner\"\n")

	cfg, err := loader.Load(filepath.Join(dir, "inner"))
	require.NoError(t, err)
	assert.Equal(t, "inner", cfg.Process)
}

func TestLoader_Load_BothFormatsWarns(t *testing.T) {
	loader, log := newLoader(t)
	log.EXPECT().Warn(gomock.Any()).Times(1)

	dir := t.TempDir()
	createFile(t, dir, domain.ConfigFileName, "process: yaml\n")
	createFile(t, dir, domain.ConfigTOMLFileName, "process = \"toml\"\n")

	cfg, err := loader.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.Process)
}

func TestLoader_Load_EmptyFile(t *testing.T) {
	loader, _ := newLoader(t)
	dir := t.TempDir()
	path := createFile(t, dir, domain.ConfigFileName, "")

	cfg, err := loader.Load(dir)
	require.NoError(t, err)

	want := domain.DefaultConfig(dir)
	want.Source = path
	assert.Equal(t, want, cfg)
}

func TestLoader_Load_Errors(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		contains string
	}{
		{
			name:     "yaml syntax",
			file:     domain.ConfigFileName,
			content:  "paths: [",
			contains: domain.ErrConfigParseFailed.Error(),
		},
		{
			name:     "yaml unknown key",
			file:     domain.ConfigFileName,
			content:  "plugins: x\n",
			contains: domain.ErrConfigParseFailed.Error(),
		},
		{
			name:     "yaml duplicate key",
			file:     domain.ConfigFileName,
			content:  "process: a\nprocess: b\n",
			contains: domain.ErrConfigParseFailed.Error(),
		},
		{
			name:     "toml unknown key",
			file:     domain.ConfigTOMLFileName,
			content:  "[paths]\nmods = \"x\"\n",
			contains: domain.ErrConfigParseFailed.Error(),
		},
		{
			name:     "toml duplicate key",
			file:     domain.ConfigTOMLFileName,
			content:  "process = \"a\"\nprocess = \"b\"\n",
			contains: domain.ErrConfigParseFailed.Error(),
		},
		{
			name:     "malformed pattern",
			file:     domain.ConfigFileName,
			content:  "scan:\n  patterns: [\"[*.so\"]\n",
			contains: domain.ErrInvalidConfig.Error(),
		},
		{
			name:     "pattern with separator",
			file:     domain.ConfigFileName,
			content:  "scan:\n  ignore: [\"a/b\"]\n",
			contains: domain.ErrInvalidConfig.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader, _ := newLoader(t)
			dir := t.TempDir()
			createFile(t, dir, tt.file, tt.content)

			cfg, err := loader.Load(dir)
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.ErrorContains(t, err, tt.contains)
		})
	}
}

func TestLoader_Load_InvalidConfigIsMatchable(t *testing.T) {
	loader, _ := newLoader(t)
	dir := t.TempDir()
	createFile(t, dir, domain.ConfigFileName, "scan:\n  patterns: [\"[\"]\n")

	_, err := loader.Load(dir)
	require.ErrorIs(t, err, domain.ErrInvalidConfig)
}
