package cache

import (
	"go.trai.ch/chainload/internal/core/domain"
	"go.trai.ch/chainload/internal/core/ports"
)

// Factory opens metadata stores for a cache directory chosen at run time.
type Factory struct {
	logger ports.Logger
}

// NewFactory creates a Factory whose stores report through logger.
func NewFactory(logger ports.Logger) *Factory {
	return &Factory{logger: logger}
}

// Plugins returns the plugin metadata store in dir.
func (f *Factory) Plugins(dir string) *Store[domain.PluginMetadata, *domain.PluginMetadata] {
	return NewStore[domain.PluginMetadata](dir, f.logger)
}

// Patchers returns the patcher metadata store in dir.
func (f *Factory) Patchers(dir string) *Store[domain.PatcherMetadata, *domain.PatcherMetadata] {
	return NewStore[domain.PatcherMetadata](dir, f.logger)
}
