package ports

import "go.trai.ch/chainload/internal/core/domain"

// ConfigLoader defines the interface for loading the loader configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load finds the configuration file starting at cwd and walking up to the filesystem root.
	// When no file exists it returns the defaults rooted at cwd.
	Load(cwd string) (*domain.Config, error)
}
