package ports

import "go.trai.ch/chainload/internal/core/domain"

//go:generate mockgen -source=module.go -destination=mocks/mock_module.go -package=mocks

// ModuleReader opens binaries for metadata-only inspection. Nothing is executed.
type ModuleReader interface {
	// Open inspects the binary at path.
	// Files that are not modules of a supported format yield domain.ErrNotAModule.
	Open(path string) (Module, error)
}

// Module is an opened binary. It must be closed before the next binary is opened.
type Module interface {
	// Path returns the file the module was opened from.
	Path() string
	// Name returns the module path declared by the binary.
	Name() string
	// References returns the module paths the binary declares it depends on.
	References() []string
	// Types returns the top-level type definitions in declaration order.
	Types() []domain.TypeDefinition
	// Close releases the underlying file handle.
	Close() error
}
