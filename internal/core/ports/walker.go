package ports

import "iter"

// BinaryWalker enumerates candidate binaries below a root directory.
//
//go:generate mockgen -source=walker.go -destination=mocks/mock_walker.go -package=mocks
type BinaryWalker interface {
	// Walk yields the paths of all candidate binaries under root. Order is unspecified.
	Walk(root string) iter.Seq[string]
}
