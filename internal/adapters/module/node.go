package module

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/chainload/internal/core/ports"
)

// NodeID is the unique identifier for the module reader Graft node.
const NodeID graft.ID = "adapter.module_reader"

func init() {
	graft.Register(graft.Node[ports.ModuleReader]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ModuleReader, error) {
			return NewReader(), nil
		},
	})
}
