package chainloader

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/chainload/internal/adapters/logger" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/chainload/internal/core/ports"
	"go.trai.ch/chainload/internal/engine/resolver"
)

// NodeID is the unique identifier for the chainloader Graft node.
const NodeID graft.ID = "engine.chainloader"

func init() {
	graft.Register(graft.Node[*Chainloader]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID, resolver.NodeID},
		Run: func(ctx context.Context) (*Chainloader, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			res, err := graft.Dep[*resolver.Resolver](ctx)
			if err != nil {
				return nil, err
			}

			return New(log, res), nil
		},
	})
}
