package scanner

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/chainload/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/chainload/internal/adapters/metrics"   //nolint:depguard // Wired in engine wiring
	"go.trai.ch/chainload/internal/adapters/module"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/chainload/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/chainload/internal/core/ports"
)

// NodeID is the unique identifier for the scanner Graft node.
const NodeID graft.ID = "engine.scanner"

func init() {
	graft.Register(graft.Node[*Scanner]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			module.NodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
			metrics.NodeID,
		},
		Run: func(ctx context.Context) (*Scanner, error) {
			reader, err := graft.Dep[ports.ModuleReader](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			m, err := graft.Dep[ports.Metrics](ctx)
			if err != nil {
				return nil, err
			}

			return New(reader, log, tracer, m), nil
		},
	})
}
