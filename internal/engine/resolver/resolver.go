// Package resolver binds plugin dependency references and computes a load order.
package resolver

import (
	"context"
	"errors"

	"go.trai.ch/chainload/internal/core/domain"
	"go.trai.ch/chainload/internal/core/ports"
)

// Resolver orders plugin descriptors so that every plugin follows its dependencies.
type Resolver struct {
	tracer ports.Tracer
}

// New creates a new Resolver.
func New(tracer ports.Tracer) *Resolver {
	return &Resolver{tracer: tracer}
}

// Resolve binds every dependency reference against the candidate set and returns the
// descriptors in load order. Ties are broken by input order.
//
// A required reference with no matching candidate fails with *domain.MissingDependencyError.
// An optional reference with no matching candidate is dropped. A resolved reference of either
// kind orders the dependent after its dependency. A cycle fails with *domain.CycleError.
// On failure no order is returned.
//
// Ids must be unique. Callers deduplicate first; a repeated id fails with
// domain.ErrDuplicateNode rather than letting one copy shadow the other.
func (r *Resolver) Resolve(ctx context.Context, descriptors []domain.PluginDescriptor) ([]domain.PluginDescriptor, error) {
	_, span := r.tracer.Start(ctx, "resolve", ports.WithAttribute("resolve.candidates", len(descriptors)))
	defer span.End()

	ordered, err := resolve(descriptors)
	if err != nil {
		var cycle *domain.CycleError
		if errors.As(err, &cycle) {
			span.SetAttribute("resolve.cycle", cycle.Cycle())
		}
		span.RecordError(err)
		return nil, err
	}

	span.SetAttribute("resolve.ordered", len(ordered))
	return ordered, nil
}

func resolve(descriptors []domain.PluginDescriptor) ([]domain.PluginDescriptor, error) {
	byID := make(map[string]int, len(descriptors))
	g := domain.NewDependencyGraph()
	for i, d := range descriptors {
		if err := g.AddNode(d.ID); err != nil {
			return nil, err
		}
		byID[d.ID] = i
	}

	for _, d := range descriptors {
		for _, ref := range d.Dependencies {
			if _, ok := byID[ref.TargetID]; !ok {
				if ref.Required {
					return nil, &domain.MissingDependencyError{Dependent: d.ID, Missing: ref.TargetID}
				}
				continue
			}
			if err := g.AddEdge(d.ID, ref.TargetID); err != nil {
				return nil, err
			}
		}
	}

	ids, err := g.Sort()
	if err != nil {
		return nil, err
	}

	ordered := make([]domain.PluginDescriptor, 0, g.Len())
	for _, id := range ids {
		ordered = append(ordered, descriptors[byID[id]])
	}
	return ordered, nil
}
