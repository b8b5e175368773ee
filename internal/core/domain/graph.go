// Package domain contains the core domain models for plugin discovery, caching and ordering.
package domain

import (
	"slices"

	"go.trai.ch/zerr"
)

type visitState uint8

const (
	unvisited visitState = iota
	visiting
	settled
)

// DependencyGraph is a directed graph of plugin ids whose edges point from a dependent
// to its dependencies. Node and edge insertion order is preserved and drives the sort order.
type DependencyGraph struct {
	nodes []string
	edges map[string][]string
}

// NewDependencyGraph creates a new empty DependencyGraph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		edges: make(map[string][]string),
	}
}

// AddNode adds a node to the graph.
// It returns an error if a node with the same id already exists.
func (g *DependencyGraph) AddNode(id string) error {
	if _, exists := g.edges[id]; exists {
		return zerr.With(zerr.Wrap(ErrDuplicateNode, "cannot add node"), "id", id)
	}
	g.nodes = append(g.nodes, id)
	g.edges[id] = nil
	return nil
}

// AddEdge records that from depends on to. Both nodes must exist.
func (g *DependencyGraph) AddEdge(from, to string) error {
	if _, ok := g.edges[from]; !ok {
		return zerr.With(zerr.Wrap(ErrUnknownNode, "cannot add edge"), "id", from)
	}
	if _, ok := g.edges[to]; !ok {
		return zerr.With(zerr.Wrap(ErrUnknownNode, "cannot add edge"), "id", to)
	}
	g.edges[from] = append(g.edges[from], to)
	return nil
}

// Len returns the number of nodes.
func (g *DependencyGraph) Len() int {
	return len(g.nodes)
}

// Sort computes a topological order in which every node follows its dependencies.
// Roots are visited in insertion order and dependencies in declaration order,
// so independent nodes keep their relative input order.
// On a cycle it returns a *CycleError.
func (g *DependencyGraph) Sort() ([]string, error) {
	order := make([]string, 0, len(g.nodes))
	state := make(map[string]visitState, len(g.nodes))
	var stack []string

	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case settled:
			return nil
		case visiting:
			path := slices.Clone(stack)
			return &CycleError{Path: append(path, id)}
		}

		state[id] = visiting
		stack = append(stack, id)

		for _, dep := range g.edges[id] {
			if err := visit(dep); err != nil {
				return err
			}
		}

		state[id] = settled
		order = append(order, id)
		stack = stack[:len(stack)-1]
		return nil
	}

	for _, id := range g.nodes {
		if err := visit(id); err != nil {
			return nil, err
		}
	}

	return order, nil
}
