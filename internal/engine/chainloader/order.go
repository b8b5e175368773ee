package chainloader

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"go.trai.ch/chainload/internal/core/domain"
)

// Flatten concatenates per-binary records in path order, keeping definition order within a binary.
func Flatten[T any](items map[string][]T) []T {
	var out []T
	for _, path := range slices.Sorted(maps.Keys(items)) {
		out = append(out, items[path]...)
	}
	return out
}

// Dedupe keeps one plugin per GUID: the one with the highest version, or the first seen on a tie.
// Every dropped copy is logged as a warning. The first-seen order of GUIDs is preserved.
func (c *Chainloader) Dedupe(plugins []domain.PluginMetadata) []domain.PluginMetadata {
	index := make(map[string]int, len(plugins))
	out := make([]domain.PluginMetadata, 0, len(plugins))

	for _, p := range plugins {
		i, seen := index[p.GUID]
		if !seen {
			index[p.GUID] = len(out)
			out = append(out, p)
			continue
		}

		kept, dropped := out[i], p
		if CompareVersions(p.Version, kept.Version) > 0 {
			kept, dropped = p, kept
			out[i] = p
		}
		c.logger.Warn(fmt.Sprintf("duplicate plugin %s: keeping %s from %s, skipping %s from %s",
			p.GUID, kept.Version, kept.Location, dropped.Version, dropped.Location))
	}

	return out
}

// FilterProcess drops plugins restricted to other processes. Plugins without process
// constraints always pass. Names compare case-insensitively, ignoring an ".exe" suffix.
// An empty process name disables filtering.
func FilterProcess(plugins []domain.PluginMetadata, process string) []domain.PluginMetadata {
	if process == "" {
		return plugins
	}
	want := processKey(process)

	out := make([]domain.PluginMetadata, 0, len(plugins))
	for _, p := range plugins {
		if len(p.Processes) == 0 || slices.ContainsFunc(p.Processes, func(name string) bool {
			return processKey(name) == want
		}) {
			out = append(out, p)
		}
	}
	return out
}

func processKey(name string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".exe")
}

// LoadOrder flattens the scanned plugins, removes plugins for other processes and then
// duplicates, and returns them in dependency order. Independent plugins are ordered by GUID.
// Filtering first lets a compatible copy of a GUID win over a newer one built for another process.
func (c *Chainloader) LoadOrder(
	ctx context.Context,
	items map[string][]domain.PluginMetadata,
	process string,
) ([]domain.PluginMetadata, error) {
	plugins := c.Dedupe(FilterProcess(Flatten(items), process))
	slices.SortStableFunc(plugins, func(a, b domain.PluginMetadata) int {
		return strings.Compare(a.GUID, b.GUID)
	})

	byGUID := make(map[string]domain.PluginMetadata, len(plugins))
	descriptors := make([]domain.PluginDescriptor, 0, len(plugins))
	for _, p := range plugins {
		byGUID[p.GUID] = p
		descriptors = append(descriptors, p.Descriptor())
	}

	ordered, err := c.resolver.Resolve(ctx, descriptors)
	if err != nil {
		return nil, err
	}

	out := make([]domain.PluginMetadata, 0, len(ordered))
	for _, d := range ordered {
		out = append(out, byGUID[d.ID])
	}
	return out, nil
}
