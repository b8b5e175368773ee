package chainloader

import (
	"slices"
	"strings"

	"go.trai.ch/chainload/internal/core/domain"
	"go.trai.ch/chainload/internal/core/ports"
	"go.trai.ch/chainload/internal/engine/scanner"
	"golang.org/x/mod/semver"
)

// PluginExtractor returns the extractor for plugin types: types carrying a
// Plugin(guid, name, version) attribute. Types with an empty GUID, an invalid version or an
// attribute a handler rejects are skipped with a warning.
func (c *Chainloader) PluginExtractor() scanner.Extractor[domain.PluginMetadata] {
	return func(def domain.TypeDefinition, path string) (domain.PluginMetadata, bool) {
		attrs := def.AttributesNamed(PluginAttribute)
		if len(attrs) == 0 {
			return domain.PluginMetadata{}, false
		}
		plugin := attrs[0]

		meta := domain.PluginMetadata{
			GUID:     strings.TrimSpace(plugin.Arg(0)),
			Name:     plugin.Arg(1),
			Version:  strings.TrimSpace(plugin.Arg(2)),
			TypeName: def.FullName(),
			Location: path,
		}
		if meta.GUID == "" {
			c.reject(def, path, "empty GUID")
			return domain.PluginMetadata{}, false
		}
		if !ValidVersion(meta.Version) {
			c.reject(def, path, "invalid version "+meta.Version)
			return domain.PluginMetadata{}, false
		}

		for _, attr := range def.Attributes {
			handler := c.handlerFor(attr.Name)
			if handler == nil {
				continue
			}
			if err := handler(attr, &meta); err != nil {
				c.reject(def, path, err.Error())
				return domain.PluginMetadata{}, false
			}
		}

		return meta, true
	}
}

// PatcherExtractor accepts types with a Patcher(targets...) attribute or the patcher base type.
func PatcherExtractor(def domain.TypeDefinition, path string) (domain.PatcherMetadata, bool) {
	meta := domain.PatcherMetadata{TypeName: def.FullName(), Location: path}

	attrs := def.AttributesNamed(PatcherAttribute)
	switch {
	case len(attrs) > 0:
		for _, attr := range attrs {
			meta.Targets = append(meta.Targets, attr.Args...)
		}
		return meta, true
	case def.BaseType == PatcherBaseType:
		return meta, true
	default:
		return domain.PatcherMetadata{}, false
	}
}

// ReferencesSDK returns a prefilter accepting modules that reference the SDK module path.
// A module that is itself the SDK is rejected.
func ReferencesSDK(sdk string) scanner.Prefilter {
	return func(m ports.Module) bool {
		if m.Name() == sdk {
			return false
		}
		return slices.Contains(m.References(), sdk)
	}
}

// ValidVersion reports whether v is a semantic version, with or without a leading "v".
func ValidVersion(v string) bool {
	return semver.IsValid(canonical(v))
}

// CompareVersions compares two versions accepted by ValidVersion.
func CompareVersions(a, b string) int {
	return semver.Compare(canonical(a), canonical(b))
}

func canonical(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}
