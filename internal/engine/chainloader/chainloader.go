// Package chainloader turns scanned plugin binaries into plugin and patcher metadata and
// computes the plugin load order.
package chainloader

import (
	"fmt"
	"strings"
	"sync"

	"go.trai.ch/chainload/internal/core/domain"
	"go.trai.ch/chainload/internal/core/ports"
	"go.trai.ch/chainload/internal/engine/resolver"
	"go.trai.ch/zerr"
)

// Attribute names recognised on plugin and patcher types.
const (
	PluginAttribute     = "Plugin"
	DependencyAttribute = "Dependency"
	ProcessAttribute    = "Process"
	PatcherAttribute    = "Patcher"

	// PatcherBaseType marks a patcher type when no Patcher attribute is present.
	PatcherBaseType = "chainload.Patcher"
)

// AttributeHandler applies one attribute of a plugin type to its metadata.
// Returning an error rejects the type.
type AttributeHandler func(attr domain.Attribute, meta *domain.PluginMetadata) error

// Chainloader extracts plugin metadata and orders plugins for loading.
type Chainloader struct {
	logger   ports.Logger
	resolver *resolver.Resolver

	mu       sync.RWMutex
	handlers map[string]AttributeHandler
}

// New creates a Chainloader with the Dependency and Process attribute handlers registered.
func New(logger ports.Logger, res *resolver.Resolver) *Chainloader {
	c := &Chainloader{
		logger:   logger,
		resolver: res,
		handlers: make(map[string]AttributeHandler),
	}
	// The built-in names are distinct, so registration cannot fail.
	_ = c.RegisterAttribute(DependencyAttribute, dependencyHandler)
	_ = c.RegisterAttribute(ProcessAttribute, processHandler)
	return c
}

// RegisterAttribute adds a handler for plugin attributes called name (case-insensitive).
// Registering the same name twice fails with domain.ErrDuplicateRegistration.
func (c *Chainloader) RegisterAttribute(name string, handler AttributeHandler) error {
	key := strings.ToLower(name)

	c.mu.Lock()
	defer c.mu.Unlock()

	if key == strings.ToLower(PluginAttribute) {
		return zerr.With(zerr.Wrap(domain.ErrDuplicateRegistration, "attribute is reserved"), "name", name)
	}
	if _, exists := c.handlers[key]; exists {
		return zerr.With(zerr.Wrap(domain.ErrDuplicateRegistration, "attribute handler already registered"), "name", name)
	}
	c.handlers[key] = handler
	return nil
}

// handlerFor returns the handler for an attribute name, or nil.
func (c *Chainloader) handlerFor(name string) AttributeHandler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.handlers[strings.ToLower(name)]
}

func dependencyHandler(attr domain.Attribute, meta *domain.PluginMetadata) error {
	guid := strings.TrimSpace(attr.Arg(0))
	if guid == "" {
		return zerr.With(zerr.Wrap(domain.ErrInvalidAttribute, "dependency without a GUID"), "attribute", attr.Name)
	}
	flags, ok := domain.ParseDependencyFlags(attr.Arg(1))
	if !ok {
		return zerr.With(zerr.Wrap(domain.ErrInvalidDependencyFlags, "cannot parse dependency"), "flags", attr.Arg(1))
	}
	meta.Dependencies = append(meta.Dependencies, domain.Dependency{GUID: guid, Flags: flags})
	return nil
}

func processHandler(attr domain.Attribute, meta *domain.PluginMetadata) error {
	name := strings.TrimSpace(attr.Arg(0))
	if name == "" {
		return zerr.With(zerr.Wrap(domain.ErrInvalidAttribute, "process without a name"), "attribute", attr.Name)
	}
	meta.Processes = append(meta.Processes, name)
	return nil
}

func (c *Chainloader) reject(def domain.TypeDefinition, path, reason string) {
	c.logger.Warn(fmt.Sprintf("skipping plugin type %s in %s: %s", def.FullName(), path, reason))
}
