package domain

import "strings"

// Attribute is a named annotation attached to a type definition.
type Attribute struct {
	Name string   `yaml:"name"`
	Args []string `yaml:"args,omitempty"`
}

// Arg returns the i-th argument or an empty string.
func (a Attribute) Arg(i int) string {
	if i < 0 || i >= len(a.Args) {
		return ""
	}
	return a.Args[i]
}

// TypeDefinition is a top-level type declared by a module.
type TypeDefinition struct {
	Name       string      `yaml:"name"`
	Namespace  string      `yaml:"namespace,omitempty"`
	BaseType   string      `yaml:"base,omitempty"`
	Attributes []Attribute `yaml:"attributes,omitempty"`
}

// FullName returns the namespace-qualified type name.
func (t TypeDefinition) FullName() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// AttributesNamed returns every attribute whose name matches (case-insensitive), in declaration order.
func (t TypeDefinition) AttributesNamed(name string) []Attribute {
	var out []Attribute
	for _, a := range t.Attributes {
		if strings.EqualFold(a.Name, name) {
			out = append(out, a)
		}
	}
	return out
}

// Manifest is the metadata document embedded in a plugin binary.
type Manifest struct {
	Module     string           `yaml:"module"`
	References []string         `yaml:"references,omitempty"`
	Types      []TypeDefinition `yaml:"types,omitempty"`
}
