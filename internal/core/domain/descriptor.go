package domain

// DependencyRef is one declared dependency of a PluginDescriptor.
type DependencyRef struct {
	TargetID string
	Required bool
}

// PluginDescriptor is the resolver's view of a plugin: an id and its ordered dependency references.
// Ids are expected to be unique within one candidate set.
type PluginDescriptor struct {
	ID           string
	Dependencies []DependencyRef
}
