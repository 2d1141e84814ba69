package ports

// ConfigStore defines the interface for module-keyed settings
type ConfigStore interface {
	// Get returns a copy of the module's settings, nil when none are registered
	Get(module string) map[string]any

	// Set replaces the module's settings
	Set(values map[string]any, module string)

	// Extend merges values into the module's settings
	Extend(values map[string]any, module string)

	// Reset removes the module's settings
	Reset(module string)
}
