// Package config holds the client settings. Values are grouped by module and
// can come from a YAML file, the environment or code.
package config

import (
	"maps"
	"sync"
)

// Modules known to the client.
const (
	ModuleClient    = "Client"
	ModuleConnector = "Connector"
)

// Store implements ports.ConfigStore in memory.
type Store struct {
	mu      sync.RWMutex
	modules map[string]map[string]any
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{modules: make(map[string]map[string]any)}
}

// Get returns a copy of the module's settings, nil when none are registered.
func (s *Store) Get(module string) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	values, ok := s.modules[module]
	if !ok {
		return nil
	}
	return maps.Clone(values)
}

// Set replaces the module's settings.
func (s *Store) Set(values map[string]any, module string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modules[module] = maps.Clone(values)
	if s.modules[module] == nil {
		s.modules[module] = make(map[string]any)
	}
}

// Extend merges values into the module's settings, overwriting existing keys.
func (s *Store) Extend(values map[string]any, module string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.modules[module]
	if !ok {
		current = make(map[string]any, len(values))
		s.modules[module] = current
	}
	maps.Copy(current, values)
}

// Reset removes the module's settings.
func (s *Store) Reset(module string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.modules, module)
}
