package platform

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Manager is the closed registry of platform adapters, keyed by lowercase
// platform name. Selection happens by name lookup, never by reflection.
type Manager struct {
	adapters map[string]Adapter
	logger   *zap.Logger
}

func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		adapters: make(map[string]Adapter),
		logger:   logger,
	}
}

func (m *Manager) Register(adapter Adapter) error {
	name := strings.ToLower(adapter.Name())
	if _, exists := m.adapters[name]; exists {
		return fmt.Errorf("adapter for platform %s already registered", name)
	}

	m.adapters[name] = adapter
	m.logger.Info("Platform adapter registered", zap.String("platform", name))
	return nil
}

func (m *Manager) Get(name string) (Adapter, error) {
	adapter, exists := m.adapters[strings.ToLower(name)]
	if !exists {
		return nil, fmt.Errorf("adapter for platform %s not found", name)
	}
	return adapter, nil
}

// Available returns the registered platform names, sorted for stable output.
func (m *Manager) Available() []string {
	names := make([]string, 0, len(m.adapters))
	for name := range m.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
