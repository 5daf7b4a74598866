package datasource

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"holiday-pipeline/src/data_source/calendarific"
	"holiday-pipeline/src/data_source/nager"
	"holiday-pipeline/src/interfaces"
	"holiday-pipeline/src/logger"
	"holiday-pipeline/src/models"
)

// MultiSourceManager keeps the constructed providers by name. The collector
// works against one active provider; the others stay registered so the API
// and tooling can switch without rebuilding the network layer.
type MultiSourceManager struct {
	Sources map[string]interfaces.IHolidayProvider
	Logger  *logger.Logger
	active  string
	mu      sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewMultiSourceManager(sources []interfaces.IHolidayProvider, log *logger.Logger) *MultiSourceManager {
	m := &MultiSourceManager{
		Sources: make(map[string]interfaces.IHolidayProvider),
		Logger:  log,
	}

	for _, s := range sources {
		m.Sources[s.Name()] = s
		if m.active == "" {
			m.active = s.Name()
		}
	}

	return m
}

// -----------------------------------------------------------------------------

// AddSource registers a provider. Names must be unique.
func (m *MultiSourceManager) AddSource(source interfaces.IHolidayProvider) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := source.Name()
	if _, exists := m.Sources[name]; exists {
		return fmt.Errorf("source %s already exists", name)
	}

	m.Sources[name] = source
	if m.active == "" {
		m.active = name
	}
	m.Logger.Info("Added source: %s", name)
	return nil
}

// -----------------------------------------------------------------------------

// RemoveSource unregisters a provider. The active provider cannot be removed.
func (m *MultiSourceManager) RemoveSource(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.Sources[name]; !exists {
		return fmt.Errorf("source %s not found", name)
	}
	if name == m.active {
		return fmt.Errorf("source %s is active", name)
	}

	delete(m.Sources, name)
	m.Logger.Info("Removed source: %s", name)
	return nil
}

// -----------------------------------------------------------------------------

// GetSource retrieves a source by name
func (m *MultiSourceManager) GetSource(name string) (interfaces.IHolidayProvider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	source, exists := m.Sources[name]
	if !exists {
		return nil, fmt.Errorf("source %s not found", name)
	}
	return source, nil
}

// -----------------------------------------------------------------------------

// Names returns the registered provider names, sorted.
func (m *MultiSourceManager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.Sources))
	for name := range m.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// -----------------------------------------------------------------------------

// Use makes name the active provider.
func (m *MultiSourceManager) Use(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.Sources[name]; !exists {
		return fmt.Errorf("source %s not found", name)
	}
	m.active = name
	m.Logger.Info("Active source: %s", name)
	return nil
}

// -----------------------------------------------------------------------------

// Active returns the provider the collector should fetch from.
func (m *MultiSourceManager) Active() (interfaces.IHolidayProvider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.active == "" {
		return nil, fmt.Errorf("no source registered")
	}
	return m.Sources[m.active], nil
}

// -----------------------------------------------------------------------------

// NewProviderFromConfig builds the provider named in cfg.Provider.Name.
func NewProviderFromConfig(cfg *models.MConfig, netMgr interfaces.INetworkManager) (interfaces.IHolidayProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider.Name)) {
	case models.ProviderCalendarific:
		return calendarific.NewCalendarificSource(cfg.Provider, netMgr)
	case models.ProviderNager, "":
		return nager.NewNagerSource(cfg.Provider, netMgr), nil
	default:
		return nil, fmt.Errorf("unknown holiday provider %q", cfg.Provider.Name)
	}
}
