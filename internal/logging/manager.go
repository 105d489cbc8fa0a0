package logging

import (
	"fmt"

	"fetchkit/internal/logging/adapters"
	"fetchkit/internal/logging/types"
)

// Manager manages the logging system initialization and configuration
type Manager struct {
	factory *AdapterFactory
	logger  *MultiLogger
}

// NewManager creates a new logging manager
func NewManager() *Manager {
	return &Manager{
		factory: NewAdapterFactory(),
		logger:  NewMultiLogger(),
	}
}

// Initialize initializes the logging system from a LoggerConfig. If no
// adapters are configured, a single stdout adapter is installed.
func (m *Manager) Initialize(cfg types.LoggerConfig) error {
	m.logger.SetLevel(ParseLogLevel(cfg.Level))

	if len(cfg.Adapters) > 0 {
		return m.initializeFromAdapters(cfg.Adapters)
	}

	stdoutConfig := adapters.StdoutConfig{
		Format:    cfg.Format,
		Colorized: false,
	}
	adapter := adapters.NewStdoutAdapter("stdout", stdoutConfig)
	return m.logger.AddAdapter(adapter)
}

// initializeFromAdapters initializes logging adapters from configuration.
func (m *Manager) initializeFromAdapters(adapterConfigs []types.AdapterConfig) error {
	for _, adapterConfig := range adapterConfigs {
		if !adapterConfig.Enabled {
			continue
		}

		adapter, err := m.factory.CreateAdapter(adapterConfig)
		if err != nil {
			return fmt.Errorf("failed to create adapter %s: %w", adapterConfig.Name, err)
		}

		if err := m.logger.AddAdapter(adapter); err != nil {
			return fmt.Errorf("failed to add adapter %s: %w", adapterConfig.Name, err)
		}
	}

	return nil
}

// GetLogger returns the initialized logger
func (m *Manager) GetLogger() Logger {
	return m.logger
}

// Close closes the logging system
func (m *Manager) Close() error {
	if m.logger != nil {
		return m.logger.Close()
	}
	return nil
}

// defaultManager backs the package-level fallback logger used by engines
// constructed without an explicit Logger option. It is ambient convenience,
// not fetch-path state — unlike the browser pool or cache it carries no
// per-request behavior.
var defaultManager = func() *Manager {
	m := NewManager()
	_ = m.Initialize(types.LoggerConfig{Level: "info", Format: "text"})
	return m
}()

// DefaultLogger returns the package-level fallback logger.
func DefaultLogger() Logger {
	return defaultManager.GetLogger()
}
