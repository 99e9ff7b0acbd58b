package bankdata

import (
	"fmt"

	"finpulse/internal/log"
)

// ProviderType names a bank data source.
type ProviderType string

const (
	FixtureType ProviderType = "fixture"
	MemoryType  ProviderType = "memory"
	NoneType    ProviderType = "none"
)

// String implements fmt.Stringer
func (pt ProviderType) String() string {
	return string(pt)
}

// IsValid returns true if the provider type is valid
func (pt ProviderType) IsValid() bool {
	switch pt {
	case FixtureType, MemoryType, NoneType:
		return true
	default:
		return false
	}
}

// FactoryConfig holds configuration for provider creation.
type FactoryConfig struct {
	Type        ProviderType
	FixturesDir string
}

// NewProvider creates the configured provider. NoneType yields nil: callers
// then serve stored snapshots only.
func NewProvider(cfg FactoryConfig, logger *log.Logger) (Provider, error) {
	if !cfg.Type.IsValid() {
		return nil, fmt.Errorf("invalid provider type: %s", cfg.Type)
	}

	l := logger.WithComponent(log.ComponentProvider)
	switch cfg.Type {
	case FixtureType:
		l.Info("Initialized fixture provider", "dir", cfg.FixturesDir)
		return NewFixtureProvider(cfg.FixturesDir), nil
	case MemoryType:
		l.Info("Initialized memory provider")
		return NewMemoryProvider(), nil
	default:
		l.Info("No bank data provider configured")
		return nil, nil
	}
}
