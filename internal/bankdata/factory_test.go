package bankdata

import (
	"io"
	"log/slog"
	"testing"

	"finpulse/internal/log"
)

func testLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func TestProviderTypeIsValid(t *testing.T) {
	for _, pt := range []ProviderType{FixtureType, MemoryType, NoneType} {
		if !pt.IsValid() {
			t.Errorf("%s should be valid", pt)
		}
	}
	if ProviderType("scraper").IsValid() {
		t.Error("scraper should be invalid")
	}
}

func TestNewProvider(t *testing.T) {
	logger := testLogger()

	p, err := NewProvider(FactoryConfig{Type: FixtureType, FixturesDir: t.TempDir()}, logger)
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
	if _, ok := p.(*FixtureProvider); !ok {
		t.Errorf("fixture type = %T", p)
	}

	p, err = NewProvider(FactoryConfig{Type: MemoryType}, logger)
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := p.(*MemoryProvider); !ok {
		t.Errorf("memory type = %T", p)
	}

	p, err = NewProvider(FactoryConfig{Type: NoneType}, logger)
	if err != nil {
		t.Fatalf("none: %v", err)
	}
	if p != nil {
		t.Errorf("none should yield a nil provider, got %T", p)
	}

	if _, err := NewProvider(FactoryConfig{Type: "scraper"}, logger); err == nil {
		t.Error("expected error for unknown provider type")
	}
}
