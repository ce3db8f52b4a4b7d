package backend

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"soldi/internal/config"
	"soldi/internal/log"
)

func testLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func TestBackendTypeIsValid(t *testing.T) {
	tests := []struct {
		backend BackendType
		valid   bool
	}{
		{MemoryBackend, true},
		{SQLiteBackend, true},
		{BackendType("sheets"), false},
		{BackendType(""), false},
	}
	for _, tt := range tests {
		if got := tt.backend.IsValid(); got != tt.valid {
			t.Errorf("IsValid(%q) = %v, want %v", tt.backend, got, tt.valid)
		}
	}
}

func TestCreateServiceMemory(t *testing.T) {
	factory := NewFactory(testLogger())
	cfg := &config.Config{DataBackend: "memory"}

	svc, err := factory.CreateService(cfg)
	if err != nil {
		t.Fatalf("CreateService: %v", err)
	}
	defer svc.Close()

	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load on fresh memory backend: %v", err)
	}
}

func TestCreateServiceSQLite(t *testing.T) {
	factory := NewFactory(testLogger())
	cfg := &config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: filepath.Join(t.TempDir(), "soldi.db"),
	}

	svc, err := factory.CreateService(cfg)
	if err != nil {
		t.Fatalf("CreateService: %v", err)
	}
	defer svc.Close()

	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load on fresh sqlite backend: %v", err)
	}
}

func TestCreateServiceInvalidBackend(t *testing.T) {
	factory := NewFactory(testLogger())

	if _, err := factory.CreateService(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("CreateService should reject unknown backend types")
	}
}
