// Package backend assembles the ledger service for a configured storage
// backend.
package backend

import (
	"fmt"

	"soldi/internal/amqp"
	"soldi/internal/config"
	"soldi/internal/log"
	"soldi/internal/services"
	"soldi/internal/storage"
)

// BackendType selects the Store implementation.
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
)

func (bt BackendType) String() string { return string(bt) }

// IsValid returns true if the backend type is valid.
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}

// Factory creates ledger services from the application config.
type Factory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *Factory {
	return &Factory{logger: logger.WithComponent("backend")}
}

// CreateService builds the Store selected by cfg.DataBackend, attaches the
// AMQP client when an URL is configured and wraps both in a LedgerService.
// The AMQP broker is optional: a failed connection degrades to synchronous
// imports instead of failing startup.
func (f *Factory) CreateService(cfg *config.Config) (*services.LedgerService, error) {
	backendType := BackendType(cfg.DataBackend)
	if !backendType.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	var store storage.Store
	switch backendType {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite repository: %w", err)
		}
		store = repo
		f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	case MemoryBackend:
		store = storage.NewMemoryStore()
		f.logger.Info("Initialized memory backend")
	}

	var broker *amqp.Client
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without import queue",
				log.FieldError, err)
		} else {
			broker = client
			f.logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	return services.NewLedgerService(store, broker, f.logger), nil
}
