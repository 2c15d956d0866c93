// Package backend selects and assembles a storage backend from
// configuration.
package backend

import (
	"fmt"

	"moim/internal/log"
	"moim/internal/ports"
	"moim/internal/storage"
	"moim/internal/storage/memory"
)

type Type string

const (
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// Config holds what backend creation needs.
type Config struct {
	Type         Type
	SQLiteDBPath string
}

// Result bundles the storage ports with their cleanup. Cleanup may be
// nil when the backend holds no resources.
type Result struct {
	Records ports.RecordSource
	Dues    ports.DuesSource
	Cleanup func() error
}

// Create builds the configured backend.
func Create(config Config, logger *log.Logger) (*Result, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}
	logger = logger.WithComponent(log.ComponentStorage)

	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return &Result{Records: repo, Dues: repo, Cleanup: repo.Close}, nil

	case MemoryBackend:
		store := memory.New()
		logger.Info("Initialized memory backend")
		return &Result{Records: store, Dues: store}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
