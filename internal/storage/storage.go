package storage

import (
	"tcm/internal/config"
	"tcm/internal/domain"
)

// Storage persists and loads the last run (e.g. for the last command).
type Storage interface {
	Save(summary *domain.RunSummary) error
	Load() (*domain.RunSummary, error)
}

// JSONStorage stores the run record in a JSON file under the configured output path.
type JSONStorage struct {
	cfg *config.Config
}

// NewJSONStorage returns a Storage that reads/writes the config's output JSON path.
func NewJSONStorage(cfg *config.Config) *JSONStorage {
	return &JSONStorage{cfg: cfg}
}
