package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tcm/internal/domain"
)

// Record is the on-disk form of a run.
type Record struct {
	SavedAt string             `json:"saved_at"`
	Summary *domain.RunSummary `json:"summary"`
}

// Save writes the frozen summary to the configured JSON output file.
func (s *JSONStorage) Save(summary *domain.RunSummary) error {
	record := Record{
		SavedAt: time.Now().Format(time.RFC3339),
		Summary: summary,
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	path := s.cfg.GetOutputPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

// Load reads the last run from the configured JSON output file.
func (s *JSONStorage) Load() (*domain.RunSummary, error) {
	path := s.cfg.GetOutputPath()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read results file: %w", err)
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}
	if record.Summary == nil {
		return nil, fmt.Errorf("parse results: %s holds no run summary", path)
	}
	return record.Summary, nil
}
