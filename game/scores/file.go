package scores

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/linkgame/game/engine"
)

// FileStore keeps the best MaxRecords records in a JSON file
type FileStore struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewFileStore creates a file-backed store, creating the parent directory
func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("score file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create scores directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{path: path, logger: logger}, nil
}

// Save stores a record and rewrites the file with the best MaxRecords
func (s *FileStore) Save(ctx context.Context, rec engine.ScoreRecord) (engine.ScoreRecord, error) {
	rec, err := prepare(rec)
	if err != nil {
		return rec, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return rec, err
	}
	records = append(records, rec)
	sortRecords(records)
	if len(records) > MaxRecords {
		records = records[:MaxRecords]
	}

	if err := s.write(records); err != nil {
		return rec, err
	}
	s.logger.Debug("score saved", zap.String("id", rec.ID), zap.Int("score", rec.FinalScore))
	return rec, nil
}

// Top returns up to limit records, best first
func (s *FileStore) Top(ctx context.Context, limit int) ([]engine.ScoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return nil, err
	}
	limit = normalizeLimit(limit)
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Clear removes the score file
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove score file: %w", err)
	}
	return nil
}

// Close is a no-op
func (s *FileStore) Close() error { return nil }

func (s *FileStore) read() ([]engine.ScoreRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read score file: %w", err)
	}

	var records []engine.ScoreRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal score file: %w", err)
	}
	sortRecords(records)
	return records, nil
}

// write replaces the file atomically through a temp file
func (s *FileStore) write(records []engine.ScoreRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scores: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write score file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace score file: %w", err)
	}
	return nil
}
