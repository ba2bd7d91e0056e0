package scores

import (
	"context"
	"sync"

	"github.com/wricardo/mcp-training/linkgame/game/engine"
)

// MemoryStore keeps the best MaxRecords records in process
type MemoryStore struct {
	mu      sync.RWMutex
	records []engine.ScoreRecord
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save stores a record and drops any beyond MaxRecords
func (s *MemoryStore) Save(ctx context.Context, rec engine.ScoreRecord) (engine.ScoreRecord, error) {
	rec, err := prepare(rec)
	if err != nil {
		return rec, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	sortRecords(s.records)
	if len(s.records) > MaxRecords {
		s.records = s.records[:MaxRecords]
	}
	return rec, nil
}

// Top returns up to limit records, best first
func (s *MemoryStore) Top(ctx context.Context, limit int) ([]engine.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit = normalizeLimit(limit)
	if limit > len(s.records) {
		limit = len(s.records)
	}
	out := make([]engine.ScoreRecord, limit)
	copy(out, s.records[:limit])
	return out, nil
}

// Clear removes every record
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.records = nil
	s.mu.Unlock()
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close() error { return nil }
