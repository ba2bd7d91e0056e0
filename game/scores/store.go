// Package scores persists the flat score records of completed sessions.
//
// Four interchangeable backends implement Store:
//   - FileStore keeps the best records in a JSON file
//   - RedisStore keeps them in a sorted set
//   - GormStore keeps every record in a SQL table (Postgres in production)
//   - MemoryStore keeps them in process, for tests and ephemeral servers
//
// Every backend orders records by final score descending, then by timestamp
// ascending so earlier runs win ties.
package scores

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/linkgame/game/engine"
)

// MaxRecords is the number of records kept by the bounded backends and the
// default listing size
const MaxRecords = 10

var (
	ErrInvalidRecord  = errors.New("invalid score record")
	ErrUnknownBackend = errors.New("unknown score backend")
)

// Store persists score records
type Store interface {
	// Save assigns an ID and timestamp when missing and stores the record
	Save(ctx context.Context, rec engine.ScoreRecord) (engine.ScoreRecord, error)
	// Top returns up to limit records, best first. limit <= 0 means MaxRecords.
	Top(ctx context.Context, limit int) ([]engine.ScoreRecord, error)
	// Clear removes every record
	Clear(ctx context.Context) error
	Close() error
}

// Options selects and configures a backend for Open
type Options struct {
	Backend string // memory, file, redis or postgres
	Path    string // file backend
	URL     string // redis URL or postgres DSN
	Key     string // redis sorted set key
}

// Open builds the backend named in opts
func Open(ctx context.Context, opts Options, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch strings.ToLower(opts.Backend) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(opts.Path, logger)
	case "redis":
		return NewRedisStoreFromURL(ctx, opts.URL, opts.Key, logger)
	case "postgres":
		return OpenPostgres(opts.URL, logger)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, opts.Backend)
}

func prepare(rec engine.ScoreRecord) (engine.ScoreRecord, error) {
	if rec.FinalScore < 0 {
		return rec, fmt.Errorf("%w: negative score %d", ErrInvalidRecord, rec.FinalScore)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	rec.Timestamp = rec.Timestamp.UTC()
	return rec, nil
}

func sortRecords(records []engine.ScoreRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].FinalScore != records[j].FinalScore {
			return records[i].FinalScore > records[j].FinalScore
		}
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return MaxRecords
	}
	return limit
}
