package scores

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/linkgame/game/engine"
)

// DefaultRedisKey is the sorted set used when none is configured
const DefaultRedisKey = "linkgame:scores"

// timeSpan keeps the timestamp component of a rank below one score point
const timeSpan = 1e10

// RedisStore keeps the best MaxRecords records in a Redis sorted set. The
// member is the JSON record; the score encodes final score and age so
// earlier records rank first among equal scores.
type RedisStore struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

// NewRedisStore wraps an existing client
func NewRedisStore(client *redis.Client, key string, logger *zap.Logger) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{client: client, key: key, logger: logger}
}

// NewRedisStoreFromURL connects to the Redis server at url
func NewRedisStoreFromURL(ctx context.Context, url, key string, logger *zap.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	store := NewRedisStore(client, key, logger)
	store.logger.Info("connected to redis score store", zap.String("addr", opts.Addr), zap.String("key", store.key))
	return store, nil
}

func rank(rec engine.ScoreRecord) float64 {
	return float64(rec.FinalScore)*timeSpan + (timeSpan - float64(rec.Timestamp.Unix()))
}

// Save adds a record and trims the set to MaxRecords in one transaction
func (s *RedisStore) Save(ctx context.Context, rec engine.ScoreRecord) (engine.ScoreRecord, error) {
	rec, err := prepare(rec)
	if err != nil {
		return rec, err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return rec, fmt.Errorf("failed to marshal score: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, s.key, redis.Z{Score: rank(rec), Member: string(data)})
	pipe.ZRemRangeByRank(ctx, s.key, 0, -(MaxRecords + 1))
	if _, err := pipe.Exec(ctx); err != nil {
		return rec, fmt.Errorf("failed to save score: %w", err)
	}

	s.logger.Debug("score saved", zap.String("id", rec.ID), zap.Int("score", rec.FinalScore))
	return rec, nil
}

// Top returns up to limit records, best first
func (s *RedisStore) Top(ctx context.Context, limit int) ([]engine.ScoreRecord, error) {
	limit = normalizeLimit(limit)
	members, err := s.client.ZRevRange(ctx, s.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read scores: %w", err)
	}

	records := make([]engine.ScoreRecord, 0, len(members))
	for _, m := range members {
		var rec engine.ScoreRecord
		if err := json.Unmarshal([]byte(m), &rec); err != nil {
			s.logger.Warn("skipping malformed score entry", zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Clear deletes the sorted set
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear scores: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
