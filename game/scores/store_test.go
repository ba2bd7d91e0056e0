package scores

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wricardo/mcp-training/linkgame/game/engine"
)

type storeFactory func(t *testing.T) Store

func backends() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"file": func(t *testing.T) Store {
			store, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "scores.json"), nil)
			if err != nil {
				t.Fatalf("Failed to create file store: %v", err)
			}
			return store
		},
		"redis": func(t *testing.T) Store {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			return NewRedisStore(client, "", nil)
		},
		"gorm": func(t *testing.T) Store {
			db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
			if err != nil {
				t.Fatalf("Failed to open sqlite: %v", err)
			}
			sqlDB, err := db.DB()
			if err != nil {
				t.Fatalf("Failed to get sql.DB: %v", err)
			}
			sqlDB.SetMaxOpenConns(1)
			store, err := NewGormStore(db, nil)
			if err != nil {
				t.Fatalf("Failed to create gorm store: %v", err)
			}
			return store
		},
	}
}

func record(score int, at time.Time) engine.ScoreRecord {
	return engine.ScoreRecord{
		Level:            "classic",
		FinalScore:       score,
		GravityMode:      engine.Down,
		GridWidth:        10,
		GridHeight:       8,
		SecondsRemaining: score / 10,
		Timestamp:        at,
	}
}

func TestStores(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t)
			defer store.Close()

			t.Run("empty", func(t *testing.T) {
				records, err := store.Top(ctx, 0)
				if err != nil {
					t.Fatalf("Top failed: %v", err)
				}
				if len(records) != 0 {
					t.Errorf("Expected no records, got %d", len(records))
				}
			})

			t.Run("save assigns id and keeps fields", func(t *testing.T) {
				saved, err := store.Save(ctx, record(420, base))
				if err != nil {
					t.Fatalf("Save failed: %v", err)
				}
				if saved.ID == "" {
					t.Error("Expected an ID to be assigned")
				}

				records, err := store.Top(ctx, 1)
				if err != nil {
					t.Fatalf("Top failed: %v", err)
				}
				if len(records) != 1 {
					t.Fatalf("Expected 1 record, got %d", len(records))
				}
				got := records[0]
				if got.ID != saved.ID || got.FinalScore != 420 || got.GravityMode != engine.Down || got.GridWidth != 10 || got.Level != "classic" {
					t.Errorf("Unexpected record: %+v", got)
				}
				if !got.Timestamp.Equal(base) {
					t.Errorf("Expected timestamp %v, got %v", base, got.Timestamp)
				}
			})

			t.Run("ordering", func(t *testing.T) {
				if err := store.Clear(ctx); err != nil {
					t.Fatalf("Clear failed: %v", err)
				}
				inputs := []engine.ScoreRecord{
					record(100, base.Add(3*time.Minute)),
					record(300, base.Add(2*time.Minute)),
					record(300, base.Add(time.Minute)),
					record(200, base),
				}
				for _, rec := range inputs {
					if _, err := store.Save(ctx, rec); err != nil {
						t.Fatalf("Save failed: %v", err)
					}
				}

				records, err := store.Top(ctx, 3)
				if err != nil {
					t.Fatalf("Top failed: %v", err)
				}
				if len(records) != 3 {
					t.Fatalf("Expected 3 records, got %d", len(records))
				}
				if records[0].FinalScore != 300 || !records[0].Timestamp.Equal(base.Add(time.Minute)) {
					t.Errorf("Expected earlier 300 first, got %+v", records[0])
				}
				if records[1].FinalScore != 300 || records[2].FinalScore != 200 {
					t.Errorf("Unexpected order: %d, %d", records[1].FinalScore, records[2].FinalScore)
				}
			})

			t.Run("bounded listing", func(t *testing.T) {
				for i := 0; i < MaxRecords+5; i++ {
					if _, err := store.Save(ctx, record(i, base.Add(time.Duration(i)*time.Second))); err != nil {
						t.Fatalf("Save failed: %v", err)
					}
				}
				records, err := store.Top(ctx, 0)
				if err != nil {
					t.Fatalf("Top failed: %v", err)
				}
				if len(records) != MaxRecords {
					t.Errorf("Expected %d records, got %d", MaxRecords, len(records))
				}
				if records[0].FinalScore != 300 {
					t.Errorf("Expected best score 300 kept, got %d", records[0].FinalScore)
				}
			})

			t.Run("reject negative score", func(t *testing.T) {
				if _, err := store.Save(ctx, record(-1, base)); !errors.Is(err, ErrInvalidRecord) {
					t.Errorf("Expected ErrInvalidRecord, got %v", err)
				}
			})

			t.Run("clear", func(t *testing.T) {
				if err := store.Clear(ctx); err != nil {
					t.Fatalf("Clear failed: %v", err)
				}
				records, err := store.Top(ctx, 0)
				if err != nil {
					t.Fatalf("Top failed: %v", err)
				}
				if len(records) != 0 {
					t.Errorf("Expected no records after clear, got %d", len(records))
				}
			})
		})
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	store, err := Open(ctx, Options{Backend: "file", Path: filepath.Join(t.TempDir(), "scores.json")}, nil)
	if err != nil {
		t.Fatalf("Failed to open file backend: %v", err)
	}
	if _, ok := store.(*FileStore); !ok {
		t.Errorf("Expected *FileStore, got %T", store)
	}

	mr := miniredis.RunT(t)
	store, err = Open(ctx, Options{Backend: "redis", URL: "redis://" + mr.Addr()}, nil)
	if err != nil {
		t.Fatalf("Failed to open redis backend: %v", err)
	}
	if _, err := store.Save(ctx, record(50, time.Now())); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !mr.Exists(DefaultRedisKey) {
		t.Error("Expected the default sorted set key to exist")
	}
	store.Close()

	if _, err := Open(ctx, Options{Backend: "carrier-pigeon"}, nil); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Expected ErrUnknownBackend, got %v", err)
	}
}
