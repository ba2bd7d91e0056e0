package scores

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wricardo/mcp-training/linkgame/game/engine"
)

// scoreRow is the table model for score records
type scoreRow struct {
	ID               string    `gorm:"primaryKey;type:varchar(36)"`
	Level            string    `gorm:"type:varchar(64);not null;index"`
	FinalScore       int       `gorm:"not null;index:idx_scores_rank,priority:1"`
	GravityMode      string    `gorm:"type:varchar(32);not null"`
	GridWidth        int       `gorm:"not null"`
	GridHeight       int       `gorm:"not null"`
	SecondsRemaining int       `gorm:"not null"`
	Timestamp        time.Time `gorm:"column:recorded_at;not null;index:idx_scores_rank,priority:2"`
}

func (scoreRow) TableName() string { return "score_records" }

func rowFromRecord(rec engine.ScoreRecord) *scoreRow {
	return &scoreRow{
		ID:               rec.ID,
		Level:            rec.Level,
		FinalScore:       rec.FinalScore,
		GravityMode:      string(rec.GravityMode),
		GridWidth:        rec.GridWidth,
		GridHeight:       rec.GridHeight,
		SecondsRemaining: rec.SecondsRemaining,
		Timestamp:        rec.Timestamp,
	}
}

func (r *scoreRow) record() engine.ScoreRecord {
	return engine.ScoreRecord{
		ID:               r.ID,
		Level:            r.Level,
		FinalScore:       r.FinalScore,
		GravityMode:      engine.GravityMode(r.GravityMode),
		GridWidth:        r.GridWidth,
		GridHeight:       r.GridHeight,
		SecondsRemaining: r.SecondsRemaining,
		Timestamp:        r.Timestamp.UTC(),
	}
}

// GormStore keeps every record in a SQL table
type GormStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormStore migrates the schema on db and returns a store over it
func NewGormStore(db *gorm.DB, log *zap.Logger) (*GormStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := db.AutoMigrate(&scoreRow{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate: %w", err)
	}
	return &GormStore{db: db, logger: log}, nil
}

// OpenPostgres connects to Postgres with dsn and returns a migrated store
func OpenPostgres(dsn string, log *zap.Logger) (*GormStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	gormLogger := logger.New(
		zap.NewStdLog(log),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Info("connected to postgres score store")

	return NewGormStore(db, log)
}

// Save inserts a record
func (s *GormStore) Save(ctx context.Context, rec engine.ScoreRecord) (engine.ScoreRecord, error) {
	rec, err := prepare(rec)
	if err != nil {
		return rec, err
	}
	if err := s.db.WithContext(ctx).Create(rowFromRecord(rec)).Error; err != nil {
		return rec, fmt.Errorf("failed to save score: %w", err)
	}
	s.logger.Debug("score saved", zap.String("id", rec.ID), zap.Int("score", rec.FinalScore))
	return rec, nil
}

// Top returns up to limit records, best first
func (s *GormStore) Top(ctx context.Context, limit int) ([]engine.ScoreRecord, error) {
	var rows []scoreRow
	err := s.db.WithContext(ctx).
		Order("final_score DESC").
		Order("recorded_at ASC").
		Limit(normalizeLimit(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read scores: %w", err)
	}

	records := make([]engine.ScoreRecord, len(rows))
	for i := range rows {
		records[i] = rows[i].record()
	}
	return records, nil
}

// Clear deletes every row
func (s *GormStore) Clear(ctx context.Context) error {
	err := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&scoreRow{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear scores: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
