package service

import (
	"context"
	"errors"

	"github.com/wricardo/mcp-training/linkgame/game/engine"
)

var (
	ErrInvalidGravityMode = errors.New("invalid gravity mode")
	ErrInvalidTile        = errors.New("invalid tile")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string, seed int64) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Click(ctx context.Context, sessionID string, tileID int) (*ClickResponse, error)
	Hint(ctx context.Context, sessionID string) (*HintResponse, error)
	Shuffle(ctx context.Context, sessionID string) (*ActionResponse, error)
	Restart(ctx context.Context, sessionID string) (*engine.Snapshot, error)
	SetGravityMode(ctx context.Context, sessionID, mode string) (*ActionResponse, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.Snapshot, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error

	// Scores
	ListScores(ctx context.Context, limit int) ([]engine.ScoreRecord, error)
	ClearScores(ctx context.Context) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.GameConfig, opts ...engine.Option) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles game configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// ScoreStore persists the records of won sessions
type ScoreStore interface {
	Save(ctx context.Context, rec engine.ScoreRecord) (engine.ScoreRecord, error)
	Top(ctx context.Context, limit int) ([]engine.ScoreRecord, error)
	Clear(ctx context.Context) error
}

// Notifier pushes engine events to connected clients
type Notifier interface {
	BroadcastEvent(sessionID string, ev engine.Event, snapshot *engine.Snapshot)
}
