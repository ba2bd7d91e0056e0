package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/wricardo/mcp-training/linkgame/game/engine"
	"github.com/wricardo/mcp-training/linkgame/game/loop"
)

// Session represents an active game session. The engine is owned by the
// session loop; touch it only through Do.
type Session struct {
	ID        string
	ConfigID  string
	Engine    *engine.GameEngine
	Config    *engine.GameConfig
	Loop      *loop.Loop
	CreatedAt time.Time

	lastAccessed atomic.Int64 // unix nanos
}

// Touch records t as the last access time
func (s *Session) Touch(t time.Time) {
	s.lastAccessed.Store(t.UnixNano())
}

// LastAccessed returns the last access time; safe from any goroutine
func (s *Session) LastAccessed() time.Time {
	return time.Unix(0, s.lastAccessed.Load())
}

// Do runs fn against the engine on the session loop and waits for it
func (s *Session) Do(ctx context.Context, fn func(*engine.GameEngine)) error {
	return s.Loop.Do(ctx, func() {
		fn(s.Engine)
	})
}

// Close cancels the engine loops and stops the session loop
func (s *Session) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.Loop.Do(ctx, s.Engine.Stop)
	s.Loop.Stop()
}

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigID       string             `json:"config_id"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	State          *engine.Snapshot   `json:"state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// ClickResponse contains the outcome of a click and the state after it
type ClickResponse struct {
	Result engine.ClickResult `json:"result"`
	State  *engine.Snapshot   `json:"state"`
}

// HintResponse contains the suggested pair, if any
type HintResponse struct {
	Found bool             `json:"found"`
	Pair  *engine.HintPair `json:"pair,omitempty"`
	State *engine.Snapshot `json:"state"`
}

// ActionResponse reports whether a board action was accepted
type ActionResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	State   *engine.Snapshot `json:"state"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename        string             `json:"filename"`
	ConfigID        string             `json:"config_id"` // The identifier to use for session creation
	Name            string             `json:"name"`      // Display name
	Description     string             `json:"description"`
	GridWidth       int                `json:"grid_width"`
	GridHeight      int                `json:"grid_height"`
	KindCount       int                `json:"kind_count"`
	GravityMode     engine.GravityMode `json:"gravity_mode"`
	TimeLimit       int                `json:"time_limit"`
	ShuffleLimit    int                `json:"shuffle_limit"`
	AllowModeChange bool               `json:"allow_mode_change"`
}

// NewConfigInfo summarises a level for listings
func NewConfigInfo(filename, id string, config *engine.GameConfig) *ConfigInfo {
	return &ConfigInfo{
		Filename:        filename,
		ConfigID:        id,
		Name:            config.Name,
		Description:     config.Description,
		GridWidth:       config.GridWidth,
		GridHeight:      config.GridHeight,
		KindCount:       config.KindCount,
		GravityMode:     config.GravityMode,
		TimeLimit:       config.TimeLimit,
		ShuffleLimit:    config.ShuffleLimit,
		AllowModeChange: config.AllowModeChange,
	}
}
