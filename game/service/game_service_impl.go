package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/linkgame/game/engine"
	"github.com/wricardo/mcp-training/linkgame/game/scores"
)

// scoreSaveTimeout bounds the score store write made when a session is won
const scoreSaveTimeout = 5 * time.Second

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	scores   ScoreStore
	notifier Notifier
	logger   *zap.Logger
	mu       sync.RWMutex
}

// Option configures the game service
type Option func(*gameServiceImpl)

// WithScoreStore sets where won sessions are recorded. The default keeps
// scores in memory.
func WithScoreStore(store ScoreStore) Option {
	return func(s *gameServiceImpl) { s.scores = store }
}

// WithNotifier forwards every engine event to n
func WithNotifier(n Notifier) Option {
	return func(s *gameServiceImpl) { s.notifier = n }
}

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *gameServiceImpl) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.scores == nil {
		s.scores = scores.NewMemoryStore()
	}
	return s
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

// CreateSession creates a new game session and starts its board
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string, seed int64) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			return nil, s.configError(configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	var sess *Session
	opts := []engine.Option{
		engine.WithListener(engine.ListenerFunc(func(ev engine.Event) {
			s.publish(sess, ev)
		})),
		engine.WithScoreSink(engine.ScoreSinkFunc(s.recordScore)),
	}
	if seed != 0 {
		opts = append(opts, engine.WithSeed(seed))
	}

	sess, err = s.sessions.Create("", config, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	sess.ConfigID = strings.TrimSuffix(configName, ".json")
	if sess.ConfigID == "" {
		sess.ConfigID = s.getConfigID(config.Name)
	}

	if err := sess.Do(ctx, func(e *engine.GameEngine) { e.Start() }); err != nil {
		s.sessions.Delete(sess.ID)
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	s.logger.Info("session created",
		zap.String("session", sess.ID),
		zap.String("config", sess.ConfigID),
		zap.Int64("seed", seed))

	return s.info(ctx, sess)
}

// configError adds the available level IDs to a not-found error
func (s *gameServiceImpl) configError(configName string, err error) error {
	if !strings.Contains(err.Error(), "configuration not found") {
		return fmt.Errorf("failed to load config %s: %w", configName, err)
	}
	availableConfigs, listErr := s.configs.ListConfigs()
	if listErr == nil && len(availableConfigs) > 0 {
		configIDs := make([]string, 0, len(availableConfigs))
		for _, cfg := range availableConfigs {
			configIDs = append(configIDs, cfg.ConfigID)
		}
		return fmt.Errorf("config '%s' not found. Available configs: %v: %w", configName, configIDs, err)
	}
	return fmt.Errorf("config '%s' not found. Use /api/configs to list available configurations: %w", configName, err)
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.info(ctx, sess)
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		info, err := s.info(ctx, sess)
		if err != nil {
			s.logger.Debug("skipping unavailable session", zap.String("session", sess.ID), zap.Error(err))
			continue
		}
		result = append(result, info)
	}
	return result, nil
}

// DeleteSession stops and removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	s.logger.Info("session deleted", zap.String("session", sessionID))
	return nil
}

// Click applies a tile click
func (s *gameServiceImpl) Click(ctx context.Context, sessionID string, tileID int) (*ClickResponse, error) {
	if tileID < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTile, tileID)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	resp := &ClickResponse{}
	err = sess.Do(ctx, func(e *engine.GameEngine) {
		resp.Result = e.HandleClick(tileID)
		resp.State = e.Snapshot()
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("click",
		zap.String("session", sess.ID),
		zap.Int("tile", tileID),
		zap.String("action", string(resp.Result.Action)),
		zap.Bool("matched", resp.Result.Action == engine.ClickMatched))
	return resp, nil
}

// Hint finds a connectable pair
func (s *gameServiceImpl) Hint(ctx context.Context, sessionID string) (*HintResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	resp := &HintResponse{}
	err = sess.Do(ctx, func(e *engine.GameEngine) {
		if pair, ok := e.Hint(); ok {
			resp.Found = true
			resp.Pair = &pair
		}
		resp.State = e.Snapshot()
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Shuffle reshuffles the remaining tiles when the limit allows
func (s *gameServiceImpl) Shuffle(ctx context.Context, sessionID string) (*ActionResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	resp := &ActionResponse{}
	err = sess.Do(ctx, func(e *engine.GameEngine) {
		resp.Success = e.Shuffle()
		resp.State = e.Snapshot()
	})
	if err != nil {
		return nil, err
	}

	switch {
	case resp.Success:
		resp.Message = fmt.Sprintf("Board shuffled (%d/%d)", resp.State.ShuffleCount, resp.State.ShuffleLimit)
	case resp.State.Status != engine.StatusPlaying:
		resp.Message = "Game is not in progress"
	default:
		resp.Message = "Shuffle limit reached"
	}
	return resp, nil
}

// Restart discards the board and deals a new one
func (s *gameServiceImpl) Restart(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	var snap *engine.Snapshot
	err = sess.Do(ctx, func(e *engine.GameEngine) {
		e.Restart()
		snap = e.Snapshot()
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// SetGravityMode changes the gravity mode of a running session
func (s *gameServiceImpl) SetGravityMode(ctx context.Context, sessionID, mode string) (*ActionResponse, error) {
	gm := engine.GravityMode(strings.ToLower(strings.TrimSpace(mode)))
	if !gm.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGravityMode, mode)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	resp := &ActionResponse{}
	err = sess.Do(ctx, func(e *engine.GameEngine) {
		resp.Success = e.SetGravityMode(gm)
		resp.State = e.Snapshot()
	})
	if err != nil {
		return nil, err
	}

	switch {
	case resp.Success:
		resp.Message = fmt.Sprintf("Gravity mode set to %s", gm)
	case !sess.Config.AllowModeChange:
		resp.Message = "This level does not allow gravity changes"
	default:
		resp.Message = "Game is not in progress"
	}
	return resp, nil
}

// GetGameState returns a snapshot of the session
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.snapshot(ctx, sess)
}

// ListConfigs returns available configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a configuration
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// ListScores returns the best records, best first
func (s *gameServiceImpl) ListScores(ctx context.Context, limit int) ([]engine.ScoreRecord, error) {
	return s.scores.Top(ctx, limit)
}

// ClearScores removes every stored record
func (s *gameServiceImpl) ClearScores(ctx context.Context) error {
	return s.scores.Clear(ctx)
}

func (s *gameServiceImpl) session(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

func (s *gameServiceImpl) snapshot(ctx context.Context, sess *Session) (*engine.Snapshot, error) {
	var snap *engine.Snapshot
	if err := sess.Do(ctx, func(e *engine.GameEngine) { snap = e.Snapshot() }); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *gameServiceImpl) info(ctx context.Context, sess *Session) (*SessionInfo, error) {
	snap, err := s.snapshot(ctx, sess)
	if err != nil {
		return nil, err
	}
	return &SessionInfo{
		ID:             sess.ID,
		ConfigID:       sess.ConfigID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessed(),
		State:          snap,
		GameConfig:     sess.Config,
	}, nil
}

// publish runs on the session loop
func (s *gameServiceImpl) publish(sess *Session, ev engine.Event) {
	if s.notifier == nil || sess == nil {
		return
	}
	s.notifier.BroadcastEvent(sess.ID, ev, sess.Engine.Snapshot())
}

// recordScore runs on the session loop when a board is cleared
func (s *gameServiceImpl) recordScore(rec engine.ScoreRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), scoreSaveTimeout)
	defer cancel()

	saved, err := s.scores.Save(ctx, rec)
	if err != nil {
		if errors.Is(err, scores.ErrInvalidRecord) {
			s.logger.Warn("rejected score record", zap.Error(err))
			return
		}
		s.logger.Error("failed to save score", zap.Error(err))
		return
	}
	s.logger.Info("score recorded",
		zap.String("id", saved.ID),
		zap.String("level", saved.Level),
		zap.Int("score", saved.FinalScore))
}
