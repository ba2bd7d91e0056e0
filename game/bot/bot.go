package bot

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/linkgame/game/engine"
)

// ErrStuck is returned when no pair is available and no shuffle is left
// but the engine still reports the game in progress
var ErrStuck = errors.New("no move available")

const defaultMaxRounds = 10000

// Controller runs fn against an engine, normally on a session loop
type Controller interface {
	Do(ctx context.Context, fn func(*engine.GameEngine)) error
}

// Inline drives an engine directly on the caller's goroutine. It suits
// engines without a scheduler, as used for level analysis.
type Inline struct {
	Engine *engine.GameEngine
}

// Do calls fn with the engine
func (c Inline) Do(ctx context.Context, fn func(*engine.GameEngine)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fn(c.Engine)
	return nil
}

// Result summarises one autoplay run
type Result struct {
	Status   engine.Status `json:"status"`
	Score    int           `json:"score"`
	Matches  int           `json:"matches"`
	Clicks   int           `json:"clicks"`
	Shuffles int           `json:"shuffles"`
	TimeLeft int           `json:"time_left"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Player clears a board by following engine hints
type Player struct {
	ctrl      Controller
	logger    *zap.Logger
	delay     time.Duration
	maxRounds int
}

// Option configures a Player
type Option func(*Player)

// WithDelay pauses between matches so a watcher can follow the game
func WithDelay(d time.Duration) Option {
	return func(p *Player) { p.delay = d }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(p *Player) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMaxRounds bounds the number of hint rounds
func WithMaxRounds(n int) Option {
	return func(p *Player) {
		if n > 0 {
			p.maxRounds = n
		}
	}
}

// New creates a Player for the engine behind ctrl
func New(ctrl Controller, opts ...Option) *Player {
	p := &Player{
		ctrl:      ctrl,
		logger:    zap.NewNop(),
		maxRounds: defaultMaxRounds,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Play makes moves until the session ends. The session must already be
// started; a finished session returns immediately.
func (p *Player) Play(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{}

	for round := 0; round < p.maxRounds; round++ {
		var (
			playing bool
			stuck   bool
		)
		err := p.ctrl.Do(ctx, func(e *engine.GameEngine) {
			if e.Status() != engine.StatusPlaying {
				return
			}
			playing = true
			stuck = !p.step(e, result)
		})
		if err != nil {
			return p.finish(ctx, result, start), err
		}
		if !playing {
			break
		}
		if stuck {
			return p.finish(ctx, result, start), ErrStuck
		}

		if p.delay > 0 {
			select {
			case <-time.After(p.delay):
			case <-ctx.Done():
				return p.finish(ctx, result, start), ctx.Err()
			}
		}
	}

	result = p.finish(ctx, result, start)
	p.logger.Info("autoplay finished",
		zap.String("status", string(result.Status)),
		zap.Int("score", result.Score),
		zap.Int("matches", result.Matches),
		zap.Int("shuffles", result.Shuffles))
	return result, nil
}

// step plays one pair; it reports false when nothing could be done
func (p *Player) step(e *engine.GameEngine, result *Result) bool {
	pair, ok := e.Hint()
	if !ok {
		if !e.Shuffle() {
			return e.Status() != engine.StatusPlaying
		}
		p.logger.Debug("autoplay shuffled", zap.Int("count", e.Snapshot().ShuffleCount))
		return true
	}

	clicks := []int{pair.A, pair.B}
	switch selected := e.Snapshot().SelectedID; {
	case selected == pair.A:
		clicks = clicks[1:]
	case selected >= 0:
		// Drop a stale selection so the next click selects A
		e.HandleClick(selected)
		result.Clicks++
	}

	for _, id := range clicks {
		res := e.HandleClick(id)
		result.Clicks++
		if res.Action == engine.ClickMatched {
			result.Matches++
			p.logger.Debug("autoplay matched",
				zap.Ints("tiles", res.TileIDs),
				zap.Int("turns", res.Turns))
		}
	}
	return true
}

func (p *Player) finish(ctx context.Context, result *Result, start time.Time) *Result {
	result.Elapsed = time.Since(start)
	// The session may be gone already; keep the counters gathered so far
	_ = p.ctrl.Do(ctx, func(e *engine.GameEngine) {
		snap := e.Snapshot()
		result.Status = snap.Status
		result.Score = snap.Score
		result.Shuffles = snap.ShuffleCount
		result.TimeLeft = snap.TimeLeft
	})
	return result
}
