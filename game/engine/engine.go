package engine

import (
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Session lifecycle
	Start()
	Restart()
	Stop()
	Status() Status

	// Player operations
	HandleClick(tileID int) ClickResult
	Shuffle() bool
	Hint() (HintPair, bool)
	SetGravityMode(mode GravityMode) bool

	// Host loop callbacks
	OnSecond()
	Tick(dt time.Duration) bool

	// Read access
	Snapshot() *Snapshot
	Grid() *Grid
	Score() int
	TimeLeft() int
	GetConfig() *GameConfig
}

// GameEngine implements the Engine interface. It is not safe for concurrent
// use; the host loop serialises every call.
type GameEngine struct {
	config    *GameConfig
	grid      *Grid
	rng       *rand.Rand
	logger    *zap.Logger
	scheduler Scheduler
	listener  Listener
	sink      ScoreSink
	now       func() time.Time

	status       Status
	score        int
	timeLeft     int
	shuffleCount int
	mode         GravityMode
	selected     *Tile
	clockStarted bool
	highlight    *Highlight
	highlightTTL time.Duration
	hint         *HintPair
	settling     bool
	frameAcc     time.Duration

	cancelFrames func()
	cancelClock  func()
}

// Option configures a GameEngine
type Option func(*GameEngine)

// WithScheduler registers the host loop used for frame and clock ticks
func WithScheduler(s Scheduler) Option {
	return func(e *GameEngine) { e.scheduler = s }
}

// WithListener subscribes l to engine events
func WithListener(l Listener) Option {
	return func(e *GameEngine) { e.listener = l }
}

// WithScoreSink receives the score record of a successful session
func WithScoreSink(s ScoreSink) Option {
	return func(e *GameEngine) { e.sink = s }
}

// WithLogger sets the engine logger
func WithLogger(l *zap.Logger) Option {
	return func(e *GameEngine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithSeed overrides the configured PRNG seed
func WithSeed(seed int64) Option {
	return func(e *GameEngine) { e.rng = rand.New(rand.NewSource(seed)) }
}

// WithClock replaces time.Now for score timestamps
func WithClock(now func() time.Time) Option {
	return func(e *GameEngine) { e.now = now }
}

// NewEngine creates a new game engine with the provided configuration. The
// board is not generated until Start.
func NewEngine(config *GameConfig, opts ...Option) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	e := &GameEngine{
		config: config,
		rng:    rand.New(rand.NewSource(seed)),
		logger: zap.NewNop(),
		now:    time.Now,
		status: StatusNotStarted,
		mode:   config.GravityMode,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.grid = newGrid(config, nil)
	e.timeLeft = config.TimeLimit
	return e, nil
}

// Start generates a fresh board and enters the playing state. Any running
// loops are cancelled first.
func (e *GameEngine) Start() {
	e.cancelLoops()

	e.grid = newGrid(e.config, generateTiles(e.config, e.rng, e.logger))
	e.redealOpening()
	e.score = 0
	e.timeLeft = e.config.TimeLimit
	e.shuffleCount = 0
	e.mode = e.config.GravityMode
	e.selected = nil
	e.clockStarted = false
	e.highlight = nil
	e.hint = nil
	e.settling = false
	e.frameAcc = 0
	e.status = StatusPlaying

	e.logger.Info("session started",
		zap.String("level", e.config.Name),
		zap.Int("tiles", len(e.grid.tiles)),
		zap.String("gravity", string(e.mode)))
	e.emit(Event{Type: EventStarted})

	e.checkBoard()
}

// redealOpening rearranges a freshly dealt board that has no connectable
// pair. Re-deals are free; only shuffles during play count against the limit.
func (e *GameEngine) redealOpening() {
	for attempt := 1; attempt <= maxRedeals; attempt++ {
		if e.grid.AllMatched() {
			return
		}
		if _, ok := e.grid.FindPair(); ok {
			return
		}
		reshuffle(e.grid.Unmatched(), e.rng)
		e.logger.Debug("opening board deadlocked, dealt again", zap.Int("attempt", attempt))
	}
}

// Restart tears down the current session and starts a new board
func (e *GameEngine) Restart() {
	e.Start()
}

// Stop cancels the frame and clock loops
func (e *GameEngine) Stop() {
	e.cancelLoops()
}

// Status returns the session status
func (e *GameEngine) Status() Status { return e.status }

// Score returns the current score
func (e *GameEngine) Score() int { return e.score }

// TimeLeft returns the remaining seconds
func (e *GameEngine) TimeLeft() int { return e.timeLeft }

// Grid returns the live board
func (e *GameEngine) Grid() *Grid { return e.grid }

// GetConfig returns the level configuration
func (e *GameEngine) GetConfig() *GameConfig { return e.config }

// GravityMode returns the active gravity mode
func (e *GameEngine) GravityMode() GravityMode { return e.mode }

// HandleClick applies a click on a tile. Clicks outside the playing state or
// on unknown or matched tiles are ignored.
func (e *GameEngine) HandleClick(tileID int) ClickResult {
	ignored := ClickResult{Action: ClickIgnored}
	if e.status != StatusPlaying {
		return ignored
	}
	tile := e.grid.TileByID(tileID)
	if tile == nil || tile.Matched {
		return ignored
	}

	e.hint = nil
	if !e.clockStarted {
		e.startClock()
	}

	switch {
	case e.selected == nil:
		return e.selectTile(tile)
	case e.selected.ID == tile.ID:
		tile.Selected = false
		e.selected = nil
		e.emit(Event{Type: EventDeselected, TileIDs: []int{tile.ID}})
		return ClickResult{Action: ClickDeselected, TileIDs: []int{tile.ID}}
	}

	conn := e.grid.Connect(e.selected, tile)
	if !conn.OK {
		e.selected.Selected = false
		return e.selectTile(tile)
	}
	return e.match(e.selected, tile, conn)
}

func (e *GameEngine) selectTile(t *Tile) ClickResult {
	t.Selected = true
	e.selected = t
	e.emit(Event{Type: EventSelected, TileIDs: []int{t.ID}})
	return ClickResult{Action: ClickSelected, TileIDs: []int{t.ID}}
}

func (e *GameEngine) match(a, b *Tile, conn Connection) ClickResult {
	a.Selected = false
	a.Matched = true
	b.Matched = true
	e.selected = nil
	e.score += e.config.MatchScore

	e.highlight = &Highlight{TileIDs: [2]int{a.ID, b.ID}, Path: conn.Path}
	e.highlightTTL = time.Duration(e.config.HighlightMillis) * time.Millisecond

	e.logger.Debug("tiles matched",
		zap.Int("a", a.ID),
		zap.Int("b", b.ID),
		zap.Int("turns", conn.Turns),
		zap.Int("score", e.score))
	e.emit(Event{Type: EventMatched, TileIDs: []int{a.ID, b.ID}, Path: conn.Path})

	e.boardChanged()

	return ClickResult{
		Action:     ClickMatched,
		TileIDs:    []int{a.ID, b.ID},
		Turns:      conn.Turns,
		Path:       conn.Path,
		ScoreDelta: e.config.MatchScore,
	}
}

// OnSecond advances the countdown by one second
func (e *GameEngine) OnSecond() {
	if e.status != StatusPlaying || !e.clockStarted {
		return
	}
	e.timeLeft--
	if e.timeLeft <= 0 {
		e.timeLeft = 0
		e.emit(Event{Type: EventTick})
		e.stopClock()
		e.setStatus(StatusFailed)
		return
	}
	e.emit(Event{Type: EventTick})
}

// Shuffle permutes the kinds of the remaining tiles. It returns false when
// not playing, when the board is cleared, or when the limit is used up.
func (e *GameEngine) Shuffle() bool {
	if e.status != StatusPlaying || e.shuffleCount >= e.config.ShuffleLimit || e.grid.AllMatched() {
		return false
	}
	e.shuffle(false)
	return true
}

func (e *GameEngine) shuffle(auto bool) {
	reshuffle(e.grid.Unmatched(), e.rng)
	e.shuffleCount++
	if e.selected != nil {
		e.selected.Selected = false
		e.selected = nil
	}
	e.hint = nil
	e.highlight = nil

	e.logger.Info("board shuffled",
		zap.Bool("auto", auto),
		zap.Int("count", e.shuffleCount),
		zap.Int("limit", e.config.ShuffleLimit))
	e.emit(Event{Type: EventShuffled, Auto: auto})

	e.boardChanged()
}

// Hint finds a connectable pair and records it for renderers
func (e *GameEngine) Hint() (HintPair, bool) {
	if e.status != StatusPlaying {
		return HintPair{}, false
	}
	pair, ok := e.grid.FindPair()
	if !ok {
		return HintPair{}, false
	}
	e.hint = &pair
	e.emit(Event{Type: EventHint, TileIDs: []int{pair.A, pair.B}})
	return pair, true
}

// SetGravityMode switches the gravity mode mid-session when the level allows it
func (e *GameEngine) SetGravityMode(mode GravityMode) bool {
	if e.status != StatusPlaying || !e.config.AllowModeChange || !mode.Valid() {
		return false
	}
	if mode == e.mode {
		return true
	}
	e.mode = mode
	e.logger.Info("gravity mode changed", zap.String("gravity", string(mode)))
	e.emit(Event{Type: EventModeChange})
	e.boardChanged()
	return true
}

// boardChanged runs after every committed mutation: targets are recomputed
// from the new layout, the frame loop resumes and the board is checked for a
// win or deadlock.
func (e *GameEngine) boardChanged() {
	e.grid.retarget(e.mode)
	if !e.grid.AllMatched() {
		e.settling = true
	}
	e.armFrames()
	e.checkBoard()
}

func (e *GameEngine) checkBoard() {
	if e.status != StatusPlaying {
		return
	}
	if e.grid.AllMatched() {
		e.succeed()
		return
	}
	if _, ok := e.grid.FindPair(); ok {
		return
	}
	if e.shuffleCount < e.config.ShuffleLimit {
		e.shuffle(true)
		return
	}
	e.logger.Info("no moves left and shuffles exhausted", zap.Int("remaining", len(e.grid.Unmatched())))
	e.stopClock()
	e.setStatus(StatusFailed)
}

func (e *GameEngine) succeed() {
	e.stopClock()
	remaining := e.timeLeft
	e.score += remaining * e.config.TimeBonus
	e.setStatus(StatusSuccess)

	if e.sink != nil {
		e.sink.RecordScore(ScoreRecord{
			Level:            e.config.Name,
			FinalScore:       e.score,
			GravityMode:      e.mode,
			GridWidth:        e.config.GridWidth,
			GridHeight:       e.config.GridHeight,
			SecondsRemaining: remaining,
			Timestamp:        e.now(),
		})
	}
}

func (e *GameEngine) setStatus(s Status) {
	e.status = s
	e.logger.Info("session status changed",
		zap.String("status", string(s)),
		zap.Int("score", e.score),
		zap.Int("time_left", e.timeLeft))
	e.emit(Event{Type: EventStatus})
}

// Tick advances the settle animation and highlight TTL by dt. It returns
// whether the frame loop still has work.
func (e *GameEngine) Tick(dt time.Duration) bool {
	e.frameAcc += dt
	frames := int(e.frameAcc / FrameInterval)
	if frames > maxFramesPerTick {
		frames = maxFramesPerTick
		e.frameAcc = 0
	} else {
		e.frameAcc -= time.Duration(frames) * FrameInterval
	}

	moved := false
	for i := 0; i < frames; i++ {
		if e.grid.step() {
			moved = true
		}
	}

	if e.highlight != nil {
		e.highlightTTL -= dt
		if e.highlightTTL <= 0 {
			e.highlight = nil
		}
	}

	if frames > 0 && !moved {
		if e.settling {
			e.settling = false
			e.emit(Event{Type: EventSettled})
		}
		if e.highlight == nil {
			e.stopFrames()
		}
	}
	return e.settling || e.highlight != nil
}

// Snapshot returns a copy of the session state
func (e *GameEngine) Snapshot() *Snapshot {
	snap := &Snapshot{
		Level:        e.config.Name,
		Width:        e.config.GridWidth,
		Height:       e.config.GridHeight,
		Pitch:        e.config.Pitch(),
		TileSize:     e.config.TileSize,
		Tiles:        make([]Tile, len(e.grid.tiles)),
		SelectedID:   -1,
		Score:        e.score,
		TimeLeft:     e.timeLeft,
		Status:       e.status,
		ShuffleCount: e.shuffleCount,
		ShuffleLimit: e.config.ShuffleLimit,
		GravityMode:  e.mode,
		ClockStarted: e.clockStarted,
		Settling:     e.settling,
	}
	for i, t := range e.grid.tiles {
		snap.Tiles[i] = *t
		if !t.Matched {
			snap.Remaining++
		}
	}
	if e.selected != nil {
		snap.SelectedID = e.selected.ID
	}
	if e.highlight != nil {
		h := *e.highlight
		h.Path = append([]Point(nil), e.highlight.Path...)
		h.RemainingMS = e.highlightTTL.Milliseconds()
		snap.Highlight = &h
	}
	if e.hint != nil {
		hint := *e.hint
		snap.Hint = &hint
	}
	return snap
}

func (e *GameEngine) startClock() {
	e.clockStarted = true
	if e.scheduler == nil {
		return
	}
	if e.cancelClock != nil {
		e.cancelClock()
	}
	e.cancelClock = e.scheduler.Schedule(time.Second, func(time.Duration) {
		e.OnSecond()
	})
}

func (e *GameEngine) stopClock() {
	if e.cancelClock != nil {
		e.cancelClock()
		e.cancelClock = nil
	}
}

func (e *GameEngine) armFrames() {
	if e.scheduler == nil {
		return
	}
	if e.cancelFrames != nil {
		e.cancelFrames()
	}
	e.frameAcc = 0
	e.cancelFrames = e.scheduler.Schedule(FrameInterval, func(dt time.Duration) {
		e.Tick(dt)
	})
}

func (e *GameEngine) stopFrames() {
	if e.cancelFrames != nil {
		e.cancelFrames()
		e.cancelFrames = nil
	}
}

func (e *GameEngine) cancelLoops() {
	e.stopFrames()
	e.stopClock()
}

func (e *GameEngine) emit(ev Event) {
	if e.listener == nil {
		return
	}
	ev.Score = e.score
	ev.TimeLeft = e.timeLeft
	ev.Status = e.status
	ev.ShuffleCount = e.shuffleCount
	ev.GravityMode = e.mode
	e.listener.OnEvent(ev)
}
