package engine

import "time"

// GravityMode selects how remaining tiles settle after a removal
type GravityMode string

const (
	Static           GravityMode = "static"
	Down             GravityMode = "down"
	Up               GravityMode = "up"
	Left             GravityMode = "left"
	Right            GravityMode = "right"
	SplitLeftRight   GravityMode = "split_left_right"
	SplitUpDown      GravityMode = "split_up_down"
	Clockwise        GravityMode = "clockwise"
	CounterClockwise GravityMode = "counter_clockwise"
)

// GravityModes lists every supported mode in display order
func GravityModes() []GravityMode {
	return []GravityMode{
		Static, Down, Up, Left, Right,
		SplitLeftRight, SplitUpDown, Clockwise, CounterClockwise,
	}
}

// Valid reports whether m is a known gravity mode
func (m GravityMode) Valid() bool {
	for _, known := range GravityModes() {
		if m == known {
			return true
		}
	}
	return false
}

// Status is the session lifecycle state
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusPlaying    Status = "playing"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
)

const (
	// Validation constants
	MinGridSize  = 2
	MaxGridSize  = 20
	MinPadding   = 1
	MaxPadding   = 4
	MaxKindCount = 64

	// Defaults applied to zero config fields
	DefaultTileSize        = 70
	DefaultTileGap         = 10
	DefaultPadding         = 1
	DefaultKindCount       = 21
	DefaultTimeLimit       = 300
	DefaultShuffleLimit    = 5
	DefaultMatchScore      = 10
	DefaultTimeBonus       = 2
	DefaultHighlightMillis = 300

	// FrameInterval is the nominal duration of one settle frame
	FrameInterval = 16 * time.Millisecond

	maxFramesPerTick = 4
	maxRedeals       = 16
	settleDivisor    = 12
	minSettleStep    = 2
	maxSettleStep    = 8
)

// Cell is a logical board coordinate. Cells outside the board are only
// produced by connection paths that route through the padding ring.
type Cell struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// Point is a pixel coordinate
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Tile is a single piece on the board
type Tile struct {
	ID       int     `json:"id"`
	Kind     int     `json:"kind"`
	Col      int     `json:"col"`
	Row      int     `json:"row"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Selected bool    `json:"selected"`
	Matched  bool    `json:"matched"`
}

// GameConfig represents a level definition loaded from JSON
type GameConfig struct {
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	GridWidth       int         `json:"grid_width"`
	GridHeight      int         `json:"grid_height"`
	KindCount       int         `json:"kind_count"`
	GravityMode     GravityMode `json:"gravity_mode"`
	TimeLimit       int         `json:"time_limit"`
	ShuffleLimit    int         `json:"shuffle_limit"`
	Padding         int         `json:"padding"`
	TileSize        int         `json:"tile_size"`
	TileGap         int         `json:"tile_gap"`
	MatchScore      int         `json:"match_score"`
	TimeBonus       int         `json:"time_bonus"`
	HighlightMillis int         `json:"highlight_ms"`
	Seed            int64       `json:"seed,omitempty"`
	AllowModeChange bool        `json:"allow_mode_change"`
}

// Highlight is the most recent match path, shown until its TTL runs out
type Highlight struct {
	TileIDs     [2]int  `json:"tile_ids"`
	Path        []Point `json:"path"`
	RemainingMS int64   `json:"remaining_ms"`
}

// HintPair names two tiles that can currently be matched
type HintPair struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Snapshot is a read-only copy of the session for renderers
type Snapshot struct {
	Level        string      `json:"level"`
	Width        int         `json:"width"`
	Height       int         `json:"height"`
	Pitch        float64     `json:"pitch"`
	TileSize     int         `json:"tile_size"`
	Tiles        []Tile      `json:"tiles"`
	Highlight    *Highlight  `json:"highlight,omitempty"`
	Hint         *HintPair   `json:"hint,omitempty"`
	SelectedID   int         `json:"selected_id"`
	Score        int         `json:"score"`
	TimeLeft     int         `json:"time_left"`
	Status       Status      `json:"status"`
	ShuffleCount int         `json:"shuffle_count"`
	ShuffleLimit int         `json:"shuffle_limit"`
	GravityMode  GravityMode `json:"gravity_mode"`
	ClockStarted bool        `json:"clock_started"`
	Settling     bool        `json:"settling"`
	Remaining    int         `json:"remaining"`
}

// ScoreRecord is the flat record emitted once per successful session
type ScoreRecord struct {
	ID               string      `json:"id"`
	Level            string      `json:"level"`
	FinalScore       int         `json:"final_score"`
	GravityMode      GravityMode `json:"gravity_mode"`
	GridWidth        int         `json:"grid_width"`
	GridHeight       int         `json:"grid_height"`
	SecondsRemaining int         `json:"seconds_remaining"`
	Timestamp        time.Time   `json:"timestamp"`
}

// ClickAction describes what a click did
type ClickAction string

const (
	ClickIgnored    ClickAction = "ignored"
	ClickSelected   ClickAction = "selected"
	ClickDeselected ClickAction = "deselected"
	ClickMatched    ClickAction = "matched"
)

// ClickResult is returned by HandleClick
type ClickResult struct {
	Action     ClickAction `json:"action"`
	TileIDs    []int       `json:"tile_ids,omitempty"`
	Turns      int         `json:"turns,omitempty"`
	Path       []Point     `json:"path,omitempty"`
	ScoreDelta int         `json:"score_delta,omitempty"`
}
