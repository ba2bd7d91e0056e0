package engine

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultGameConfig returns the classic static level
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Name:            "classic",
		Description:     "Static board, nothing moves after a match",
		GridWidth:       10,
		GridHeight:      8,
		KindCount:       DefaultKindCount,
		GravityMode:     Static,
		TimeLimit:       DefaultTimeLimit,
		ShuffleLimit:    DefaultShuffleLimit,
		Padding:         DefaultPadding,
		TileSize:        DefaultTileSize,
		TileGap:         DefaultTileGap,
		MatchScore:      DefaultMatchScore,
		TimeBonus:       DefaultTimeBonus,
		HighlightMillis: DefaultHighlightMillis,
	}
}

// ApplyDefaults fills zero-valued optional fields. ShuffleLimit is left alone
// because zero is a meaningful value there.
func (c *GameConfig) ApplyDefaults() {
	if c.GravityMode == "" {
		c.GravityMode = Static
	}
	if c.KindCount == 0 {
		c.KindCount = DefaultKindCount
	}
	if c.TimeLimit == 0 {
		c.TimeLimit = DefaultTimeLimit
	}
	if c.Padding == 0 {
		c.Padding = DefaultPadding
	}
	if c.TileSize == 0 {
		c.TileSize = DefaultTileSize
	}
	if c.TileGap == 0 {
		c.TileGap = DefaultTileGap
	}
	if c.MatchScore == 0 {
		c.MatchScore = DefaultMatchScore
	}
	if c.TimeBonus == 0 {
		c.TimeBonus = DefaultTimeBonus
	}
	if c.HighlightMillis == 0 {
		c.HighlightMillis = DefaultHighlightMillis
	}
}

// Pitch is the pixel distance between neighbouring cell origins
func (c *GameConfig) Pitch() float64 {
	return float64(c.TileSize + c.TileGap)
}

// ValidateGameConfig validates a game configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}

	if config.GridWidth < MinGridSize || config.GridWidth > MaxGridSize {
		return fmt.Errorf("config validation: grid_width must be between %d and %d, got %d", MinGridSize, MaxGridSize, config.GridWidth)
	}
	if config.GridHeight < MinGridSize || config.GridHeight > MaxGridSize {
		return fmt.Errorf("config validation: grid_height must be between %d and %d, got %d", MinGridSize, MaxGridSize, config.GridHeight)
	}
	if config.KindCount < 1 || config.KindCount > MaxKindCount {
		return fmt.Errorf("config validation: kind_count must be between 1 and %d, got %d", MaxKindCount, config.KindCount)
	}
	if !config.GravityMode.Valid() {
		return fmt.Errorf("config validation: unknown gravity_mode %q", config.GravityMode)
	}

	if config.TimeLimit < 1 {
		return fmt.Errorf("config validation: time_limit must be positive, got %d", config.TimeLimit)
	}
	if config.ShuffleLimit < 0 {
		return fmt.Errorf("config validation: shuffle_limit cannot be negative, got %d", config.ShuffleLimit)
	}
	if config.Padding < MinPadding || config.Padding > MaxPadding {
		return fmt.Errorf("config validation: padding must be between %d and %d, got %d", MinPadding, MaxPadding, config.Padding)
	}

	if config.TileSize < 1 {
		return fmt.Errorf("config validation: tile_size must be positive, got %d", config.TileSize)
	}
	if config.TileGap < 0 {
		return fmt.Errorf("config validation: tile_gap cannot be negative, got %d", config.TileGap)
	}
	if config.MatchScore < 0 || config.TimeBonus < 0 {
		return fmt.Errorf("config validation: match_score and time_bonus cannot be negative")
	}
	if config.HighlightMillis < 0 {
		return fmt.Errorf("config validation: highlight_ms cannot be negative, got %d", config.HighlightMillis)
	}

	return nil
}

// LoadGameConfig loads a game configuration from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseGameConfig(data)
}

// ParseGameConfig decodes, defaults and validates a level definition
func ParseGameConfig(data []byte) (*GameConfig, error) {
	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	config.ApplyDefaults()

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
