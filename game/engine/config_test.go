package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateGameConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*GameConfig)
		wantErr string
	}{
		{"valid", func(*GameConfig) {}, ""},
		{"missing name", func(c *GameConfig) { c.Name = "" }, "name is required"},
		{"narrow grid", func(c *GameConfig) { c.GridWidth = 1 }, "grid_width"},
		{"tall grid", func(c *GameConfig) { c.GridHeight = MaxGridSize + 1 }, "grid_height"},
		{"no kinds", func(c *GameConfig) { c.KindCount = 0 }, "kind_count"},
		{"unknown mode", func(c *GameConfig) { c.GravityMode = "sideways" }, "gravity_mode"},
		{"no time", func(c *GameConfig) { c.TimeLimit = 0 }, "time_limit"},
		{"negative shuffles", func(c *GameConfig) { c.ShuffleLimit = -1 }, "shuffle_limit"},
		{"no padding", func(c *GameConfig) { c.Padding = 0 }, "padding"},
		{"negative gap", func(c *GameConfig) { c.TileGap = -1 }, "tile_gap"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := createTestConfig(4, 4)
			tt.mutate(config)
			err := ValidateGameConfig(config)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseGameConfig_AppliesDefaults(t *testing.T) {
	config, err := ParseGameConfig([]byte(`{"name":"tiny","grid_width":4,"grid_height":2}`))
	if err != nil {
		t.Fatalf("Failed to parse config: %v", err)
	}

	if config.GravityMode != Static {
		t.Errorf("Expected gravity mode %s, got %s", Static, config.GravityMode)
	}
	if config.TimeLimit != DefaultTimeLimit || config.MatchScore != DefaultMatchScore {
		t.Errorf("Expected default timing and scoring, got %+v", config)
	}
	if config.Pitch() != DefaultTileSize+DefaultTileGap {
		t.Errorf("Expected pitch %d, got %v", DefaultTileSize+DefaultTileGap, config.Pitch())
	}
	if config.ShuffleLimit != 0 {
		t.Errorf("Expected shuffle limit to stay 0, got %d", config.ShuffleLimit)
	}
}

func TestLoadGameConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "down.json")
	body := `{"name":"down","grid_width":6,"grid_height":4,"gravity_mode":"down","shuffle_limit":3}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	config, err := LoadGameConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if config.GravityMode != Down || config.ShuffleLimit != 3 {
		t.Errorf("Unexpected config: %+v", config)
	}

	if _, err := LoadGameConfig(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
	if _, err := ParseGameConfig([]byte(`{"name":"bad","grid_width":1,"grid_height":4}`)); err == nil {
		t.Error("Expected validation error")
	}
}

func TestDefaultGameConfigIsValid(t *testing.T) {
	if err := ValidateGameConfig(DefaultGameConfig()); err != nil {
		t.Errorf("Expected default config to be valid: %v", err)
	}
}
