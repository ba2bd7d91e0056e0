package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wricardo/mcp-training/linkgame/game/engine"
)

func createValidConfig() *engine.GameConfig {
	config := engine.DefaultGameConfig()
	config.Name = "Test Config"
	config.Description = "Test configuration"
	config.GridWidth = 6
	config.GridHeight = 4
	return config
}

func writeConfigFile(t *testing.T, dir, name string, config *engine.GameConfig) {
	t.Helper()
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal config: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, name+".json"), data, 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("classic is the default", func(t *testing.T) {
		dir := t.TempDir()
		classic := createValidConfig()
		classic.Name = "Classic"
		writeConfigFile(t, dir, "classic", classic)
		other := createValidConfig()
		other.Name = "Another"
		writeConfigFile(t, dir, "another", other)

		manager, err := NewManager(dir, nil)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if manager.GetDefault().Name != "Classic" {
			t.Errorf("Expected Classic default, got %s", manager.GetDefault().Name)
		}
	})

	t.Run("first level when classic is missing", func(t *testing.T) {
		dir := t.TempDir()
		for _, id := range []string{"zeta", "alpha"} {
			config := createValidConfig()
			config.Name = id
			writeConfigFile(t, dir, id, config)
		}

		manager, err := NewManager(dir, nil)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if manager.GetDefault().Name != "alpha" {
			t.Errorf("Expected alpha default, got %s", manager.GetDefault().Name)
		}
	})

	t.Run("non-existent directory", func(t *testing.T) {
		if _, err := NewManager("/non/existent/path", nil); err == nil {
			t.Error("Expected error for non-existent directory")
		}
	})

	t.Run("empty directory falls back to built-in level", func(t *testing.T) {
		manager, err := NewManager(t.TempDir(), nil)
		if err != nil {
			t.Fatalf("NewManager should succeed without level files, got %v", err)
		}
		defaultConfig := manager.GetDefault()
		if defaultConfig == nil {
			t.Fatal("Expected default config to be available")
		}
		if err := engine.ValidateGameConfig(defaultConfig); err != nil {
			t.Errorf("Expected built-in level to be valid: %v", err)
		}
	})
}

func TestManager_LoadConfig(t *testing.T) {
	dir := t.TempDir()
	down := createValidConfig()
	down.Name = "Down"
	down.GravityMode = engine.Down
	writeConfigFile(t, dir, "down", down)

	manager, err := NewManager(dir, nil)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	t.Run("load existing config", func(t *testing.T) {
		config, err := manager.LoadConfig("down")
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}
		if config.GravityMode != engine.Down {
			t.Errorf("Expected gravity mode down, got %s", config.GravityMode)
		}
	})

	t.Run("load with .json extension", func(t *testing.T) {
		if _, err := manager.LoadConfig("down.json"); err != nil {
			t.Fatalf("Failed to load config with extension: %v", err)
		}
	})

	t.Run("load from cache", func(t *testing.T) {
		first, _ := manager.LoadConfig("down")
		second, _ := manager.LoadConfig("down")
		if first != second {
			t.Error("Expected config to be loaded from cache")
		}
	})

	t.Run("load non-existent config", func(t *testing.T) {
		if _, err := manager.LoadConfig("non-existent"); !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("Expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("reject path traversal", func(t *testing.T) {
		if _, err := manager.LoadConfig("../secrets"); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Expected ErrInvalidName, got %v", err)
		}
	})

	t.Run("load invalid config", func(t *testing.T) {
		if err := os.WriteFile(filepath.Join(dir, "invalid.json"), []byte(`{"name": ""}`), 0644); err != nil {
			t.Fatalf("Failed to write invalid config: %v", err)
		}
		if _, err := manager.LoadConfig("invalid"); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("load malformed JSON", func(t *testing.T) {
		if err := os.WriteFile(filepath.Join(dir, "malformed.json"), []byte(`{"name": "Malformed", invalid}`), 0644); err != nil {
			t.Fatalf("Failed to write malformed config: %v", err)
		}
		if _, err := manager.LoadConfig("malformed"); err == nil {
			t.Error("Expected error for malformed JSON")
		}
	})
}

func TestManager_ListConfigs(t *testing.T) {
	dir := t.TempDir()
	for _, id := range []string{"classic", "down", "clockwise"} {
		config := createValidConfig()
		config.Name = id
		writeConfigFile(t, dir, id, config)
	}
	os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("readme"), 0644)
	os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"name":"broken","grid_width":1}`), 0644)

	manager, err := NewManager(dir, nil)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	configList, err := manager.ListConfigs()
	if err != nil {
		t.Fatalf("Failed to list configs: %v", err)
	}
	want := []string{"classic", "clockwise", "down"}
	if len(configList) != len(want) {
		t.Fatalf("Expected %d configs, got %d", len(want), len(configList))
	}
	for i, info := range configList {
		if info.ConfigID != want[i] {
			t.Errorf("Expected config %d to be %s, got %s", i, want[i], info.ConfigID)
		}
		if info.GridWidth != 6 || info.GridHeight != 4 {
			t.Errorf("Expected 6x4 board in listing, got %dx%d", info.GridWidth, info.GridHeight)
		}
	}
}

func TestManager_SaveConfig(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir, nil)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	config := &engine.GameConfig{Name: "Custom", GridWidth: 4, GridHeight: 4, GravityMode: engine.Clockwise}
	if err := manager.SaveConfig("custom", config); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "custom.json")); err != nil {
		t.Errorf("Expected config file on disk: %v", err)
	}

	// a fresh manager reads the saved file with defaults applied
	reloaded, err := NewManager(dir, nil)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	loaded, err := reloaded.LoadConfig("custom")
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}
	if loaded.TimeLimit != engine.DefaultTimeLimit || loaded.GravityMode != engine.Clockwise {
		t.Errorf("Unexpected saved config: %+v", loaded)
	}
	if reloaded.ConfigID("Custom") != "custom" {
		t.Errorf("Expected config ID custom, got %s", reloaded.ConfigID("Custom"))
	}

	bad := &engine.GameConfig{Name: "Bad", GridWidth: 1, GridHeight: 4}
	if err := manager.SaveConfig("bad", bad); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestManager_ReloadConfig(t *testing.T) {
	dir := t.TempDir()
	config := createValidConfig()
	config.Name = "Changeable"
	writeConfigFile(t, dir, "changeable", config)

	manager, err := NewManager(dir, nil)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	loaded, _ := manager.LoadConfig("changeable")
	if loaded.ShuffleLimit != engine.DefaultShuffleLimit {
		t.Errorf("Expected shuffle limit %d, got %d", engine.DefaultShuffleLimit, loaded.ShuffleLimit)
	}

	config.ShuffleLimit = 2
	writeConfigFile(t, dir, "changeable", config)
	manager.RefreshCache()

	reloaded, _ := manager.LoadConfig("changeable")
	if reloaded.ShuffleLimit != 2 {
		t.Errorf("Expected reloaded shuffle limit 2, got %d", reloaded.ShuffleLimit)
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	dir := t.TempDir()
	for i := 1; i <= 5; i++ {
		config := createValidConfig()
		config.Name = "Config" + string(rune('0'+i))
		writeConfigFile(t, dir, "config"+string(rune('0'+i)), config)
	}

	manager, err := NewManager(dir, nil)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if _, err := manager.LoadConfig("config" + string(rune('0'+((id%5)+1)))); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Unexpected error during concurrent access: %v", err)
	}
	if manager.Count() < 5 {
		t.Errorf("Expected at least 5 configs in cache, got %d", manager.Count())
	}
}

func TestShippedLevelsAreValid(t *testing.T) {
	manager, err := NewManager(filepath.Join("..", "..", "configs"), nil)
	if err != nil {
		t.Fatalf("Failed to open shipped configs: %v", err)
	}

	levels, err := manager.ListConfigs()
	if err != nil {
		t.Fatalf("Failed to list configs: %v", err)
	}
	seen := map[engine.GravityMode]bool{}
	for _, info := range levels {
		seen[info.GravityMode] = true
	}
	for _, mode := range engine.GravityModes() {
		if !seen[mode] {
			t.Errorf("Expected a shipped level for gravity mode %s", mode)
		}
	}
	if manager.GetDefault().Name != "Classic" {
		t.Errorf("Expected Classic default, got %s", manager.GetDefault().Name)
	}
}

// Count returns the number of cached levels
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.configs)
}
