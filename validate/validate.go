// Package validate checks level definition JSON files. It reports:
//   - JSON structure and unknown gravity modes
//   - Grid dimensions, kind count and timer/shuffle limits
//   - Geometry (padding, tile size and gap)
//   - Boards with an odd cell count, which leave one cell empty
//   - Playability: how many seeded boards the autoplay bot clears
package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/mcp-training/linkgame/game/bot"
	"github.com/wricardo/mcp-training/linkgame/game/engine"
)

// PlaytestSeeds are the boards dealt for the playability check
var PlaytestSeeds = []int64{1, 2, 3}

// Result captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type Result struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *Result) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) info(format string, args ...interface{}) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// ValidateConfig loads and validates a single level file
func ValidateConfig(filePath string) Result {
	result := Result{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config engine.GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}
	config.ApplyDefaults()

	if strings.TrimSpace(config.Name) == "" {
		result.fail("name is required")
	}

	// Validate grid
	for _, dim := range []struct {
		name  string
		value int
	}{{"grid_width", config.GridWidth}, {"grid_height", config.GridHeight}} {
		if dim.value < engine.MinGridSize || dim.value > engine.MaxGridSize {
			result.fail("%s must be between %d and %d, got %d", dim.name, engine.MinGridSize, engine.MaxGridSize, dim.value)
		}
	}

	cells := config.GridWidth * config.GridHeight
	pairs := cells / 2
	if config.KindCount < 1 || config.KindCount > engine.MaxKindCount {
		result.fail("kind_count must be between 1 and %d, got %d", engine.MaxKindCount, config.KindCount)
	}

	if !config.GravityMode.Valid() {
		result.fail("Unknown gravity_mode %q", config.GravityMode)
	}

	// Validate limits
	if config.TimeLimit < 1 {
		result.fail("time_limit must be positive, got %d", config.TimeLimit)
	}
	if config.ShuffleLimit < 0 {
		result.fail("shuffle_limit cannot be negative, got %d", config.ShuffleLimit)
	}
	if config.Padding < engine.MinPadding || config.Padding > engine.MaxPadding {
		result.fail("padding must be between %d and %d, got %d", engine.MinPadding, engine.MaxPadding, config.Padding)
	}
	if config.TileSize < 1 {
		result.fail("tile_size must be positive, got %d", config.TileSize)
	}
	if config.TileGap < 0 {
		result.fail("tile_gap cannot be negative, got %d", config.TileGap)
	}

	// The engine has the final word
	if result.Valid {
		if err := engine.ValidateGameConfig(&config); err != nil {
			result.fail("%v", err)
		}
	}

	if !result.Valid {
		return result
	}

	// Add informational data
	result.info("Name: %s", config.Name)
	result.info("Grid: %dx%d (%d pairs, %d kinds)", config.GridWidth, config.GridHeight, pairs, config.KindCount)
	if cells%2 == 1 {
		result.info("Odd cell count: the last cell stays empty")
	}
	if config.KindCount > pairs {
		result.info("Only %d of %d kinds fit on the board", pairs, config.KindCount)
	}
	result.info("Gravity: %s", config.GravityMode)
	if config.AllowModeChange {
		result.info("Gravity can be changed while playing")
	}
	result.info("Time: %ds, shuffles: %d", config.TimeLimit, config.ShuffleLimit)
	result.info("Playability: %s", playtest(&config))

	return result
}

// playtest lets the bot play a few seeded boards
func playtest(config *engine.GameConfig) string {
	cleared := 0
	best := 0
	for _, seed := range PlaytestSeeds {
		cfg := *config
		cfg.Seed = seed
		e, err := engine.NewEngine(&cfg)
		if err != nil {
			return fmt.Sprintf("cannot deal a board: %v", err)
		}
		e.Start()

		res, err := bot.New(bot.Inline{Engine: e}).Play(context.Background())
		if err != nil {
			continue
		}
		if res.Status == engine.StatusSuccess {
			cleared++
			if res.Score > best {
				best = res.Score
			}
		}
	}
	return fmt.Sprintf("bot cleared %d/%d seeded boards (best score %d)", cleared, len(PlaytestSeeds), best)
}

// ValidateDir validates every *.json file in dir
func ValidateDir(dir string) ([]Result, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("finding config files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no config files in %s", dir)
	}

	results := make([]Result, 0, len(files))
	for _, file := range files {
		results = append(results, ValidateConfig(file))
	}
	return results, nil
}

// Report prints a concise report and returns whether every file is valid
func Report(w io.Writer, results []Result) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Errors {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Fprintln(w, "  ❌ "+err)
				}
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All configurations are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some configurations have errors")
	}
	return allValid
}
