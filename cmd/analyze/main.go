// Command analyze prints quick, human-readable heuristics about the level
// files in the project's configs directory. For every level it deals a few
// seeded boards and reports how many pairs are open on a fresh board, how
// often the autoplay bot clears it, and the scores and shuffles it needed.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/linkgame/game/bot"
	"github.com/wricardo/mcp-training/linkgame/game/engine"
)

// LevelStats aggregates the runs of one level
type LevelStats struct {
	File        string
	Name        string
	Width       int
	Height      int
	Gravity     engine.GravityMode
	Tiles       int
	Runs        int
	Cleared     int
	OpenPairs   float64 // average connectable pairs on a fresh board
	AvgScore    float64
	AvgShuffles float64
	BestScore   int
}

func main() {
	cmd := &cli.Command{
		Name:  "analyze",
		Usage: "Play every level with the bot and summarise the results",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "configs", Value: "configs", Usage: "Directory containing level files"},
			&cli.IntFlag{Name: "runs", Value: 5, Usage: "Seeded boards per level"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			files, err := filepath.Glob(filepath.Join(cmd.String("configs"), "*.json"))
			if err != nil {
				return err
			}
			sort.Strings(files)

			for _, file := range files {
				fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
				stats, err := analyzeLevel(ctx, file, cmd.Int("runs"))
				if err != nil {
					fmt.Printf("Error: %v\n", err)
					continue
				}
				printStats(os.Stdout, stats)
			}
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func analyzeLevel(ctx context.Context, path string, runs int) (*LevelStats, error) {
	config, err := engine.LoadGameConfig(path)
	if err != nil {
		return nil, err
	}
	if runs < 1 {
		runs = 1
	}

	stats := &LevelStats{
		File:    filepath.Base(path),
		Name:    config.Name,
		Width:   config.GridWidth,
		Height:  config.GridHeight,
		Gravity: config.GravityMode,
		Runs:    runs,
	}

	totalScore, totalShuffles, totalOpen := 0, 0, 0
	for seed := int64(1); seed <= int64(runs); seed++ {
		cfg := *config
		cfg.Seed = seed
		e, err := engine.NewEngine(&cfg)
		if err != nil {
			return nil, err
		}
		e.Start()
		stats.Tiles = len(e.Grid().Unmatched())
		totalOpen += countOpenPairs(e.Grid())

		result, err := bot.New(bot.Inline{Engine: e}).Play(ctx)
		if err != nil && err != bot.ErrStuck {
			return nil, err
		}
		totalShuffles += result.Shuffles
		if result.Status == engine.StatusSuccess {
			stats.Cleared++
			totalScore += result.Score
			if result.Score > stats.BestScore {
				stats.BestScore = result.Score
			}
		}
	}

	stats.OpenPairs = float64(totalOpen) / float64(runs)
	stats.AvgShuffles = float64(totalShuffles) / float64(runs)
	if stats.Cleared > 0 {
		stats.AvgScore = float64(totalScore) / float64(stats.Cleared)
	}
	return stats, nil
}

// countOpenPairs counts the same-kind pairs that connect right now
func countOpenPairs(g *engine.Grid) int {
	tiles := g.Unmatched()
	open := 0
	for i := 0; i < len(tiles); i++ {
		for j := i + 1; j < len(tiles); j++ {
			if tiles[i].Kind == tiles[j].Kind && g.Connect(tiles[i], tiles[j]).OK {
				open++
			}
		}
	}
	return open
}

func printStats(w io.Writer, stats *LevelStats) {
	fmt.Fprintf(w, "Name: %s\n", stats.Name)
	fmt.Fprintf(w, "Grid Size: %d x %d (%d tiles)\n", stats.Width, stats.Height, stats.Tiles)
	fmt.Fprintf(w, "Gravity: %s\n", stats.Gravity)
	fmt.Fprintf(w, "Open pairs on a fresh board: %.1f\n", stats.OpenPairs)
	fmt.Fprintf(w, "Average shuffles used: %.1f\n", stats.AvgShuffles)

	if stats.Cleared == 0 {
		fmt.Fprintf(w, "⚠️  WARNING: the bot cleared none of %d boards\n", stats.Runs)
		return
	}
	fmt.Fprintf(w, "✅ Bot cleared %d/%d boards (avg score %.0f, best %d)\n",
		stats.Cleared, stats.Runs, stats.AvgScore, stats.BestScore)
}
