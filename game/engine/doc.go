// Package engine provides the core game logic for the link-match puzzle.
//
// The engine package implements the game mechanics including:
//   - Board generation with paired tile kinds
//   - Connection search with at most two turns through the padding ring
//   - Gravity settling of remaining tiles after each match
//   - Timer, scoring, shuffle, hint and win/loss detection
//   - Configuration loading and validation
//
// Core Types:
//
// The Engine interface defines the session contract, implemented by
// GameEngine. Grid owns the tiles and answers position and connectivity
// queries. GameConfig defines a level and is loaded from JSON files.
//
// Usage:
//
//	config, err := engine.LoadGameConfig("configs/classic.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config, engine.WithScheduler(loop))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine.Start()
//	result := gameEngine.HandleClick(3)
//	snapshot := gameEngine.Snapshot()
//
// Game Rules:
//
// Two tiles of the same kind are removed when a path of horizontal and
// vertical segments with no more than two turns joins them without crossing
// another tile. Each match scores points and the leftover seconds add a bonus
// once the board is cleared. When no pair can be joined the board is
// reshuffled automatically until the shuffle limit is used up, after which
// the session fails. Running out of time also fails the session.
//
// Concurrency:
//
// GameEngine is single-threaded. The host supplies a Scheduler that runs the
// frame and one-second callbacks on the same goroutine as player input.
package engine
