// Package config provides level management for the link-match game.
//
// The config package handles:
//   - Loading level definitions from JSON files
//   - Applying defaults and validating each level
//   - Default level selection with a built-in fallback
//   - Level discovery, listing and saving
//
// Configuration Format:
//
// Levels are stored as JSON files in the configs directory. The file name
// without extension is the config ID used to create sessions. Each level
// defines:
//   - Board dimensions and the number of tile kinds
//   - The gravity mode applied after every match
//   - Time limit, shuffle limit and scoring
//   - Pixel geometry used by renderers and connection paths
//
// Available Configurations:
//
// One level ships per gravity mode (classic, down, up, left, right,
// split_left_right, split_up_down, clockwise, counter_clockwise) plus a
// compact mobile board and a sandbox level that allows switching modes.
//
// Usage:
//
//	manager, err := config.NewManager("configs", logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	level, err := manager.LoadConfig("down")
//	defaultLevel := manager.GetDefault()
//	levels, err := manager.ListConfigs()
package config
