// Package bot plays link-match sessions automatically.
//
// A Player asks the engine for a hint, clicks both tiles and repeats until
// the session ends, shuffling when no pair is available. It drives the engine
// through a Controller, so the same player works on a live session loop
// (the autoplay command) and inline on a bare engine (level analysis).
package bot
