// Package service provides the business logic layer for the link-match game.
//
// The service package implements:
//   - Multi-session game management
//   - Click, hint, shuffle and gravity operations on a session
//   - Configuration listing and loading
//   - Score recording for won sessions
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages level configuration loading and validation.
// ScoreStore persists score records; the scores package provides backends.
// Notifier receives every engine event with a fresh snapshot, which the
// WebSocket hub fans out to browsers.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Every engine call is made through Session.Do so it runs on
// the session's own loop goroutine alongside the frame and clock ticks.
//
// Usage:
//
//	sessionMgr := session.NewManager(logger)
//	configMgr, _ := config.NewManager("configs", logger)
//	gameService := service.NewGameService(sessionMgr, configMgr,
//		service.WithScoreStore(store),
//		service.WithNotifier(hub),
//		service.WithLogger(logger))
//
//	info, err := gameService.CreateSession(ctx, "classic", 0)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	resp, err := gameService.Click(ctx, info.ID, info.State.Tiles[0].ID)
package service
