// Package session provides session management for the link-match game server.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - One event loop per session driving its engine
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// Sessions are service.Session values: an engine, its level configuration, the
// loop goroutine that owns the engine, and access timestamps.
//
// Session Identifiers:
//
// Sessions use 4-character hexadecimal IDs for easy reference. Lookups are
// case-insensitive.
//
// Concurrency:
//
// The manager map is guarded by a read/write mutex. Engines are never touched
// directly by callers; every operation is funnelled through the session's
// loop with Session.Do, so clicks, frame ticks and clock ticks are serialised.
//
// Usage:
//
//	manager := session.NewManager(logger)
//
//	sess, err := manager.Create("", config, engine.WithSeed(42))
//	if err != nil {
//		log.Fatal(err)
//	}
//	sess.Do(ctx, func(e *engine.GameEngine) { e.Start() })
//
// Cleanup:
//
// Deleting or expiring a session stops its engine loops and its goroutine.
package session
