// Package websocket provides WebSocket transport for the link-match game.
//
// The websocket package implements:
//   - Session-aware WebSocket connections
//   - Event broadcasting from session loops
//   - Client actions (click, hint, shuffle, restart, mode)
//
// Architecture:
//
// A central Hub goroutine owns the client registry. Session loops hand
// events to the hub through a buffered channel and never wait on slow
// browsers: when the queue is full the event is dropped, and a client whose
// own buffer is full is disconnected.
//
// Message Protocol:
//
// Outgoing messages are JSON:
//
//	{"session_id": "ab12", "event": "matched", "data": {...}, "state": {...}}
//
// where data is the engine event and state a full snapshot. The first
// message after connecting has event "state" and carries only the snapshot.
//
// Incoming messages name an action:
//
//	{"action": "click", "tile_id": 17}
//	{"action": "mode", "gravity_mode": "clockwise"}
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	hub.SetActionHandler(handler)
//	go hub.Run(ctx)
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"), snapshot)
//	})
package websocket
