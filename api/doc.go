// Package api provides HTTP REST API handlers for the link-match game.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session {config_id, seed}
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Session info with a snapshot
//   - DELETE /api/sessions/{id} - Stop and remove a session
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current snapshot
//   - POST /api/sessions/{id}/click - Click a tile {tile_id}
//   - POST /api/sessions/{id}/hint - Find a connectable pair
//   - POST /api/sessions/{id}/shuffle - Reshuffle remaining tiles
//   - POST /api/sessions/{id}/restart - Deal a new board
//   - POST /api/sessions/{id}/mode - Change gravity {gravity_mode}
//
// Configuration:
//   - GET /api/configs - List levels
//   - GET /api/configs/{name} - Level definition
//   - POST /api/configs - Save a level {config_id, ...level fields}
//
// Scores:
//   - GET /api/scores?limit=N - Best records first
//   - DELETE /api/scores - Remove every record
//
// Other:
//   - GET /health, GET /api/health - Liveness
//   - GET /ws?session={id} - WebSocket event stream and actions
//
// Error Handling:
//
// Errors are returned as {"error": "..."}. Unknown sessions and levels map
// to 404, malformed input and invalid levels to 400, everything else to 500.
package api
