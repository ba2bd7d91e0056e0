// Package terminal renders a link-match session in a terminal with tcell.
//
// The UI never touches the engine directly: every read and every action goes
// through a Controller, normally a session whose Do runs the function on the
// session loop. The screen is redrawn from a fresh snapshot roughly sixty
// times a second so sliding tiles animate.
//
// Controls:
//   - arrows or h/j/k/l move the cursor, space or enter clicks
//   - left mouse button clicks the tile under the pointer
//   - ? hint, s shuffle, g next gravity mode, r restart, q or Esc quit
package terminal
