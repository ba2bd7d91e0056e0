package terminal

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/linkgame/game/engine"
)

const (
	// cellWidth is the number of screen columns per board cell
	cellWidth = 3
	boardLeft = 2
	boardTop  = 2

	frameInterval = 16 * time.Millisecond
)

var kindColors = []tcell.Color{
	tcell.ColorRed, tcell.ColorGreen, tcell.ColorYellow, tcell.ColorBlue,
	tcell.ColorFuchsia, tcell.ColorAqua, tcell.ColorOrange, tcell.ColorWhite,
	tcell.ColorLime, tcell.ColorPink, tcell.ColorSilver, tcell.ColorTeal,
}

// Controller runs fn against a session's engine on the session loop
type Controller interface {
	Do(ctx context.Context, fn func(*engine.GameEngine)) error
}

// UI draws one session on a tcell screen and turns keys and mouse clicks
// into engine operations
type UI struct {
	screen tcell.Screen
	ctrl   Controller
	logger *zap.Logger

	snap      *engine.Snapshot
	cursorCol int
	cursorRow int
	message   string
}

// New creates a UI. The caller owns the screen and must Init and Fini it.
func New(screen tcell.Screen, ctrl Controller, logger *zap.Logger) *UI {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UI{
		screen: screen,
		ctrl:   ctrl,
		logger: logger,
	}
}

// Run polls input and redraws until the player quits or ctx is cancelled
func (u *UI) Run(ctx context.Context) error {
	u.screen.EnableMouse()
	defer u.screen.DisableMouse()

	events := make(chan tcell.Event, 100)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := u.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	if err := u.Refresh(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if !u.HandleEvent(ctx, ev) {
				return nil
			}
			if err := u.Refresh(ctx); err != nil {
				return err
			}
		case <-ticker.C:
			if err := u.Refresh(ctx); err != nil {
				return err
			}
		}
	}
}

// Refresh takes a fresh snapshot and draws it
func (u *UI) Refresh(ctx context.Context) error {
	var snap *engine.Snapshot
	if err := u.ctrl.Do(ctx, func(e *engine.GameEngine) {
		snap = e.Snapshot()
	}); err != nil {
		return err
	}
	u.snap = snap
	u.Draw()
	return nil
}

// HandleEvent applies one input event; it returns false when the player quits
func (u *UI) HandleEvent(ctx context.Context, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return u.handleKey(ctx, ev)

	case *tcell.EventMouse:
		if ev.Buttons()&tcell.Button1 == 0 {
			return true
		}
		x, y := ev.Position()
		if col, row, ok := u.cellAt(x, y); ok {
			u.cursorCol, u.cursorRow = col, row
			u.click(ctx)
		}

	case *tcell.EventResize:
		u.screen.Sync()
	}
	return true
}

func (u *UI) handleKey(ctx context.Context, ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyUp:
		u.moveCursor(0, -1)
	case tcell.KeyDown:
		u.moveCursor(0, 1)
	case tcell.KeyLeft:
		u.moveCursor(-1, 0)
	case tcell.KeyRight:
		u.moveCursor(1, 0)
	case tcell.KeyEnter:
		u.click(ctx)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return false
		case 'k':
			u.moveCursor(0, -1)
		case 'j':
			u.moveCursor(0, 1)
		case 'h':
			u.moveCursor(-1, 0)
		case 'l':
			u.moveCursor(1, 0)
		case ' ':
			u.click(ctx)
		case '?':
			u.hint(ctx)
		case 's':
			u.shuffle(ctx)
		case 'g':
			u.cycleGravity(ctx)
		case 'r':
			u.restart(ctx)
		}
	}
	return true
}

func (u *UI) moveCursor(dc, dr int) {
	if u.snap == nil {
		return
	}
	u.cursorCol = clamp(u.cursorCol+dc, 0, u.snap.Width-1)
	u.cursorRow = clamp(u.cursorRow+dr, 0, u.snap.Height-1)
}

func (u *UI) click(ctx context.Context) {
	col, row := u.cursorCol, u.cursorRow
	err := u.ctrl.Do(ctx, func(e *engine.GameEngine) {
		tile := e.Grid().TileAt(col, row)
		if tile == nil {
			u.message = ""
			return
		}
		res := e.HandleClick(tile.ID)
		switch res.Action {
		case engine.ClickMatched:
			u.message = fmt.Sprintf("Matched! +%d", res.ScoreDelta)
		case engine.ClickIgnored:
			u.message = ""
		default:
			u.message = string(res.Action)
		}
	})
	u.report("click", err)
}

func (u *UI) hint(ctx context.Context) {
	err := u.ctrl.Do(ctx, func(e *engine.GameEngine) {
		if _, ok := e.Hint(); ok {
			u.message = "Hint shown"
		} else {
			u.message = "No pair available"
		}
	})
	u.report("hint", err)
}

func (u *UI) shuffle(ctx context.Context) {
	err := u.ctrl.Do(ctx, func(e *engine.GameEngine) {
		if e.Shuffle() {
			u.message = "Shuffled"
		} else {
			u.message = "Cannot shuffle"
		}
	})
	u.report("shuffle", err)
}

func (u *UI) restart(ctx context.Context) {
	err := u.ctrl.Do(ctx, func(e *engine.GameEngine) {
		e.Restart()
		u.message = "New board"
	})
	u.report("restart", err)
}

// cycleGravity switches to the next mode when the level allows it
func (u *UI) cycleGravity(ctx context.Context) {
	err := u.ctrl.Do(ctx, func(e *engine.GameEngine) {
		modes := engine.GravityModes()
		next := modes[0]
		for i, m := range modes {
			if m == e.GravityMode() {
				next = modes[(i+1)%len(modes)]
				break
			}
		}
		if e.SetGravityMode(next) {
			u.message = "Gravity " + string(next)
		} else {
			u.message = "Gravity is fixed on this level"
		}
	})
	u.report("gravity", err)
}

func (u *UI) report(op string, err error) {
	if err != nil {
		u.logger.Warn("terminal action failed", zap.String("op", op), zap.Error(err))
		u.message = err.Error()
	}
}

// cellAt maps a screen position to a board cell
func (u *UI) cellAt(x, y int) (int, int, bool) {
	if u.snap == nil {
		return 0, 0, false
	}
	col := (x-boardLeft)/cellWidth - 1
	row := y - boardTop - 1
	if x < boardLeft || col < 0 || row < 0 || col >= u.snap.Width || row >= u.snap.Height {
		return 0, 0, false
	}
	return col, row, true
}

// screenPos returns the left screen column and row of a board cell.
// The padding ring sits at col or row -1 and Width or Height.
func screenPos(col, row int) (int, int) {
	return boardLeft + (col+1)*cellWidth, boardTop + row + 1
}

// Draw renders the last snapshot
func (u *UI) Draw() {
	u.screen.Clear()
	snap := u.snap
	if snap == nil {
		u.screen.Show()
		return
	}

	header := fmt.Sprintf("%s   Score %d   Time %ds   Shuffles %d/%d   Gravity %s",
		snap.Level, snap.Score, snap.TimeLeft, snap.ShuffleCount, snap.ShuffleLimit, snap.GravityMode)
	u.drawText(0, 0, tcell.StyleDefault.Bold(true), header)

	u.drawFrame(snap)
	u.drawPath(snap)

	cursorStyle := tcell.StyleDefault.Background(tcell.ColorDarkSlateGray)
	cx, cy := screenPos(u.cursorCol, u.cursorRow)
	u.drawText(cx, cy, cursorStyle, "   ")

	hinted := map[int]bool{}
	if snap.Hint != nil {
		hinted[snap.Hint.A] = true
		hinted[snap.Hint.B] = true
	}

	pitch := snap.Pitch
	if pitch <= 0 {
		pitch = 1
	}
	for _, tile := range snap.Tiles {
		if tile.Matched {
			continue
		}
		// Sliding tiles are drawn at their current pixel position
		col := int(math.Round(tile.X / pitch))
		row := int(math.Round(tile.Y / pitch))
		x, y := screenPos(col, row)

		style := tcell.StyleDefault.Foreground(kindColors[tile.Kind%len(kindColors)])
		if col == u.cursorCol && row == u.cursorRow {
			style = style.Background(tcell.ColorDarkSlateGray)
		}
		if tile.ID == snap.SelectedID {
			style = style.Reverse(true)
		}
		if hinted[tile.ID] {
			style = style.Underline(true).Bold(true)
		}
		u.drawText(x, y, style, " "+kindLabel(tile.Kind)+" ")
	}

	_, bottom := screenPos(0, snap.Height+1)
	status := fmt.Sprintf("Tiles left %d", snap.Remaining)
	switch snap.Status {
	case engine.StatusSuccess:
		status += "   BOARD CLEARED!"
	case engine.StatusFailed:
		status += "   GAME OVER"
	case engine.StatusPlaying:
		if !snap.ClockStarted {
			status += "   clock starts on first click"
		}
	}
	u.drawText(0, bottom, tcell.StyleDefault, status)
	if u.message != "" {
		u.drawText(0, bottom+1, tcell.StyleDefault.Foreground(tcell.ColorYellow), u.message)
	}
	u.drawText(0, bottom+2, tcell.StyleDefault.Dim(true),
		"arrows/hjkl move  space click  ? hint  s shuffle  g gravity  r restart  q quit")

	u.screen.Show()
}

func (u *UI) drawFrame(snap *engine.Snapshot) {
	style := tcell.StyleDefault.Foreground(tcell.ColorGray)
	left, top := screenPos(-1, -1)
	right, bottom := screenPos(snap.Width, snap.Height)
	right += cellWidth - 1
	for x := left; x <= right; x++ {
		u.screen.SetContent(x, top, '─', nil, style)
		u.screen.SetContent(x, bottom, '─', nil, style)
	}
	for y := top; y <= bottom; y++ {
		u.screen.SetContent(left, y, '│', nil, style)
		u.screen.SetContent(right, y, '│', nil, style)
	}
	u.screen.SetContent(left, top, '┌', nil, style)
	u.screen.SetContent(right, top, '┐', nil, style)
	u.screen.SetContent(left, bottom, '└', nil, style)
	u.screen.SetContent(right, bottom, '┘', nil, style)
}

// drawPath marks the cells of the last match path while its highlight lives
func (u *UI) drawPath(snap *engine.Snapshot) {
	if snap.Highlight == nil || len(snap.Highlight.Path) < 2 || snap.Pitch <= 0 {
		return
	}
	style := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	cell := func(p engine.Point) (int, int) {
		return int(math.Floor(p.X / snap.Pitch)), int(math.Floor(p.Y / snap.Pitch))
	}
	for i := 1; i < len(snap.Highlight.Path); i++ {
		c0, r0 := cell(snap.Highlight.Path[i-1])
		c1, r1 := cell(snap.Highlight.Path[i])
		for c, r := c0, r0; ; {
			x, y := screenPos(c, r)
			u.screen.SetContent(x+1, y, '•', nil, style)
			if c == c1 && r == r1 {
				break
			}
			c += sign(c1 - c)
			r += sign(r1 - r)
		}
	}
}

func (u *UI) drawText(x, y int, style tcell.Style, text string) {
	for _, r := range text {
		u.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func kindLabel(kind int) string {
	const labels = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789@#"
	if kind >= 0 && kind < len(labels) {
		return labels[kind : kind+1]
	}
	return "?"
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
