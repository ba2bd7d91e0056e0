package terminal

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/wricardo/mcp-training/linkgame/game/engine"
)

// directController runs engine calls inline under a mutex
type directController struct {
	mu sync.Mutex
	e  *engine.GameEngine
}

func (c *directController) Do(ctx context.Context, fn func(*engine.GameEngine)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.e)
	return nil
}

func newTestUI(t *testing.T) (*UI, tcell.SimulationScreen, *directController) {
	t.Helper()

	config := engine.DefaultGameConfig()
	config.Name = "Tiny"
	config.GridWidth = 2
	config.GridHeight = 2
	config.KindCount = 1
	config.Seed = 3

	e, err := engine.NewEngine(config)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	e.Start()

	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("Failed to init screen: %v", err)
	}
	t.Cleanup(screen.Fini)
	screen.SetSize(80, 24)

	ctrl := &directController{e: e}
	ui := New(screen, ctrl, nil)
	if err := ui.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	return ui, screen, ctrl
}

func runeAt(screen tcell.SimulationScreen, x, y int) rune {
	r, _, _, _ := screen.GetContent(x, y)
	return r
}

func lineAt(screen tcell.SimulationScreen, y int) string {
	w, _ := screen.Size()
	var b strings.Builder
	for x := 0; x < w; x++ {
		b.WriteRune(runeAt(screen, x, y))
	}
	return b.String()
}

func TestDrawBoard(t *testing.T) {
	_, screen, _ := newTestUI(t)

	if header := lineAt(screen, 0); !strings.Contains(header, "Tiny") || !strings.Contains(header, "Score 0") {
		t.Errorf("Unexpected header: %q", header)
	}

	for row := 0; row < 2; row++ {
		for col := 0; col < 2; col++ {
			x, y := screenPos(col, row)
			if got := runeAt(screen, x+1, y); got != 'A' {
				t.Errorf("Expected tile A at cell (%d,%d), got %q", col, row, got)
			}
		}
	}

	left, top := screenPos(-1, -1)
	if got := runeAt(screen, left, top); got != '┌' {
		t.Errorf("Expected frame corner, got %q", got)
	}
}

func TestKeyboardMatch(t *testing.T) {
	ui, screen, ctrl := newTestUI(t)
	ctx := context.Background()

	ui.HandleEvent(ctx, tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone))
	ui.Refresh(ctx)
	if ui.snap.SelectedID < 0 {
		t.Fatal("Expected space to select the tile under the cursor")
	}

	ui.HandleEvent(ctx, tcell.NewEventKey(tcell.KeyRune, 'l', tcell.ModNone))
	if ui.cursorCol != 1 || ui.cursorRow != 0 {
		t.Errorf("Expected cursor at (1,0), got (%d,%d)", ui.cursorCol, ui.cursorRow)
	}
	ui.HandleEvent(ctx, tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone))
	if ui.cursorCol != 1 {
		t.Errorf("Expected cursor clamped to the board, got col %d", ui.cursorCol)
	}

	ui.HandleEvent(ctx, tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone))
	ui.Refresh(ctx)

	if !strings.HasPrefix(ui.message, "Matched!") {
		t.Errorf("Expected match message, got %q", ui.message)
	}
	var remaining int
	ctrl.Do(ctx, func(e *engine.GameEngine) { remaining = e.Snapshot().Remaining })
	if remaining != 2 {
		t.Errorf("Expected 2 tiles left, got %d", remaining)
	}

	found := false
	for y := 0; y < 24; y++ {
		if strings.Contains(lineAt(screen, y), "Tiles left 2") {
			found = true
		}
	}
	if !found {
		t.Error("Expected status line to show the remaining tiles")
	}
}

func TestMouseClick(t *testing.T) {
	ui, _, _ := newTestUI(t)
	ctx := context.Background()

	x, y := screenPos(1, 1)
	ui.HandleEvent(ctx, tcell.NewEventMouse(x+1, y, tcell.Button1, tcell.ModNone))
	ui.Refresh(ctx)

	if ui.cursorCol != 1 || ui.cursorRow != 1 {
		t.Errorf("Expected cursor at (1,1), got (%d,%d)", ui.cursorCol, ui.cursorRow)
	}
	if ui.snap.SelectedID < 0 {
		t.Error("Expected mouse click to select a tile")
	}

	// Moves without a button press are ignored
	ui.HandleEvent(ctx, tcell.NewEventMouse(0, 0, tcell.ButtonNone, tcell.ModNone))
	if ui.cursorCol != 1 || ui.cursorRow != 1 {
		t.Error("Expected cursor to stay put on mouse motion")
	}
}

func TestCellAt(t *testing.T) {
	ui, _, _ := newTestUI(t)

	tests := []struct {
		name     string
		col, row int
		ok       bool
	}{
		{"top left", 0, 0, true},
		{"bottom right", 1, 1, true},
		{"padding ring", -1, 0, false},
		{"past the board", 2, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := screenPos(tt.col, tt.row)
			col, row, ok := ui.cellAt(x+1, y)
			if ok != tt.ok {
				t.Fatalf("Expected ok=%v, got %v", tt.ok, ok)
			}
			if ok && (col != tt.col || row != tt.row) {
				t.Errorf("Expected (%d,%d), got (%d,%d)", tt.col, tt.row, col, row)
			}
		})
	}
}

func TestActionKeys(t *testing.T) {
	ui, _, _ := newTestUI(t)
	ctx := context.Background()

	ui.HandleEvent(ctx, tcell.NewEventKey(tcell.KeyRune, '?', tcell.ModNone))
	ui.Refresh(ctx)
	if ui.message != "Hint shown" || ui.snap.Hint == nil {
		t.Errorf("Expected a hint, got message %q", ui.message)
	}

	ui.HandleEvent(ctx, tcell.NewEventKey(tcell.KeyRune, 'g', tcell.ModNone))
	if ui.message != "Gravity is fixed on this level" {
		t.Errorf("Expected fixed gravity message, got %q", ui.message)
	}

	ui.HandleEvent(ctx, tcell.NewEventKey(tcell.KeyRune, 's', tcell.ModNone))
	ui.Refresh(ctx)
	if ui.message != "Shuffled" || ui.snap.ShuffleCount != 1 {
		t.Errorf("Expected one shuffle, got %q (%d)", ui.message, ui.snap.ShuffleCount)
	}

	ui.HandleEvent(ctx, tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone))
	ui.Refresh(ctx)
	if ui.snap.ShuffleCount != 0 || ui.snap.Remaining != 4 {
		t.Errorf("Expected a fresh board after restart, got %+v", ui.snap)
	}

	if ui.HandleEvent(ctx, tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)) {
		t.Error("Expected q to quit")
	}
	if ui.HandleEvent(ctx, tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) {
		t.Error("Expected Escape to quit")
	}
}

func TestRunQuitsOnKey(t *testing.T) {
	ui, screen, _ := newTestUI(t)

	done := make(chan error, 1)
	go func() {
		done <- ui.Run(context.Background())
	}()

	time.Sleep(50 * time.Millisecond)
	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after q")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ui, _, _ := newTestUI(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ui.Run(ctx)
	}()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
