package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"github.com/wricardo/mcp-training/linkgame/game/config"
	"github.com/wricardo/mcp-training/linkgame/game/engine"
	"github.com/wricardo/mcp-training/linkgame/game/scores"
	"github.com/wricardo/mcp-training/linkgame/game/service"
	"github.com/wricardo/mcp-training/linkgame/game/session"
	"github.com/wricardo/mcp-training/linkgame/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	CreateSessionFunc  func(ctx context.Context, configName string, seed int64) (*service.SessionInfo, error)
	GetSessionFunc     func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc   func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc  func(ctx context.Context, sessionID string) error
	ClickFunc          func(ctx context.Context, sessionID string, tileID int) (*service.ClickResponse, error)
	GetGameStateFunc   func(ctx context.Context, sessionID string) (*engine.Snapshot, error)
	SetGravityModeFunc func(ctx context.Context, sessionID, mode string) (*service.ActionResponse, error)
	ListScoresFunc     func(ctx context.Context, limit int) ([]engine.ScoreRecord, error)
}

func (m *MockGameService) CreateSession(ctx context.Context, configName string, seed int64) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, configName, seed)
	}
	return &service.SessionInfo{ID: "test", ConfigID: configName, CreatedAt: time.Now()}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, ConfigID: "classic"}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockGameService) Click(ctx context.Context, sessionID string, tileID int) (*service.ClickResponse, error) {
	if m.ClickFunc != nil {
		return m.ClickFunc(ctx, sessionID, tileID)
	}
	return &service.ClickResponse{Result: engine.ClickResult{Action: engine.ClickSelected, TileIDs: []int{tileID}}}, nil
}

func (m *MockGameService) Hint(ctx context.Context, sessionID string) (*service.HintResponse, error) {
	return &service.HintResponse{Found: true, Pair: &engine.HintPair{A: 1, B: 2}}, nil
}

func (m *MockGameService) Shuffle(ctx context.Context, sessionID string) (*service.ActionResponse, error) {
	return &service.ActionResponse{Success: true, Message: "Board shuffled (1/5)"}, nil
}

func (m *MockGameService) Restart(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	return &engine.Snapshot{Status: engine.StatusPlaying, SelectedID: -1}, nil
}

func (m *MockGameService) SetGravityMode(ctx context.Context, sessionID, mode string) (*service.ActionResponse, error) {
	if m.SetGravityModeFunc != nil {
		return m.SetGravityModeFunc(ctx, sessionID, mode)
	}
	return &service.ActionResponse{Success: true}, nil
}

func (m *MockGameService) GetGameState(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID)
	}
	return &engine.Snapshot{Status: engine.StatusPlaying, SelectedID: -1}, nil
}

func (m *MockGameService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	return []*service.ConfigInfo{{ConfigID: "classic", Name: "Classic"}}, nil
}

func (m *MockGameService) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	if configName == "classic" {
		return engine.DefaultGameConfig(), nil
	}
	return nil, config.ErrConfigNotFound
}

func (m *MockGameService) SaveConfig(ctx context.Context, configName string, cfg *engine.GameConfig) error {
	return engine.ValidateGameConfig(cfg)
}

func (m *MockGameService) ListScores(ctx context.Context, limit int) ([]engine.ScoreRecord, error) {
	if m.ListScoresFunc != nil {
		return m.ListScoresFunc(ctx, limit)
	}
	return nil, nil
}

func (m *MockGameService) ClearScores(ctx context.Context) error {
	return nil
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			if err := json.NewEncoder(&buf).Encode(b); err != nil {
				t.Fatalf("Failed to encode body: %v", err)
			}
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

func TestCreateSession(t *testing.T) {
	var gotConfig string
	var gotSeed int64
	mock := &MockGameService{
		CreateSessionFunc: func(ctx context.Context, configName string, seed int64) (*service.SessionInfo, error) {
			if configName == "missing" {
				return nil, fmt.Errorf("config 'missing' not found: %w", config.ErrConfigNotFound)
			}
			gotConfig, gotSeed = configName, seed
			return &service.SessionInfo{ID: "ab12", ConfigID: configName}, nil
		},
	}
	server := NewServer(mock, nil, nil)

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
	}{
		{"with config and seed", map[string]interface{}{"config_id": "down", "seed": 42}, http.StatusCreated},
		{"empty body", nil, http.StatusCreated},
		{"unknown config", map[string]interface{}{"config_id": "missing"}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, server, "POST", "/api/sessions", tt.body)
			if rr.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.wantStatus, rr.Code, rr.Body.String())
			}
		})
	}

	doRequest(t, server, "POST", "/api/sessions", map[string]interface{}{"config_id": "down", "seed": 42})
	if gotConfig != "down" || gotSeed != 42 {
		t.Errorf("Expected config down and seed 42, got %s and %d", gotConfig, gotSeed)
	}
}

func TestListSessions(t *testing.T) {
	now := time.Now()
	mock := &MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{ID: "old", CreatedAt: now.Add(-2 * time.Hour), LastAccessedAt: now.Add(-time.Hour)},
				{ID: "new", CreatedAt: now.Add(-time.Hour), LastAccessedAt: now},
				{ID: "mid", CreatedAt: now.Add(-90 * time.Minute), LastAccessedAt: now.Add(-30 * time.Minute)},
			}, nil
		},
	}
	server := NewServer(mock, nil, nil)

	tests := []struct {
		name      string
		query     string
		wantFirst string
		wantCount int
	}{
		{"default sort by access desc", "", "new", 3},
		{"created ascending", "?sort=created&order=asc", "old", 3},
		{"limit", "?limit=1", "new", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, server, "GET", "/api/sessions"+tt.query, nil)
			if rr.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", rr.Code)
			}
			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			decode(t, rr, &resp)
			if resp.Count != tt.wantCount {
				t.Errorf("Expected count %d, got %d", tt.wantCount, resp.Count)
			}
			if resp.Total != 3 {
				t.Errorf("Expected total 3, got %d", resp.Total)
			}
			if resp.Sessions[0].ID != tt.wantFirst {
				t.Errorf("Expected first session %s, got %s", tt.wantFirst, resp.Sessions[0].ID)
			}
		})
	}
}

func TestSessionNotFound(t *testing.T) {
	notFound := fmt.Errorf("session not found: %w", session.ErrSessionNotFound)
	mock := &MockGameService{
		GetSessionFunc:    func(ctx context.Context, id string) (*service.SessionInfo, error) { return nil, notFound },
		DeleteSessionFunc: func(ctx context.Context, id string) error { return session.ErrSessionNotFound },
		GetGameStateFunc:  func(ctx context.Context, id string) (*engine.Snapshot, error) { return nil, notFound },
		ClickFunc: func(ctx context.Context, id string, tile int) (*service.ClickResponse, error) {
			return nil, notFound
		},
	}
	server := NewServer(mock, nil, nil)

	tests := []struct {
		method string
		path   string
		body   interface{}
	}{
		{"GET", "/api/sessions/zz99", nil},
		{"DELETE", "/api/sessions/zz99", nil},
		{"GET", "/api/sessions/zz99/state", nil},
		{"POST", "/api/sessions/zz99/click", map[string]int{"tile_id": 3}},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rr := doRequest(t, server, tt.method, tt.path, tt.body)
			if rr.Code != http.StatusNotFound {
				t.Errorf("Expected status 404, got %d", rr.Code)
			}
		})
	}
}

func TestClick(t *testing.T) {
	var gotTile int
	mock := &MockGameService{
		ClickFunc: func(ctx context.Context, id string, tile int) (*service.ClickResponse, error) {
			if tile < 0 {
				return nil, service.ErrInvalidTile
			}
			gotTile = tile
			return &service.ClickResponse{Result: engine.ClickResult{Action: engine.ClickSelected, TileIDs: []int{tile}}}, nil
		},
	}
	server := NewServer(mock, nil, nil)

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
	}{
		{"valid", map[string]int{"tile_id": 0}, http.StatusOK},
		{"missing tile", map[string]int{}, http.StatusBadRequest},
		{"malformed", "{not json", http.StatusBadRequest},
		{"negative tile", map[string]int{"tile_id": -4}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, server, "POST", "/api/sessions/ab12/click", tt.body)
			if rr.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.wantStatus, rr.Code, rr.Body.String())
			}
		})
	}

	doRequest(t, server, "POST", "/api/sessions/ab12/click", map[string]int{"tile_id": 17})
	if gotTile != 17 {
		t.Errorf("Expected tile 17, got %d", gotTile)
	}
}

func TestSetMode(t *testing.T) {
	mock := &MockGameService{
		SetGravityModeFunc: func(ctx context.Context, id, mode string) (*service.ActionResponse, error) {
			if mode == "sideways" {
				return nil, fmt.Errorf("%w: %q", service.ErrInvalidGravityMode, mode)
			}
			return &service.ActionResponse{Success: true, Message: "Gravity mode set to " + mode}, nil
		},
	}
	server := NewServer(mock, nil, nil)

	if rr := doRequest(t, server, "POST", "/api/sessions/ab12/mode", map[string]string{"gravity_mode": "down"}); rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}
	if rr := doRequest(t, server, "POST", "/api/sessions/ab12/mode", map[string]string{"gravity_mode": "sideways"}); rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
	if rr := doRequest(t, server, "POST", "/api/sessions/ab12/mode", map[string]string{}); rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for missing mode, got %d", rr.Code)
	}
}

func TestConfigs(t *testing.T) {
	server := NewServer(&MockGameService{}, nil, nil)

	t.Run("list", func(t *testing.T) {
		rr := doRequest(t, server, "GET", "/api/configs", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", rr.Code)
		}
		var configs []*service.ConfigInfo
		decode(t, rr, &configs)
		if len(configs) != 1 || configs[0].ConfigID != "classic" {
			t.Errorf("Unexpected configs: %+v", configs)
		}
	})

	t.Run("get", func(t *testing.T) {
		if rr := doRequest(t, server, "GET", "/api/configs/classic", nil); rr.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", rr.Code)
		}
		if rr := doRequest(t, server, "GET", "/api/configs/nope", nil); rr.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", rr.Code)
		}
	})

	t.Run("create", func(t *testing.T) {
		valid := map[string]interface{}{
			"config_id": "custom", "name": "Custom", "grid_width": 6, "grid_height": 6,
			"kind_count": 9, "gravity_mode": "up", "time_limit": 120, "shuffle_limit": 3,
			"padding": 1, "tile_size": 40, "tile_gap": 4, "match_score": 10, "time_bonus": 2, "highlight_ms": 300,
		}
		if rr := doRequest(t, server, "POST", "/api/configs", valid); rr.Code != http.StatusCreated {
			t.Errorf("Expected status 201, got %d: %s", rr.Code, rr.Body.String())
		}

		noID := map[string]interface{}{"name": "Custom"}
		if rr := doRequest(t, server, "POST", "/api/configs", noID); rr.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", rr.Code)
		}

		invalid := map[string]interface{}{"config_id": "bad", "name": "Bad", "grid_width": 99}
		if rr := doRequest(t, server, "POST", "/api/configs", invalid); rr.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", rr.Code)
		}
	})
}

func TestListScores(t *testing.T) {
	var gotLimit int
	mock := &MockGameService{
		ListScoresFunc: func(ctx context.Context, limit int) ([]engine.ScoreRecord, error) {
			gotLimit = limit
			if limit == 99 {
				return nil, errors.New("store unavailable")
			}
			return []engine.ScoreRecord{{ID: "a", FinalScore: 500}}, nil
		},
	}
	server := NewServer(mock, nil, nil)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantLimit  int
	}{
		{"default", "", http.StatusOK, 0},
		{"explicit", "?limit=3", http.StatusOK, 3},
		{"bad limit", "?limit=abc", http.StatusBadRequest, -1},
		{"store error", "?limit=99", http.StatusInternalServerError, 99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotLimit = -1
			rr := doRequest(t, server, "GET", "/api/scores"+tt.query, nil)
			if rr.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if gotLimit != tt.wantLimit {
				t.Errorf("Expected limit %d, got %d", tt.wantLimit, gotLimit)
			}
		})
	}

	if rr := doRequest(t, server, "DELETE", "/api/scores", nil); rr.Code != http.StatusOK {
		t.Errorf("Expected status 200 for clear, got %d", rr.Code)
	}
}

func TestHealth(t *testing.T) {
	server := NewServer(&MockGameService{}, nil, nil)
	for _, path := range []string{"/health", "/api/health"} {
		rr := doRequest(t, server, "GET", path, nil)
		if rr.Code != http.StatusOK {
			t.Errorf("Expected status 200 for %s, got %d", path, rr.Code)
		}
	}
}

func TestHandleAction(t *testing.T) {
	var clicked int
	mock := &MockGameService{
		ClickFunc: func(ctx context.Context, id string, tile int) (*service.ClickResponse, error) {
			clicked = tile
			return &service.ClickResponse{}, nil
		},
	}
	server := NewServer(mock, nil, nil)
	ctx := context.Background()

	if err := server.HandleAction(ctx, "ab12", websocket.ClientMessage{Action: "click", TileID: 5}); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if clicked != 5 {
		t.Errorf("Expected tile 5 clicked, got %d", clicked)
	}
	for _, action := range []string{"hint", "shuffle", "restart", "mode"} {
		if err := server.HandleAction(ctx, "ab12", websocket.ClientMessage{Action: action, GravityMode: "down"}); err != nil {
			t.Errorf("Unexpected error for %s: %v", action, err)
		}
	}
	if err := server.HandleAction(ctx, "ab12", websocket.ClientMessage{Action: "dance"}); err == nil {
		t.Error("Expected error for unknown action")
	}
}

// newIntegrationServer wires the real service stack over a temp level directory
func newIntegrationServer(t *testing.T) (*Server, *websocket.Hub) {
	t.Helper()
	dir := t.TempDir()
	level := `{"name": "Tiny", "grid_width": 2, "grid_height": 2, "kind_count": 1, "gravity_mode": "down", "time_limit": 60, "shuffle_limit": 2, "allow_mode_change": true}`
	if err := os.WriteFile(filepath.Join(dir, "tiny.json"), []byte(level), 0644); err != nil {
		t.Fatalf("Failed to write level: %v", err)
	}

	configs, err := config.NewManager(dir, nil)
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}
	sessions := session.NewManager(nil)
	t.Cleanup(sessions.CloseAll)

	hub := websocket.NewHub(nil)
	svc := service.NewGameService(sessions, configs,
		service.WithScoreStore(scores.NewMemoryStore()),
		service.WithNotifier(hub))
	server := NewServer(svc, hub, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	return server, hub
}

func TestIntegration_PlayToWin(t *testing.T) {
	server, _ := newIntegrationServer(t)

	rr := doRequest(t, server, "POST", "/api/sessions", map[string]interface{}{"config_id": "tiny", "seed": 11})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var info service.SessionInfo
	decode(t, rr, &info)
	if info.State == nil || info.State.Remaining != 4 {
		t.Fatalf("Expected a dealt 2x2 board, got %+v", info.State)
	}

	for i := 0; i < 2; i++ {
		rr = doRequest(t, server, "POST", "/api/sessions/"+info.ID+"/hint", nil)
		var hint service.HintResponse
		decode(t, rr, &hint)
		if !hint.Found {
			t.Fatalf("Expected a hint on round %d", i)
		}
		doRequest(t, server, "POST", "/api/sessions/"+info.ID+"/click", map[string]int{"tile_id": hint.Pair.A})
		rr = doRequest(t, server, "POST", "/api/sessions/"+info.ID+"/click", map[string]int{"tile_id": hint.Pair.B})
		var click service.ClickResponse
		decode(t, rr, &click)
		if click.Result.Action != engine.ClickMatched {
			t.Fatalf("Expected match, got %s", click.Result.Action)
		}
	}

	rr = doRequest(t, server, "GET", "/api/sessions/"+info.ID+"/state", nil)
	var state engine.Snapshot
	decode(t, rr, &state)
	if state.Status != engine.StatusSuccess {
		t.Errorf("Expected success, got %s", state.Status)
	}

	rr = doRequest(t, server, "GET", "/api/scores", nil)
	var scoresResp struct {
		Count  int                  `json:"count"`
		Scores []engine.ScoreRecord `json:"scores"`
	}
	decode(t, rr, &scoresResp)
	if scoresResp.Count != 1 || scoresResp.Scores[0].FinalScore != state.Score {
		t.Errorf("Expected one score of %d, got %+v", state.Score, scoresResp)
	}

	if rr := doRequest(t, server, "DELETE", "/api/sessions/"+info.ID, nil); rr.Code != http.StatusOK {
		t.Errorf("Expected status 200 on delete, got %d", rr.Code)
	}
	if rr := doRequest(t, server, "GET", "/api/sessions/"+info.ID, nil); rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 after delete, got %d", rr.Code)
	}
}

func TestIntegration_WebSocket(t *testing.T) {
	server, _ := newIntegrationServer(t)
	ts := httptest.NewServer(server)
	defer ts.Close()

	t.Run("missing session parameter", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/ws")
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", resp.StatusCode)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/ws?session=nope")
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", resp.StatusCode)
		}
	})

	t.Run("actions over the socket", func(t *testing.T) {
		rr := doRequest(t, server, "POST", "/api/sessions", map[string]interface{}{"config_id": "tiny", "seed": 3})
		var info service.SessionInfo
		decode(t, rr, &info)

		wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?session=" + info.ID
		conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			t.Fatalf("Failed to connect: %v", err)
		}
		defer conn.Close()

		var msg websocket.Message
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("Failed to read initial state: %v", err)
		}
		if msg.Event != "state" || msg.State == nil {
			t.Fatalf("Expected initial state, got %+v", msg)
		}

		tile := msg.State.Tiles[0].ID
		if err := conn.WriteJSON(websocket.ClientMessage{Action: "click", TileID: tile}); err != nil {
			t.Fatalf("Failed to send click: %v", err)
		}

		for {
			conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			if err := conn.ReadJSON(&msg); err != nil {
				t.Fatalf("Failed to read event: %v", err)
			}
			if msg.Event == engine.EventSelected {
				break
			}
		}
		if msg.State.SelectedID != tile {
			t.Errorf("Expected tile %d selected, got %d", tile, msg.State.SelectedID)
		}
	})
}
