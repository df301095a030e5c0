package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evanschultz/ngoboard/internal/adapters/server/common"
)

// stubBoards satisfies common.BoardService with fixed data.
type stubBoards struct {
	empty bool
}

func (s stubBoards) ListBoards(context.Context) ([]common.BoardSummary, error) {
	if s.empty {
		return nil, nil
	}
	return []common.BoardSummary{{ID: "tasks", Name: "Tasks", Kind: "tasks"}}, nil
}

func (stubBoards) GetBoard(_ context.Context, id string) (common.BoardDetail, error) {
	return common.BoardDetail{BoardSummary: common.BoardSummary{ID: id}}, nil
}

func (stubBoards) MoveTask(_ context.Context, req common.MoveTaskRequest) (common.TaskDetail, error) {
	return common.TaskDetail{ID: req.TaskID}, nil
}

func (stubBoards) ListEvents(context.Context, common.ListEventsRequest) ([]common.EventDetail, error) {
	return nil, nil
}

// TestNormalizeConfigDefaults verifies serve defaults.
func TestNormalizeConfigDefaults(t *testing.T) {
	cfg, err := normalizeConfig(Config{})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:5437", cfg.HTTPBind)
	assert.Equal(t, "/api/v1", cfg.APIEndpoint)
	assert.Equal(t, "/mcp", cfg.MCPEndpoint)
	assert.Equal(t, "ngoboard", cfg.ServerName)
}

// TestNormalizeConfigRejectsCollision verifies api and mcp endpoints must differ.
func TestNormalizeConfigRejectsCollision(t *testing.T) {
	_, err := normalizeConfig(Config{APIEndpoint: "/x/", MCPEndpoint: "x"})
	require.Error(t, err)
}

// TestNormalizeEndpoint verifies endpoint cleanup.
func TestNormalizeEndpoint(t *testing.T) {
	assert.Equal(t, "/api/v2", normalizeEndpoint(" api/v2/ ", "/api/v1"))
	assert.Equal(t, "/api/v1", normalizeEndpoint("/", "/api/v1"))
	assert.Equal(t, "/api/v1", normalizeEndpoint("", "/api/v1"))
}

// TestNewHandlerRequiresBoards verifies the board dependency is mandatory.
func TestNewHandlerRequiresBoards(t *testing.T) {
	_, _, err := NewHandler(Config{}, Dependencies{})
	require.Error(t, err)
}

// TestNewHandlerRoutes verifies health and API mounting.
func TestNewHandlerRoutes(t *testing.T) {
	handler, _, err := NewHandler(Config{}, Dependencies{Boards: stubBoards{}})
	require.NoError(t, err)

	for _, path := range []string{"/healthz", "/readyz", "/api/v1/boards", "/api/v1/boards/tasks"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

// recordingLogger collects debug lines.
type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) Debug(msg any, keyvals ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprint(append([]any{msg}, keyvals...)...))
}

// TestReadyzProbesStorageAndBoards verifies readiness reflects storage and board state.
func TestReadyzProbesStorageAndBoards(t *testing.T) {
	tests := []struct {
		name     string
		deps     Dependencies
		wantCode int
		wantBody string
	}{
		{name: "ready", deps: Dependencies{Boards: stubBoards{}, Ready: func(context.Context) error { return nil }}, wantCode: http.StatusOK, wantBody: `"boards":1`},
		{name: "storage down", deps: Dependencies{Boards: stubBoards{}, Ready: func(context.Context) error { return errors.New("database is locked") }}, wantCode: http.StatusServiceUnavailable, wantBody: "database is locked"},
		{name: "no boards", deps: Dependencies{Boards: stubBoards{empty: true}}, wantCode: http.StatusServiceUnavailable, wantBody: "no boards configured"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler, _, err := NewHandler(Config{}, tc.deps)
			require.NoError(t, err)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			assert.Equal(t, tc.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.wantBody)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

// TestHealthzRejectsWrites verifies probes are read-only.
func TestHealthzRejectsWrites(t *testing.T) {
	handler, _, err := NewHandler(Config{}, Dependencies{Boards: stubBoards{}})
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

// TestNewHandlerLogsRequests verifies the request log line carries method, path and status.
func TestNewHandlerLogsRequests(t *testing.T) {
	logger := &recordingLogger{}
	handler, _, err := NewHandler(Config{}, Dependencies{Boards: stubBoards{}, Logger: logger})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	require.Len(t, logger.lines, 1)
	assert.Contains(t, logger.lines[0], "/api/v1/nope")
	assert.Contains(t, logger.lines[0], "404")
}

// TestRunReportsBindFailure verifies an occupied address fails fast.
func TestRunReportsBindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	err = Run(context.Background(), Config{HTTPBind: ln.Addr().String()}, Dependencies{Boards: stubBoards{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen on")
}

// TestRunStopsOnCancel verifies graceful shutdown.
func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Config{HTTPBind: "127.0.0.1:0"}, Dependencies{Boards: stubBoards{}})
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
