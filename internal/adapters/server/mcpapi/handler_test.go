package mcpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evanschultz/ngoboard/internal/adapters/server/common"
)

// stubBoardService provides deterministic board responses for MCP tool tests.
type stubBoardService struct {
	boards   []common.BoardSummary
	board    common.BoardDetail
	moved    common.TaskDetail
	events   []common.EventDetail
	err      error
	lastMove common.MoveTaskRequest
	lastList common.ListEventsRequest
}

func (s *stubBoardService) ListBoards(context.Context) ([]common.BoardSummary, error) {
	return s.boards, s.err
}

func (s *stubBoardService) GetBoard(context.Context, string) (common.BoardDetail, error) {
	return s.board, s.err
}

func (s *stubBoardService) MoveTask(_ context.Context, req common.MoveTaskRequest) (common.TaskDetail, error) {
	s.lastMove = req
	return s.moved, s.err
}

func (s *stubBoardService) ListEvents(_ context.Context, req common.ListEventsRequest) ([]common.EventDetail, error) {
	s.lastList = req
	return s.events, s.err
}

// jsonRPCResponse models minimal JSON-RPC response fields used in MCP adapter tests.
type jsonRPCResponse struct {
	ID     float64        `json:"id"`
	Result map[string]any `json:"result"`
}

// postJSONRPC sends one JSON-RPC payload and decodes the response body.
func postJSONRPC(t *testing.T, client *http.Client, url string, payload any) (*http.Response, jsonRPCResponse) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var decoded jsonRPCResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

// initializeRequest builds a deterministic MCP initialize request payload.
func initializeRequest() map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params": map[string]any{
			"protocolVersion": mcp.LATEST_PROTOCOL_VERSION,
			"clientInfo": map[string]any{
				"name":    "ngoboard-test",
				"version": "1.0.0",
			},
		},
	}
}

// callTool posts one tools/call request and returns the result map.
func callTool(t *testing.T, server *httptest.Server, id int, name string, args map[string]any) map[string]any {
	t.Helper()
	_, resp := postJSONRPC(t, server.Client(), server.URL, map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      name,
			"arguments": args,
		},
	})
	require.NotNil(t, resp.Result, "tool %s returned no result", name)
	return resp.Result
}

// toolResultText decodes the first text entry from one tool-call result payload.
func toolResultText(t *testing.T, result map[string]any) string {
	t.Helper()
	content, ok := result["content"].([]any)
	require.True(t, ok && len(content) > 0, "content missing in tool result: %#v", result)
	first, ok := content[0].(map[string]any)
	require.True(t, ok, "unexpected content entry %#v", content[0])
	text, _ := first["text"].(string)
	return text
}

// newTestServer starts an httptest server over a handler built from svc.
func newTestServer(t *testing.T, svc common.BoardService) *httptest.Server {
	t.Helper()
	handler, err := NewHandler(Config{}, svc)
	require.NoError(t, err)
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	_, _ = postJSONRPC(t, server.Client(), server.URL, initializeRequest())
	return server
}

// TestNewHandlerRequiresService verifies a nil service is rejected.
func TestNewHandlerRequiresService(t *testing.T) {
	_, err := NewHandler(Config{}, nil)
	require.Error(t, err)
}

// TestHandlerUsesStatelessTransport verifies MCP transport does not issue session ids.
func TestHandlerUsesStatelessTransport(t *testing.T) {
	handler, err := NewHandler(Config{}, &stubBoardService{})
	require.NoError(t, err)
	server := httptest.NewServer(handler)
	defer server.Close()

	resp, decoded := postJSONRPC(t, server.Client(), server.URL, initializeRequest())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), decoded.ID)
	assert.Empty(t, resp.Header.Get("Mcp-Session-Id"))
}

// TestHandlerRegistersBoardTools verifies tool discovery.
func TestHandlerRegistersBoardTools(t *testing.T) {
	server := newTestServer(t, &stubBoardService{})
	_, toolsResp := postJSONRPC(t, server.Client(), server.URL, map[string]any{
		"jsonrpc": "2.0",
		"id":      2,
		"method":  "tools/list",
	})
	toolsRaw, ok := toolsResp.Result["tools"].([]any)
	require.True(t, ok, "tools list payload missing tools: %#v", toolsResp.Result)

	var names []string
	for _, raw := range toolsRaw {
		if tool, ok := raw.(map[string]any); ok {
			name, _ := tool["name"].(string)
			names = append(names, name)
		}
	}
	assert.ElementsMatch(t, []string{
		"ngoboard.list_boards",
		"ngoboard.get_board",
		"ngoboard.list_events",
		"ngoboard.move_task",
	}, names)
}

// TestMoveTaskTool verifies argument decoding for move_task.
func TestMoveTaskTool(t *testing.T) {
	svc := &stubBoardService{moved: common.TaskDetail{ID: "t1", Status: "screening"}}
	server := newTestServer(t, svc)

	result := callTool(t, server, 3, "ngoboard.move_task", map[string]any{
		"task_id":      "t1",
		"to_column_id": "recruitment-screening",
		"index":        2,
		"actor":        "agent",
	})
	assert.NotEqual(t, true, result["isError"])
	assert.Equal(t, common.MoveTaskRequest{
		TaskID:     "t1",
		ToColumnID: "recruitment-screening",
		Index:      2,
		Actor:      "agent",
	}, svc.lastMove)
	assert.Contains(t, toolResultText(t, result), `"status":"screening"`)
}

// TestListEventsToolDefaultsLimit verifies the default event limit.
func TestListEventsToolDefaultsLimit(t *testing.T) {
	svc := &stubBoardService{events: []common.EventDetail{{ID: 1, Operation: "move"}}}
	server := newTestServer(t, svc)

	result := callTool(t, server, 4, "ngoboard.list_events", map[string]any{"board_id": "tasks"})
	assert.NotEqual(t, true, result["isError"])
	assert.Equal(t, common.ListEventsRequest{BoardID: "tasks", Limit: 25}, svc.lastList)
}

// TestToolErrorsArePrefixed verifies error categories surface as tool error prefixes.
func TestToolErrorsArePrefixed(t *testing.T) {
	cases := []struct {
		err    error
		prefix string
	}{
		{err: fmt.Errorf("move task: %w", common.ErrMoveRejected), prefix: "rejected:"},
		{err: common.ErrNotFound, prefix: "not_found:"},
		{err: common.ErrInvalidRequest, prefix: "invalid_request:"},
		{err: errors.New("boom"), prefix: "internal_error:"},
	}
	for i, tc := range cases {
		t.Run(tc.prefix, func(t *testing.T) {
			server := newTestServer(t, &stubBoardService{err: tc.err})
			result := callTool(t, server, 10+i, "ngoboard.move_task", map[string]any{
				"task_id":      "t1",
				"to_column_id": "c",
				"index":        0,
			})
			assert.Equal(t, true, result["isError"])
			assert.True(t, strings.HasPrefix(toolResultText(t, result), tc.prefix), toolResultText(t, result))
		})
	}
}

// TestMoveTaskToolRequiresArguments verifies missing arguments become tool errors.
func TestMoveTaskToolRequiresArguments(t *testing.T) {
	svc := &stubBoardService{}
	server := newTestServer(t, svc)
	result := callTool(t, server, 20, "ngoboard.move_task", map[string]any{"task_id": "t1"})
	assert.Equal(t, true, result["isError"])
	assert.Empty(t, svc.lastMove.TaskID)
}

// TestNormalizeConfig verifies defaults and endpoint cleanup.
func TestNormalizeConfig(t *testing.T) {
	cfg := normalizeConfig(Config{EndpointPath: "tools/"})
	assert.Equal(t, "ngoboard", cfg.ServerName)
	assert.Equal(t, "dev", cfg.ServerVersion)
	assert.Equal(t, "/tools", cfg.EndpointPath)
}
