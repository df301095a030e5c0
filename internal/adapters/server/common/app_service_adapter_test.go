package common

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evanschultz/ngoboard/internal/adapters/storage/sqlite"
	"github.com/evanschultz/ngoboard/internal/app"
	"github.com/evanschultz/ngoboard/internal/domain"
)

// newTestAdapter builds an adapter over an in-memory board with two recruitment candidates.
func newTestAdapter(t *testing.T) (*AppServiceAdapter, []string) {
	t.Helper()
	repo, err := sqlite.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	seq := 0
	idGen := func() string {
		seq++
		return fmt.Sprintf("t%d", seq)
	}
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc := app.NewService(repo, idGen, func() time.Time { return now }, app.ServiceConfig{})
	ctx := context.Background()
	_, err = svc.EnsureBoards(ctx)
	require.NoError(t, err)

	var ids []string
	for _, title := range []string{"Grace Hopper", "Alan Turing"} {
		task, err := svc.CreateTask(ctx, app.CreateTaskInput{
			BoardID:  "recruitment",
			ColumnID: app.ColumnID("recruitment", "applied"),
			Title:    title,
			Priority: domain.PriorityHigh,
			Assignee: &domain.Assignee{Name: "Ada Lovelace", AvatarRef: "ada.png"},
		})
		require.NoError(t, err)
		ids = append(ids, task.ID)
	}
	return NewAppServiceAdapter(svc), ids
}

// TestNewAppServiceAdapterNil verifies a nil service yields a nil adapter.
func TestNewAppServiceAdapterNil(t *testing.T) {
	assert.Nil(t, NewAppServiceAdapter(nil))
}

// TestAppServiceAdapterGetBoard verifies board loading and DTO mapping.
func TestAppServiceAdapterGetBoard(t *testing.T) {
	adapter, ids := newTestAdapter(t)
	ctx := context.Background()

	boards, err := adapter.ListBoards(ctx)
	require.NoError(t, err)
	require.Len(t, boards, 3)
	assert.Equal(t, "tasks", boards[0].ID)

	detail, err := adapter.GetBoard(ctx, "recruitment")
	require.NoError(t, err)
	require.Len(t, detail.Columns, 5)
	applied := detail.Columns[0]
	assert.Equal(t, "recruitment-applied", applied.ID)
	require.Len(t, applied.Tasks, 2)
	assert.Equal(t, ids[0], applied.Tasks[0].ID)
	assert.Equal(t, "high", applied.Tasks[0].Priority)
	assert.Equal(t, "Ada Lovelace", applied.Tasks[0].Assignee)
	assert.Equal(t, "ada.png", applied.Tasks[0].AvatarRef)
	assert.Equal(t, 4, detail.Columns[2].WIPLimit)
}

// TestAppServiceAdapterGetBoardErrors verifies error category mapping.
func TestAppServiceAdapterGetBoardErrors(t *testing.T) {
	adapter, _ := newTestAdapter(t)
	ctx := context.Background()

	_, err := adapter.GetBoard(ctx, "  ")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = adapter.GetBoard(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, app.ErrNotFound)
}

// TestAppServiceAdapterMoveTask verifies moves, events, and rejection mapping.
func TestAppServiceAdapterMoveTask(t *testing.T) {
	adapter, ids := newTestAdapter(t)
	ctx := context.Background()

	moved, err := adapter.MoveTask(ctx, MoveTaskRequest{
		TaskID:     ids[1],
		ToColumnID: "recruitment-screening",
		Index:      0,
	})
	require.NoError(t, err)
	assert.Equal(t, "screening", moved.Status)
	assert.Equal(t, 0, moved.Position)

	events, err := adapter.ListEvents(ctx, ListEventsRequest{BoardID: "recruitment"})
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, "move", events[0].Operation)
	assert.Equal(t, "agent", events[0].Actor)
	assert.Equal(t, "recruitment-screening", events[0].Metadata["to_column_id"])

	_, err = adapter.MoveTask(ctx, MoveTaskRequest{TaskID: ids[0], ToColumnID: "recruitment-nowhere"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = adapter.MoveTask(ctx, MoveTaskRequest{TaskID: "missing", ToColumnID: "recruitment-screening"})
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestAppServiceAdapterMoveTaskLockedColumn verifies locked columns surface as rejections.
func TestAppServiceAdapterMoveTaskLockedColumn(t *testing.T) {
	adapter, _ := newTestAdapter(t)
	ctx := context.Background()
	svc := adapter.service

	task, err := svc.CreateTask(ctx, app.CreateTaskInput{
		BoardID:  "volunteers",
		ColumnID: app.ColumnID("volunteers", "active"),
		Title:    "Pantry shift lead",
	})
	require.NoError(t, err)

	_, err = adapter.MoveTask(ctx, MoveTaskRequest{TaskID: task.ID, ToColumnID: "volunteers-alumni"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMoveRejected)
	assert.ErrorIs(t, err, app.ErrColumnLocked)
}

// TestAppServiceAdapterValidation verifies request validation before the service is called.
func TestAppServiceAdapterValidation(t *testing.T) {
	adapter, ids := newTestAdapter(t)
	ctx := context.Background()

	cases := []MoveTaskRequest{
		{ToColumnID: "recruitment-screening"},
		{TaskID: ids[0]},
		{TaskID: ids[0], ToColumnID: "recruitment-screening", Index: -1},
		{TaskID: ids[0], ToColumnID: "recruitment-screening", Actor: "robot"},
	}
	for _, req := range cases {
		_, err := adapter.MoveTask(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidRequest, "request %#v", req)
	}

	_, err := adapter.ListEvents(ctx, ListEventsRequest{BoardID: "recruitment", Limit: -1})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

// TestMapAppErrorPassthrough verifies unknown errors keep their identity.
func TestMapAppErrorPassthrough(t *testing.T) {
	base := errors.New("disk on fire")
	err := mapAppError("op", base)
	assert.ErrorIs(t, err, base)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mapAppError("op", nil))
}
