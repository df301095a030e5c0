package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/evanschultz/ngoboard/internal/app"
	"github.com/evanschultz/ngoboard/internal/domain"
)

// openTestRepo opens a file-backed repository in a temp dir.
func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "ngoboard.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	return repo
}

// TestRepository_BoardColumnTaskLifecycle verifies round trips for every entity.
func TestRepository_BoardColumnTaskLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	b, err := domain.NewBoard("rec", "Recruitment", domain.BoardKindRecruitment, 1, now)
	if err != nil {
		t.Fatalf("NewBoard() error = %v", err)
	}
	if err := repo.CreateBoard(ctx, b); err != nil {
		t.Fatalf("CreateBoard() error = %v", err)
	}
	loaded, err := repo.GetBoard(ctx, "rec")
	if err != nil {
		t.Fatalf("GetBoard() error = %v", err)
	}
	if loaded.Name != "Recruitment" || loaded.Kind != domain.BoardKindRecruitment || !loaded.CreatedAt.Equal(now) {
		t.Fatalf("unexpected board %#v", loaded)
	}

	col, err := domain.NewColumn(domain.ColumnInput{ID: "rec-applied", BoardID: "rec", Title: "Applied", Color: "39", Status: "applied", WIPLimit: 3, Locked: true}, now)
	if err != nil {
		t.Fatalf("NewColumn() error = %v", err)
	}
	if err := repo.CreateColumn(ctx, col); err != nil {
		t.Fatalf("CreateColumn() error = %v", err)
	}
	cols, err := repo.ListColumns(ctx, "rec")
	if err != nil {
		t.Fatalf("ListColumns() error = %v", err)
	}
	if len(cols) != 1 || !cols[0].Locked || cols[0].WIPLimit != 3 || cols[0].Color != "39" {
		t.Fatalf("unexpected columns %#v", cols)
	}

	due := now.Add(24 * time.Hour)
	task, err := domain.NewTask(domain.TaskInput{
		ID:          "t1",
		BoardID:     "rec",
		Status:      "applied",
		Title:       "Field coordinator",
		Description: "Strong logistics background",
		Priority:    domain.PriorityHigh,
		DueAt:       &due,
		Assignee:    &domain.Assignee{Name: "Amara Okafor", AvatarRef: "amara.png"},
	}, now)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	if err := repo.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	got, err := repo.GetTask(ctx, "t1")
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if got.Assignee == nil || got.Assignee.AvatarRef != "amara.png" || got.DueAt == nil || !got.DueAt.Equal(due) {
		t.Fatalf("unexpected task %#v", got)
	}
	events, err := repo.ListChangeEvents(ctx, "rec", 10)
	if err != nil {
		t.Fatalf("ListChangeEvents() error = %v", err)
	}
	if len(events) != 1 || events[0].Operation != domain.ChangeOperationCreate || events[0].Metadata["status"] != "applied" {
		t.Fatalf("unexpected events %#v", events)
	}
}

// TestRepository_NotFoundCases verifies sentinel translation.
func TestRepository_NotFoundCases(t *testing.T) {
	repo, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})

	ctx := context.Background()
	if _, err := repo.GetBoard(ctx, "missing"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected app.ErrNotFound for board, got %v", err)
	}
	if _, err := repo.GetTask(ctx, "missing"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected app.ErrNotFound for task, got %v", err)
	}
	err = repo.ApplyMove(ctx, app.MoveRecord{
		Task:  domain.Task{ID: "missing", Status: "x"},
		Event: domain.ChangeEvent{Operation: domain.ChangeOperationMove},
	})
	if !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected app.ErrNotFound for move, got %v", err)
	}
}

// TestRepository_ServiceMovesPersist verifies app service moves survive a reopen.
func TestRepository_ServiceMovesPersist(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ngoboard.db")
	repo, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	n := 0
	svc := app.NewService(repo, func() string {
		n++
		return fmt.Sprintf("task-%d", n)
	}, nil, app.ServiceConfig{})
	if _, err := svc.EnsureBoards(ctx); err != nil {
		t.Fatalf("EnsureBoards() error = %v", err)
	}
	var ids []string
	for _, title := range []string{"C1", "C2", "C3"} {
		task, err := svc.CreateTask(ctx, app.CreateTaskInput{BoardID: "recruitment", ColumnID: "recruitment-applied", Title: title})
		if err != nil {
			t.Fatalf("CreateTask() error = %v", err)
		}
		ids = append(ids, task.ID)
	}
	if _, err := svc.MoveTask(ctx, app.MoveTaskInput{TaskID: ids[1], ToColumnID: "recruitment-screening", Index: 0}); err != nil {
		t.Fatalf("MoveTask(cross) error = %v", err)
	}
	if _, err := svc.MoveTask(ctx, app.MoveTaskInput{TaskID: ids[2], ToColumnID: "recruitment-applied", Index: 0}); err != nil {
		t.Fatalf("MoveTask(reorder) error = %v", err)
	}
	_ = repo.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	t.Cleanup(func() {
		_ = reopened.Close()
	})
	view, err := app.NewService(reopened, nil, nil, app.ServiceConfig{}).LoadBoard(ctx, "recruitment")
	if err != nil {
		t.Fatalf("LoadBoard() error = %v", err)
	}
	applied, _ := view.Column("recruitment-applied")
	screening, _ := view.Column("recruitment-screening")
	if len(applied.Tasks) != 2 || applied.Tasks[0].Title != "C3" || applied.Tasks[1].Title != "C1" {
		t.Fatalf("unexpected applied column %#v", applied.Tasks)
	}
	if len(screening.Tasks) != 1 || screening.Tasks[0].Title != "C2" {
		t.Fatalf("unexpected screening column %#v", screening.Tasks)
	}
	events, err := reopened.ListChangeEvents(ctx, "recruitment", 2)
	if err != nil {
		t.Fatalf("ListChangeEvents() error = %v", err)
	}
	if len(events) != 2 || events[0].Operation != domain.ChangeOperationReorder || events[1].Operation != domain.ChangeOperationMove {
		t.Fatalf("unexpected newest events %#v", events)
	}
}

// TestRepository_PingAndClose verifies the readiness probe tracks the connection.
func TestRepository_PingAndClose(t *testing.T) {
	repo, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := repo.Ping(context.Background()); err == nil {
		t.Fatal("expected Ping() error after Close()")
	}
}

// TestRepository_RejectsUnknownStoredPriority verifies rows are validated on read.
func TestRepository_RejectsUnknownStoredPriority(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)

	b, _ := domain.NewBoard("tasks", "Tasks", domain.BoardKindTasks, 0, now)
	if err := repo.CreateBoard(ctx, b); err != nil {
		t.Fatalf("CreateBoard() error = %v", err)
	}
	task, err := domain.NewTask(domain.TaskInput{ID: "t1", BoardID: "tasks", Status: "todo", Title: "Stack chairs", Priority: "HIGH"}, now)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	if err := repo.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	got, err := repo.GetTask(ctx, "t1")
	if err != nil || got.Priority != domain.PriorityHigh {
		t.Fatalf("GetTask() = %#v, %v", got, err)
	}

	if _, err := repo.db.ExecContext(ctx, `UPDATE tasks SET priority = 'asap' WHERE id = 't1'`); err != nil {
		t.Fatalf("corrupt priority: %v", err)
	}
	if _, err := repo.GetTask(ctx, "t1"); !errors.Is(err, domain.ErrInvalidPriority) {
		t.Fatalf("GetTask() error = %v, want ErrInvalidPriority", err)
	}
}
