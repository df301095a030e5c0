package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"

	"github.com/evanschultz/ngoboard/internal/app"
	"github.com/evanschultz/ngoboard/internal/board"
	"github.com/evanschultz/ngoboard/internal/domain"
)

// Service is the app surface the board host needs.
type Service interface {
	ListBoards(context.Context) ([]domain.Board, error)
	LoadBoard(context.Context, string) (app.BoardView, error)
	MoveTask(context.Context, app.MoveTaskInput) (domain.Task, error)
	ListChangeEvents(context.Context, string, int) ([]domain.ChangeEvent, error)
}

// activityLimit bounds the change events fetched for the footer.
const activityLimit = 3

// defaultNoticeTTL keeps rejection notices visible.
const defaultNoticeTTL = 4 * time.Second

// notice is a transient status message.
type notice struct {
	text  string
	seq   int
	until time.Time
}

// Model hosts one board controller and renders it.
type Model struct {
	svc  Service
	keys keyMap
	help help.Model

	width  int
	height int
	ready  bool
	err    error
	status string
	notice notice

	boards         []domain.Board
	boardIdx       int
	pendingBoardID string
	view           app.BoardView
	activity       []domain.ChangeEvent

	ctrl    *board.Controller
	gesture *board.Gesture
	queue   *moveQueue
	events  *boardEvents

	selectedColumn int
	selectedTask   int
	detailTaskID   string
	frameScheduled bool

	drag            DragConfig
	noticeTTL       time.Duration
	showWIPWarnings bool
	logger          board.Logger
	now             func() time.Time
	copyText        func(string) error
	markdown        *markdownRenderer
}

// loadedMsg carries a freshly loaded board.
type loadedMsg struct {
	boards   []domain.Board
	boardIdx int
	view     app.BoardView
	activity []domain.ChangeEvent
	err      error
}

// moveResultMsg reports a persisted or failed drop.
type moveResultMsg struct {
	move  board.Move
	err   error
	queue *moveQueue
}

// keyMoveMsg reports a keyboard move.
type keyMoveMsg struct {
	title  string
	column string
	err    error
}

// frameMsg flushes a throttled pointer move.
type frameMsg struct{}

// noticeExpiredMsg clears the notice with seq.
type noticeExpiredMsg struct {
	seq int
}

// ReloadMsg asks the model to reload the current board, e.g. after the
// database changed on disk.
type ReloadMsg struct{}

// NewModel constructs the board host.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		svc:             svc,
		keys:            newKeyMap(),
		help:            h,
		status:          "loading...",
		drag:            DefaultDragConfig(),
		noticeTTL:       defaultNoticeTTL,
		showWIPWarnings: true,
		now:             time.Now,
		copyText:        clipboard.WriteAll,
		markdown:        &markdownRenderer{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return m.loadData
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		m.relayout()
		return m, nil

	case loadedMsg:
		return m.applyLoaded(msg)

	case ReloadMsg:
		return m, m.loadData

	case moveResultMsg:
		if msg.queue != nil {
			msg.queue.settle()
		}
		if msg.err != nil {
			if m.ctrl != nil {
				m.ctrl.Reject(msg.move, msg.err)
			}
			m.relayout()
			cmd := m.collectEvents()
			return m, tea.Batch(cmd, m.loadData)
		}
		return m, m.loadData

	case keyMoveMsg:
		if msg.err != nil {
			return m, m.setNotice(fmt.Sprintf("move of %q rejected: %v", msg.title, msg.err))
		}
		m.status = fmt.Sprintf("moved %q to %s", msg.title, msg.column)
		return m, m.loadData

	case frameMsg:
		m.frameScheduled = false
		if m.gesture != nil && m.gesture.Flush(m.now()) {
			return m, m.scheduleFrame()
		}
		return m, nil

	case noticeExpiredMsg:
		if msg.seq == m.notice.seq {
			m.notice = notice{seq: m.notice.seq}
		}
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	case tea.MouseReleaseMsg:
		return m.handleMouseRelease(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	default:
		return m, nil
	}
}

// loadData loads the board list and the selected board.
func (m Model) loadData() tea.Msg {
	ctx := context.Background()
	boards, err := m.svc.ListBoards(ctx)
	if err != nil {
		return loadedMsg{err: err}
	}
	if len(boards) == 0 {
		return loadedMsg{err: errors.New("no boards configured")}
	}
	idx := clamp(m.boardIdx, 0, len(boards)-1)
	if m.pendingBoardID != "" {
		for i, b := range boards {
			if b.ID == m.pendingBoardID || b.Slug == m.pendingBoardID {
				idx = i
				break
			}
		}
	} else if m.view.Board.ID != "" {
		for i, b := range boards {
			if b.ID == m.view.Board.ID {
				idx = i
				break
			}
		}
	}
	view, err := m.svc.LoadBoard(ctx, boards[idx].ID)
	if err != nil {
		return loadedMsg{err: err}
	}
	activity, err := m.svc.ListChangeEvents(ctx, view.Board.ID, activityLimit)
	if err != nil {
		activity = nil
	}
	return loadedMsg{boards: boards, boardIdx: idx, view: view, activity: activity}
}

// applyLoaded installs a loaded board, rebuilding the controller when the board or its columns changed.
func (m Model) applyLoaded(msg loadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.err = msg.err
		return m, nil
	}
	m.err = nil
	m.boards = msg.boards
	m.boardIdx = msg.boardIdx
	m.pendingBoardID = ""
	m.activity = msg.activity

	columns, cards := boardSpecs(msg.view)
	if m.ctrl == nil || msg.view.Board.ID != m.view.Board.ID || !sameColumns(m.ctrl.Columns(), columns) {
		if err := m.rebuildController(msg.view, columns, cards); err != nil {
			m.err = err
			return m, nil
		}
	} else {
		m.queue.setColumns(msg.view)
		if m.queue.settled() {
			m.ctrl.Reload(cards)
		} else {
			m.ctrl.Sync(cards)
		}
	}
	m.view = msg.view
	m.clampSelection()
	m.relayout()
	if m.status == "" || m.status == "loading..." {
		m.status = "ready"
	}
	return m, nil
}

// rebuildController replaces the controller, gesture and store for a new board.
func (m *Model) rebuildController(view app.BoardView, columns []board.ColumnSpec, cards []board.Card) error {
	queue := newMoveQueue()
	queue.setColumns(view)
	events := &boardEvents{}
	opts := []board.Option{
		board.WithListener(events),
		board.WithResolver(board.Resolver{MaxDistance: m.drag.MaxDropDistance}),
	}
	if m.logger != nil {
		opts = append(opts, board.WithLogger(m.logger))
	}
	ctrl, err := board.NewController(columns, cards, queue, opts...)
	if err != nil {
		return fmt.Errorf("build board %q: %w", view.Board.ID, err)
	}
	queue.ctrl = ctrl
	events.titles = func(id string) string {
		if card, ok := ctrl.Card(id); ok {
			return card.Title
		}
		for _, col := range ctrl.Columns() {
			if col.ID == id {
				return col.Title
			}
		}
		return id
	}
	m.ctrl = ctrl
	m.queue = queue
	m.events = events
	m.gesture = board.NewGesture(ctrl,
		board.WithActivationDistance(m.drag.ActivationDistance),
		board.WithFrameInterval(m.drag.FrameInterval),
	)
	m.detailTaskID = ""
	m.selectedTask = 0
	m.selectedColumn = 0
	return nil
}

// boardSpecs converts a loaded board into controller columns and cards.
func boardSpecs(view app.BoardView) ([]board.ColumnSpec, []board.Card) {
	columns := make([]board.ColumnSpec, 0, len(view.Columns))
	var cards []board.Card
	for _, col := range view.Columns {
		columns = append(columns, board.ColumnSpec{
			ID:    col.Column.ID,
			Title: col.Column.Title,
			Color: col.Column.Color,
		})
		for _, task := range col.Tasks {
			cards = append(cards, cardFor(col.Column.ID, task))
		}
	}
	return columns, cards
}

// cardFor summarizes a task for the controller.
func cardFor(columnID string, task domain.Task) board.Card {
	card := board.Card{
		ID:          task.ID,
		ColumnID:    columnID,
		Title:       task.Title,
		Description: task.Description,
		Priority:    string(task.Priority),
		DueAt:       task.DueAt,
	}
	if task.Assignee != nil {
		card.Assignee = task.Assignee.Name
		card.AvatarRef = task.Assignee.AvatarRef
	}
	return card
}

// sameColumns reports whether two column lists share ids in order.
func sameColumns(a, b []board.ColumnSpec) bool {
	return slices.EqualFunc(a, b, func(x, y board.ColumnSpec) bool { return x.ID == y.ID })
}

// handleKey handles keyboard input.
func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.status = "reloading..."
		return m, m.loadData
	}
	if m.err != nil || m.ctrl == nil {
		return m, nil
	}

	if m.detailTaskID != "" {
		switch {
		case key.Matches(msg, m.keys.cancel), key.Matches(msg, m.keys.openTask):
			m.detailTaskID = ""
		case key.Matches(msg, m.keys.copyTaskID):
			if err := m.copyText(m.detailTaskID); err != nil {
				return m, m.setNotice("copy failed: " + err.Error())
			}
			m.status = "copied task id " + m.detailTaskID
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.cancel):
		if m.gesture.Pressed() || m.ctrl.Dragging() {
			m.gesture.PointerCancel()
			m.status = "drag cancelled"
		}
		return m, nil
	case key.Matches(msg, m.keys.nextBoard):
		return m.switchBoard(1)
	case key.Matches(msg, m.keys.prevBoard):
		return m.switchBoard(-1)
	}
	if m.ctrl.Dragging() {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.focusLeft):
		m.selectedColumn--
		m.clampSelection()
	case key.Matches(msg, m.keys.focusRight):
		m.selectedColumn++
		m.clampSelection()
	case key.Matches(msg, m.keys.focusUp):
		m.selectedTask--
		m.clampSelection()
	case key.Matches(msg, m.keys.focusDown):
		m.selectedTask++
		m.clampSelection()
	case key.Matches(msg, m.keys.openTask):
		if id, ok := m.selectedTaskID(); ok {
			m.ctrl.OpenTask(id)
			return m, m.collectEvents()
		}
	case key.Matches(msg, m.keys.moveTaskLeft):
		return m.moveSelected(-1)
	case key.Matches(msg, m.keys.moveTaskRight):
		return m.moveSelected(1)
	}
	return m, nil
}

// switchBoard moves to the next or previous board.
func (m Model) switchBoard(delta int) (tea.Model, tea.Cmd) {
	if len(m.boards) < 2 {
		return m, nil
	}
	if m.gesture != nil {
		m.gesture.PointerCancel()
	}
	next := wrapIndex(m.boardIdx, delta, len(m.boards))
	m.pendingBoardID = m.boards[next].ID
	m.status = "loading " + m.boards[next].Name
	return m, m.loadData
}

// moveSelected moves the focused task to the end of the neighbouring column.
func (m Model) moveSelected(delta int) (tea.Model, tea.Cmd) {
	taskID, ok := m.selectedTaskID()
	if !ok {
		return m, nil
	}
	columns := m.ctrl.Columns()
	target := m.selectedColumn + delta
	if target < 0 || target >= len(columns) {
		return m, nil
	}
	card, _ := m.ctrl.Card(taskID)
	to := columns[target]
	index := len(m.ctrl.TaskIDs(to.ID))
	m.selectedColumn = target
	m.selectedTask = index
	svc := m.svc
	return m, func() tea.Msg {
		_, err := svc.MoveTask(context.Background(), app.MoveTaskInput{
			TaskID:     taskID,
			ToColumnID: to.ID,
			Index:      index,
			Actor:      domain.ActorTypeUser,
		})
		return keyMoveMsg{title: card.Title, column: to.Title, err: err}
	}
}

// handleMouseClick presses on a card or selects a column.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if m.ctrl == nil || msg.Button != tea.MouseLeft {
		return m, nil
	}
	if m.detailTaskID != "" {
		m.detailTaskID = ""
		return m, nil
	}
	p := pointerFor(msg.X, msg.Y)
	if hit, ok := m.ctrl.Layout().HitCard(p); ok {
		m.gesture.PointerDown(hit.TaskID, p)
		m.focusTask(hit.TaskID)
		return m, nil
	}
	if idx, ok := m.columnAt(msg.X); ok && msg.Y >= boardTop && msg.Y < m.boardBottom() {
		m.selectedColumn = idx
		m.clampSelection()
	}
	return m, nil
}

// handleMouseMotion feeds pointer moves into the gesture.
func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	if m.gesture == nil || !m.gesture.Pressed() {
		return m, nil
	}
	m.gesture.PointerMove(pointerFor(msg.X, msg.Y), m.now())
	if m.ctrl.Dragging() {
		return m, m.scheduleFrame()
	}
	return m, nil
}

// handleMouseRelease ends the gesture as a click or a drop.
func (m Model) handleMouseRelease(msg tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	if m.gesture == nil || !m.gesture.Pressed() {
		return m, nil
	}
	var out board.Outcome
	if m.ctrl.Dragging() && (msg.Y < boardTop || msg.Y >= m.boardBottom()) {
		out = m.gesture.PointerCancel()
	} else {
		out = m.gesture.PointerUp(pointerFor(msg.X, msg.Y), m.now())
	}
	return m.handleOutcome(out)
}

// handleOutcome turns a gesture outcome into status and persistence.
func (m Model) handleOutcome(out board.Outcome) (tea.Model, tea.Cmd) {
	if out.Result == board.ResultCommitted {
		m.focusTask(out.TaskID)
	}
	m.relayout()
	cmd := m.collectEvents()
	if out.Result == board.ResultCancelled {
		m.status = "drop cancelled"
	}
	if moves := m.queue.drain(); len(moves) > 0 {
		return m, tea.Batch(append([]tea.Cmd{cmd}, m.persistMoves(moves)...)...)
	}
	return m, cmd
}

// persistMoves writes accepted moves through the service.
func (m Model) persistMoves(moves []board.Move) []tea.Cmd {
	svc, queue := m.svc, m.queue
	cmds := make([]tea.Cmd, 0, len(moves))
	for _, mv := range moves {
		cmds = append(cmds, func() tea.Msg {
			_, err := svc.MoveTask(context.Background(), app.MoveTaskInput{
				TaskID:     mv.TaskID,
				ToColumnID: mv.ToColumnID,
				Index:      mv.ToIndex,
				Actor:      domain.ActorTypeUser,
			})
			return moveResultMsg{move: mv, err: err, queue: queue}
		})
	}
	return cmds
}

// collectEvents applies controller events gathered since the last call.
func (m *Model) collectEvents() tea.Cmd {
	if m.events == nil {
		return nil
	}
	opened, text, activity := m.events.take()
	if activity != "" {
		m.status = activity
	}
	if opened != "" {
		m.detailTaskID = opened
		m.focusTask(opened)
	}
	if text != "" {
		return m.setNotice(text)
	}
	return nil
}

// setNotice shows text until the notice TTL passes.
func (m *Model) setNotice(text string) tea.Cmd {
	seq := m.notice.seq + 1
	m.notice = notice{text: text, seq: seq, until: m.now().Add(m.noticeTTL)}
	return tea.Tick(m.noticeTTL, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}

// scheduleFrame arranges one flush per frame interval while dragging.
func (m *Model) scheduleFrame() tea.Cmd {
	if m.frameScheduled || m.drag.FrameInterval <= 0 {
		return nil
	}
	m.frameScheduled = true
	return tea.Tick(m.drag.FrameInterval, func(time.Time) tea.Msg {
		return frameMsg{}
	})
}

// handleMouseWheel moves the task focus within the selected column.
func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.ctrl == nil || m.ctrl.Dragging() {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseWheelUp:
		m.selectedTask--
	case tea.MouseWheelDown:
		m.selectedTask++
	}
	m.clampSelection()
	return m, nil
}

// selectedTaskID returns the focused task.
func (m Model) selectedTaskID() (string, bool) {
	if m.ctrl == nil {
		return "", false
	}
	columns := m.ctrl.Columns()
	if m.selectedColumn < 0 || m.selectedColumn >= len(columns) {
		return "", false
	}
	ids := m.ctrl.TaskIDs(columns[m.selectedColumn].ID)
	if m.selectedTask < 0 || m.selectedTask >= len(ids) {
		return "", false
	}
	return ids[m.selectedTask], true
}

// focusTask moves keyboard focus onto taskID.
func (m *Model) focusTask(taskID string) {
	if m.ctrl == nil {
		return
	}
	col, idx, ok := m.ctrl.Locate(taskID)
	if !ok {
		return
	}
	for i, spec := range m.ctrl.Columns() {
		if spec.ID == col {
			m.selectedColumn = i
			m.selectedTask = idx
			return
		}
	}
}

// clampSelection keeps focus inside the board.
func (m *Model) clampSelection() {
	if m.ctrl == nil {
		m.selectedColumn, m.selectedTask = 0, 0
		return
	}
	columns := m.ctrl.Columns()
	m.selectedColumn = clamp(m.selectedColumn, 0, len(columns)-1)
	if len(columns) == 0 {
		m.selectedTask = 0
		return
	}
	m.selectedTask = clamp(m.selectedTask, 0, len(m.ctrl.TaskIDs(columns[m.selectedColumn].ID))-1)
}

// columnByID returns the loaded column record.
func (m Model) columnByID(columnID string) (domain.Column, bool) {
	col, ok := m.view.Column(columnID)
	return col.Column, ok
}

// wrapIndex wraps current+delta into [0,total).
func wrapIndex(current, delta, total int) int {
	if total <= 0 {
		return 0
	}
	return ((current+delta)%total + total) % total
}

// clamp clamps the requested operation.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
