package board

import "time"

// DefaultActivationDistance is the pointer travel required before a press becomes a drag.
const DefaultActivationDistance = 8.0

// DefaultFrameInterval bounds how often pointer moves reach the resolver.
const DefaultFrameInterval = 16 * time.Millisecond

// GestureOption configures a Gesture.
type GestureOption func(*Gesture)

// WithActivationDistance sets the drag activation threshold; non-positive values keep the default.
func WithActivationDistance(d float64) GestureOption {
	return func(g *Gesture) {
		if d > 0 {
			g.activation = d
		}
	}
}

// WithFrameInterval sets the move throttle interval; zero disables throttling.
func WithFrameInterval(d time.Duration) GestureOption {
	return func(g *Gesture) {
		if d >= 0 {
			g.frame = d
		}
	}
}

// Gesture turns raw pointer events on cards into clicks or controller drags.
type Gesture struct {
	ctrl       *Controller
	activation float64
	frame      time.Duration

	pressed   bool
	taskID    string
	downAt    Point
	dragging  bool
	lastFrame time.Time
	pending   *Point
}

// NewGesture constructs a gesture recognizer bound to ctrl.
func NewGesture(ctrl *Controller, opts ...GestureOption) *Gesture {
	g := &Gesture{
		ctrl:       ctrl,
		activation: DefaultActivationDistance,
		frame:      DefaultFrameInterval,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// PointerDown records a press on taskID. Presses during an active gesture are ignored.
func (g *Gesture) PointerDown(taskID string, pos Point) bool {
	if g.pressed || g.ctrl == nil || g.ctrl.Dragging() {
		return false
	}
	if _, ok := g.ctrl.Card(taskID); !ok {
		return false
	}
	g.pressed = true
	g.taskID = taskID
	g.downAt = pos
	g.dragging = false
	g.pending = nil
	g.lastFrame = time.Time{}
	return true
}

// PointerMove feeds one pointer position. It reports whether the controller saw the update.
func (g *Gesture) PointerMove(pos Point, now time.Time) bool {
	if !g.pressed {
		return false
	}
	if !g.dragging {
		if Distance(pos, g.downAt) < g.activation {
			return false
		}
		if !g.ctrl.BeginDrag(g.taskID, g.downAt) {
			g.reset()
			return false
		}
		g.dragging = true
		g.ctrl.UpdateDragTarget(pos)
		g.lastFrame = now
		return true
	}
	if g.frame > 0 && now.Sub(g.lastFrame) < g.frame {
		p := pos
		g.pending = &p
		return false
	}
	g.pending = nil
	g.lastFrame = now
	g.ctrl.UpdateDragTarget(pos)
	return true
}

// Flush applies a throttled pointer move, if any.
func (g *Gesture) Flush(now time.Time) bool {
	if !g.dragging || g.pending == nil {
		return false
	}
	p := *g.pending
	g.pending = nil
	g.lastFrame = now
	g.ctrl.UpdateDragTarget(p)
	return true
}

// PointerUp ends the gesture: a drag is dropped at pos, a press below the threshold opens the task.
func (g *Gesture) PointerUp(pos Point, now time.Time) Outcome {
	if !g.pressed {
		return Outcome{Result: ResultIgnored}
	}
	defer g.reset()
	if !g.dragging {
		taskID := g.taskID
		if g.ctrl.OpenTask(taskID) {
			return Outcome{Result: ResultOpened, TaskID: taskID}
		}
		return Outcome{Result: ResultIgnored, TaskID: taskID}
	}
	g.Flush(now)
	return g.ctrl.EndDrag(&pos)
}

// PointerCancel abandons the gesture, cancelling any active drag.
func (g *Gesture) PointerCancel() Outcome {
	if !g.pressed {
		return Outcome{Result: ResultIgnored}
	}
	dragging := g.dragging
	taskID := g.taskID
	g.reset()
	if dragging {
		return g.ctrl.EndDrag(nil)
	}
	return Outcome{Result: ResultCancelled, TaskID: taskID}
}

// IsDragging reports whether taskID is the card currently being dragged.
func (g *Gesture) IsDragging(taskID string) bool {
	return g.dragging && g.taskID == taskID && g.ctrl.DragState().TaskID == taskID
}

// Pressed reports whether a pointer press is being tracked.
func (g *Gesture) Pressed() bool {
	return g.pressed
}

func (g *Gesture) reset() {
	g.pressed = false
	g.taskID = ""
	g.dragging = false
	g.pending = nil
}
