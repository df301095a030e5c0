package board

import (
	"reflect"
	"testing"
	"time"
)

// TestGestureClickOpensTask verifies a press below the threshold opens instead of dragging.
func TestGestureClickOpensTask(t *testing.T) {
	c, rec := newTestController(t, nil, recruitmentColumns, map[string][]string{"applied": {"c1", "c2"}})
	g := NewGesture(c)
	now := time.Unix(0, 0)

	start := cardCenter(t, c, "c1")
	if !g.PointerDown("c1", start) {
		t.Fatal("PointerDown() = false")
	}
	g.PointerMove(Point{X: start.X + 3, Y: start.Y + 3}, now)
	if c.Dragging() {
		t.Fatal("drag began below activation distance")
	}
	out := g.PointerUp(Point{X: start.X + 3, Y: start.Y + 3}, now)
	if out.Result != ResultOpened || out.TaskID != "c1" {
		t.Fatalf("PointerUp() = %+v, want opened c1", out)
	}
	if !reflect.DeepEqual(rec.opened, []string{"c1"}) {
		t.Fatalf("TaskOpened events = %#v", rec.opened)
	}
	if g.Pressed() {
		t.Fatal("gesture still pressed after PointerUp")
	}
}

// TestGestureDragActivatesPastThreshold verifies activation and the commit path through the gesture.
func TestGestureDragActivatesPastThreshold(t *testing.T) {
	c, rec := newTestController(t, nil, recruitmentColumns, map[string][]string{"applied": {"c1", "c2"}})
	g := NewGesture(c, WithActivationDistance(4), WithFrameInterval(0))
	now := time.Unix(0, 0)

	start := cardCenter(t, c, "c2")
	g.PointerDown("c2", start)
	if !g.PointerMove(Point{X: start.X + 5, Y: start.Y}, now) {
		t.Fatal("PointerMove() past threshold did not reach controller")
	}
	if !g.IsDragging("c2") || g.IsDragging("c1") {
		t.Fatal("IsDragging() does not reflect the active card")
	}
	out := g.PointerUp(Point{X: 25, Y: 4}, now)
	if out.Result != ResultCommitted {
		t.Fatalf("PointerUp() result = %s, want committed", out.Result)
	}
	if len(rec.opened) != 0 {
		t.Fatalf("drag also opened task: %#v", rec.opened)
	}
	if got := c.TaskIDs("screening"); !reflect.DeepEqual(got, []string{"c2"}) {
		t.Fatalf("screening = %#v, want [c2]", got)
	}
}

// TestGestureThrottlesMovesAndFlushesOnDrop verifies frame coalescing keeps the final drop position.
func TestGestureThrottlesMovesAndFlushesOnDrop(t *testing.T) {
	c, _ := newTestController(t, nil, recruitmentColumns, map[string][]string{"applied": {"c1", "c2"}})
	g := NewGesture(c, WithActivationDistance(1), WithFrameInterval(16*time.Millisecond))
	base := time.Unix(100, 0)

	start := cardCenter(t, c, "c2")
	g.PointerDown("c2", start)
	if !g.PointerMove(Point{X: start.X + 2, Y: start.Y + 10}, base) {
		t.Fatal("activation move not applied")
	}
	if g.PointerMove(Point{X: 25, Y: 4}, base.Add(5*time.Millisecond)) {
		t.Fatal("move inside the frame interval was not throttled")
	}
	if st := c.DragState(); st.Pointer == (Point{X: 25, Y: 4}) {
		t.Fatal("throttled move reached the controller")
	}
	if !g.Flush(base.Add(6 * time.Millisecond)) {
		t.Fatal("Flush() = false with a pending move")
	}
	if st := c.DragState(); st.Target.ColumnID != "screening" {
		t.Fatalf("hover after flush = %+v, want screening", st.Target)
	}
	if g.PointerMove(Point{X: 5, Y: 3}, base.Add(8*time.Millisecond)) {
		t.Fatal("second move inside the frame interval was not throttled")
	}
	out := g.PointerUp(Point{X: 25, Y: 4}, base.Add(9*time.Millisecond))
	if out.Result != ResultCommitted || out.Move.ToColumnID != "screening" {
		t.Fatalf("PointerUp() = %+v, want committed into screening", out)
	}
}

// TestGesturePointerCancel verifies lost capture cancels the drag without mutation.
func TestGesturePointerCancel(t *testing.T) {
	c, rec := newTestController(t, nil, recruitmentColumns, map[string][]string{"applied": {"c1", "c2"}})
	before := c.Snapshot()
	g := NewGesture(c, WithActivationDistance(1), WithFrameInterval(0))

	start := cardCenter(t, c, "c1")
	g.PointerDown("c1", start)
	g.PointerMove(Point{X: 25, Y: 4}, time.Unix(0, 0))
	if out := g.PointerCancel(); out.Result != ResultCancelled {
		t.Fatalf("PointerCancel() result = %s, want cancelled", out.Result)
	}
	if c.Dragging() || g.Pressed() {
		t.Fatal("gesture or controller still active after cancel")
	}
	if got := c.Snapshot(); !reflect.DeepEqual(got, before) {
		t.Fatalf("Snapshot() = %#v, want %#v", got, before)
	}
	if len(rec.opened)+len(rec.moved) != 0 {
		t.Fatal("cancel emitted events")
	}
	if out := g.PointerCancel(); out.Result != ResultIgnored {
		t.Fatalf("second PointerCancel() = %s, want ignored", out.Result)
	}
}

// TestGestureIgnoresUnknownCards verifies presses on stale ids are dropped.
func TestGestureIgnoresUnknownCards(t *testing.T) {
	c, _ := newTestController(t, nil, recruitmentColumns, nil)
	g := NewGesture(c)
	if g.PointerDown("ghost", Point{}) {
		t.Fatal("PointerDown(ghost) = true, want false")
	}
	if out := g.PointerUp(Point{}, time.Now()); out.Result != ResultIgnored {
		t.Fatalf("PointerUp() = %s, want ignored", out.Result)
	}
}
