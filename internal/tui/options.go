package tui

import (
	"time"

	"github.com/evanschultz/ngoboard/internal/board"
)

// DragConfig holds pointer drag tuning in terminal cells.
type DragConfig struct {
	ActivationDistance float64
	FrameInterval      time.Duration
	MaxDropDistance    float64
}

// Option configures a Model.
type Option func(*Model)

// DefaultDragConfig returns the terminal defaults: one cell of travel starts a drag.
func DefaultDragConfig() DragConfig {
	return DragConfig{
		ActivationDistance: 1,
		FrameInterval:      board.DefaultFrameInterval,
	}
}

// WithDragConfig sets drag activation, throttling and the maximum drop distance.
func WithDragConfig(cfg DragConfig) Option {
	return func(m *Model) {
		m.drag = cfg
	}
}

// WithNoticeTTL sets how long rejection notices stay on screen.
func WithNoticeTTL(ttl time.Duration) Option {
	return func(m *Model) {
		if ttl > 0 {
			m.noticeTTL = ttl
		}
	}
}

// WithDefaultBoard selects the board shown first.
func WithDefaultBoard(boardID string) Option {
	return func(m *Model) {
		m.pendingBoardID = boardID
	}
}

// WithWIPWarnings toggles over-limit markers in column headers.
func WithWIPWarnings(show bool) Option {
	return func(m *Model) {
		m.showWIPWarnings = show
	}
}

// WithLogger routes drag lifecycle debug entries to logger.
func WithLogger(logger board.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides the time source used for drag throttling and due dates.
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}

// WithClipboard overrides the clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copyText = write
		}
	}
}
