// Package voice implements the push-to-talk microphone control: hold to
// record, slide left to cancel, slide up or tap to lock into continuous
// recording.
package voice

import "time"

type State string

const (
	StateIdle    = State("idle")
	StateHolding = State("holding")
	StateLocked  = State("locked")
)

type Action string

const (
	ActionNone   = Action("none")
	ActionStart  = Action("start")
	ActionLock   = Action("lock")
	ActionSubmit = Action("submit")
	ActionCancel = Action("cancel")
)

type Point struct {
	X float64
	Y float64
}

type Thresholds struct {
	CancelDistance float64
	LockDistance   float64
	TapMaxDuration time.Duration
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		CancelDistance: 80,
		LockDistance:   60,
		TapMaxDuration: 300 * time.Millisecond,
	}
}

// Gesture is the pure state machine behind the control; it performs no I/O.
type Gesture struct {
	thresholds Thresholds
	state      State
	origin     Point
	pressedAt  time.Time
}

func NewGesture(thresholds Thresholds) *Gesture {
	return &Gesture{
		thresholds: thresholds,
		state:      StateIdle,
	}
}

func (g *Gesture) State() State {
	return g.state
}

func (g *Gesture) Press(at time.Time, p Point) Action {
	switch g.state {
	case StateIdle:
		g.state = StateHolding
		g.origin = p
		g.pressedAt = at
		return ActionStart
	case StateLocked:
		g.state = StateIdle
		return ActionSubmit
	default:
		return ActionNone
	}
}

// Move handles pointer drags. Only a hold reacts: left cancels, up locks.
func (g *Gesture) Move(p Point) Action {
	if g.state != StateHolding {
		return ActionNone
	}
	dx := p.X - g.origin.X
	dy := p.Y - g.origin.Y
	if -dx >= g.thresholds.CancelDistance {
		g.state = StateIdle
		return ActionCancel
	}
	if -dy >= g.thresholds.LockDistance {
		g.state = StateLocked
		return ActionLock
	}
	return ActionNone
}

func (g *Gesture) Release(at time.Time) Action {
	if g.state != StateHolding {
		return ActionNone
	}
	if at.Sub(g.pressedAt) < g.thresholds.TapMaxDuration {
		g.state = StateLocked
		return ActionLock
	}
	g.state = StateIdle
	return ActionSubmit
}

// Fail drops back to idle, as when the recognizer reports an error.
func (g *Gesture) Fail() {
	g.state = StateIdle
}
