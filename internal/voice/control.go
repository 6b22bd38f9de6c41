package voice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mudler/xlog"
)

var ErrUnknownEvent = errors.New("unknown voice event")

type EventType string

const (
	EventPress   = EventType("press")
	EventMove    = EventType("move")
	EventRelease = EventType("release")
)

type Event struct {
	Type EventType
	At   time.Time
	Pos  Point
}

type Result struct {
	State      State
	Action     Action
	Transcript string
}

// Control drives a Recognizer from pointer events.
type Control struct {
	mu         sync.Mutex
	gesture    *Gesture
	recognizer Recognizer
}

func NewControl(recognizer Recognizer, thresholds Thresholds) *Control {
	return &Control{
		gesture:    NewGesture(thresholds),
		recognizer: recognizer,
	}
}

func (c *Control) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.gesture.State()
}

func (c *Control) Handle(ctx context.Context, event Event) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var action Action
	switch event.Type {
	case EventPress:
		action = c.gesture.Press(event.At, event.Pos)
	case EventMove:
		action = c.gesture.Move(event.Pos)
	case EventRelease:
		action = c.gesture.Release(event.At)
	default:
		return Result{State: c.gesture.State(), Action: ActionNone}, fmt.Errorf("%s: %w", event.Type, ErrUnknownEvent)
	}

	result := Result{Action: action}
	switch action {
	case ActionStart:
		if err := c.recognizer.Start(ctx, false); err != nil {
			c.gesture.Fail()
			result.State = c.gesture.State()
			return result, fmt.Errorf("failed to start recognizer: %w", err)
		}
	case ActionLock:
		c.recognizer.SetContinuous(true)
		xlog.Debug("Voice input locked")
	case ActionCancel:
		c.recognizer.Abort()
		xlog.Debug("Voice input cancelled")
	case ActionSubmit:
		transcript, err := c.recognizer.Stop(ctx)
		if err != nil {
			c.gesture.Fail()
			result.State = c.gesture.State()
			return result, err
		}
		result.Transcript = strings.TrimSpace(transcript)
	}
	result.State = c.gesture.State()
	return result, nil
}

// Close releases the recognizer if an interaction is still open.
func (c *Control) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gesture.State() != StateIdle {
		c.recognizer.Abort()
		c.gesture.Fail()
	}
}

// AppendVoiceText joins a new transcript onto text already typed in a field.
func AppendVoiceText(current, transcript string) string {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return current
	}
	if current == "" {
		return transcript
	}
	return current + " " + transcript
}
