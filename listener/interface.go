package listener

import (
	"context"

	"voice-command-recognition/ring_buffer"
)

type State int

const (
	StateIdle State = iota
	StateCapturing
	StateCooldown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateCooldown:
		return "cooldown"
	}

	return "unknown"
}

// Trigger is one detected utterance window: the pre-roll as it was at the
// triggering frame and the post-roll drained right after it.
type Trigger struct {
	Pre        []ring_buffer.Frame
	Post       []ring_buffer.Frame
	FrameIndex int64
	Peak       int
}

// ThresholdSource yields the current threshold text. It is read on every frame.
type ThresholdSource interface {
	Text() string
}

type Interface interface {
	// Next consumes one frame (or a whole post-roll drain once triggered) and
	// returns a Trigger when one fired, nil otherwise.
	Next(ctx context.Context) (*Trigger, error)
	State() State
	FrameIndex() int64
}
