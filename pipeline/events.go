package pipeline

import (
	"voice-command-recognition/template_matching"
)

type Mode int

const (
	ModeEnroll Mode = iota
	ModeRecognize
)

func (m Mode) String() string {
	if m == ModeEnroll {
		return "enroll"
	}

	return "recognize"
}

type EventKind int

const (
	// EventRecorded: a template was stored under Label; Samples is the utterance.
	EventRecorded EventKind = iota
	// EventFinished: every command has a template.
	EventFinished
	// EventMatched: Result holds the classification of an utterance.
	EventMatched
	// EventDropped: an utterance was discarded because of Err.
	EventDropped
)

func (k EventKind) String() string {
	switch k {
	case EventRecorded:
		return "recorded"
	case EventFinished:
		return "finished"
	case EventMatched:
		return "matched"
	case EventDropped:
		return "dropped"
	}

	return "unknown"
}

type Event struct {
	Kind    EventKind
	Label   int
	Result  *template_matching.Result
	Samples []int16
	Err     error
}

// Sink observes pipeline events. Handle is called on the pipeline goroutine.
type Sink interface {
	Handle(ev Event)
}

type SinkFunc func(ev Event)

func (f SinkFunc) Handle(ev Event) {
	f(ev)
}
