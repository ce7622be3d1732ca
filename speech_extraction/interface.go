package speech_extraction

import (
	"voice-command-recognition/ring_buffer"
)

// Utterance is the speech part of a segment. Start and End index the segment,
// End exclusive.
type Utterance struct {
	Samples   []int16
	Start     int
	End       int
	Threshold float64
}

type Interface interface {
	Extract(pre, post []ring_buffer.Frame) (Utterance, error)
	Trim(segment []int16) (Utterance, error)
}
