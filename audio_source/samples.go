package audio_source

import (
	"context"
	"io"

	"voice-command-recognition/ring_buffer"
)

type samplesImpl struct {
	samples []int16
	pos     int
	chunk   int
}

// NewSamples replays an in-memory signal chunk by chunk. The final partial
// chunk is zero-padded, after which Read returns io.EOF.
func NewSamples(samples []int16, chunk int) Interface {
	if chunk < 1 {
		chunk = 1
	}

	return &samplesImpl{
		samples: samples,
		chunk:   chunk,
	}
}

func (s *samplesImpl) Read(ctx context.Context) (ring_buffer.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.pos >= len(s.samples) {
		return nil, io.EOF
	}

	frame := make(ring_buffer.Frame, s.chunk)
	n := copy(frame, s.samples[s.pos:])
	s.pos += n

	return frame, nil
}

func (s *samplesImpl) Close() error {
	return nil
}
