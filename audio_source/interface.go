package audio_source

import (
	"context"

	"voice-command-recognition/ring_buffer"
)

// Interface supplies fixed-size frames of mono 16-bit samples on demand. Each
// call returns a newly allocated frame; io.EOF marks the end of a finite source.
type Interface interface {
	Read(ctx context.Context) (ring_buffer.Frame, error)
	Close() error
}
