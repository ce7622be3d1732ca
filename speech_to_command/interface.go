package speech_to_command

import (
	"github.com/go-audio/audio"

	"voice-command-recognition/template_matching"
)

type Interface interface {
	// Process classifies one utterance against the enrolled commands.
	Process(buf audio.Buffer) (template_matching.Result, error)
}
