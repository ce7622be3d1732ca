package audio_source

import (
	"fmt"
	"io"

	"github.com/go-audio/wav"
	"github.com/spf13/afero"
)

// NewWavFile replays a 16-bit mono wav file at the expected sample rate.
func NewWavFile(fileSys afero.Fs, path string, sampleRate, chunk int) (Interface, error) {
	f, err := fileSys.Open(path)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	samples, rate, err := DecodeWav(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if rate != sampleRate {
		return nil, fmt.Errorf("%s: sample rate %d, expected %d", path, rate, sampleRate)
	}

	return NewSamples(samples, chunk), nil
}

// DecodeWav reads a whole 16-bit PCM wav stream. Multi-channel files are
// reduced to their first channel.
func DecodeWav(r io.ReadSeeker) ([]int16, int, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("not a valid wav file")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}

	if decoder.BitDepth != 16 {
		return nil, 0, fmt.Errorf("unsupported bit depth %d", decoder.BitDepth)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}

	samples := make([]int16, len(buf.Data)/channels)
	for i := range samples {
		samples[i] = int16(buf.Data[i*channels])
	}

	return samples, buf.Format.SampleRate, nil
}
