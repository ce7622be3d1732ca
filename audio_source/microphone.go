package audio_source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gordonklaus/portaudio"

	"voice-command-recognition/ring_buffer"
)

type micImpl struct {
	stream       *portaudio.Stream
	in           []int16
	audioRunning bool
}

type Config struct {
	SampleRate int
	Chunk      int

	// DeviceIndex selects an input device from Devices; negative uses the
	// system default.
	DeviceIndex int
}

type DeviceInfo struct {
	Index             int
	Name              string
	MaxInputChannels  int
	DefaultSampleRate float64
}

func NewMicrophone(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.SampleRate <= 0 || cfg.Chunk <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d or chunk %d", cfg.SampleRate, cfg.Chunk)
	}

	m := &micImpl{
		in: make([]int16, cfg.Chunk),
	}

	err := m.initAudio()
	if err != nil {
		return nil, err
	}

	stream, err := m.openStream(cfg)
	if err != nil {
		m.freeAudio()

		return nil, err
	}

	err = stream.Start()
	if err != nil {
		stream.Close()
		m.freeAudio()

		return nil, err
	}

	m.stream = stream

	return m, nil
}

func (m *micImpl) openStream(cfg *Config) (*portaudio.Stream, error) {
	if cfg.DeviceIndex < 0 {
		return portaudio.OpenDefaultStream(1, 0, float64(cfg.SampleRate), len(m.in), m.in)
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}

	if cfg.DeviceIndex >= len(devices) {
		return nil, fmt.Errorf("no input device %d (%d devices)", cfg.DeviceIndex, len(devices))
	}

	params := portaudio.LowLatencyParameters(devices[cfg.DeviceIndex], nil)
	params.Input.Channels = 1
	params.SampleRate = float64(cfg.SampleRate)
	params.FramesPerBuffer = len(m.in)

	return portaudio.OpenStream(params, m.in)
}

func (m *micImpl) Read(ctx context.Context) (ring_buffer.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	err := m.stream.Read()
	if err != nil {
		// the samples are still valid, we just fell behind the device
		if !errors.Is(err, portaudio.InputOverflowed) {
			return nil, err
		}

		slog.Debug("microphone input overflowed")
	}

	frame := make(ring_buffer.Frame, len(m.in))
	copy(frame, m.in)

	return frame, nil
}

func (m *micImpl) Close() error {
	var errs []error

	if m.stream != nil {
		errs = append(errs, m.stream.Stop(), m.stream.Close())
		m.stream = nil
	}

	m.freeAudio()

	return errors.Join(errs...)
}

func (m *micImpl) initAudio() error {
	if !m.audioRunning {
		err := portaudio.Initialize()
		if err != nil {
			return err
		}

		m.audioRunning = true
	}

	return nil
}

func (m *micImpl) freeAudio() {
	if m.audioRunning {
		err := portaudio.Terminate()
		if err != nil {
			slog.Warn("error while freeing audio", "err", err)
		}

		m.audioRunning = false
	}
}

// Devices lists the devices that can record audio.
func Devices() ([]DeviceInfo, error) {
	err := portaudio.Initialize()
	if err != nil {
		return nil, err
	}

	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}

	inputs := make([]DeviceInfo, 0, len(devices))

	for i, d := range devices {
		if d.MaxInputChannels < 1 {
			continue
		}

		inputs = append(inputs, DeviceInfo{
			Index:             i,
			Name:              d.Name,
			MaxInputChannels:  d.MaxInputChannels,
			DefaultSampleRate: d.DefaultSampleRate,
		})
	}

	return inputs, nil
}
