package display

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"voice-command-recognition/pipeline"
	"voice-command-recognition/template_matching"
)

var levels = []rune("▁▂▃▄▅▆▇█")

// Renderer draws the live waveform meter and the pipeline results on a
// terminal. It is safe for concurrent use.
type Renderer struct {
	mu       sync.Mutex
	out      io.Writer
	styles   Styles
	commands []string
	width    int
	rate     int

	meterActive bool
}

type Config struct {
	Out      io.Writer
	Commands []string
	Rate     int

	// Width is the number of meter cells, 60 when zero.
	Width int
}

func New(cfg *Config) (*Renderer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Out == nil {
		return nil, fmt.Errorf("out is nil")
	}

	width := cfg.Width
	if width <= 0 {
		width = 60
	}

	return &Renderer{
		out:      cfg.Out,
		styles:   NewStyles(DefaultTheme),
		commands: cfg.Commands,
		width:    width,
		rate:     cfg.Rate,
	}, nil
}

// Sparkline summarises samples in width cells, each showing the peak of its
// slice relative to full scale.
func Sparkline(samples []int16, width int) string {
	if width <= 0 {
		return ""
	}

	var b strings.Builder

	for c := 0; c < width; c++ {
		lo := c * len(samples) / width
		hi := (c + 1) * len(samples) / width

		peak := 0
		for _, s := range samples[lo:hi] {
			v := int(s)
			if v < 0 {
				v = -v
			}

			if v > peak {
				peak = v
			}
		}

		idx := peak * len(levels) / 32769
		b.WriteRune(levels[idx])
	}

	return b.String()
}

func peakOf(samples []int16) int {
	peak := 0
	for _, s := range samples {
		v := int(s)
		if v < 0 {
			v = -v
		}

		if v > peak {
			peak = v
		}
	}

	return peak
}

// Waveform redraws the live meter in place.
func (r *Renderer) Waveform(samples []int16) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, "\r%s %s %s",
		r.styles.Label.Render("level"),
		r.styles.Meter.Render(Sparkline(samples, r.width)),
		r.styles.Dim.Render(fmt.Sprintf("peak %5d", peakOf(samples))))

	r.meterActive = true
}

// println writes a full line, moving off the live meter first.
func (r *Renderer) println(line string) {
	if r.meterActive {
		fmt.Fprintln(r.out)
		r.meterActive = false
	}

	fmt.Fprintln(r.out, line)
}

// Captured shows the last recorded utterance padded to two seconds.
func (r *Renderer) Captured(label int, samples []int16) {
	r.mu.Lock()
	defer r.mu.Unlock()

	view := samples
	if r.rate > 0 {
		view = make([]int16, 2*r.rate)
		copy(view, samples)
	}

	r.println(fmt.Sprintf("%s %s",
		r.styles.Label.Render(fmt.Sprintf("sample %d", label)),
		r.styles.Meter.Render(Sparkline(view, r.width))))
}

// Progress prompts for the command to record next.
func (r *Renderer) Progress(label int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if label < 1 || label > len(r.commands) {
		return
	}

	r.println(r.styles.Best.Render(fmt.Sprintf("Record %d/%d: %s", label, len(r.commands), r.commands[label-1])))
}

// Results prints the difference to every command and the decision.
func (r *Renderer) Results(result template_matching.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(result.Distances) == 0 {
		r.println(r.styles.Dim.Render("I can not understand (templates missing)"))
		return
	}

	for i := range result.Distances {
		name := ""
		if i < len(r.commands) {
			name = r.commands[i]
		}

		line := fmt.Sprintf("%d. %-24s Difference: %.2f", i+1, name, result.Similarity(i))

		if i+1 == result.Label {
			line = r.styles.Best.Render(line)
		}

		r.println(line)
	}

	if result.Recognized && result.Label <= len(r.commands) {
		r.println(r.styles.Label.Render("Recognized: " + r.commands[result.Label-1]))
	} else {
		r.println(r.styles.Dim.Render("I can not understand"))
	}
}

// Templates lists the commands, marking the ones with a recording.
func (r *Renderer) Templates(enrolled []int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	have := make(map[int]bool, len(enrolled))
	for _, l := range enrolled {
		have[l] = true
	}

	for i, name := range r.commands {
		if have[i+1] {
			r.println(r.styles.Enrolled.Render(fmt.Sprintf("✓ %d. %s", i+1, name)))
		} else {
			r.println(r.styles.Dim.Render(fmt.Sprintf("  %d. %s", i+1, name)))
		}
	}
}

func (r *Renderer) Handle(ev pipeline.Event) {
	switch ev.Kind {
	case pipeline.EventRecorded:
		r.Captured(ev.Label, ev.Samples)
		r.Progress(ev.Label + 1)
	case pipeline.EventFinished:
		r.mu.Lock()
		r.println(r.styles.Label.Render("Finished"))
		r.mu.Unlock()
	case pipeline.EventMatched:
		if ev.Result != nil {
			r.Results(*ev.Result)
		}
	case pipeline.EventDropped:
		r.mu.Lock()
		r.println(r.styles.Dim.Render(fmt.Sprintf("utterance dropped: %v", ev.Err)))
		r.mu.Unlock()
	}
}

var _ pipeline.Sink = (*Renderer)(nil)
