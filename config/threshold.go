package config

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
)

// DefaultThreshold is the peak amplitude used whenever the configured
// threshold text is not a valid integer.
const DefaultThreshold = 15000

// Error reports an invalid configuration value. Callers recover from it by
// substituting a default.
type Error struct {
	Field string
	Value string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ParseThreshold parses threshold text. On failure it returns
// [DefaultThreshold] together with an [*Error].
func ParseThreshold(text string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return DefaultThreshold, &Error{Field: "trigger.threshold", Value: text, Err: err}
	}
	return v, nil
}

// Threshold is the live, mutable trigger threshold. It holds the raw text so
// that readers see exactly what the user entered; it is safe for concurrent
// use by the config watcher and the audio loop.
type Threshold struct {
	text atomic.Value
}

// NewThreshold returns a Threshold holding text.
func NewThreshold(text string) *Threshold {
	t := &Threshold{}
	t.Set(text)
	return t
}

// Text returns the current threshold text.
func (t *Threshold) Text() string {
	s, _ := t.text.Load().(string)
	return s
}

// Set replaces the threshold text.
func (t *Threshold) Set(text string) {
	t.text.Store(text)
}

// Value returns the parsed threshold, falling back to [DefaultThreshold].
func (t *Threshold) Value() int {
	v, _ := ParseThreshold(t.Text())
	return v
}
