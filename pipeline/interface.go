package pipeline

import (
	"context"
)

type Interface interface {
	// ProcessFrame advances the pipeline by one detector step.
	ProcessFrame(ctx context.Context) error
	// Run processes frames until the context is cancelled, the source ends
	// or enrollment is finished.
	Run(ctx context.Context) error

	Mode() Mode
	NextLabel() int
	Finished() bool
}
