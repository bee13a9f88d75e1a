package jobs

import (
	"context"
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/tally/pkg/billing"
	"github.com/agentstation/tally/pkg/errors"
	"github.com/agentstation/tally/pkg/report"
)

// InputSource is the collaborator boundary that delivers both normalized
// line-item collections for a job. Both collections must be available before
// matching begins; a temporary failure here follows the retry path.
type InputSource interface {
	Fetch(ctx context.Context, key PairKey) (bill, ledger billing.Collection, err error)
}

// ReportSink is the collaborator boundary that persists or emits the final
// report. Like the input side, temporary failures are retried.
type ReportSink interface {
	Store(ctx context.Context, r *report.Report) error
}

// Clock abstracts time for the tracker so retry behavior is testable without
// real sleeps.
type Clock interface {
	Now() utc.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// realClock is the production Clock.
type realClock struct{}

func (realClock) Now() utc.Time { return utc.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return errors.ErrCanceled
	case <-timer.C:
		return nil
	}
}

// Backoff computes the delay before a retry attempt: base x multiplier^attempt.
type Backoff struct {
	Base       time.Duration `json:"base" yaml:"base" mapstructure:"base"`
	Multiplier float64       `json:"multiplier" yaml:"multiplier" mapstructure:"multiplier"`
}

// Delay returns the backoff before the given retry attempt (0-based).
func (b Backoff) Delay(attempt int) time.Duration {
	d := float64(b.Base)
	for i := 0; i < attempt; i++ {
		d *= b.Multiplier
	}
	return time.Duration(d)
}

// Config controls the tracker's retry policy and worker pool.
type Config struct {
	MaxRetries      int           `json:"maxRetries" yaml:"maxRetries" mapstructure:"max_retries"`
	Backoff         Backoff       `json:"retryBackoff" yaml:"retryBackoff" mapstructure:"retry_backoff"`
	Workers         int           `json:"workers" yaml:"workers" mapstructure:"workers"`
	BoundaryTimeout time.Duration `json:"boundaryTimeout" yaml:"boundaryTimeout" mapstructure:"boundary_timeout"`
}

// DefaultConfig returns the documented tracker defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries:      3,
		Backoff:         Backoff{Base: 500 * time.Millisecond, Multiplier: 2.0},
		Workers:         4,
		BoundaryTimeout: 30 * time.Second,
	}
}

// Validate rejects tracker configurations before any job runs.
func (c Config) Validate() error {
	if c.MaxRetries < 0 {
		return errors.NewConfigError("jobs", "max retries cannot be negative", nil)
	}
	if c.Backoff.Base < 0 {
		return errors.NewConfigError("jobs", "backoff base cannot be negative", nil)
	}
	if c.Backoff.Multiplier < 1 {
		return errors.NewConfigError("jobs", "backoff multiplier must be at least 1", nil)
	}
	if c.Workers < 1 {
		return errors.NewConfigError("jobs", "worker count must be at least 1", nil)
	}
	if c.BoundaryTimeout <= 0 {
		return errors.NewConfigError("jobs", "boundary timeout must be positive", nil)
	}
	return nil
}
