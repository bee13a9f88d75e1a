package tally

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/tally/internal/config"
	"github.com/agentstation/tally/internal/jobs"
)

// options configures a Client.
type options struct {
	config     *config.Config
	source     jobs.InputSource
	sink       jobs.ReportSink
	subscriber jobs.Subscriber
	clock      jobs.Clock
	logger     *zerolog.Logger
}

func defaultOptions() *options {
	return &options{
		config: config.Default(),
		source: jobs.NewMemorySource(),
		sink:   jobs.NewMemorySink(),
	}
}

// Option is a function that configures a Client.
type Option func(*options) error

func newOptions(opts ...Option) (*options, error) {
	options := defaultOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	return options, nil
}

// WithConfig sets a loaded configuration.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		o.config = cfg
		return nil
	}
}

// WithConfigFile loads configuration from a file.
func WithConfigFile(path string) Option {
	return func(o *options) error {
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		o.config = cfg
		return nil
	}
}

// WithInputSource sets the collaborator that delivers input collections.
func WithInputSource(source jobs.InputSource) Option {
	return func(o *options) error {
		o.source = source
		return nil
	}
}

// WithReportSink sets the collaborator that persists finished reports.
func WithReportSink(sink jobs.ReportSink) Option {
	return func(o *options) error {
		o.sink = sink
		return nil
	}
}

// WithSubscriber registers a callback for job status events.
func WithSubscriber(sub jobs.Subscriber) Option {
	return func(o *options) error {
		o.subscriber = sub
		return nil
	}
}

// WithClock injects a clock for the tracker's retry backoff.
func WithClock(clock jobs.Clock) Option {
	return func(o *options) error {
		o.clock = clock
		return nil
	}
}

// WithLogger sets the logger used by the tracker.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}
