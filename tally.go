// Package tally reconciles vendor bills against purchase ledgers. It pairs
// line items across the two inputs, verifies each pair with a configurable
// rule set, and produces a confidence-scored discrepancy report with
// suggested corrections.
//
// The Client is the high-level entry point: it owns the verification
// pipeline and the job tracker, and exposes both a one-shot Reconcile for
// callers that already hold the two collections and a Submit/Report flow for
// asynchronous processing with retry.
package tally

import (
	"context"

	"github.com/google/uuid"

	"github.com/agentstation/tally/internal/jobs"
	"github.com/agentstation/tally/pkg/billing"
	"github.com/agentstation/tally/pkg/logging"
	"github.com/agentstation/tally/pkg/reconcile"
	"github.com/agentstation/tally/pkg/report"
)

// Client wires the reconciliation pipeline to the job tracker.
type Client struct {
	rec     reconcile.Reconciler
	tracker *jobs.Tracker
}

// New creates a Client with options.
func New(opts ...Option) (*Client, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}

	rec, err := options.config.Reconciler()
	if err != nil {
		return nil, err
	}

	trackerOpts := []jobs.TrackerOption{}
	if options.clock != nil {
		trackerOpts = append(trackerOpts, jobs.WithClock(options.clock))
	}
	if options.subscriber != nil {
		trackerOpts = append(trackerOpts, jobs.WithSubscriber(options.subscriber))
	}
	if options.logger != nil {
		trackerOpts = append(trackerOpts, jobs.WithLogger(options.logger))
	}

	tracker, err := jobs.NewTracker(rec, options.source, options.sink, options.config.Jobs, trackerOpts...)
	if err != nil {
		return nil, err
	}

	return &Client{rec: rec, tracker: tracker}, nil
}

// Start launches the job workers.
func (c *Client) Start(ctx context.Context) {
	c.tracker.Start(ctx)
}

// Close stops the workers and waits for in-flight jobs to settle.
func (c *Client) Close() {
	c.tracker.Close()
}

// Submit queues a reconciliation job for an input pair. Submitting a pair
// with a non-terminal job is rejected; re-submitting a Verified pair returns
// the existing job unchanged.
func (c *Client) Submit(ctx context.Context, key jobs.PairKey) (jobs.Job, error) {
	return c.tracker.Submit(ctx, key)
}

// Supersede marks the pair's outstanding attempt as stale so its result is
// discarded.
func (c *Client) Supersede(key jobs.PairKey) error {
	return c.tracker.Supersede(key)
}

// Job returns a snapshot of a job.
func (c *Client) Job(id uuid.UUID) (jobs.Job, error) {
	return c.tracker.Job(id)
}

// Report returns the verified report for a job.
func (c *Client) Report(id uuid.UUID) (*report.Report, error) {
	return c.tracker.Report(id)
}

// Reconcile runs the pipeline synchronously on two collections, bypassing
// the job machinery. The report is a pure function of the inputs, the
// configuration, and the given job identifier.
func (c *Client) Reconcile(ctx context.Context, jobID string, bill, ledger billing.Collection) (*report.Report, error) {
	logger := logging.FromContext(ctx)
	ctx = logging.WithJob(logging.WithLogger(ctx, logger), jobID)

	outcome, err := c.rec.Reconcile(ctx, bill, ledger)
	if err != nil {
		return nil, err
	}
	return report.Generate(jobID, outcome), nil
}
