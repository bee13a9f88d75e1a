package jobs

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agentstation/tally/pkg/billing"
	"github.com/agentstation/tally/pkg/errors"
	"github.com/agentstation/tally/pkg/logging"
	"github.com/agentstation/tally/pkg/reconcile"
	"github.com/agentstation/tally/pkg/report"
)

// Tracker owns every reconciliation job: it enforces the at-most-one-active-
// attempt invariant per input pair, drives the Matching -> Aggregating
// pipeline through a worker pool, and retries transient boundary failures
// with exponential backoff.
type Tracker struct {
	rec        reconcile.Reconciler
	source     InputSource
	sink       ReportSink
	cfg        Config
	clock      Clock
	subscriber Subscriber
	logger     *zerolog.Logger

	mu     sync.Mutex
	jobs   map[uuid.UUID]*Job
	latest map[PairKey]uuid.UUID
	queue  chan uuid.UUID
	quit   chan struct{}
	wg     sync.WaitGroup
	closed bool
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithClock injects a clock, letting tests drive retry backoff without real
// time.
func WithClock(clock Clock) TrackerOption {
	return func(t *Tracker) { t.clock = clock }
}

// WithSubscriber registers a callback for job status transition events.
func WithSubscriber(sub Subscriber) TrackerOption {
	return func(t *Tracker) { t.subscriber = sub }
}

// WithLogger sets the tracker's logger.
func WithLogger(logger *zerolog.Logger) TrackerOption {
	return func(t *Tracker) { t.logger = logger }
}

// NewTracker creates a tracker around the pipeline and its two collaborator
// boundaries. The configuration is validated before any job can run.
func NewTracker(rec reconcile.Reconciler, source InputSource, sink ReportSink, cfg Config, opts ...TrackerOption) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := &Tracker{
		rec:    rec,
		source: source,
		sink:   sink,
		cfg:    cfg,
		clock:  realClock{},
		logger: logging.Default(),
		jobs:   make(map[uuid.UUID]*Job),
		latest: make(map[PairKey]uuid.UUID),
		queue:  make(chan uuid.UUID, 128),
		quit:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Start launches the worker pool. Jobs execute fully in parallel across
// workers; within one job the pipeline stages run sequentially.
func (t *Tracker) Start(ctx context.Context) {
	for i := 0; i < t.cfg.Workers; i++ {
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.quit:
					return
				case id := <-t.queue:
					t.run(ctx, id)
				}
			}
		}()
	}
}

// Close stops the worker pool and waits for in-flight jobs to settle.
func (t *Tracker) Close() {
	t.mu.Lock()
	if !t.closed {
		t.closed = true
		close(t.quit)
	}
	t.mu.Unlock()
	t.wg.Wait()
}

// Submit accepts a new job for an input pair. A non-terminal job for the
// same pair rejects the submission with ErrJobActive. Re-submitting a pair
// whose latest job is already Verified is idempotent: the existing job and
// report are returned unchanged, which makes at-least-once delivery from the
// upstream trigger safe.
func (t *Tracker) Submit(ctx context.Context, key PairKey) (Job, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return Job{}, errors.ErrCanceled
	}
	if id, ok := t.latest[key]; ok {
		existing := t.jobs[id]
		if !existing.Status.Terminal() {
			t.mu.Unlock()
			return Job{}, errors.ErrJobActive
		}
		if existing.Status == StatusVerified {
			snap := existing.snapshot()
			t.mu.Unlock()
			return snap, nil
		}
	}

	job := &Job{
		ID:        uuid.New(),
		Key:       key,
		Status:    StatusPending,
		CreatedAt: t.clock.Now(),
	}
	t.jobs[job.ID] = job
	t.latest[key] = job.ID
	t.emitLocked(job)
	snap := job.snapshot()
	t.mu.Unlock()

	select {
	case t.queue <- job.ID:
	case <-ctx.Done():
		t.failJob(job.ID, errors.ErrCanceled)
		return Job{}, errors.ErrCanceled
	case <-t.quit:
		t.failJob(job.ID, errors.ErrCanceled)
		return Job{}, errors.ErrCanceled
	}
	return snap, nil
}

// Supersede marks the pair's outstanding attempt as stale: a newer upload
// replaced its inputs. A pending job transitions immediately; an in-flight
// attempt is discarded at its next commit point instead of being recorded as
// Verified.
func (t *Tracker) Supersede(key PairKey) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	id, ok := t.latest[key]
	if !ok {
		return errors.ErrNotFound
	}
	job := t.jobs[id]
	if job.Status.Terminal() {
		return errors.ErrJobTerminal
	}

	job.superseded = true
	if job.Status == StatusPending {
		job.Status = StatusSuperseded
		now := t.clock.Now()
		job.CompletedAt = &now
		t.emitLocked(job)
	}
	return nil
}

// Job returns a snapshot of the job with the given ID.
func (t *Tracker) Job(id uuid.UUID) (Job, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[id]
	if !ok {
		return Job{}, errors.ErrNotFound
	}
	return job.snapshot(), nil
}

// Report returns the verified report for a job.
func (t *Tracker) Report(id uuid.UUID) (*report.Report, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	if job.report == nil {
		return nil, errors.ErrNotFound
	}
	return job.report, nil
}

// errSuperseded aborts an attempt whose job was superseded mid-flight.
var errSuperseded = errors.New("attempt superseded")

// run drives one job through the bounded retry loop. Transient boundary
// failures re-enter Matching after backoff; everything else is terminal.
func (t *Tracker) run(ctx context.Context, id uuid.UUID) {
	t.mu.Lock()
	job, ok := t.jobs[id]
	if !ok || job.Status.Terminal() {
		t.mu.Unlock()
		return
	}
	key := job.Key
	t.mu.Unlock()

	logger := t.logger.With().Str("job_id", id.String()).Logger()
	ctx = logging.WithLogger(ctx, &logger)

	for attempt := 0; ; attempt++ {
		err := t.attempt(ctx, id, key)
		if err == nil || errors.Is(err, errSuperseded) {
			return
		}
		if !errors.IsTransient(err) {
			t.failJob(id, err)
			return
		}
		if attempt >= t.cfg.MaxRetries {
			t.failJob(id, errors.Wrap(err, errors.ErrRetriesExhausted.Error()))
			return
		}

		t.noteRetry(id, err)
		logger.Warn().Err(err).Int("attempt", attempt+1).Msg("Transient failure, backing off")
		if serr := t.clock.Sleep(ctx, t.cfg.Backoff.Delay(attempt)); serr != nil {
			t.failJob(id, serr)
			return
		}
	}
}

// attempt executes one full Matching -> Aggregating pass.
func (t *Tracker) attempt(ctx context.Context, id uuid.UUID, key PairKey) error {
	if err := t.transition(id, StatusMatching); err != nil {
		return err
	}

	bill, ledger, err := t.fetch(ctx, key)
	if err != nil {
		return err
	}

	outcome, err := t.rec.Reconcile(ctx, bill, ledger)
	if err != nil {
		return err
	}

	if err := t.transition(id, StatusAggregating); err != nil {
		return err
	}

	rep := report.Generate(id.String(), outcome)
	if err := t.store(ctx, rep); err != nil {
		return err
	}

	return t.verify(id, rep)
}

// fetch reads both input collections within the boundary timeout. A timeout
// is a transient failure and follows the retry path.
func (t *Tracker) fetch(ctx context.Context, key PairKey) (billing.Collection, billing.Collection, error) {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.BoundaryTimeout)
	defer cancel()

	bill, ledger, err := t.source.Fetch(ctx, key)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return billing.Collection{}, billing.Collection{}, errors.NewTransientError("fetch inputs", errors.ErrTimeout)
		}
		return billing.Collection{}, billing.Collection{}, err
	}
	return bill, ledger, nil
}

// store persists the report within the boundary timeout.
func (t *Tracker) store(ctx context.Context, rep *report.Report) error {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.BoundaryTimeout)
	defer cancel()

	if err := t.sink.Store(ctx, rep); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return errors.NewTransientError("store report", errors.ErrTimeout)
		}
		return err
	}
	return nil
}

// transition moves a job forward, honoring a supersede first.
func (t *Tracker) transition(id uuid.UUID, to Status) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[id]
	if !ok {
		return errors.ErrNotFound
	}
	if job.superseded {
		t.supersedeLocked(job)
		return errSuperseded
	}
	if !CanTransition(job.Status, to) {
		return errors.Wrap(errors.ErrJobTerminal,
			"illegal transition "+string(job.Status)+" -> "+string(to))
	}
	job.Status = to
	t.emitLocked(job)
	return nil
}

// verify records the report and completes the job, unless a supersede
// arrived while the attempt was in flight, in which case the result is
// discarded.
func (t *Tracker) verify(id uuid.UUID, rep *report.Report) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[id]
	if !ok {
		return errors.ErrNotFound
	}
	if job.superseded {
		t.supersedeLocked(job)
		return errSuperseded
	}
	job.Status = StatusVerified
	job.report = rep
	job.Diagnostic = ""
	now := t.clock.Now()
	job.CompletedAt = &now
	t.emitLocked(job)
	return nil
}

// failJob terminates a job with the last diagnostic.
func (t *Tracker) failJob(id uuid.UUID, cause error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[id]
	if !ok || job.Status.Terminal() {
		return
	}
	job.Status = StatusFailed
	job.Diagnostic = cause.Error()
	now := t.clock.Now()
	job.CompletedAt = &now
	t.emitLocked(job)
}

// noteRetry records a retry and its diagnostic.
func (t *Tracker) noteRetry(id uuid.UUID, cause error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if job, ok := t.jobs[id]; ok {
		job.Retries++
		job.Diagnostic = cause.Error()
	}
}

func (t *Tracker) supersedeLocked(job *Job) {
	if job.Status.Terminal() {
		return
	}
	job.Status = StatusSuperseded
	now := t.clock.Now()
	job.CompletedAt = &now
	t.emitLocked(job)
}

// emitLocked publishes a status event. Caller holds the tracker mutex.
func (t *Tracker) emitLocked(job *Job) {
	if t.subscriber == nil {
		return
	}
	t.subscriber(Event{
		JobID:  job.ID,
		Key:    job.Key,
		Status: job.Status,
		At:     t.clock.Now(),
	})
}
