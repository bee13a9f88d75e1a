// Package jobs owns the lifecycle of reconciliation jobs: the state machine,
// the per-input-pair exclusivity lock, bounded retry with backoff, and the
// worker pool that executes the pipeline. Jobs run independently; the
// tracker's mutex is the only shared state between them.
package jobs

import (
	"github.com/agentstation/utc"
	"github.com/google/uuid"
)

// Status is a reconciliation job's lifecycle state.
type Status string

const (
	// StatusPending is the only initial state.
	StatusPending Status = "pending"
	// StatusMatching covers input fetch and line-item pairing.
	StatusMatching Status = "matching"
	// StatusAggregating covers rule evaluation, aggregation, and report
	// persistence.
	StatusAggregating Status = "aggregating"
	// StatusVerified is the terminal success state.
	StatusVerified Status = "verified"
	// StatusFailed is the terminal failure state, reached on exhausted
	// retries or a non-transient error.
	StatusFailed Status = "failed"
	// StatusSuperseded marks a stale attempt whose inputs were replaced
	// by a newer upload; its result is discarded, not recorded.
	StatusSuperseded Status = "superseded"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	switch s {
	case StatusVerified, StatusFailed, StatusSuperseded:
		return true
	}
	return false
}

// transitions encodes the strictly forward state machine. The only backward
// edge is the bounded retry loop re-entering matching.
var transitions = map[Status][]Status{
	StatusPending:     {StatusMatching, StatusSuperseded},
	StatusMatching:    {StatusAggregating, StatusMatching, StatusFailed, StatusSuperseded},
	StatusAggregating: {StatusVerified, StatusMatching, StatusFailed, StatusSuperseded},
}

// CanTransition reports whether the state machine allows from -> to. It is a
// pure function, testable without a tracker.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Event is one discrete job status transition, emitted for downstream
// notification or polling.
type Event struct {
	JobID  uuid.UUID
	Key    PairKey
	Status Status
	At     utc.Time
}

// Subscriber receives status transition events. Calls are synchronous with
// the transition; subscribers must not block.
type Subscriber func(Event)
