package jobs

import (
	"github.com/agentstation/utc"
	"github.com/google/uuid"

	"github.com/agentstation/tally/pkg/billing"
	"github.com/agentstation/tally/pkg/report"
)

// PairKey identifies one bill/ledger input pair. At most one job per key may
// be non-terminal at any time.
type PairKey struct {
	Bill   billing.Ref
	Ledger billing.Ref
}

// Job tracks one reconciliation attempt chain for an input pair. All fields
// are owned by the tracker; callers only ever see snapshot copies.
type Job struct {
	ID          uuid.UUID
	Key         PairKey
	Status      Status
	CreatedAt   utc.Time
	CompletedAt *utc.Time
	Retries     int
	Diagnostic  string

	report     *report.Report
	superseded bool // set by Supersede while an attempt is in flight
}

// Report returns the verified report, or nil before verification.
func (j *Job) Report() *report.Report {
	return j.report
}

// snapshot returns a copy safe to hand outside the tracker's lock.
func (j *Job) snapshot() Job {
	copied := *j
	if j.CompletedAt != nil {
		at := *j.CompletedAt
		copied.CompletedAt = &at
	}
	return copied
}
