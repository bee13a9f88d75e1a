package jobs

import (
	"context"
	"sync"

	"github.com/agentstation/tally/pkg/billing"
	"github.com/agentstation/tally/pkg/errors"
	"github.com/agentstation/tally/pkg/report"
)

// MemorySource is an in-memory InputSource, useful for embedding the tracker
// without an external delivery mechanism and for tests.
type MemorySource struct {
	mu    sync.RWMutex
	pairs map[PairKey][2]billing.Collection
}

// NewMemorySource creates an empty in-memory input source.
func NewMemorySource() *MemorySource {
	return &MemorySource{pairs: make(map[PairKey][2]billing.Collection)}
}

// Put registers both collections for an input pair.
func (s *MemorySource) Put(key PairKey, bill, ledger billing.Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pairs[key] = [2]billing.Collection{bill, ledger}
}

// Fetch implements InputSource.
func (s *MemorySource) Fetch(_ context.Context, key PairKey) (billing.Collection, billing.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pair, ok := s.pairs[key]
	if !ok {
		return billing.Collection{}, billing.Collection{}, errors.ErrNotFound
	}
	return pair[0], pair[1], nil
}

// MemorySink is an in-memory ReportSink keyed by job ID.
type MemorySink struct {
	mu      sync.RWMutex
	reports map[string]*report.Report
}

// NewMemorySink creates an empty in-memory report sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{reports: make(map[string]*report.Report)}
}

// Store implements ReportSink.
func (s *MemorySink) Store(_ context.Context, r *report.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[r.JobID] = r
	return nil
}

// Get returns a stored report by job ID.
func (s *MemorySink) Get(jobID string) (*report.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[jobID]
	return r, ok
}
