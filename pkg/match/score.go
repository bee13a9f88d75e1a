package match

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agentstation/tally/pkg/billing"
)

// score computes the compatibility of one bill/ledger pair. The exact-key
// tier (vendor + date window + amount tolerance) wins outright with a full
// score; otherwise the fuzzy tier blends description similarity with amount
// proximity. A vendor mismatch disqualifies the pair entirely.
func (m *Matcher) score(b, l billing.LineItem) (float64, Strategy) {
	if foldVendor(b.Vendor) != foldVendor(l.Vendor) {
		return 0, StrategyFuzzy
	}

	if m.exactKey(b, l) {
		return 1.0, StrategyExact
	}

	descSim := similarity(b.Description, l.Description)
	amountSim := amountProximity(b.Total, l.Total)

	s := m.cfg.DescriptionWeight*descSim + m.cfg.AmountWeight*amountSim
	if s < 0 {
		s = 0
	}
	if s > 1 {
		s = 1
	}
	return s, StrategyFuzzy
}

// exactKey reports whether vendor, date, and total amount line up within the
// fixed exact-key tolerances.
func (m *Matcher) exactKey(b, l billing.LineItem) bool {
	if !withinDays(b.Date.Time, l.Date.Time, m.cfg.DateWindowDays) {
		return false
	}
	diff := b.Total.Sub(l.Total).Abs()
	return diff.LessThanOrEqual(m.cfg.ExactAmountTolerance)
}

// amountProximity maps the relative difference between two totals to [0,1]:
// identical amounts score 1, a difference as large as the bigger amount
// scores 0.
func amountProximity(a, b decimal.Decimal) float64 {
	bigger := decimal.Max(a.Abs(), b.Abs())
	if bigger.IsZero() {
		return 1.0
	}
	ratio, _ := a.Sub(b).Abs().Div(bigger).Float64()
	return math.Max(0, 1-ratio)
}

// withinDays compares calendar dates, ignoring time of day.
func withinDays(a, b time.Time, window int) bool {
	diff := dayNumber(a) - dayNumber(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= int64(window)
}

// dayNumber collapses a timestamp to a whole-day count since the epoch.
func dayNumber(t time.Time) int64 {
	return t.UTC().Truncate(24*time.Hour).Unix() / 86400
}
