package reconcile

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/agentstation/tally/pkg/errors"
)

// Severity classifies how actionable a pair's discrepancy is. The scale is
// ordered from clean to critical; unmatched sits outside the ladder and is
// reserved for residue entries.
type Severity string

const (
	// SeverityClean means every rule passed with full confidence.
	SeverityClean Severity = "clean"
	// SeverityMinor means small deviations an operator can usually accept.
	SeverityMinor Severity = "minor"
	// SeverityMajor means deviations that need review before payment.
	SeverityMajor Severity = "major"
	// SeverityCritical means the pair should block payment outright.
	SeverityCritical Severity = "critical"
	// SeverityUnmatched marks a residue entry with no counterpart.
	SeverityUnmatched Severity = "unmatched"
)

// Cut is one rung of the severity ladder: a pair classifies at this rung's
// severity when its confidence is at least MinConfidence and its absolute
// total deviation is at most MaxDeviation.
type Cut struct {
	Severity      Severity        `json:"severity" yaml:"severity"`
	MinConfidence float64         `json:"minConfidence" yaml:"minConfidence" mapstructure:"min_confidence"`
	MaxDeviation  decimal.Decimal `json:"maxDeviation" yaml:"maxDeviation" mapstructure:"-"`
}

// Ladder is the ordered list of severity cut points, best first. A pair that
// clears no rung classifies as critical.
type Ladder []Cut

// DefaultLadder returns the documented default cut points. Clean demands
// near-full confidence, which only a pair with every active rule evaluated
// and passing can reach: a skipped rule forfeits its weight, so a pair
// missing reference data (for example no vendor tax rate) tops out below the
// clean cut and classifies minor at best.
func DefaultLadder() Ladder {
	return Ladder{
		{Severity: SeverityClean, MinConfidence: 0.999, MaxDeviation: decimal.Zero},
		{Severity: SeverityMinor, MinConfidence: 0.75, MaxDeviation: decimal.NewFromInt(10)},
		{Severity: SeverityMajor, MinConfidence: 0.40, MaxDeviation: decimal.NewFromInt(100)},
	}
}

// Validate rejects a misordered or out-of-range ladder at configuration load.
func (l Ladder) Validate() error {
	if len(l) == 0 {
		return errors.NewConfigError("severity", "ladder cannot be empty", nil)
	}
	for i, cut := range l {
		if cut.MinConfidence < 0 || cut.MinConfidence > 1 {
			return errors.NewConfigError("severity",
				fmt.Sprintf("cut %d: confidence must be in [0,1]", i), nil)
		}
		if cut.MaxDeviation.IsNegative() {
			return errors.NewConfigError("severity",
				fmt.Sprintf("cut %d: max deviation cannot be negative", i), nil)
		}
		if i > 0 {
			prev := l[i-1]
			if cut.MinConfidence > prev.MinConfidence || cut.MaxDeviation.LessThan(prev.MaxDeviation) {
				return errors.NewConfigError("severity",
					fmt.Sprintf("cut %d: ladder must run from strict to loose", i), nil)
			}
		}
	}
	return nil
}

// Classify maps a pair's confidence and absolute deviation onto the ladder.
func (l Ladder) Classify(confidence float64, absDeviation decimal.Decimal) Severity {
	for _, cut := range l {
		if confidence >= cut.MinConfidence && absDeviation.LessThanOrEqual(cut.MaxDeviation) {
			return cut.Severity
		}
	}
	return SeverityCritical
}
