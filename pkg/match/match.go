// Package match pairs bill line items against ledger line items. It scores
// every bill/ledger combination, solves the resulting bipartite matrix with a
// maximum-weight assignment, and reports the pairs plus the unmatched residue
// on each side. Matching is pure and deterministic: identical inputs and
// configuration always produce identical output.
package match

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/agentstation/tally/pkg/billing"
	"github.com/agentstation/tally/pkg/errors"
)

// Strategy identifies which keying produced a candidate's score.
type Strategy string

const (
	// StrategyExact means vendor, date, and amount lined up within the
	// fixed exact-key tolerance.
	StrategyExact Strategy = "exact"
	// StrategyFuzzy means the pair was scored from description similarity
	// and amount proximity.
	StrategyFuzzy Strategy = "fuzzy"
)

// Candidate is a proposed 1:1 pairing of one bill item with one ledger item.
type Candidate struct {
	Bill     billing.LineItem
	Ledger   billing.LineItem
	Score    float64 // in [0,1]
	Strategy Strategy
}

// Result holds the matched candidates and the residues that scored below the
// configured threshold on each side.
type Result struct {
	Candidates      []Candidate
	UnmatchedBill   []billing.LineItem
	UnmatchedLedger []billing.LineItem
}

// Config controls matcher scoring and acceptance. Thresholds and weights are
// configuration, not behavior baked into the algorithm.
type Config struct {
	// ScoreThreshold is the minimum score a pair must reach to be kept.
	// Pairs below it fall back to unmatched on both sides.
	ScoreThreshold float64 `json:"scoreThreshold" yaml:"scoreThreshold" mapstructure:"score_threshold"`

	// ExactAmountTolerance is the fixed absolute tolerance on total amount
	// for the exact-key tier.
	ExactAmountTolerance decimal.Decimal `json:"exactAmountTolerance" yaml:"exactAmountTolerance" mapstructure:"-"`

	// DateWindowDays bounds how far apart dates may be for the exact key.
	DateWindowDays int `json:"dateWindowDays" yaml:"dateWindowDays" mapstructure:"date_window_days"`

	// DescriptionWeight and AmountWeight blend the fuzzy tier's two
	// signals. They must sum to 1.
	DescriptionWeight float64 `json:"descriptionWeight" yaml:"descriptionWeight" mapstructure:"description_weight"`
	AmountWeight      float64 `json:"amountWeight" yaml:"amountWeight" mapstructure:"amount_weight"`
}

// DefaultConfig returns matcher defaults suitable for most vendor bills.
func DefaultConfig() Config {
	return Config{
		ScoreThreshold:       0.5,
		ExactAmountTolerance: decimal.NewFromFloat(0.01),
		DateWindowDays:       3,
		DescriptionWeight:    0.6,
		AmountWeight:         0.4,
	}
}

// Validate rejects configurations before any matching runs.
func (c Config) Validate() error {
	if c.ScoreThreshold < 0 || c.ScoreThreshold > 1 {
		return errors.NewConfigError("matcher", "score threshold must be in [0,1]", nil)
	}
	if c.DateWindowDays < 0 {
		return errors.NewConfigError("matcher", "date window cannot be negative", nil)
	}
	if c.ExactAmountTolerance.IsNegative() {
		return errors.NewConfigError("matcher", "exact amount tolerance cannot be negative", nil)
	}
	sum := c.DescriptionWeight + c.AmountWeight
	if sum < 1-weightEpsilon || sum > 1+weightEpsilon {
		return errors.NewConfigError("matcher", "description and amount weights must sum to 1", nil)
	}
	return nil
}

const weightEpsilon = 1e-9

// Matcher pairs two collections under a fixed configuration.
type Matcher struct {
	cfg Config
}

// New creates a Matcher, validating the configuration first.
func New(cfg Config) (*Matcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Matcher{cfg: cfg}, nil
}

// Match resolves the full bill x ledger scoring matrix into a 1:1 assignment
// of maximum total score. An empty side is not an error; everything on the
// other side comes back unmatched.
func (m *Matcher) Match(bill, ledger billing.Collection) Result {
	nb, nl := bill.Len(), ledger.Len()
	if nb == 0 || nl == 0 {
		return Result{
			UnmatchedBill:   sortedByLine(bill.Items),
			UnmatchedLedger: sortedByLine(ledger.Items),
		}
	}

	scores := make([][]float64, nb)
	strategies := make([][]Strategy, nb)
	for i, b := range bill.Items {
		scores[i] = make([]float64, nl)
		strategies[i] = make([]Strategy, nl)
		for j, l := range ledger.Items {
			scores[i][j], strategies[i][j] = m.score(b, l)
		}
	}

	assignment := assign(scores)

	var result Result
	usedLedger := make([]bool, nl)
	for i, j := range assignment {
		// Score 0 marks an incompatible pair (vendor mismatch); it never
		// survives, even under a zero threshold.
		if j < 0 || scores[i][j] <= 0 || scores[i][j] < m.cfg.ScoreThreshold {
			result.UnmatchedBill = append(result.UnmatchedBill, bill.Items[i])
			continue
		}
		usedLedger[j] = true
		result.Candidates = append(result.Candidates, Candidate{
			Bill:     bill.Items[i],
			Ledger:   ledger.Items[j],
			Score:    scores[i][j],
			Strategy: strategies[i][j],
		})
	}
	for j, used := range usedLedger {
		if !used {
			result.UnmatchedLedger = append(result.UnmatchedLedger, ledger.Items[j])
		}
	}

	// Stable output order: candidates by score descending, ties by lower
	// bill line index, then lower ledger line index; residues by line index.
	sort.SliceStable(result.Candidates, func(a, b int) bool {
		ca, cb := result.Candidates[a], result.Candidates[b]
		if ca.Score != cb.Score {
			return ca.Score > cb.Score
		}
		if ca.Bill.LineIndex != cb.Bill.LineIndex {
			return ca.Bill.LineIndex < cb.Bill.LineIndex
		}
		return ca.Ledger.LineIndex < cb.Ledger.LineIndex
	})
	result.UnmatchedBill = sortedByLine(result.UnmatchedBill)
	result.UnmatchedLedger = sortedByLine(result.UnmatchedLedger)

	return result
}

func sortedByLine(items []billing.LineItem) []billing.LineItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]billing.LineItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LineIndex < out[j].LineIndex
	})
	return out
}
