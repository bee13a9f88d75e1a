package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// folder normalizes text before comparison: Unicode case folding plus
// stripping of combining marks, so "Café" and "cafe" compare equal.
var folder = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	cases.Fold(),
	norm.NFC,
)

// normalize folds and tokenizes free text for fuzzy comparison.
func normalize(s string) string {
	folded, _, err := transform.String(folder, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return folded
}

// foldVendor normalizes a vendor identifier for equality checks.
func foldVendor(vendor string) string {
	return strings.TrimSpace(normalize(vendor))
}

// similarity scores two free-text descriptions in [0,1]. It takes the better
// of a token-set Dice coefficient (robust to word order) and a character
// Levenshtein ratio (robust to small typos). Empty descriptions on both
// sides are treated as agreeing.
func similarity(a, b string) float64 {
	a = strings.TrimSpace(normalize(a))
	b = strings.TrimSpace(normalize(b))
	if a == "" && b == "" {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	if a == b {
		return 1.0
	}

	dice := tokenDice(a, b)
	lev := levenshteinRatio(a, b)
	if dice > lev {
		return dice
	}
	return lev
}

// tokenDice computes the Dice coefficient over the token sets of two strings.
func tokenDice(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0.0
	}
	common := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			common++
		}
	}
	return 2 * float64(common) / float64(len(ta)+len(tb))
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}

// levenshteinRatio maps edit distance to a [0,1] similarity.
func levenshteinRatio(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	longer := len(ra)
	if len(rb) > longer {
		longer = len(rb)
	}
	if longer == 0 {
		return 1.0
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longer)
}

// levenshtein computes edit distance with a two-row dynamic program.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
