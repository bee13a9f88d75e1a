package match

import "testing"

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{name: "identical", a: "cloud hosting", b: "cloud hosting", want: 1.0},
		{name: "both empty", a: "", b: "", want: 1.0},
		{name: "one empty", a: "cloud hosting", b: "", want: 0.0},
		{name: "case folded", a: "Cloud Hosting", b: "cloud hosting", want: 1.0},
		{name: "accents stripped", a: "Café Supplies", b: "cafe supplies", want: 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := similarity(tt.a, tt.b); got != tt.want {
				t.Errorf("similarity(%q, %q) = %g, want %g", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Café", "cafe"},
		{"RÉSUMÉ", "resume"},
		{"naïve widgets", "naive widgets"},
		{"plain text", "plain text"},
	}
	for _, tt := range tests {
		if got := normalize(tt.in); got != tt.want {
			t.Errorf("normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSimilarity_WordOrder(t *testing.T) {
	// Token-set comparison makes reordered words score full.
	if got := similarity("hosting cloud march", "march cloud hosting"); got != 1.0 {
		t.Errorf("similarity = %g, want 1.0 for reordered tokens", got)
	}
}

func TestSimilarity_SmallTypo(t *testing.T) {
	got := similarity("maintenance", "maintenence")
	if got < 0.85 {
		t.Errorf("similarity = %g, want at least 0.85 for a one-letter typo", got)
	}
}

func TestSimilarity_Unrelated(t *testing.T) {
	got := similarity("office furniture", "api usage overage")
	if got > 0.5 {
		t.Errorf("similarity = %g, want below 0.5 for unrelated text", got)
	}
}

func TestTokenDice(t *testing.T) {
	// Two of three tokens shared on each side: 2*2/(3+3).
	got := tokenDice("a b c", "a b d")
	want := 2.0 / 3.0
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("tokenDice = %g, want %g", got, want)
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"same", "same", 0},
	}
	for _, tt := range tests {
		if got := levenshtein([]rune(tt.a), []rune(tt.b)); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestFoldVendor(t *testing.T) {
	if foldVendor("  ACME Corp ") != foldVendor("acme corp") {
		t.Error("vendor folding should ignore case and surrounding space")
	}
	if foldVendor("Acme") == foldVendor("Other") {
		t.Error("distinct vendors must not fold together")
	}
}
