package match

import "testing"

func TestAssign_Empty(t *testing.T) {
	if got := assign(nil); got != nil {
		t.Errorf("assign(nil) = %v, want nil", got)
	}
}

func TestAssign_Square(t *testing.T) {
	scores := [][]float64{
		{0.9, 0.1},
		{0.8, 0.7},
	}
	// 0.9 + 0.7 = 1.6 beats 0.1 + 0.8 = 0.9.
	got := assign(scores)
	want := []int{0, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("assign = %v, want %v", got, want)
		}
	}
}

func TestAssign_TotalOverGreedy(t *testing.T) {
	// Greedy would take (0,0)=1.0 and leave row 1 with 0.0; the optimal
	// total is (0,1)=0.9 plus (1,0)=0.9.
	scores := [][]float64{
		{1.0, 0.9},
		{0.9, 0.0},
	}
	got := assign(scores)
	if got[0] != 1 || got[1] != 0 {
		t.Errorf("assign = %v, want [1 0]", got)
	}
}

func TestAssign_Rectangular(t *testing.T) {
	// More bill rows than ledger columns: exactly one row stays unassigned.
	scores := [][]float64{
		{0.9},
		{0.8},
		{0.95},
	}
	got := assign(scores)
	assigned := 0
	for _, j := range got {
		if j >= 0 {
			assigned++
		}
	}
	if assigned != 1 {
		t.Fatalf("assigned = %d rows, want 1 (got %v)", assigned, got)
	}
	if got[2] != 0 {
		t.Errorf("assign = %v, want the highest-scoring row to win", got)
	}
}

func TestAssign_TieBreaksToLowerIndex(t *testing.T) {
	scores := [][]float64{
		{0.5, 0.5},
		{0.5, 0.5},
	}
	got := assign(scores)
	if got[0] != 0 || got[1] != 1 {
		t.Errorf("assign = %v, want identity assignment on uniform scores", got)
	}
}
