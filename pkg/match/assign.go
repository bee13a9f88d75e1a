package match

import "math"

// assign solves the maximum-weight 1:1 assignment over a bill x ledger score
// matrix using the Hungarian algorithm with potentials (O(n³)). The matrix is
// padded to square with zero-score cells; an assignment into padding means
// the row stays unmatched. The algorithm is deterministic: columns are
// scanned in ascending index, so equal-score ties resolve to the lower
// source line index.
func assign(scores [][]float64) []int {
	rows := len(scores)
	if rows == 0 {
		return nil
	}
	cols := len(scores[0])
	n := rows
	if cols > n {
		n = cols
	}

	// Convert to a square minimization problem.
	cost := make([][]float64, n)
	for i := range cost {
		cost[i] = make([]float64, n)
		for j := range cost[i] {
			if i < rows && j < cols {
				cost[i][j] = 1 - scores[i][j]
			} else {
				cost[i][j] = 1
			}
		}
	}

	u := make([]float64, n+1)
	v := make([]float64, n+1)
	p := make([]int, n+1) // p[j] = row matched to column j (1-based)
	way := make([]int, n+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		minv := make([]float64, n+1)
		used := make([]bool, n+1)
		for j := range minv {
			minv[j] = math.Inf(1)
		}
		for {
			used[j0] = true
			i0 := p[j0]
			delta := math.Inf(1)
			j1 := 0
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := cost[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}
		// Augment along the found path.
		for {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
			if j0 == 0 {
				break
			}
		}
	}

	result := make([]int, rows)
	for i := range result {
		result[i] = -1
	}
	for j := 1; j <= n; j++ {
		i := p[j]
		if i >= 1 && i <= rows && j <= cols {
			result[i-1] = j - 1
		}
	}
	return result
}
