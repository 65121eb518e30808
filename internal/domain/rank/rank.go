// Package rank positions one candidate's metric within a comparison set.
package rank

import "math"

// Position is the target's standing in its decision window.
type Position struct {
	Rank       int `json:"rank"`       // 1 is the least congested
	Percentile int `json:"percentile"` // share of candidates scoring strictly lower
	Total      int `json:"total"`
}

// Of ranks target against others. others must not contain the target itself;
// the total includes it.
//
//	percentile = round(lower / total * 100)
//	rank       = 1 + lower
func Of(target int, others []int) Position {
	lower := 0
	for _, v := range others {
		if v < target {
			lower++
		}
	}
	total := len(others) + 1
	return Position{
		Rank:       1 + lower,
		Percentile: int(math.Round(float64(lower) / float64(total) * 100)),
		Total:      total,
	}
}

// All ranks every entry of values against the rest of the set.
func All(values []int) []Position {
	out := make([]Position, len(values))
	if len(values) == 0 {
		return out
	}
	others := make([]int, 0, len(values)-1)
	for i, v := range values {
		others = others[:0]
		others = append(others, values[:i]...)
		others = append(others, values[i+1:]...)
		out[i] = Of(v, others)
	}
	return out
}
