package scoring

import (
	"math"

	"github.com/jonathan/ats-analyzer/internal/types"
)

// Aggregate sums the factor scores, clamps the total to [0, MaxScore] and
// rounds it to the nearest integer. The result is the raw score.
func Aggregate(factors []types.FactorScore) int {
	total := 0.0
	for _, f := range factors {
		total += float64(f.Score)
	}
	total = math.Max(0, math.Min(MaxScore, total))
	return int(math.Round(total))
}

// CheckFactorBudget verifies that the factor max values sum to exactly MaxScore
func CheckFactorBudget(factors []types.FactorScore) error {
	total := 0
	for _, f := range factors {
		total += f.Max
	}
	if total != MaxScore {
		return &BudgetError{Total: total}
	}
	return nil
}
