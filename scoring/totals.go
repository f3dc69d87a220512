package scoring

import "github.com/Dosada05/debate-tournament/models"

// SideTotal sums a side's criteria over all rounds of a match.
func SideTotal(rounds []models.Round, side models.Side) int {
	total := 0
	for _, r := range rounds {
		total += r.Scores.SideTotal(side)
	}
	return total
}

// MatchTotals returns both side totals.
func MatchTotals(rounds []models.Round) (int, int) {
	return SideTotal(rounds, models.SideA), SideTotal(rounds, models.SideB)
}

// Winner picks the side with the strictly greater total; a tie has no winner.
func Winner(totalA, totalB int) (models.Side, bool) {
	switch {
	case totalA > totalB:
		return models.SideA, true
	case totalB > totalA:
		return models.SideB, true
	}
	return "", false
}
