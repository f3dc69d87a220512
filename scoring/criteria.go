// Package scoring holds the judging criteria of each round and the pure score
// computations built on them.
package scoring

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/debate-tournament/models"
)

// RoundsPerMatch is the number of rounds every match is judged in.
const RoundsPerMatch = 3

// UnboundedMax is the cap applied to criteria the registry does not know.
const UnboundedMax = 9999

type criterion struct {
	name string
	max  int
}

var roundCriteria = map[int][]criterion{
	1: {{"matter", 8}, {"manner", 6}, {"method", 6}},
	2: {{"matter", 15}, {"manner", 10}, {"feasibilitycreativity", 10}},
	3: {{"questions", 10}, {"answers", 10}, {"answertoadjudicator", 5}},
}

// CriteriaFor returns the ordered criterion names of a round, nil for unknown rounds.
func CriteriaFor(roundNumber int) []string {
	list := roundCriteria[roundNumber]
	if len(list) == 0 {
		return nil
	}
	names := make([]string, len(list))
	for i, c := range list {
		names[i] = c.name
	}
	return names
}

// MaxFor returns the maximum value of a criterion. Unknown rounds and
// criteria yield UnboundedMax.
func MaxFor(roundNumber int, name string) int {
	name = strings.ToLower(name)
	for _, c := range roundCriteria[roundNumber] {
		if c.name == name {
			return c.max
		}
	}
	return UnboundedMax
}

// IsKnown reports whether the criterion belongs to the round.
func IsKnown(roundNumber int, name string) bool {
	name = strings.ToLower(name)
	for _, c := range roundCriteria[roundNumber] {
		if c.name == name {
			return true
		}
	}
	return false
}

// Clamp bounds a score into [0, MaxFor(roundNumber, name)].
func Clamp(roundNumber int, name string, value int) int {
	if value < 0 {
		return 0
	}
	if limit := MaxFor(roundNumber, name); value > limit {
		return limit
	}
	return value
}

// KindFor decides the score shape of a round: round 3 is judged per team,
// earlier rounds per participant.
func KindFor(roundNumber int) models.ScoreKind {
	if roundNumber == RoundsPerMatch {
		return models.ScoreKindTeam
	}
	return models.ScoreKindParticipant
}

func RoundName(roundNumber int) string {
	return fmt.Sprintf("round %d", roundNumber)
}

func RoundNumberFromName(name string) (int, bool) {
	rest, ok := strings.CutPrefix(strings.ToLower(strings.TrimSpace(name)), "round")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
