package brackets

import (
	"context"
	"log/slog"
	"sort"

	"github.com/Dosada05/debate-tournament/models"
)

// SwissGenerator pairs from PriorMatches. A team that cannot be paired sits
// the stage out and is reported through the logger.
type SwissGenerator struct {
	logger *slog.Logger
}

func NewSwissGenerator(logger *slog.Logger) PairingGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &SwissGenerator{logger: logger}
}

func (g *SwissGenerator) GetName() string {
	return "Swiss"
}

func (g *SwissGenerator) Generate(ctx context.Context, params GenerateParams) ([]Pairing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pairs, unpaired := SwissPairs(params.PriorMatches)
	for _, e := range unpaired {
		g.logger.Warn("team left unpaired",
			slog.String("team_id", e.TeamID), slog.String("team", e.Name), slog.Int("wins", e.Wins))
	}
	return pairs, nil
}

// SwissStandings accumulates every team's prior-score sum, opponents and wins
// from the given matches, in order of first appearance.
func SwissStandings(prior []*models.Match) []Entrant {
	index := make(map[string]int)
	var entrants []Entrant

	record := func(self, other models.SideBinding) {
		if self.TeamID == "" {
			return
		}
		i, ok := index[self.TeamID]
		if !ok {
			i = len(entrants)
			index[self.TeamID] = i
			entrants = append(entrants, Entrant{
				TeamID:    self.TeamID,
				Name:      self.TeamName,
				Opponents: make(map[string]struct{}),
			})
		}
		e := &entrants[i]
		e.Score += self.TotalScore
		if other.TeamID != "" {
			e.Opponents[other.TeamID] = struct{}{}
		}
		if self.TotalScore > other.TotalScore {
			e.Wins++
		}
	}

	for _, m := range prior {
		if m == nil {
			continue
		}
		record(m.SideA, m.SideB)
		record(m.SideB, m.SideA)
	}
	return entrants
}

// SplitByWins separates teams with at least one win from winless teams, each
// bucket sorted by cumulative score descending and team id ascending.
func SplitByWins(entrants []Entrant) (winners, losers []Entrant) {
	for _, e := range entrants {
		if e.Wins > 0 {
			winners = append(winners, e)
		} else {
			losers = append(losers, e)
		}
	}
	sortByScore(winners)
	sortByScore(losers)
	return winners, losers
}

func sortByScore(list []Entrant) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Score != list[j].Score {
			return list[i].Score > list[j].Score
		}
		return list[i].TeamID < list[j].TeamID
	})
}

// SwissPairs pairs teams by record. An odd winners bucket sends its lowest
// winner against the highest loser first. Teams that cannot be paired are
// returned as unpaired.
func SwissPairs(prior []*models.Match) ([]Pairing, []Entrant) {
	winners, losers := SplitByWins(SwissStandings(prior))

	var pairs []Pairing
	if len(winners)%2 == 1 && len(losers) > 0 {
		lowestWinner := winners[len(winners)-1]
		highestLoser := losers[0]
		winners = winners[:len(winners)-1]
		losers = losers[1:]
		pairs = append(pairs, Pairing{SideA: lowestWinner, SideB: highestLoser})
	}

	winnerPairs, winnersLeft := pairAvoidingRematch(winners)
	loserPairs, losersLeft := pairAvoidingRematch(losers)
	pairs = append(pairs, winnerPairs...)
	pairs = append(pairs, loserPairs...)
	return pairs, append(winnersLeft, losersLeft...)
}

// pairAvoidingRematch walks the list in order and pairs each unused team with
// the next unused team it has not met, falling back to the next unused team.
func pairAvoidingRematch(list []Entrant) ([]Pairing, []Entrant) {
	used := make([]bool, len(list))
	var pairs []Pairing
	var left []Entrant

	for i := range list {
		if used[i] {
			continue
		}
		partner := -1
		fallback := -1
		for j := i + 1; j < len(list); j++ {
			if used[j] {
				continue
			}
			if fallback < 0 {
				fallback = j
			}
			if !list[i].HasPlayed(list[j].TeamID) {
				partner = j
				break
			}
		}
		if partner < 0 {
			partner = fallback
		}
		if partner < 0 {
			left = append(left, list[i])
			used[i] = true
			continue
		}
		used[i], used[partner] = true, true
		pairs = append(pairs, Pairing{SideA: list[i], SideB: list[partner]})
	}
	return pairs, left
}
