package brackets

import (
	"context"
	"fmt"
	"sort"
)

// AdvancePolicy describes how a bracket stage is seeded.
type AdvancePolicy struct {
	Name     string
	Required int
	// Exact requires exactly Required entrants instead of at least Required.
	Exact bool
	// Rank sorts entrants by standings and keeps the top Required; otherwise
	// entrants are taken in bracket-slot order.
	Rank bool
}

// SeedFromStandings seeds the top `required` teams of the standings.
func SeedFromStandings(name string, required int) AdvancePolicy {
	return AdvancePolicy{Name: name, Required: required, Rank: true}
}

// CarryForward seeds the winners of the previous stage in slot order.
func CarryForward(name string, required int) AdvancePolicy {
	return AdvancePolicy{Name: name, Required: required, Exact: true}
}

var (
	QuarterfinalPolicy = SeedFromStandings("quarterfinal", 8)
	SemifinalPolicy    = CarryForward("semifinal", 4)
	FinalPolicy        = CarryForward("final", 2)
)

type EliminationGenerator struct {
	policy AdvancePolicy
}

func NewEliminationGenerator(policy AdvancePolicy) PairingGenerator {
	return &EliminationGenerator{policy: policy}
}

func (g *EliminationGenerator) GetName() string {
	return "SingleElimination/" + g.policy.Name
}

func (g *EliminationGenerator) Generate(ctx context.Context, params GenerateParams) ([]Pairing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Advance(g.policy, params.Entrants)
}

// Advance pairs slot i against slot n-1-i, which yields 1v8, 2v7, 3v6, 4v5
// for eight seeds and w1vw4, w2vw3 for four carried winners.
func Advance(policy AdvancePolicy, entrants []Entrant) ([]Pairing, error) {
	n := policy.Required
	if n < 2 || n%2 != 0 {
		return nil, fmt.Errorf("%w: %s requires an even field, got %d", ErrBracketPrecondition, policy.Name, n)
	}
	if policy.Exact && len(entrants) != n {
		return nil, fmt.Errorf("%w: %s needs exactly %d teams, found %d", ErrBracketPrecondition, policy.Name, n, len(entrants))
	}
	if len(entrants) < n {
		return nil, fmt.Errorf("%w: %s needs at least %d teams, found %d", ErrBracketPrecondition, policy.Name, n, len(entrants))
	}

	field := make([]Entrant, len(entrants))
	copy(field, entrants)
	if policy.Rank {
		RankEntrants(field)
	}
	field = field[:n]

	pairs := make([]Pairing, 0, n/2)
	for i := 0; i < n/2; i++ {
		pairs = append(pairs, Pairing{SideA: field[i], SideB: field[n-1-i]})
	}
	return pairs, nil
}

// RankEntrants sorts by cumulative score, then wins, both descending.
// Remaining ties keep their input order.
func RankEntrants(list []Entrant) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Score != list[j].Score {
			return list[i].Score > list[j].Score
		}
		return list[i].Wins > list[j].Wins
	})
}
