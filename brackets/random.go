package brackets

import (
	"context"
	"math/rand/v2"
)

type RandomGenerator struct {
	rng *rand.Rand
}

// NewRandomGenerator uses rng for shuffling; nil falls back to the global source.
func NewRandomGenerator(rng *rand.Rand) PairingGenerator {
	return &RandomGenerator{rng: rng}
}

func (g *RandomGenerator) GetName() string {
	return "Random"
}

func (g *RandomGenerator) Generate(ctx context.Context, params GenerateParams) ([]Pairing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return RandomPairs(params.Entrants, g.rng)
}

// RandomPairs shuffles the entrants uniformly and pairs them 0-1, 2-3 and so on.
func RandomPairs(entrants []Entrant, rng *rand.Rand) ([]Pairing, error) {
	if len(entrants) < 2 {
		return nil, ErrNotEnoughTeams
	}
	if len(entrants)%2 != 0 {
		return nil, ErrOddTeamCount
	}

	shuffled := make([]Entrant, len(entrants))
	copy(shuffled, entrants)

	// Fisher-Yates
	for i := len(shuffled) - 1; i > 0; i-- {
		var j int
		if rng != nil {
			j = rng.IntN(i + 1)
		} else {
			j = rand.IntN(i + 1)
		}
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	pairs := make([]Pairing, 0, len(shuffled)/2)
	for i := 0; i < len(shuffled); i += 2 {
		pairs = append(pairs, Pairing{SideA: shuffled[i], SideB: shuffled[i+1]})
	}
	return pairs, nil
}
