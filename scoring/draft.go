package scoring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/debate-tournament/models"
)

var ErrUnknownCriterion = errors.New("criterion is not judged in this round")

// Draft buffers score edits of one round. Edits are clamped as they are
// applied and stay local until the caller persists Scores(). Dirty reports
// whether any edit changed a stored value.
type Draft struct {
	round  models.Round
	scores models.RoundScores
	dirty  bool
}

func NewDraft(round models.Round) *Draft {
	return &Draft{round: round, scores: round.Scores.Clone()}
}

// Set clamps and records one criterion value and returns the stored value.
func (d *Draft) Set(side models.Side, participantID, name string, value int) (int, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if !IsKnown(d.round.Number, name) {
		return 0, fmt.Errorf("%w: %q in round %d", ErrUnknownCriterion, name, d.round.Number)
	}
	clamped := Clamp(d.round.Number, name, value)
	previous, had := d.value(side, participantID, name)
	if err := d.scores.Set(side, participantID, name, clamped); err != nil {
		return 0, err
	}
	if !had || previous != clamped {
		d.dirty = true
	}
	return clamped, nil
}

func (d *Draft) value(side models.Side, participantID, name string) (int, bool) {
	switch d.scores.Kind {
	case models.ScoreKindTeam:
		v, ok := d.scores.Team[side][name]
		return v, ok
	case models.ScoreKindParticipant:
		v, ok := d.scores.Participants[side][participantID].Criteria[name]
		return v, ok
	}
	return 0, false
}

func (d *Draft) RoundID() string { return d.round.ID }

func (d *Draft) Dirty() bool { return d.dirty }

// Scores returns a copy of the edited structure.
func (d *Draft) Scores() models.RoundScores {
	return d.scores.Clone()
}

func (d *Draft) SideTotal(side models.Side) int {
	return d.scores.SideTotal(side)
}
