package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "scheduled"
	MatchStatusCompleted MatchStatus = "completed"
)

type Stage string

const (
	StageMatch1       Stage = "Match 1"
	StageMatch2       Stage = "Match 2"
	StageMatch3       Stage = "Match 3"
	StageQuarterfinal Stage = "QF"
	StageSemifinal    Stage = "SF"
	StageFinal        Stage = "F"
)

// Stages lists the tournament stages in play order; index+1 is the stage index.
var Stages = []Stage{StageMatch1, StageMatch2, StageMatch3, StageQuarterfinal, StageSemifinal, StageFinal}

// PreliminaryStageCount is the number of stages preceding the bracket.
const PreliminaryStageCount = 3

var ErrUnknownStage = errors.New("unknown stage")

// Index returns the 1-based stage index, 0 for unknown stages.
func (s Stage) Index() int {
	for i, stage := range Stages {
		if stage == s {
			return i + 1
		}
	}
	return 0
}

func (s Stage) IsElimination() bool {
	return s.Index() > PreliminaryStageCount
}

// Previous returns the stage played immediately before s.
func (s Stage) Previous() (Stage, bool) {
	idx := s.Index()
	if idx <= 1 {
		return "", false
	}
	return Stages[idx-2], true
}

func StageFromIndex(idx int) (Stage, bool) {
	if idx < 1 || idx > len(Stages) {
		return "", false
	}
	return Stages[idx-1], true
}

// ParseStage accepts a stage index ("4"), a stage name ("Match 2", "qf") or a
// slug ("match-2", "quarterfinal").
func ParseStage(raw string) (Stage, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if idx, err := strconv.Atoi(key); err == nil {
		if stage, ok := StageFromIndex(idx); ok {
			return stage, nil
		}
		return "", fmt.Errorf("%w: %q", ErrUnknownStage, raw)
	}

	key = strings.NewReplacer(" ", "", "-", "", "_", "").Replace(key)
	switch key {
	case "match1":
		return StageMatch1, nil
	case "match2":
		return StageMatch2, nil
	case "match3":
		return StageMatch3, nil
	case "qf", "quarterfinal", "quarterfinals":
		return StageQuarterfinal, nil
	case "sf", "semifinal", "semifinals":
		return StageSemifinal, nil
	case "f", "final", "finals":
		return StageFinal, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStage, raw)
}

// MatchID builds the deterministic match identifier match-{stage}-{seq}.
func MatchID(stage Stage, seq int) string {
	return fmt.Sprintf("match-%d-%d", stage.Index(), seq)
}

// ParseMatchID splits a match identifier into its stage index and sequence.
func ParseMatchID(id string) (stageIdx, seq int, ok bool) {
	parts := strings.Split(id, "-")
	if len(parts) != 3 || parts[0] != "match" {
		return 0, 0, false
	}
	stageIdx, err1 := strconv.Atoi(parts[1])
	seq, err2 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return stageIdx, seq, true
}

// SideBinding snapshots the team bound to one side of a match.
type SideBinding struct {
	TeamID     string `json:"id"`
	TeamName   string `json:"name"`
	TotalScore int    `json:"totalScore"`
}

type Match struct {
	ID          string      `json:"id"`
	Stage       Stage       `json:"stage"`
	Day         int         `json:"day"`
	Status      MatchStatus `json:"status"`
	SideA       SideBinding `json:"sideA"`
	SideB       SideBinding `json:"sideB"`
	Winner      *string     `json:"winner"`
	CreatedAt   time.Time   `json:"createdAt"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
}

func (m *Match) IsCompleted() bool {
	return m.Status == MatchStatusCompleted
}

func (m *Match) Binding(side Side) SideBinding {
	if side == SideB {
		return m.SideB
	}
	return m.SideA
}

// LessMatchID orders match ids by stage then numeric sequence, so that
// match-4-10 sorts after match-4-9.
func LessMatchID(a, b string) bool {
	sa, qa, okA := ParseMatchID(a)
	sb, qb, okB := ParseMatchID(b)
	if !okA || !okB {
		return a < b
	}
	if sa != sb {
		return sa < sb
	}
	return qa < qb
}
