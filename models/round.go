package models

import (
	"errors"
	"fmt"
	"time"
)

type Side string

const (
	SideA Side = "sideA"
	SideB Side = "sideB"
)

var Sides = [2]Side{SideA, SideB}

func ParseSide(raw string) (Side, error) {
	switch Side(raw) {
	case SideA, SideB:
		return Side(raw), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSide, raw)
}

// ScoreKind decides the shape of RoundScores. It is fixed at construction.
type ScoreKind string

const (
	ScoreKindTeam        ScoreKind = "team"
	ScoreKindParticipant ScoreKind = "participant"
)

var (
	ErrInvalidSide        = errors.New("invalid side")
	ErrUnknownParticipant = errors.New("participant is not scored in this round")
	ErrScoreShapeMismatch = errors.New("score shape does not match round kind")
)

type ParticipantScore struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Role     Role           `json:"role"`
	TeamID   string         `json:"teamId"`
	RootID   string         `json:"rootId,omitempty"`
	Criteria map[string]int `json:"criteria"`
}

func (p ParticipantScore) Total() int {
	total := 0
	for _, v := range p.Criteria {
		total += v
	}
	return total
}

// RoundScores holds either team-level criteria per side or per-participant
// criteria per side, selected by Kind.
type RoundScores struct {
	Kind         ScoreKind                           `json:"kind"`
	Team         map[Side]map[string]int             `json:"team,omitempty"`
	Participants map[Side]map[string]ParticipantScore `json:"participants,omitempty"`
}

// SideTotal sums every criterion recorded for the side.
func (s RoundScores) SideTotal(side Side) int {
	total := 0
	switch s.Kind {
	case ScoreKindTeam:
		for _, v := range s.Team[side] {
			total += v
		}
	case ScoreKindParticipant:
		for _, p := range s.Participants[side] {
			total += p.Total()
		}
	}
	return total
}

// Set writes one criterion value. participantID is ignored for team-level scores.
func (s *RoundScores) Set(side Side, participantID, criterion string, value int) error {
	if side != SideA && side != SideB {
		return fmt.Errorf("%w: %q", ErrInvalidSide, side)
	}
	switch s.Kind {
	case ScoreKindTeam:
		if s.Team == nil {
			s.Team = make(map[Side]map[string]int)
		}
		if s.Team[side] == nil {
			s.Team[side] = make(map[string]int)
		}
		s.Team[side][criterion] = value
	case ScoreKindParticipant:
		entry, ok := s.Participants[side][participantID]
		if !ok {
			return fmt.Errorf("%w: %s on %s", ErrUnknownParticipant, participantID, side)
		}
		if entry.Criteria == nil {
			entry.Criteria = make(map[string]int)
		}
		entry.Criteria[criterion] = value
		s.Participants[side][participantID] = entry
	default:
		return fmt.Errorf("%w: %q", ErrScoreShapeMismatch, s.Kind)
	}
	return nil
}

func (s RoundScores) Clone() RoundScores {
	out := RoundScores{Kind: s.Kind}
	if s.Team != nil {
		out.Team = make(map[Side]map[string]int, len(s.Team))
		for side, crit := range s.Team {
			out.Team[side] = cloneCriteria(crit)
		}
	}
	if s.Participants != nil {
		out.Participants = make(map[Side]map[string]ParticipantScore, len(s.Participants))
		for side, entries := range s.Participants {
			copied := make(map[string]ParticipantScore, len(entries))
			for id, entry := range entries {
				entry.Criteria = cloneCriteria(entry.Criteria)
				copied[id] = entry
			}
			out.Participants[side] = copied
		}
	}
	return out
}

func cloneCriteria(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

type Round struct {
	ID        string      `json:"id"`
	MatchID   string      `json:"matchId"`
	Number    int         `json:"roundNumber"`
	Name      string      `json:"type"`
	Scores    RoundScores `json:"scores"`
	CreatedAt time.Time   `json:"createdAt"`
}
