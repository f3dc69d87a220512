package models

import "time"

// Team is a registered debate team. The counters are owned by match
// completion and zeroed by the admin reset.
type Team struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Institution   string    `json:"institution,omitempty"`
	TotalScore    int       `json:"totalScore"`
	Wins          int       `json:"wins"`
	Losses        int       `json:"losses"`
	MatchesPlayed int       `json:"matchesPlayed"`
	CreatedAt     time.Time `json:"createdAt"`

	Participants []Participant `json:"participants,omitempty"`
}
