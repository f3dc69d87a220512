package models

// IndividualStanding is one line of the speaker or policy rankings.
type IndividualStanding struct {
	ParticipantID string `json:"participantId"`
	Name          string `json:"name"`
	TeamID        string `json:"teamId"`
	TeamName      string `json:"teamName,omitempty"`
	TotalScore    int    `json:"totalScore"`
}
