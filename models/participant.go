package models

import (
	"errors"
	"fmt"
	"strings"
)

type Role string

const (
	RoleSpeaker1 Role = "speaker1"
	RoleSpeaker2 Role = "speaker2"
	RolePolicy   Role = "policy"
)

var ErrInvalidRole = errors.New("invalid participant role")

// ParseRole accepts any casing and ignores inner spaces ("Speaker 1").
func ParseRole(raw string) (Role, error) {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(raw), " ", ""))
	switch Role(normalized) {
	case RoleSpeaker1, RoleSpeaker2, RolePolicy:
		return Role(normalized), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, raw)
}

func (r Role) IsSpeaker() bool {
	return r == RoleSpeaker1 || r == RoleSpeaker2
}

type Participant struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	TeamID string `json:"teamId"`
	RootID string `json:"rootId,omitempty"`
}
