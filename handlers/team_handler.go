package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/debate-tournament/services"
)

type TeamHandler struct {
	teamService services.TeamService
}

func NewTeamHandler(ts services.TeamService) *TeamHandler {
	return &TeamHandler{teamService: ts}
}

func (h *TeamHandler) RegisterTeam(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterTeamInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.teamService.RegisterTeam(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	okResponse(w, r, http.StatusCreated, jsonResponse{"team": team})
}

func (h *TeamHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teamService.ListTeams(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	okResponse(w, r, http.StatusOK, jsonResponse{"teams": teams})
}

func (h *TeamHandler) GetRoster(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "teamID")

	participants, err := h.teamService.Roster(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	okResponse(w, r, http.StatusOK, jsonResponse{"team_id": teamID, "participants": participants})
}

// ResetStats обнуляет счётчики всех команд.
func (h *TeamHandler) ResetStats(w http.ResponseWriter, r *http.Request) {
	n, err := h.teamService.ResetStats(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	okResponse(w, r, http.StatusOK, jsonResponse{"teams_reset": n})
}
