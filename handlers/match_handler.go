package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/debate-tournament/models"
	"github.com/Dosada05/debate-tournament/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	view, err := h.matchService.GetMatch(r.Context(), chi.URLParam(r, "matchID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	okResponse(w, r, http.StatusOK, jsonResponse{
		"match":   view.Match,
		"rounds":  view.Rounds,
		"total_a": view.TotalA,
		"total_b": view.TotalB,
	})
}

func (h *MatchHandler) ListStageMatches(w http.ResponseWriter, r *http.Request) {
	stage, err := stageFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.matchService.ListStageMatches(r.Context(), stage)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	okResponse(w, r, http.StatusOK, jsonResponse{"stage": stage, "matches": matches})
}

type saveScoresRequest struct {
	Edits []services.ScoreEdit `json:"edits"`
}

// SaveRoundScores сохраняет черновик оценок одного раунда.
func (h *MatchHandler) SaveRoundScores(w http.ResponseWriter, r *http.Request) {
	var input saveScoresRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matchID := chi.URLParam(r, "matchID")
	round, err := h.matchService.SaveRoundScores(r.Context(), matchID, chi.URLParam(r, "roundID"), input.Edits)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	okResponse(w, r, http.StatusOK, jsonResponse{
		"round":   round,
		"total_a": round.Scores.SideTotal(models.SideA),
		"total_b": round.Scores.SideTotal(models.SideB),
	})
}

type endMatchRequest struct {
	SideATeamID string `json:"side_a_team_id"`
	SideBTeamID string `json:"side_b_team_id"`
	TotalA      int    `json:"total_a"`
	TotalB      int    `json:"total_b"`
}

// EndMatch без тела считает итоги по сохранённым раундам; с телом
// использует переданные итоги и проверяет, что команды совпадают.
func (h *MatchHandler) EndMatch(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	var input endMatchRequest
	hasBody, err := readOptionalJSON(w, r, &input)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var match *models.Match
	if hasBody {
		match, err = h.matchService.EndMatch(r.Context(), services.EndMatchInput{
			MatchID:     matchID,
			SideATeamID: input.SideATeamID,
			SideBTeamID: input.SideBTeamID,
			TotalA:      input.TotalA,
			TotalB:      input.TotalB,
		})
	} else {
		match, err = h.matchService.FinalizeMatch(r.Context(), matchID)
	}
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	okResponse(w, r, http.StatusOK, jsonResponse{"match": match})
}
