package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/debate-tournament/services"
)

type PairingHandler struct {
	pairingService services.PairingService
}

func NewPairingHandler(ps services.PairingService) *PairingHandler {
	return &PairingHandler{pairingService: ps}
}

// GeneratePairings выбирает движок по этапу. Тело запроса необязательно.
func (h *PairingHandler) GeneratePairings(w http.ResponseWriter, r *http.Request) {
	stage, err := stageFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.GenerateStageInput
	if _, err := readOptionalJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.pairingService.Generate(r.Context(), stage, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	okResponse(w, r, http.StatusCreated, jsonResponse{"result": result})
}

type manualPairingsRequest struct {
	Pairs []services.TeamPair `json:"pairs"`
}

func (h *PairingHandler) ManualPairings(w http.ResponseWriter, r *http.Request) {
	stage, err := stageFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input manualPairingsRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.pairingService.ManualPairings(r.Context(), stage, input.Pairs)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	okResponse(w, r, http.StatusCreated, jsonResponse{"result": result})
}

func (h *PairingHandler) ClearStage(w http.ResponseWriter, r *http.Request) {
	stage, err := stageFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	deleted, err := h.pairingService.ClearStage(r.Context(), stage)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	okResponse(w, r, http.StatusOK, jsonResponse{"stage": stage, "deleted": deleted})
}

func (h *PairingHandler) ReassignMatch(w http.ResponseWriter, r *http.Request) {
	var pair services.TeamPair
	if err := readJSON(w, r, &pair); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.pairingService.ReassignMatch(r.Context(), chi.URLParam(r, "matchID"), pair)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	okResponse(w, r, http.StatusOK, jsonResponse{"match": match})
}
