package handlers

import (
	"net/http"

	"github.com/Dosada05/debate-tournament/services"
)

type StandingsHandler struct {
	standingsService services.StandingsService
	exportService    services.ExportService
}

func NewStandingsHandler(ss services.StandingsService, es services.ExportService) *StandingsHandler {
	return &StandingsHandler{standingsService: ss, exportService: es}
}

func (h *StandingsHandler) Rankings(w http.ResponseWriter, r *http.Request) {
	teams, err := h.standingsService.Rankings(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	okResponse(w, r, http.StatusOK, jsonResponse{"teams": teams})
}

func (h *StandingsHandler) SpeakerRankings(w http.ResponseWriter, r *http.Request) {
	speakers, err := h.standingsService.SpeakerRankings(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	okResponse(w, r, http.StatusOK, jsonResponse{"speakers": speakers})
}

func (h *StandingsHandler) PolicyRankings(w http.ResponseWriter, r *http.Request) {
	policy, err := h.standingsService.PolicyRankings(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	okResponse(w, r, http.StatusOK, jsonResponse{"policy": policy})
}

func (h *StandingsHandler) Bracket(w http.ResponseWriter, r *http.Request) {
	bracket, err := h.standingsService.Bracket(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	okResponse(w, r, http.StatusOK, jsonResponse{"bracket": bracket})
}

// PublishResults выгружает таблицу и сетку в объектное хранилище.
func (h *StandingsHandler) PublishResults(w http.ResponseWriter, r *http.Request) {
	if h.exportService == nil {
		mapServiceErrorToHTTP(w, r, services.ErrExportDisabled)
		return
	}
	result, err := h.exportService.PublishResults(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	okResponse(w, r, http.StatusCreated, jsonResponse{"export": result})
}
