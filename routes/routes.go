package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"

	"github.com/Dosada05/debate-tournament/handlers"
)

// Handlers собирает все HTTP-обработчики приложения.
type Handlers struct {
	Team      *handlers.TeamHandler
	Pairing   *handlers.PairingHandler
	Match     *handlers.MatchHandler
	Standings *handlers.StandingsHandler
	WebSocket *handlers.WebSocketHandler
	Metrics   http.Handler
}

func SetupRoutes(router chi.Router, h Handlers, allowedOrigins []string) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Route("/api", func(r chi.Router) {
		r.Route("/teams", func(r chi.Router) {
			r.Get("/", h.Team.ListTeams)
			r.Post("/", h.Team.RegisterTeam)
			r.Post("/reset", h.Team.ResetStats)
			r.Get("/{teamID}/participants", h.Team.GetRoster)
		})

		r.Route("/stages/{stage}", func(r chi.Router) {
			r.Post("/pairings", h.Pairing.GeneratePairings)
			r.Post("/pairings/manual", h.Pairing.ManualPairings)
			r.Get("/matches", h.Match.ListStageMatches)
			r.Delete("/matches", h.Pairing.ClearStage)
		})

		r.Route("/matches/{matchID}", func(r chi.Router) {
			r.Get("/", h.Match.GetMatch)
			r.Put("/teams", h.Pairing.ReassignMatch)
			r.Put("/rounds/{roundID}/scores", h.Match.SaveRoundScores)
			r.Post("/end", h.Match.EndMatch)
		})

		r.Route("/standings", func(r chi.Router) {
			r.Get("/", h.Standings.Rankings)
			r.Get("/speakers", h.Standings.SpeakerRankings)
			r.Get("/policy", h.Standings.PolicyRankings)
		})
		r.Get("/bracket", h.Standings.Bracket)
		r.Post("/exports/results", h.Standings.PublishResults)
	})

	if h.WebSocket != nil {
		router.Get("/ws/tournament", h.WebSocket.ServeWs)
	}
	if h.Metrics != nil {
		router.Handle("/metrics", h.Metrics)
	}
}
