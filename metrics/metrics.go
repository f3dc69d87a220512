// Package metrics exposes the tournament engine's Prometheus counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "debate_tournament"

// Metrics is safe to use as a nil pointer; every method then does nothing.
type Metrics struct {
	matchesGenerated   *prometheus.CounterVec
	matchesCompleted   *prometheus.CounterVec
	duplicateEndMatch  prometheus.Counter
	scoreDraftsSaved   prometheus.Counter
	stagesCleared      *prometheus.CounterVec
	standingsCacheHits *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		matchesGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_generated_total",
			Help:      "Matches created by pairing generation, by stage and engine.",
		}, []string{"stage", "engine"}),
		matchesCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_completed_total",
			Help:      "Matches finalized, by stage and outcome.",
		}, []string{"stage", "outcome"}),
		duplicateEndMatch: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "end_match_rejected_total",
			Help:      "End-match requests rejected because the match was already completed.",
		}),
		scoreDraftsSaved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "score_drafts_saved_total",
			Help:      "Round score drafts committed.",
		}),
		stagesCleared: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_matches_cleared_total",
			Help:      "Matches deleted by clearing a stage.",
		}, []string{"stage"}),
		standingsCacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "standings_cache_lookups_total",
			Help:      "Standings cache lookups, by result.",
		}, []string{"result"}),
	}
}

// Handler serves the default gatherer, or the registry when it is one.
func Handler(reg prometheus.Registerer) http.Handler {
	if gatherer, ok := reg.(prometheus.Gatherer); ok {
		return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}

func (m *Metrics) MatchesGenerated(stage, engine string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.matchesGenerated.WithLabelValues(stage, engine).Add(float64(n))
}

func (m *Metrics) MatchCompleted(stage string, tie bool) {
	if m == nil {
		return
	}
	outcome := "decided"
	if tie {
		outcome = "tie"
	}
	m.matchesCompleted.WithLabelValues(stage, outcome).Inc()
}

func (m *Metrics) EndMatchRejected() {
	if m == nil {
		return
	}
	m.duplicateEndMatch.Inc()
}

func (m *Metrics) ScoreDraftSaved() {
	if m == nil {
		return
	}
	m.scoreDraftsSaved.Inc()
}

func (m *Metrics) StageCleared(stage string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.stagesCleared.WithLabelValues(stage).Add(float64(n))
}

func (m *Metrics) StandingsCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.standingsCacheHits.WithLabelValues(result).Inc()
}
