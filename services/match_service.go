package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/debate-tournament/brackets"
	"github.com/Dosada05/debate-tournament/docstore"
	"github.com/Dosada05/debate-tournament/metrics"
	"github.com/Dosada05/debate-tournament/models"
	"github.com/Dosada05/debate-tournament/repositories"
	"github.com/Dosada05/debate-tournament/scoring"
)

// MatchView is a match with its rounds and live side totals.
type MatchView struct {
	Match  *models.Match  `json:"match"`
	Rounds []models.Round `json:"rounds"`
	TotalA int            `json:"total_a"`
	TotalB int            `json:"total_b"`
}

// ScoreEdit changes one criterion of one round. ParticipantID is ignored
// for team-level rounds.
type ScoreEdit struct {
	Side          models.Side `json:"side"`
	ParticipantID string      `json:"participant_id,omitempty"`
	Criterion     string      `json:"criterion"`
	Value         int         `json:"value"`
}

type EndMatchInput struct {
	MatchID     string
	SideATeamID string
	SideBTeamID string
	TotalA      int
	TotalB      int
	// Rounds are re-written with their current scores as part of completion.
	Rounds []models.Round
}

type MatchService interface {
	GetMatch(ctx context.Context, matchID string) (*MatchView, error)
	ListStageMatches(ctx context.Context, stage models.Stage) ([]*models.Match, error)
	ComputeSideTotal(ctx context.Context, matchID string, side models.Side) (int, error)
	SaveRoundScores(ctx context.Context, matchID, roundID string, edits []ScoreEdit) (*models.Round, error)
	// EndMatch records the result once. A second call for the same match
	// returns ErrMatchAlreadyCompleted and writes nothing.
	EndMatch(ctx context.Context, input EndMatchInput) (*models.Match, error)
	// FinalizeMatch computes both totals from the stored rounds and ends the match.
	FinalizeMatch(ctx context.Context, matchID string) (*models.Match, error)
}

type matchService struct {
	store    docstore.Store
	matches  repositories.MatchRepository
	rounds   repositories.RoundRepository
	teams    repositories.TeamRepository
	cache    StandingsCache
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

func NewMatchService(
	store docstore.Store,
	matches repositories.MatchRepository,
	rounds repositories.RoundRepository,
	teams repositories.TeamRepository,
	cache StandingsCache,
	notifier Notifier,
	m *metrics.Metrics,
	logger *slog.Logger,
) MatchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &matchService{
		store:    store,
		matches:  matches,
		rounds:   rounds,
		teams:    teams,
		cache:    cacheOrNoop(cache),
		notifier: notifierOrNoop(notifier),
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *matchService) GetMatch(ctx context.Context, matchID string) (*MatchView, error) {
	view := &MatchView{}
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := s.matches.GetByID(gCtx, matchID)
		if err != nil {
			return err
		}
		view.Match = m
		return nil
	})
	g.Go(func() error {
		rounds, err := s.rounds.ListByMatch(gCtx, matchID)
		if err != nil {
			return err
		}
		view.Rounds = rounds
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	view.TotalA, view.TotalB = scoring.MatchTotals(view.Rounds)
	return view, nil
}

func (s *matchService) ListStageMatches(ctx context.Context, stage models.Stage) ([]*models.Match, error) {
	if stage.Index() == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStage, stage)
	}
	return s.matches.ListByStage(ctx, stage, nil)
}

func (s *matchService) ComputeSideTotal(ctx context.Context, matchID string, side models.Side) (int, error) {
	rounds, err := s.rounds.ListByMatch(ctx, matchID)
	if err != nil {
		return 0, err
	}
	return scoring.SideTotal(rounds, side), nil
}

func (s *matchService) SaveRoundScores(ctx context.Context, matchID, roundID string, edits []ScoreEdit) (*models.Round, error) {
	if len(edits) == 0 {
		return nil, fmt.Errorf("%w: no score edits supplied", ErrValidationFailed)
	}
	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.IsCompleted() {
		return nil, fmt.Errorf("%w: scores of %s are final", ErrMatchAlreadyCompleted, matchID)
	}
	round, err := s.rounds.Get(ctx, matchID, roundID)
	if err != nil {
		return nil, err
	}

	draft := scoring.NewDraft(*round)
	for i, edit := range edits {
		if _, err := draft.Set(edit.Side, edit.ParticipantID, edit.Criterion, edit.Value); err != nil {
			return nil, fmt.Errorf("%w: edit %d: %w", ErrValidationFailed, i+1, err)
		}
	}

	if !draft.Dirty() {
		s.logger.Debug("score edits change nothing, skipping save",
			slog.String("match_id", matchID), slog.String("round_id", draft.RoundID()))
		return round, nil
	}

	round.Scores = draft.Scores()
	if err := s.rounds.SaveScores(ctx, matchID, draft.RoundID(), round.Scores); err != nil {
		return nil, err
	}

	s.metrics.ScoreDraftSaved()
	publish(s.notifier, brackets.EventScoresSaved, map[string]interface{}{
		"match_id": matchID,
		"round_id": draft.RoundID(),
		"total_a":  draft.SideTotal(models.SideA),
		"total_b":  draft.SideTotal(models.SideB),
	})
	return round, nil
}

func (s *matchService) FinalizeMatch(ctx context.Context, matchID string) (*models.Match, error) {
	view, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	return s.EndMatch(ctx, EndMatchInput{
		MatchID:     matchID,
		SideATeamID: view.Match.SideA.TeamID,
		SideBTeamID: view.Match.SideB.TeamID,
		TotalA:      view.TotalA,
		TotalB:      view.TotalB,
		Rounds:      view.Rounds,
	})
}

func (s *matchService) EndMatch(ctx context.Context, input EndMatchInput) (*models.Match, error) {
	if strings.TrimSpace(input.MatchID) == "" {
		return nil, fmt.Errorf("%w: match id is required", ErrValidationFailed)
	}
	if input.SideATeamID == "" || input.SideBTeamID == "" || input.SideATeamID == input.SideBTeamID {
		return nil, ErrTeamSelectionRequired
	}
	if input.TotalA < 0 || input.TotalB < 0 {
		return nil, fmt.Errorf("%w: totals must not be negative", ErrValidationFailed)
	}

	var completed *models.Match
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		match, err := s.matches.GetByIDTx(tx, input.MatchID)
		if err != nil {
			return err
		}
		if match.IsCompleted() {
			return fmt.Errorf("%w: %s", ErrMatchAlreadyCompleted, match.ID)
		}
		if match.SideA.TeamID != input.SideATeamID || match.SideB.TeamID != input.SideBTeamID {
			return fmt.Errorf("%w: %s is %s vs %s", ErrTeamMismatch, match.ID, match.SideA.TeamID, match.SideB.TeamID)
		}

		var winner *string
		if side, ok := scoring.Winner(input.TotalA, input.TotalB); ok {
			id := match.Binding(side).TeamID
			winner = &id
		} else if match.Stage.IsElimination() {
			return fmt.Errorf("%w: %s finished %d-%d", ErrTiedEliminationMatch, match.ID, input.TotalA, input.TotalB)
		}

		for _, r := range input.Rounds {
			if err := s.rounds.SaveScoresTx(tx, match.ID, r.ID, r.Scores); err != nil {
				return err
			}
		}

		now := s.now().UTC()
		match.SideA.TotalScore = input.TotalA
		match.SideB.TotalScore = input.TotalB
		match.Winner = winner
		match.Status = models.MatchStatusCompleted
		match.CompletedAt = &now
		if err := s.matches.CompleteTx(tx, match); err != nil {
			return err
		}

		winnerID := derefString(winner)
		if err := s.teams.ApplyResultTx(tx, match.SideA.TeamID, repositories.TeamResult{
			Score: input.TotalA,
			Won:   winnerID == match.SideA.TeamID,
			Lost:  winnerID == match.SideB.TeamID,
		}); err != nil {
			return err
		}
		if err := s.teams.ApplyResultTx(tx, match.SideB.TeamID, repositories.TeamResult{
			Score: input.TotalB,
			Won:   winnerID == match.SideB.TeamID,
			Lost:  winnerID == match.SideA.TeamID,
		}); err != nil {
			return err
		}

		completed = match
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrMatchAlreadyCompleted) {
			s.metrics.EndMatchRejected()
			s.logger.Warn("end match rejected, already completed", slog.String("match_id", input.MatchID))
		}
		return nil, err
	}

	s.cache.Invalidate(ctx)
	s.metrics.MatchCompleted(string(completed.Stage), completed.Winner == nil)
	s.logger.Info("match completed",
		slog.String("match_id", completed.ID),
		slog.Int("total_a", input.TotalA),
		slog.Int("total_b", input.TotalB),
		slog.String("winner", derefString(completed.Winner)))
	publish(s.notifier, brackets.EventMatchEnded, completed)
	return completed, nil
}
