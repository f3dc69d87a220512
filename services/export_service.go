package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/debate-tournament/models"
	"github.com/Dosada05/debate-tournament/storage"
)

const (
	standingsExportKey = "exports/standings.json"
	bracketExportKey   = "exports/bracket.json"
)

// StandingsSnapshot is the published results document.
type StandingsSnapshot struct {
	GeneratedAt time.Time                   `json:"generated_at"`
	Teams       []*models.Team              `json:"teams"`
	Speakers    []models.IndividualStanding `json:"speakers"`
	Policy      []models.IndividualStanding `json:"policy"`
}

type ExportResult struct {
	Standings *storage.UploadResult `json:"standings"`
	Bracket   *storage.UploadResult `json:"bracket"`
}

type ExportService interface {
	// PublishResults uploads the current standings and bracket as JSON.
	PublishResults(ctx context.Context) (*ExportResult, error)
}

type exportService struct {
	uploader  storage.FileUploader
	standings StandingsService
	logger    *slog.Logger
	now       func() time.Time
}

// NewExportService accepts a nil uploader; PublishResults then returns ErrExportDisabled.
func NewExportService(uploader storage.FileUploader, standings StandingsService, logger *slog.Logger) ExportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &exportService{uploader: uploader, standings: standings, logger: logger, now: time.Now}
}

func (s *exportService) PublishResults(ctx context.Context) (*ExportResult, error) {
	if s.uploader == nil {
		return nil, ErrExportDisabled
	}

	snapshot := StandingsSnapshot{GeneratedAt: s.now().UTC()}
	var bracket *BracketView

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snapshot.Teams, err = s.standings.Rankings(gCtx)
		return err
	})
	g.Go(func() (err error) {
		snapshot.Speakers, err = s.standings.SpeakerRankings(gCtx)
		return err
	})
	g.Go(func() (err error) {
		snapshot.Policy, err = s.standings.PolicyRankings(gCtx)
		return err
	})
	g.Go(func() (err error) {
		bracket, err = s.standings.Bracket(gCtx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to collect results for export: %w", err)
	}

	standingsResult, err := s.upload(ctx, standingsExportKey, snapshot)
	if err != nil {
		return nil, err
	}
	bracketResult, err := s.upload(ctx, bracketExportKey, bracket)
	if err != nil {
		return nil, err
	}

	s.logger.Info("results exported",
		slog.String("standings_url", standingsResult.Location),
		slog.String("bracket_url", bracketResult.Location))
	return &ExportResult{Standings: standingsResult, Bracket: bracketResult}, nil
}

func (s *exportService) upload(ctx context.Context, key string, v interface{}) (*storage.UploadResult, error) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", key, err)
	}
	result, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return result, nil
}
