package matches

import (
	"context"
	"errors"
	"fmt"
	"time"

	"matchday/internal/gateway"
	"matchday/internal/logger"
	"matchday/internal/models"
)

var (
	ErrMatchNotFound = errors.New("match not found")
	ErrValidation    = errors.New("invalid request")
)

// Store is the slice of the gateway the match listing needs.
type Store interface {
	ListMatches(ctx context.Context) ([]models.MatchWithStadium, error)
	GetMatchByID(ctx context.Context, id int64) (*models.Match, error)
	CountUpcomingMatches(ctx context.Context, from time.Time) (int, error)
	InsertMatch(ctx context.Context, match *models.Match) error
	InsertStadium(ctx context.Context, stadium *models.Stadium) error
}

type Service struct {
	Gateway Store
	Logger  *logger.Logger

	Now func() time.Time
}

func NewService(gw Store, log *logger.Logger) *Service {
	return &Service{Gateway: gw, Logger: log, Now: time.Now}
}

// List returns all matches with their stadium names, date ascending.
// Upcoming-only filtering is done here rather than in SQL so one gateway
// read serves both views.
func (s *Service) List(ctx context.Context, upcomingOnly bool) ([]models.MatchWithStadium, error) {
	matches, err := s.Gateway.ListMatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	if !upcomingOnly {
		return matches, nil
	}

	now := s.Now()
	upcoming := make([]models.MatchWithStadium, 0, len(matches))
	for _, m := range matches {
		if !m.Date.Before(now) {
			upcoming = append(upcoming, m)
		}
	}
	return upcoming, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Match, error) {
	match, err := s.Gateway.GetMatchByID(ctx, id)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return nil, fmt.Errorf("match %d: %w", id, ErrMatchNotFound)
		}
		return nil, fmt.Errorf("fetch match %d: %w", id, err)
	}
	return match, nil
}

// Create is the seeding path for operators; there is no public match
// creation flow.
func (s *Service) Create(ctx context.Context, match *models.Match) error {
	if match.HomeTeam == "" || match.AwayTeam == "" || match.Date.IsZero() {
		return fmt.Errorf("%w: home team, away team and date are required", ErrValidation)
	}
	if err := s.Gateway.InsertMatch(ctx, match); err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	s.Logger.Info("MATCHES", fmt.Sprintf("created match %d: %s vs %s", match.ID, match.HomeTeam, match.AwayTeam))
	return nil
}
