package analytics

import (
	"context"
	"fmt"
	"time"

	"matchday/internal/logger"
	"matchday/internal/models"

	"golang.org/x/sync/errgroup"
)

// Store is the read-only slice of the gateway the dashboard needs.
type Store interface {
	ListTickets(ctx context.Context) ([]models.Ticket, error)
	GetSoldTickets(ctx context.Context, limit int) ([]models.Ticket, error)
	ListMatches(ctx context.Context) ([]models.MatchWithStadium, error)
	CountUpcomingMatches(ctx context.Context, from time.Time) (int, error)
	ListSubscriptions(ctx context.Context) ([]models.Subscription, error)
}

type Service struct {
	Gateway Store
	Logger  *logger.Logger

	Now func() time.Time
}

func NewService(gw Store, log *logger.Logger) *Service {
	return &Service{Gateway: gw, Logger: log, Now: time.Now}
}

// TicketsByStatus counts tickets per status across the whole inventory.
func (s *Service) TicketsByStatus(ctx context.Context) ([]models.ChartData, error) {
	tickets, err := s.Gateway.ListTickets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return GroupCount(tickets, func(t models.Ticket) string {
		if t.Status == "" {
			return "Unknown"
		}
		return capitalize(t.Status)
	}), nil
}

// RevenueByMonth sums sold-ticket prices per month, last six months with
// any sales.
func (s *Service) RevenueByMonth(ctx context.Context) ([]models.ChartData, error) {
	sold, err := s.Gateway.GetSoldTickets(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list sold tickets: %w", err)
	}
	return SumByMonth(sold,
		func(t models.Ticket) time.Time { return t.Date },
		func(t models.Ticket) float64 { return t.Price },
	), nil
}

// MatchesByCompetition is the top six competitions by match count.
func (s *Service) MatchesByCompetition(ctx context.Context) ([]models.ChartData, error) {
	matches, err := s.Gateway.ListMatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	counts := GroupCount(matches, func(m models.MatchWithStadium) string {
		if m.Competition == "" {
			return "Other"
		}
		return m.Competition
	})
	return TopN(counts, 6), nil
}

// TicketsSoldPerMatch counts sold tickets grouped by the event name.
func (s *Service) TicketsSoldPerMatch(ctx context.Context) ([]models.MatchSales, error) {
	sold, err := s.Gateway.GetSoldTickets(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list sold tickets: %w", err)
	}
	grouped := GroupCount(sold, func(t models.Ticket) string { return t.Event })

	sales := make([]models.MatchSales, 0, len(grouped))
	for _, g := range grouped {
		sales = append(sales, models.MatchSales{MatchName: g.Label, Count: int(g.Value)})
	}
	return sales, nil
}

// SubscriptionStats groups all subscriptions by plan and by team.
func (s *Service) SubscriptionStats(ctx context.Context) (*models.SubscriptionStats, error) {
	subs, err := s.Gateway.ListSubscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	var revenue float64
	for _, sub := range subs {
		revenue += sub.Price
	}

	return &models.SubscriptionStats{
		ByPlan:             GroupCount(subs, func(s models.Subscription) string { return s.PlanName }),
		ByTeam:             GroupCount(subs, func(s models.Subscription) string { return s.Team }),
		TotalSubscriptions: len(subs),
		TotalRevenue:       revenue,
	}, nil
}

// Dashboard fans out the independent chart loads concurrently. The loads
// share no state; the first failure cancels the rest.
func (s *Service) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		byStatus, err := s.TicketsByStatus(ctx)
		if err != nil {
			return err
		}
		stats.TicketsByStatus = byStatus
		return nil
	})

	g.Go(func() error {
		sold, err := s.Gateway.GetSoldTickets(ctx, 0)
		if err != nil {
			return fmt.Errorf("list sold tickets: %w", err)
		}
		stats.RevenueByMonth = SumByMonth(sold,
			func(t models.Ticket) time.Time { return t.Date },
			func(t models.Ticket) float64 { return t.Price },
		)

		grouped := GroupCount(sold, func(t models.Ticket) string { return t.Event })
		sales := make([]models.MatchSales, 0, len(grouped))
		for _, gr := range grouped {
			sales = append(sales, models.MatchSales{MatchName: gr.Label, Count: int(gr.Value)})
		}
		stats.TicketsSoldPerMatch = sales
		stats.TotalTicketsSold = len(sold)
		for _, t := range sold {
			stats.TotalRevenue += t.Price
		}
		return nil
	})

	g.Go(func() error {
		byCompetition, err := s.MatchesByCompetition(ctx)
		if err != nil {
			return err
		}
		stats.MatchesByCompetition = byCompetition
		return nil
	})

	g.Go(func() error {
		upcoming, err := s.Gateway.CountUpcomingMatches(ctx, s.Now())
		if err != nil {
			return fmt.Errorf("count upcoming matches: %w", err)
		}
		stats.UpcomingMatches = upcoming
		return nil
	})

	if err := g.Wait(); err != nil {
		s.Logger.Error("ANALYTICS", fmt.Sprintf("dashboard load failed: %v", err))
		return nil, err
	}
	return &stats, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-32) + s[1:]
	}
	return s
}
