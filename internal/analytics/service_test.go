package analytics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"matchday/internal/analytics"
	"matchday/internal/logger"
	"matchday/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) ListTickets(ctx context.Context) ([]models.Ticket, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Ticket), args.Error(1)
}

func (m *MockStore) GetSoldTickets(ctx context.Context, limit int) ([]models.Ticket, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Ticket), args.Error(1)
}

func (m *MockStore) ListMatches(ctx context.Context) ([]models.MatchWithStadium, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MatchWithStadium), args.Error(1)
}

func (m *MockStore) CountUpcomingMatches(ctx context.Context, from time.Time) (int, error) {
	args := m.Called(ctx, from)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) ListSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Subscription), args.Error(1)
}

func testLogger(t *testing.T) *logger.Logger {
	t.Setenv("LOG_DIR", t.TempDir())
	log := logger.NewLogger()
	t.Cleanup(log.Close)
	return log
}

func match(competition string) models.MatchWithStadium {
	return models.MatchWithStadium{Match: models.Match{Competition: competition}}
}

func TestTicketsByStatus(t *testing.T) {
	store := new(MockStore)
	svc := analytics.NewService(store, testLogger(t))

	store.On("ListTickets", mock.Anything).Return([]models.Ticket{
		{Status: "sold"},
		{Status: "available"},
		{Status: "sold"},
		{Status: ""},
	}, nil)

	data, err := svc.TicketsByStatus(context.Background())
	require.NoError(t, err)
	require.Len(t, data, 3)
	assert.Equal(t, models.ChartData{Label: "Sold", Value: 2}, data[0])
	assert.Equal(t, models.ChartData{Label: "Available", Value: 1}, data[1])
	assert.Equal(t, models.ChartData{Label: "Unknown", Value: 1}, data[2])
}

func TestMatchesByCompetition_TopSix(t *testing.T) {
	store := new(MockStore)
	svc := analytics.NewService(store, testLogger(t))

	var matches []models.MatchWithStadium
	// Seven competitions with distinct counts; the smallest must fall off.
	for i, name := range []string{"L1", "L2", "CL", "EL", "CdF", "Supercup", "Friendly"} {
		for j := 0; j <= i; j++ {
			matches = append(matches, match(name))
		}
	}
	matches = append(matches, match(""))
	store.On("ListMatches", mock.Anything).Return(matches, nil)

	data, err := svc.MatchesByCompetition(context.Background())
	require.NoError(t, err)
	require.Len(t, data, 6)
	assert.Equal(t, "Friendly", data[0].Label)
	assert.Equal(t, float64(7), data[0].Value)
	for _, d := range data {
		assert.NotEqual(t, "L1", d.Label, "Smallest competition is cut by the top-6 limit")
		assert.NotEqual(t, "Other", d.Label)
	}
}

func TestSubscriptionStats(t *testing.T) {
	store := new(MockStore)
	svc := analytics.NewService(store, testLogger(t))

	store.On("ListSubscriptions", mock.Anything).Return([]models.Subscription{
		{Team: "PSG", PlanName: "Basic", Price: 9.99},
		{Team: "OM", PlanName: "VIP", Price: 49.99},
		{Team: "PSG", PlanName: "VIP", Price: 49.99},
	}, nil)

	stats, err := svc.SubscriptionStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalSubscriptions)
	assert.InDelta(t, 109.97, stats.TotalRevenue, 0.001)

	require.Len(t, stats.ByPlan, 2)
	assert.Equal(t, models.ChartData{Label: "Basic", Value: 1}, stats.ByPlan[0])
	assert.Equal(t, models.ChartData{Label: "VIP", Value: 2}, stats.ByPlan[1])

	require.Len(t, stats.ByTeam, 2)
	assert.Equal(t, models.ChartData{Label: "PSG", Value: 2}, stats.ByTeam[0])
}

func TestDashboard_FanOut(t *testing.T) {
	store := new(MockStore)
	svc := analytics.NewService(store, testLogger(t))
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return now }

	sold := []models.Ticket{
		{Event: "PSG vs OM", Status: "sold", Price: 100, Date: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)},
		{Event: "PSG vs OM", Status: "sold", Price: 200, Date: time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)},
		{Event: "Lyon vs Lille", Status: "sold", Price: 50, Date: time.Date(2025, 12, 5, 0, 0, 0, 0, time.UTC)},
	}
	store.On("ListTickets", mock.Anything).Return(append(sold, models.Ticket{Status: "available"}), nil)
	store.On("GetSoldTickets", mock.Anything, 0).Return(sold, nil)
	store.On("ListMatches", mock.Anything).Return([]models.MatchWithStadium{match("L1"), match("L1"), match("CL")}, nil)
	store.On("CountUpcomingMatches", mock.Anything, now).Return(2, nil)

	stats, err := svc.Dashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalTicketsSold)
	assert.Equal(t, float64(350), stats.TotalRevenue)
	assert.Equal(t, 2, stats.UpcomingMatches)

	// Buckets keep first-seen order, so January (first sold row) leads.
	require.Len(t, stats.RevenueByMonth, 2)
	assert.Equal(t, models.ChartData{Label: "Jan '26", Value: 300}, stats.RevenueByMonth[0])
	assert.Equal(t, models.ChartData{Label: "Dec '25", Value: 50}, stats.RevenueByMonth[1])

	require.Len(t, stats.TicketsSoldPerMatch, 2)
	assert.Equal(t, models.MatchSales{MatchName: "PSG vs OM", Count: 2}, stats.TicketsSoldPerMatch[0])
	assert.Equal(t, models.MatchSales{MatchName: "Lyon vs Lille", Count: 1}, stats.TicketsSoldPerMatch[1])
}

func TestDashboard_FirstFailureSurfaces(t *testing.T) {
	store := new(MockStore)
	svc := analytics.NewService(store, testLogger(t))

	store.On("ListTickets", mock.Anything).Return(nil, errors.New("gateway down"))
	store.On("GetSoldTickets", mock.Anything, 0).Return([]models.Ticket{}, nil)
	store.On("ListMatches", mock.Anything).Return([]models.MatchWithStadium{}, nil)
	store.On("CountUpcomingMatches", mock.Anything, mock.Anything).Return(0, nil)

	_, err := svc.Dashboard(context.Background())
	assert.Error(t, err)
}
