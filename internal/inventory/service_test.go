package inventory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"matchday/internal/gateway"
	"matchday/internal/inventory"
	"matchday/internal/logger"
	"matchday/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock implementations

type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetTicketByID(ctx context.Context, id int64) (*models.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockStore) GetAvailableTickets(ctx context.Context) ([]models.Ticket, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Ticket), args.Error(1)
}

func (m *MockStore) InsertTickets(ctx context.Context, tickets []*models.Ticket) error {
	args := m.Called(ctx, tickets)
	return args.Error(0)
}

func (m *MockStore) MarkTicketSold(ctx context.Context, id int64, buyerEmail string, soldAt time.Time) (int64, error) {
	args := m.Called(ctx, id, buyerEmail, soldAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) InsertUserTicket(ctx context.Context, ut *models.UserTicket) error {
	args := m.Called(ctx, ut)
	return args.Error(0)
}

func (m *MockStore) DeleteUserTicket(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStore) GetUserTickets(ctx context.Context, userID int64) ([]models.UserTicket, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserTicket), args.Error(1)
}

func (m *MockStore) GetMatchByID(ctx context.Context, id int64) (*models.Match, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

type MockTicketLock struct {
	mock.Mock
}

func (m *MockTicketLock) Acquire(ctx context.Context, ticketID int64, owner string) (bool, error) {
	args := m.Called(ctx, ticketID, owner)
	return args.Bool(0), args.Error(1)
}

func (m *MockTicketLock) Release(ctx context.Context, ticketID int64, owner string) error {
	args := m.Called(ctx, ticketID, owner)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishTicketSold(topic string, purchase models.UserTicket) error {
	args := m.Called(topic, purchase)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishTicketsGenerated(topic string, matchID int64, count int) error {
	args := m.Called(topic, matchID, count)
	return args.Error(0)
}

func testLogger(t *testing.T) *logger.Logger {
	t.Setenv("LOG_DIR", t.TempDir())
	log := logger.NewLogger()
	t.Cleanup(log.Close)
	return log
}

func newTestService(t *testing.T, store *MockStore) *inventory.Service {
	svc := inventory.NewService(store, nil, nil, inventory.Topics{}, testLogger(t))
	svc.Now = func() time.Time { return time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func availableTicket() *models.Ticket {
	return &models.Ticket{
		ID:      10,
		MatchID: 3,
		Event:   "PSG vs OM",
		Date:    time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC),
		Seat:    "A1-4",
		Section: "A",
		Price:   100,
		Status:  models.TicketAvailable,
	}
}

func TestPurchase_Success(t *testing.T) {
	store := new(MockStore)
	svc := newTestService(t, store)
	ticket := availableTicket()

	store.On("GetTicketByID", mock.Anything, int64(10)).Return(ticket, nil)
	store.On("InsertUserTicket", mock.Anything, mock.AnythingOfType("*models.UserTicket")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.UserTicket).ID = 77
		}).Return(nil)
	store.On("MarkTicketSold", mock.Anything, int64(10), "", svc.Now()).Return(int64(1), nil)

	purchase, err := svc.Purchase(context.Background(), 5, 10)
	require.NoError(t, err)
	require.NotNil(t, purchase)

	// The record is a snapshot of the ticket at purchase time.
	assert.Equal(t, int64(77), purchase.ID)
	assert.Equal(t, int64(5), purchase.UserID)
	assert.Equal(t, ticket.ID, purchase.TicketID)
	assert.Equal(t, ticket.Event, purchase.Event)
	assert.Equal(t, ticket.Date, purchase.Date)
	assert.Equal(t, ticket.Seat, purchase.Seat)
	assert.Equal(t, ticket.Price, purchase.Price)

	store.AssertNotCalled(t, "DeleteUserTicket", mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestPurchase_InvalidUser(t *testing.T) {
	store := new(MockStore)
	svc := newTestService(t, store)

	_, err := svc.Purchase(context.Background(), 0, 10)
	assert.ErrorIs(t, err, inventory.ErrInvalidUser)
	store.AssertNotCalled(t, "GetTicketByID", mock.Anything, mock.Anything)
}

func TestPurchase_TicketNotFound(t *testing.T) {
	store := new(MockStore)
	svc := newTestService(t, store)

	store.On("GetTicketByID", mock.Anything, int64(10)).Return(nil, gateway.ErrNotFound)

	_, err := svc.Purchase(context.Background(), 5, 10)
	assert.ErrorIs(t, err, inventory.ErrTicketNotFound)
	store.AssertNotCalled(t, "InsertUserTicket", mock.Anything, mock.Anything)
}

func TestPurchase_TicketAlreadySold(t *testing.T) {
	store := new(MockStore)
	svc := newTestService(t, store)

	sold := availableTicket()
	sold.Status = models.TicketSold
	store.On("GetTicketByID", mock.Anything, int64(10)).Return(sold, nil)

	_, err := svc.Purchase(context.Background(), 5, 10)
	assert.ErrorIs(t, err, inventory.ErrTicketUnavailable)

	// An unavailable ticket performs zero mutations.
	store.AssertNotCalled(t, "InsertUserTicket", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "MarkTicketSold", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPurchase_RecordInsertFails(t *testing.T) {
	store := new(MockStore)
	svc := newTestService(t, store)

	store.On("GetTicketByID", mock.Anything, int64(10)).Return(availableTicket(), nil)
	store.On("InsertUserTicket", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := svc.Purchase(context.Background(), 5, 10)
	assert.ErrorIs(t, err, inventory.ErrRecordCreationFailed)
	store.AssertNotCalled(t, "MarkTicketSold", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPurchase_StatusFlipFails_CompensationRemovesRecord(t *testing.T) {
	store := new(MockStore)
	svc := newTestService(t, store)

	store.On("GetTicketByID", mock.Anything, int64(10)).Return(availableTicket(), nil)
	store.On("InsertUserTicket", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.UserTicket).ID = 77
		}).Return(nil)
	store.On("MarkTicketSold", mock.Anything, int64(10), "", svc.Now()).Return(int64(0), errors.New("timeout"))
	store.On("DeleteUserTicket", mock.Anything, int64(77)).Return(nil)

	_, err := svc.Purchase(context.Background(), 5, 10)
	assert.ErrorIs(t, err, inventory.ErrStatusUpdateFailed)
	store.AssertCalled(t, "DeleteUserTicket", mock.Anything, int64(77))
}

func TestPurchase_LostRace_CompensationRemovesRecord(t *testing.T) {
	store := new(MockStore)
	svc := newTestService(t, store)

	store.On("GetTicketByID", mock.Anything, int64(10)).Return(availableTicket(), nil)
	store.On("InsertUserTicket", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.UserTicket).ID = 78
		}).Return(nil)
	// Zero rows affected: another buyer flipped the status after our read.
	store.On("MarkTicketSold", mock.Anything, int64(10), "", svc.Now()).Return(int64(0), nil)
	store.On("DeleteUserTicket", mock.Anything, int64(78)).Return(nil)

	_, err := svc.Purchase(context.Background(), 5, 10)
	assert.ErrorIs(t, err, inventory.ErrTicketUnavailable)
	store.AssertCalled(t, "DeleteUserTicket", mock.Anything, int64(78))
}

func TestPurchase_CompensationFailureEscalates(t *testing.T) {
	store := new(MockStore)
	svc := newTestService(t, store)

	store.On("GetTicketByID", mock.Anything, int64(10)).Return(availableTicket(), nil)
	store.On("InsertUserTicket", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.UserTicket).ID = 79
		}).Return(nil)
	store.On("MarkTicketSold", mock.Anything, int64(10), "", svc.Now()).Return(int64(0), nil)
	store.On("DeleteUserTicket", mock.Anything, int64(79)).Return(errors.New("db down"))

	_, err := svc.Purchase(context.Background(), 5, 10)
	assert.ErrorIs(t, err, inventory.ErrInconsistentState)
}

func TestPurchase_CompensationSurvivesCanceledContext(t *testing.T) {
	store := new(MockStore)
	svc := newTestService(t, store)

	ctx, cancel := context.WithCancel(context.Background())

	store.On("GetTicketByID", mock.Anything, int64(10)).Return(availableTicket(), nil)
	store.On("InsertUserTicket", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.UserTicket).ID = 80
		}).Return(nil)
	// The caller gives up mid-purchase; the flip fails with its error.
	store.On("MarkTicketSold", mock.Anything, int64(10), "", svc.Now()).
		Run(func(mock.Arguments) { cancel() }).
		Return(int64(0), context.Canceled)

	var deleteCtx context.Context
	store.On("DeleteUserTicket", mock.Anything, int64(80)).
		Run(func(args mock.Arguments) {
			deleteCtx = args.Get(0).(context.Context)
		}).Return(nil)

	_, err := svc.Purchase(ctx, 5, 10)
	assert.ErrorIs(t, err, inventory.ErrStatusUpdateFailed)
	assert.NotErrorIs(t, err, inventory.ErrInconsistentState)

	// The compensating delete must not inherit the cancellation.
	require.NotNil(t, deleteCtx)
	assert.NoError(t, deleteCtx.Err())
}

func TestPurchase_LockHeldByAnotherBuyer(t *testing.T) {
	store := new(MockStore)
	locks := new(MockTicketLock)
	svc := inventory.NewService(store, locks, nil, inventory.Topics{}, testLogger(t))

	locks.On("Acquire", mock.Anything, int64(10), mock.AnythingOfType("string")).Return(false, nil)

	_, err := svc.Purchase(context.Background(), 5, 10)
	assert.ErrorIs(t, err, inventory.ErrTicketUnavailable)
	store.AssertNotCalled(t, "GetTicketByID", mock.Anything, mock.Anything)
}

func TestPurchase_LockErrorIsAdvisory(t *testing.T) {
	store := new(MockStore)
	locks := new(MockTicketLock)
	svc := inventory.NewService(store, locks, nil, inventory.Topics{}, testLogger(t))
	svc.Now = func() time.Time { return time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC) }

	// Redis being down must not block purchases: the conditional update is
	// the correctness backstop.
	locks.On("Acquire", mock.Anything, int64(10), mock.AnythingOfType("string")).Return(false, errors.New("redis down"))
	store.On("GetTicketByID", mock.Anything, int64(10)).Return(availableTicket(), nil)
	store.On("InsertUserTicket", mock.Anything, mock.Anything).Return(nil)
	store.On("MarkTicketSold", mock.Anything, int64(10), "", svc.Now()).Return(int64(1), nil)

	_, err := svc.Purchase(context.Background(), 5, 10)
	assert.NoError(t, err)
	locks.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
}

func TestPurchase_PublishesEvent(t *testing.T) {
	store := new(MockStore)
	events := new(MockEventPublisher)
	svc := inventory.NewService(store, nil, events, inventory.Topics{TicketSold: "matchday.tickets.sold"}, testLogger(t))
	svc.Now = func() time.Time { return time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC) }

	store.On("GetTicketByID", mock.Anything, int64(10)).Return(availableTicket(), nil)
	store.On("InsertUserTicket", mock.Anything, mock.Anything).Return(nil)
	store.On("MarkTicketSold", mock.Anything, int64(10), "", svc.Now()).Return(int64(1), nil)
	events.On("PublishTicketSold", "matchday.tickets.sold", mock.AnythingOfType("models.UserTicket")).Return(nil)

	_, err := svc.Purchase(context.Background(), 5, 10)
	require.NoError(t, err)
	events.AssertExpectations(t)
}

func TestGenerateTickets(t *testing.T) {
	store := new(MockStore)
	svc := newTestService(t, store)

	match := &models.Match{
		ID:       3,
		HomeTeam: "PSG",
		AwayTeam: "OM",
		Date:     time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC),
	}
	store.On("GetMatchByID", mock.Anything, int64(3)).Return(match, nil)

	var inserted []*models.Ticket
	store.On("InsertTickets", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).([]*models.Ticket)
		}).Return(nil)

	tickets, err := svc.GenerateTickets(context.Background(), models.GenerateTicketsRequest{
		MatchID:  3,
		Seat:     "VIP2",
		Quantity: 3,
	})
	require.NoError(t, err)
	require.Len(t, tickets, 3)
	require.Len(t, inserted, 3)

	assert.Equal(t, "PSG vs OM", tickets[0].Event)
	assert.Equal(t, "VIP", tickets[0].Section)
	assert.Equal(t, 2, tickets[0].RowNumber)
	assert.Equal(t, "VIP2-1", tickets[0].Seat)
	assert.Equal(t, "VIP2-3", tickets[2].Seat)
	assert.Equal(t, 3, tickets[2].SeatNumber)
	for _, tk := range tickets {
		assert.Equal(t, float64(200), tk.Price)
		assert.Equal(t, models.TicketAvailable, tk.Status)
	}
}

func TestGenerateTickets_MatchNotFound(t *testing.T) {
	store := new(MockStore)
	svc := newTestService(t, store)

	store.On("GetMatchByID", mock.Anything, int64(99)).Return(nil, gateway.ErrNotFound)

	_, err := svc.GenerateTickets(context.Background(), models.GenerateTicketsRequest{
		MatchID:  99,
		Seat:     "A1",
		Quantity: 2,
	})
	assert.ErrorIs(t, err, inventory.ErrMatchNotFound)
	store.AssertNotCalled(t, "InsertTickets", mock.Anything, mock.Anything)
}

func TestSeatPrice(t *testing.T) {
	assert.Equal(t, float64(200), inventory.SeatPrice("VIP3"))
	assert.Equal(t, float64(100), inventory.SeatPrice("A1"))
	assert.Equal(t, float64(50), inventory.SeatPrice("B2"))
	assert.Equal(t, float64(50), inventory.SeatPrice("C9"))
}

func TestSellTicket(t *testing.T) {
	store := new(MockStore)
	svc := newTestService(t, store)

	store.On("MarkTicketSold", mock.Anything, int64(10), "fan@example.com", svc.Now()).Return(int64(1), nil)

	err := svc.SellTicket(context.Background(), 10, "fan@example.com")
	assert.NoError(t, err)
}

func TestSellTicket_AlreadySold(t *testing.T) {
	store := new(MockStore)
	svc := newTestService(t, store)

	sold := availableTicket()
	sold.Status = models.TicketSold
	store.On("MarkTicketSold", mock.Anything, int64(10), "fan@example.com", svc.Now()).Return(int64(0), nil)
	store.On("GetTicketByID", mock.Anything, int64(10)).Return(sold, nil)

	err := svc.SellTicket(context.Background(), 10, "fan@example.com")
	assert.ErrorIs(t, err, inventory.ErrTicketUnavailable)
}

func TestSellTicket_NotFound(t *testing.T) {
	store := new(MockStore)
	svc := newTestService(t, store)

	store.On("MarkTicketSold", mock.Anything, int64(10), "fan@example.com", svc.Now()).Return(int64(0), nil)
	store.On("GetTicketByID", mock.Anything, int64(10)).Return(nil, gateway.ErrNotFound)

	err := svc.SellTicket(context.Background(), 10, "fan@example.com")
	assert.ErrorIs(t, err, inventory.ErrTicketNotFound)
}

func TestReceipt_OwnershipEnforced(t *testing.T) {
	store := new(MockStore)
	svc := newTestService(t, store)

	store.On("GetUserTickets", mock.Anything, int64(5)).Return([]models.UserTicket{
		{ID: 1, UserID: 5, Event: "PSG vs OM"},
		{ID: 2, UserID: 5, Event: "Lyon vs Lille"},
	}, nil)

	purchase, err := svc.Receipt(context.Background(), 5, 2)
	require.NoError(t, err)
	assert.Equal(t, "Lyon vs Lille", purchase.Event)

	// Another user's record id is invisible to this user.
	_, err = svc.Receipt(context.Background(), 5, 99)
	assert.ErrorIs(t, err, inventory.ErrTicketNotFound)
}
