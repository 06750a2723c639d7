package inventory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"matchday/internal/gateway"
	"matchday/internal/logger"
	"matchday/internal/models"

	"github.com/google/uuid"
)

var (
	ErrInvalidUser          = errors.New("purchase requires a connected user")
	ErrTicketNotFound       = errors.New("ticket not found")
	ErrTicketUnavailable    = errors.New("ticket is not available")
	ErrRecordCreationFailed = errors.New("failed to create purchase record")
	ErrStatusUpdateFailed   = errors.New("failed to mark ticket as sold")
	// ErrInconsistentState means the sold flip failed AND the compensating
	// delete of the purchase record could not be confirmed: an orphaned
	// ticketUser row may exist.
	ErrInconsistentState = errors.New("purchase left an unconfirmed record")

	ErrMatchNotFound = errors.New("match not found")
	ErrValidation    = errors.New("invalid request")
)

// Store is the slice of the gateway the inventory protocol needs.
type Store interface {
	GetTicketByID(ctx context.Context, id int64) (*models.Ticket, error)
	GetAvailableTickets(ctx context.Context) ([]models.Ticket, error)
	InsertTickets(ctx context.Context, tickets []*models.Ticket) error
	MarkTicketSold(ctx context.Context, id int64, buyerEmail string, soldAt time.Time) (int64, error)
	InsertUserTicket(ctx context.Context, ut *models.UserTicket) error
	DeleteUserTicket(ctx context.Context, id int64) error
	GetUserTickets(ctx context.Context, userID int64) ([]models.UserTicket, error)
	GetMatchByID(ctx context.Context, id int64) (*models.Match, error)
}

// TicketLock serializes purchases per ticket id.
type TicketLock interface {
	Acquire(ctx context.Context, ticketID int64, owner string) (bool, error)
	Release(ctx context.Context, ticketID int64, owner string) error
}

type EventPublisher interface {
	PublishTicketSold(topic string, purchase models.UserTicket) error
	PublishTicketsGenerated(topic string, matchID int64, count int) error
}

type Topics struct {
	TicketSold       string
	TicketsGenerated string
}

type Service struct {
	Gateway Store
	Locks   TicketLock
	Events  EventPublisher
	Topics  Topics
	Logger  *logger.Logger

	// Now is swappable in tests.
	Now func() time.Time
}

func NewService(gw Store, locks TicketLock, events EventPublisher, topics Topics, log *logger.Logger) *Service {
	return &Service{
		Gateway: gw,
		Locks:   locks,
		Events:  events,
		Topics:  topics,
		Logger:  log,
		Now:     time.Now,
	}
}

// Purchase transitions one ticket from available to sold and records the
// buyer's snapshot copy of it.
//
// Ordering is deliberate: the ticketUser row is inserted before the status
// flip, so the worst partial failure is an orphaned purchase record (which
// the compensating delete closes) rather than a sold ticket with no buyer.
// The flip itself is conditional on the ticket still being available; a
// zero-row update means another buyer won and the insert is undone.
func (s *Service) Purchase(ctx context.Context, userID, ticketID int64) (*models.UserTicket, error) {
	if userID <= 0 {
		return nil, ErrInvalidUser
	}

	// Advisory per-ticket lock. On Redis failure the conditional update
	// below still prevents a double sale, so a lock error only logs.
	if s.Locks != nil {
		owner := uuid.NewString()
		ok, err := s.Locks.Acquire(ctx, ticketID, owner)
		if err != nil {
			s.Logger.Warn("PURCHASE", fmt.Sprintf("ticket %d: lock unavailable: %v", ticketID, err))
		} else if !ok {
			return nil, fmt.Errorf("ticket %d is being purchased: %w", ticketID, ErrTicketUnavailable)
		} else {
			defer func() {
				if err := s.Locks.Release(context.WithoutCancel(ctx), ticketID, owner); err != nil {
					s.Logger.Warn("PURCHASE", fmt.Sprintf("ticket %d: lock release failed: %v", ticketID, err))
				}
			}()
		}
	}

	// Step 1: fetch.
	ticket, err := s.Gateway.GetTicketByID(ctx, ticketID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("ticket %d: %w", ticketID, ErrTicketNotFound)
		}
		return nil, fmt.Errorf("fetch ticket %d: %w", ticketID, err)
	}

	// Step 2: availability guard. Nothing has been mutated yet.
	if ticket.Status != models.TicketAvailable {
		return nil, fmt.Errorf("ticket %d has status %q: %w", ticketID, ticket.Status, ErrTicketUnavailable)
	}

	// Step 3: insert the denormalized purchase record.
	purchase := &models.UserTicket{
		UserID:    userID,
		TicketID:  ticket.ID,
		Event:     ticket.Event,
		Date:      ticket.Date,
		Seat:      ticket.Seat,
		Section:   ticket.Section,
		Price:     ticket.Price,
		CreatedAt: s.Now(),
	}
	if err := s.Gateway.InsertUserTicket(ctx, purchase); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordCreationFailed, err)
	}

	// Step 4: conditional flip to sold.
	affected, err := s.Gateway.MarkTicketSold(ctx, ticket.ID, "", s.Now())
	if err != nil {
		return nil, s.compensate(ctx, purchase, fmt.Errorf("%w: %v", ErrStatusUpdateFailed, err))
	}
	if affected == 0 {
		// Lost the race after our read: the ticket was sold between the
		// availability check and the flip.
		return nil, s.compensate(ctx, purchase, fmt.Errorf("ticket %d sold concurrently: %w", ticket.ID, ErrTicketUnavailable))
	}

	s.Logger.LogPurchase("SOLD", ticket.ID, fmt.Sprintf("user=%d seat=%s", userID, ticket.Seat))

	if s.Events != nil {
		if err := s.Events.PublishTicketSold(s.Topics.TicketSold, *purchase); err != nil {
			s.Logger.Warn("KAFKA", fmt.Sprintf("publish ticket sold: %v", err))
		}
	}

	return purchase, nil
}

// compensate removes the purchase record inserted in step 3 and returns the
// original failure. A failed delete escalates to ErrInconsistentState.
// The delete runs detached from the request context: when step 4 failed
// because the caller canceled, the cleanup must still go through.
func (s *Service) compensate(ctx context.Context, purchase *models.UserTicket, cause error) error {
	ctx = context.WithoutCancel(ctx)
	if delErr := s.Gateway.DeleteUserTicket(ctx, purchase.ID); delErr != nil {
		s.Logger.Error("PURCHASE", fmt.Sprintf("compensation failed for record %d: %v", purchase.ID, delErr))
		return fmt.Errorf("%w (after: %v)", ErrInconsistentState, cause)
	}
	return cause
}

// GenerateTickets batch-inserts numbered seats for one match and section.
// Prices follow the operator page's seat-prefix table.
func (s *Service) GenerateTickets(ctx context.Context, req models.GenerateTicketsRequest) ([]*models.Ticket, error) {
	if req.Quantity < 1 || req.Seat == "" {
		return nil, fmt.Errorf("%w: seat and quantity are required", ErrValidation)
	}

	match, err := s.Gateway.GetMatchByID(ctx, req.MatchID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("match %d: %w", req.MatchID, ErrMatchNotFound)
		}
		return nil, fmt.Errorf("fetch match %d: %w", req.MatchID, err)
	}

	section := req.Seat[:1]
	if section == "V" {
		section = "VIP"
	}
	row, err := strconv.Atoi(req.Seat[1:])
	if err != nil || row < 1 {
		row = 1
	}

	tickets := make([]*models.Ticket, 0, req.Quantity)
	for i := 0; i < req.Quantity; i++ {
		seatNumber := i + 1
		tickets = append(tickets, &models.Ticket{
			MatchID:    match.ID,
			Event:      fmt.Sprintf("%s vs %s", match.HomeTeam, match.AwayTeam),
			Date:       match.Date,
			Seat:       fmt.Sprintf("%s-%d", req.Seat, seatNumber),
			Section:    section,
			RowNumber:  row,
			SeatNumber: seatNumber,
			Price:      SeatPrice(req.Seat),
			Status:     models.TicketAvailable,
		})
	}

	if err := s.Gateway.InsertTickets(ctx, tickets); err != nil {
		return nil, fmt.Errorf("insert tickets: %w", err)
	}

	s.Logger.Info("INVENTORY", fmt.Sprintf("generated %d tickets for match %d", len(tickets), match.ID))

	if s.Events != nil {
		if err := s.Events.PublishTicketsGenerated(s.Topics.TicketsGenerated, match.ID, len(tickets)); err != nil {
			s.Logger.Warn("KAFKA", fmt.Sprintf("publish tickets generated: %v", err))
		}
	}

	return tickets, nil
}

// SeatPrice maps a seat prefix to its fixed price.
func SeatPrice(seat string) float64 {
	switch {
	case strings.HasPrefix(seat, "VIP"):
		return 200
	case strings.HasPrefix(seat, "A"):
		return 100
	case strings.HasPrefix(seat, "B"):
		return 50
	default:
		return 50
	}
}

func (s *Service) AvailableTickets(ctx context.Context) ([]models.Ticket, error) {
	tickets, err := s.Gateway.GetAvailableTickets(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch available tickets: %w", err)
	}
	return tickets, nil
}

func (s *Service) UserTickets(ctx context.Context, userID int64) ([]models.UserTicket, error) {
	if userID <= 0 {
		return nil, ErrInvalidUser
	}
	tickets, err := s.Gateway.GetUserTickets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch tickets for user %d: %w", userID, err)
	}
	return tickets, nil
}

// Receipt returns one of the user's purchase records, for rendering as a
// QR receipt. Ownership is enforced by scanning only the user's records.
func (s *Service) Receipt(ctx context.Context, userID, purchaseID int64) (*models.UserTicket, error) {
	purchases, err := s.UserTickets(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range purchases {
		if purchases[i].ID == purchaseID {
			return &purchases[i], nil
		}
	}
	return nil, fmt.Errorf("purchase %d: %w", purchaseID, ErrTicketNotFound)
}

// SellTicket is the staff direct-sale path: flip to sold recording the
// buyer's email, without creating a ticketUser row. Guarded by the same
// conditional update as Purchase.
func (s *Service) SellTicket(ctx context.Context, ticketID int64, buyerEmail string) error {
	if buyerEmail == "" {
		return fmt.Errorf("%w: buyer email is required", ErrValidation)
	}

	affected, err := s.Gateway.MarkTicketSold(ctx, ticketID, buyerEmail, s.Now())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStatusUpdateFailed, err)
	}
	if affected == 0 {
		if _, err := s.Gateway.GetTicketByID(ctx, ticketID); err != nil {
			if isNotFound(err) {
				return fmt.Errorf("ticket %d: %w", ticketID, ErrTicketNotFound)
			}
			return fmt.Errorf("fetch ticket %d: %w", ticketID, err)
		}
		return fmt.Errorf("ticket %d: %w", ticketID, ErrTicketUnavailable)
	}

	s.Logger.LogPurchase("DIRECT_SALE", ticketID, "buyer="+buyerEmail)
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gateway.ErrNotFound)
}
