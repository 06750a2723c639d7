package subscription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"matchday/internal/gateway"
	"matchday/internal/logger"
	"matchday/internal/models"
	"matchday/internal/payment"
)

var (
	ErrValidation   = errors.New("invalid request")
	ErrPlanNotFound = errors.New("plan not found")
	// ErrDuplicateSubscription means the user already has an active
	// subscription for that team; one per team per user.
	ErrDuplicateSubscription = errors.New("already subscribed to this team")
	ErrUserLookupFailed      = errors.New("failed to resolve subscriber")
	ErrPaymentFailed         = errors.New("payment failed")
)

// Plans are fixed; ids match the pricing page ordering.
var Plans = []models.Plan{
	{ID: 1, Name: "Basic", Price: 9.99},
	{ID: 2, Name: "Premium", Price: 24.99},
	{ID: 3, Name: "VIP", Price: 49.99},
}

// Store is the slice of the gateway the subscription flow needs.
type Store interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	MaxUserID(ctx context.Context) (int64, error)
	InsertUser(ctx context.Context, user *models.User) error
	GetSubscriptionsByUser(ctx context.Context, userID int64) ([]models.Subscription, error)
	InsertSubscription(ctx context.Context, sub *models.Subscription) error
}

// Charger is the payment dependency; nil disables card charges.
type Charger interface {
	Charge(ctx context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error)
}

type EventPublisher interface {
	PublishSubscriptionCreated(topic string, sub models.Subscription) error
}

type Service struct {
	Gateway Store
	Charger Charger
	Events  EventPublisher
	Topic   string
	Logger  *logger.Logger

	// Now is swappable in tests.
	Now func() time.Time
}

func NewService(gw Store, charger Charger, events EventPublisher, topic string, log *logger.Logger) *Service {
	return &Service{
		Gateway: gw,
		Charger: charger,
		Events:  events,
		Topic:   topic,
		Logger:  log,
		Now:     time.Now,
	}
}

// Subscribe activates a one-month team subscription, enforcing one active
// subscription per team per user. The duplicate check scans the user's
// existing rows before any insert, so a rejected request mutates nothing.
func (s *Service) Subscribe(ctx context.Context, req models.SubscribeRequest) (*models.Subscription, error) {
	if strings.TrimSpace(req.Team) == "" {
		return nil, fmt.Errorf("%w: team is required", ErrValidation)
	}

	plan, ok := PlanByID(req.PlanID)
	if !ok {
		return nil, fmt.Errorf("plan %d: %w", req.PlanID, ErrPlanNotFound)
	}

	user, err := s.resolveUser(ctx, req)
	if err != nil {
		return nil, err
	}

	existing, err := s.Gateway.GetSubscriptionsByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch subscriptions for user %d: %w", user.ID, err)
	}
	for _, sub := range existing {
		if strings.EqualFold(sub.Team, req.Team) {
			return nil, fmt.Errorf("user %d, team %q: %w", user.ID, req.Team, ErrDuplicateSubscription)
		}
	}

	if req.CardToken != "" && s.Charger != nil {
		_, err := s.Charger.Charge(ctx, payment.ChargeRequest{
			Amount:      plan.Price,
			Token:       req.CardToken,
			Description: fmt.Sprintf("%s subscription for %s", plan.Name, req.Team),
			Metadata: map[string]string{
				"user_id": fmt.Sprintf("%d", user.ID),
				"equipe":  req.Team,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
		}
	}

	now := s.Now()
	sub := &models.Subscription{
		UserID:    user.ID,
		Team:      req.Team,
		PlanName:  plan.Name,
		Price:     plan.Price,
		StartDate: now,
		EndDate:   now.AddDate(0, 1, 0),
	}
	if err := s.Gateway.InsertSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("insert subscription: %w", err)
	}

	s.Logger.Info("SUBSCRIPTION", fmt.Sprintf("user %d subscribed to %s (%s)", user.ID, req.Team, plan.Name))

	if s.Events != nil {
		if err := s.Events.PublishSubscriptionCreated(s.Topic, *sub); err != nil {
			s.Logger.Warn("KAFKA", fmt.Sprintf("publish subscription created: %v", err))
		}
	}

	return sub, nil
}

// resolveUser finds the subscriber by id, then email, and finally
// auto-registers an account for an unknown email.
func (s *Service) resolveUser(ctx context.Context, req models.SubscribeRequest) (*models.User, error) {
	if req.UserID > 0 {
		user, err := s.Gateway.GetUserByID(ctx, req.UserID)
		if err != nil {
			if errors.Is(err, gateway.ErrNotFound) {
				return nil, fmt.Errorf("%w: user %d does not exist", ErrUserLookupFailed, req.UserID)
			}
			return nil, fmt.Errorf("%w: %v", ErrUserLookupFailed, err)
		}
		return user, nil
	}

	if req.Email == "" {
		return nil, fmt.Errorf("%w: user id or email is required", ErrValidation)
	}

	user, err := s.Gateway.GetUserByEmail(ctx, req.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gateway.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrUserLookupFailed, err)
	}

	// Unknown email: register a bare account so the subscription has an
	// owner. Ids follow the store's max(id)+1 convention.
	maxID, err := s.Gateway.MaxUserID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: allocate id: %v", ErrUserLookupFailed, err)
	}
	user = &models.User{
		ID:     maxID + 1,
		Nom:    req.Nom,
		Prenom: req.Prenom,
		Email:  req.Email,
	}
	if err := s.Gateway.InsertUser(ctx, user); err != nil {
		return nil, fmt.Errorf("%w: auto-register: %v", ErrUserLookupFailed, err)
	}

	s.Logger.Info("SUBSCRIPTION", fmt.Sprintf("auto-registered user %d for %s", user.ID, user.Email))
	return user, nil
}

// Subscriptions lists a user's subscriptions.
func (s *Service) Subscriptions(ctx context.Context, userID int64) ([]models.Subscription, error) {
	subs, err := s.Gateway.GetSubscriptionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch subscriptions for user %d: %w", userID, err)
	}
	return subs, nil
}

func PlanByID(id int64) (models.Plan, bool) {
	for _, p := range Plans {
		if p.ID == id {
			return p, true
		}
	}
	return models.Plan{}, false
}
