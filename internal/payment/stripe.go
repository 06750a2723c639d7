package payment

import (
	"context"
	"errors"
	"fmt"
	"math"

	"matchday/internal/logger"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

var (
	ErrStripeAPIError         = errors.New("stripe API error")
	ErrStripeClientInitFailed = errors.New("failed to initialize Stripe client")
	ErrPaymentDeclined        = errors.New("payment declined")
)

// ChargeRequest is a one-shot card charge. Token is a Stripe payment
// method id or test token from the frontend.
type ChargeRequest struct {
	Amount      float64
	Currency    string
	Token       string
	Description string
	Metadata    map[string]string
}

type ChargeResult struct {
	TransactionID string  `json:"transaction_id"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	ReceiptURL    string  `json:"receipt_url,omitempty"`
}

// StripeService wraps the Stripe client for subscription charges.
type StripeService struct {
	client   *client.API
	currency string
	log      *logger.Logger
}

func NewStripeService(secretKey, currency string, log *logger.Logger) (*StripeService, error) {
	if secretKey == "" {
		log.Error("STRIPE", "Stripe secret key not configured")
		return nil, ErrStripeClientInitFailed
	}

	sc := client.New(secretKey, nil)
	if sc == nil {
		return nil, ErrStripeClientInitFailed
	}

	log.Info("STRIPE", "Stripe client initialized")
	return &StripeService{client: sc, currency: currency, log: log}, nil
}

// amountToCents rounds instead of truncating: float64(24.99)*100 is
// 2498.999..., and a plain int64 cast would charge one cent short.
func amountToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// Charge confirms a payment intent immediately against the given token.
func (s *StripeService) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: invalid amount %.2f", ErrStripeAPIError, req.Amount)
	}
	if req.Token == "" {
		return nil, fmt.Errorf("%w: no payment method provided", ErrStripeAPIError)
	}

	currency := req.Currency
	if currency == "" {
		currency = s.currency
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amountToCents(req.Amount)),
		Currency:           stripe.String(currency),
		PaymentMethod:      stripe.String(req.Token),
		Description:        stripe.String(req.Description),
		Metadata:           req.Metadata,
		ConfirmationMethod: stripe.String("manual"),
		Confirm:            stripe.Bool(true),
		PaymentMethodTypes: []*string{stripe.String("card")},
	}
	params.Context = ctx

	s.log.Info("STRIPE", fmt.Sprintf("Charging %.2f %s: %s", req.Amount, currency, req.Description))
	pi, err := s.client.PaymentIntents.New(params)
	if err != nil {
		s.log.Error("STRIPE", fmt.Sprintf("Payment intent creation failed: %v", err))
		return nil, fmt.Errorf("%w: %v", ErrStripeAPIError, err)
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		s.log.Error("STRIPE", fmt.Sprintf("Payment %s ended with status %s", pi.ID, pi.Status))
		return nil, fmt.Errorf("%w: intent status %s", ErrPaymentDeclined, pi.Status)
	}

	result := &ChargeResult{
		TransactionID: pi.ID,
		Amount:        float64(pi.Amount) / 100.0,
		Currency:      string(pi.Currency),
	}
	if pi.LatestCharge != nil && pi.LatestCharge.ID != "" {
		if charge, err := s.client.Charges.Get(pi.LatestCharge.ID, nil); err == nil {
			result.ReceiptURL = charge.ReceiptURL
		}
	}

	s.log.Info("STRIPE", fmt.Sprintf("Payment %s succeeded (%.2f %s)", pi.ID, result.Amount, result.Currency))
	return result, nil
}
