package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pasarela/internal/domain"
	"pasarela/internal/metrics"
	"pasarela/internal/redis"
	"pasarela/internal/repository"
)

// defaultMethod tags orders prepared for card capture through the SDK.
const defaultMethod = "card"

// PreparationService creates or refreshes an order ahead of SDK invocation
// and issues the result-lookup token embedded in the gateway redirect URL.
type PreparationService struct {
	store   repository.Store
	tokens  redis.TokenStoreInterface
	metrics *metrics.PaymentMetrics
}

// NewPreparationService creates a new PreparationService.
func NewPreparationService(store repository.Store, tokens redis.TokenStoreInterface, m *metrics.PaymentMetrics) *PreparationService {
	return &PreparationService{store: store, tokens: tokens, metrics: m}
}

// PrepareOrderRequest contains the parameters for preparing an order.
type PrepareOrderRequest struct {
	OrderNumber string
	NationalID  string
	Amount      decimal.Decimal
	Currency    string
	FirstName   string
	LastName    string
	Email       string
	Country     string
	// StateNonce, when provided by the client, becomes the order's state
	// guard; otherwise a fresh one is generated.
	StateNonce string
}

// PreparedOrder is the result of a successful preparation.
type PreparedOrder struct {
	Token     string
	ExpiresAt time.Time
}

// PrepareOrder validates and normalizes the request, upserts the customer
// and the pending payment row in one transaction, and issues a result token.
// A failure at any step rolls back the whole unit.
func (s *PreparationService) PrepareOrder(ctx context.Context, req PrepareOrderRequest) (*PreparedOrder, error) {
	orderNumber := strings.TrimSpace(req.OrderNumber)
	nationalID := strings.TrimSpace(req.NationalID)

	if orderNumber == "" {
		return nil, ErrMissingOrderNumber
	}
	if nationalID == "" {
		return nil, ErrMissingNationalID
	}
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	orderNumber = truncate(orderNumber, domain.MaxOrderNumberLen)
	nationalID = truncate(nationalID, domain.MaxNationalIDLen)

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	currency = truncate(currency, domain.CurrencyLen)

	customer := &domain.Customer{
		NationalID: nationalID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Country:    req.Country,
	}

	var token string
	err := s.store.InTransaction(ctx, func(customers repository.CustomerRepository, payments repository.PaymentRepository) error {
		if err := upsertCustomer(ctx, customers, customer); err != nil {
			return err
		}
		if err := s.preparePayment(ctx, payments, orderNumber, nationalID, req.Amount, currency, req.StateNonce); err != nil {
			return err
		}

		// Issued inside the unit of work so a token failure also rolls
		// back the order row.
		var err error
		token, err = s.tokens.Save(ctx, orderNumber)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.OrdersPreparedTotal.Inc()
		s.metrics.ResultTokensIssuedTotal.Inc()
	}

	return &PreparedOrder{
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(redis.ResultTokenTTL),
	}, nil
}

// preparePayment creates the order as pendiente with a fresh nonce, or
// refreshes amount/currency/method defaults on an existing row without
// clobbering its nonce or an already-advanced status.
func (s *PreparationService) preparePayment(ctx context.Context, payments repository.PaymentRepository, orderNumber, nationalID string, amount decimal.Decimal, currency, stateNonce string) error {
	existing, err := payments.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		nonce := stateNonce
		if nonce == "" {
			nonce = uuid.NewString()
		}
		return payments.Create(ctx, &domain.Payment{
			OrderNumber:     orderNumber,
			NationalID:      nationalID,
			Method:          defaultMethod,
			Amount:          amount,
			Currency:        currency,
			Status:          domain.StatusPending,
			TransactionDate: time.Now().UTC(),
			Nonce:           nonce,
		})
	}

	existing.Amount = amount
	existing.Currency = currency
	if existing.Method == "" {
		existing.Method = defaultMethod
	}
	// Status and nonce are deliberately left alone: preparation never
	// rewinds an order that already has a gateway outcome.
	existing.Nonce = ""
	return payments.Update(ctx, existing)
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
