package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"pasarela/internal/domain"
	"pasarela/internal/redis"
	"pasarela/internal/repository"
)

// GatewayFields carries whatever the gateway appended to the redirect or
// callback request. All fields are optional free text.
type GatewayFields struct {
	Code        string
	Description string
	Auth        string
	Brand       string
	// TransactionID is the gateway's own transaction identifier
	// (tilopay-transaction / tpt).
	TransactionID string
	Status        string
	// OrderFallback is the raw `order` query parameter, trusted only when
	// the result token has expired or was lost.
	OrderFallback string
}

// HasOutcome reports whether the request carries any gateway-provided
// outcome at all. Requests without one (a revisit of the result page) must
// not mutate persisted state.
func (f GatewayFields) HasOutcome() bool {
	return f.Code != "" || f.Description != "" || f.Auth != "" ||
		f.Brand != "" || f.TransactionID != "" || f.Status != ""
}

// TransactionResult is the display DTO served to the result page.
type TransactionResult struct {
	OrderNumber       string
	NationalID        string
	Status            domain.TransactionStatus
	Amount            decimal.Decimal
	Currency          string
	AuthorizationCode string
	CardBrand         string
	TransactionDate   time.Time
	FirstName         string
	LastName          string
	DisplayCustomer   string
	Email             string
	Country           string
	GatewayTxID       string
}

// ReconciliationService resolves gateway redirects into persisted,
// normalized transaction outcomes.
type ReconciliationService struct {
	tokens       redis.TokenStoreInterface
	transactions *TransactionService
	customerRepo repository.CustomerRepository
}

// NewReconciliationService creates a new ReconciliationService.
func NewReconciliationService(tokens redis.TokenStoreInterface, transactions *TransactionService, customerRepo repository.CustomerRepository) *ReconciliationService {
	return &ReconciliationService{
		tokens:       tokens,
		transactions: transactions,
		customerRepo: customerRepo,
	}
}

// Resolve maps the token (or the order fallback) to an order, persists the
// normalized gateway outcome when one is present, and returns the display
// DTO. Requests without gateway fields only read back the stored record.
func (s *ReconciliationService) Resolve(ctx context.Context, token string, fields GatewayFields) (*TransactionResult, error) {
	orderNumber, ok, err := s.tokens.TryGet(ctx, token)
	if err != nil {
		return nil, err
	}
	if !ok {
		// The token store is volatile by contract. The raw order number
		// from the redirect URL keeps the result page working after
		// expiry, at the cost of a weaker lookup boundary.
		if fields.OrderFallback == "" {
			return nil, repository.ErrNotFound
		}
		orderNumber = fields.OrderFallback
	}

	existing, err := s.transactions.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	if fields.HasOutcome() {
		status := domain.NormalizeGatewayStatus(fields.Code, fields.Status, fields.Description)

		raw, _ := json.Marshal(map[string]string{
			"code":                fields.Code,
			"description":         fields.Description,
			"auth":                fields.Auth,
			"brand":               fields.Brand,
			"tilopay-transaction": fields.TransactionID,
			"status":              fields.Status,
		})

		incoming := &domain.Payment{
			OrderNumber:       existing.OrderNumber,
			NationalID:        existing.NationalID,
			Method:            existing.Method,
			Amount:            existing.Amount,
			Currency:          existing.Currency,
			Status:            status,
			AuthorizationCode: fields.Auth,
			CardBrand:         fields.Brand,
			RawResponse:       string(raw),
			TransactionDate:   time.Now().UTC(),
		}

		if err := s.transactions.SaveTransaction(ctx, &domain.Customer{NationalID: existing.NationalID}, incoming); err != nil {
			return nil, err
		}

		// Read back: the monotonic rule may have kept the stored row.
		existing, err = s.transactions.GetByOrderNumber(ctx, orderNumber)
		if err != nil {
			return nil, err
		}
	}

	return s.buildResult(ctx, existing, fields.TransactionID)
}

func (s *ReconciliationService) buildResult(ctx context.Context, p *domain.Payment, gatewayTxID string) (*TransactionResult, error) {
	result := &TransactionResult{
		OrderNumber:       p.OrderNumber,
		NationalID:        p.NationalID,
		Status:            p.Status,
		Amount:            p.Amount,
		Currency:          p.Currency,
		AuthorizationCode: p.AuthorizationCode,
		CardBrand:         p.CardBrand,
		TransactionDate:   p.TransactionDate,
		GatewayTxID:       gatewayTxID,
	}

	customer, err := s.customerRepo.GetByNationalID(ctx, p.NationalID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return result, nil
	}

	result.FirstName = customer.FirstName
	result.LastName = customer.LastName
	result.DisplayCustomer = customer.DisplayName()
	result.Email = customer.Email
	result.Country = customer.Country

	return result, nil
}
