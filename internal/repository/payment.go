package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"pasarela/internal/domain"
)

// PaymentRepository defines the persistence operations for payments.
type PaymentRepository interface {
	// GetByOrderNumber retrieves a payment by its unique order number.
	// Returns ErrNotFound if no payment exists.
	GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Payment, error)

	// Create persists a new payment.
	Create(ctx context.Context, payment *domain.Payment) error

	// Update overwrites the mutable fields of the payment row matching
	// payment.OrderNumber (status, amounts, gateway response, timestamps).
	Update(ctx context.Context, payment *domain.Payment) error

	// ListDashboard returns a filtered, paginated transaction listing plus
	// the total row count before pagination.
	ListDashboard(ctx context.Context, filter DashboardFilter) ([]DashboardRow, int, error)
}

// DashboardFilter narrows and pages the dashboard listing.
type DashboardFilter struct {
	Page     int
	PageSize int
	From     *time.Time
	To       *time.Time
	// Search matches against cédula, customer name, country, order number
	// and currency.
	Search string
	// Status restricts to one normalized status when non-empty.
	Status string
}

// DashboardRow is one row of the operations dashboard.
type DashboardRow struct {
	NationalID      string
	CustomerName    string
	Country         string
	Amount          decimal.Decimal
	Currency        string
	OrderNumber     string
	Status          domain.TransactionStatus
	TransactionDate *time.Time
}
