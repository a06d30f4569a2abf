package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Field length limits enforced at the persistence boundary. They match the
// column sizes of the pagos/clientes schema.
const (
	MaxOrderNumberLen = 64
	MaxNationalIDLen  = 25
	CurrencyLen       = 3
)

// DefaultCurrency is applied when an order is prepared without one.
const DefaultCurrency = "CRC"

// Payment represents one checkout attempt, keyed by its unique order number.
type Payment struct {
	ID                int64
	OrderNumber       string
	NationalID        string
	Method            string
	Amount            decimal.Decimal
	Currency          string
	Status            TransactionStatus
	AuthorizationCode string
	CardBrand         string
	// RawResponse keeps the full gateway JSON for audit/debugging only;
	// nothing is ever decoded back out of it.
	RawResponse     string
	TransactionDate time.Time
	// Nonce is a random per-order state guard issued at preparation time.
	Nonce string
}

// WireAmount is the canonical wire representation of a money amount:
// exactly two fractional digits with a '.' separator, independent of any
// locale. Everything crossing the SDK or HTTP boundary uses this form;
// currency symbols and locale separators are presentation-only.
func WireAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
