// Package checkout drives one browser checkout attempt against the embedded
// payment SDK: token fetch, order preparation, SDK initialization, method
// selection, the watched payment call and result classification. The SDK
// itself is vendor-controlled and treated as a black box behind the SDK
// interface.
package checkout

import (
	"context"
	"encoding/json"
)

// BillingFields is the billing data handed to the SDK at init time.
type BillingFields struct {
	Email      string
	FirstName  string
	LastName   string
	Address    string
	City       string
	Country    string
	State      string
	PostalCode string
	Telephone  string
}

// InitConfig is the configuration given to SDK Init / UpdateOptions.
// Amount is always the canonical two-decimal invariant wire string.
type InitConfig struct {
	Token        string
	OrderNumber  string
	Amount       string
	Currency     string
	Description  string
	Language     string
	Capture      string
	RedirectURL  string
	Billing      BillingFields
	Subscription int
	HashVersion  string
}

// PaymentMethod is one method offered by the SDK for the configured
// currency. Card-capable checkout is indicated by a "payfac" method id or a
// card type.
type PaymentMethod struct {
	ID   string
	Name string
	Type string
}

// PaymentResult is the loosely-typed object the SDK resolves with. Status
// and Result are alternative spellings of the same free-form outcome field;
// Payload retains the raw response for audit storage only.
type PaymentResult struct {
	Status      string
	Result      string
	Approved    *bool
	RedirectURL string
	Message     string
	Payload     json.RawMessage
}

// IsEmpty reports whether the result carries no usable field at all. With a
// redirect configured this means the browser is navigating away.
func (r *PaymentResult) IsEmpty() bool {
	return r == nil || (r.Status == "" && r.Result == "" && r.Approved == nil &&
		r.RedirectURL == "" && r.Message == "" && len(r.Payload) == 0)
}

// SDK is the embedded payment widget surface. All calls are asynchronous,
// fallible and outside this system's control.
type SDK interface {
	// Init initializes the widget. Called at most once per session;
	// later configuration changes go through UpdateOptions.
	Init(ctx context.Context, cfg InitConfig) error

	// UpdateOptions reconfigures an already-initialized widget.
	UpdateOptions(ctx context.Context, cfg InitConfig) error

	// StartPayment submits the captured card data to the acquirer.
	StartPayment(ctx context.Context) (*PaymentResult, error)

	// GetMethods lists the payment methods available for the configured
	// currency.
	GetMethods(ctx context.Context) ([]PaymentMethod, error)

	// GetCardType reports the brand of the card number currently typed
	// into the widget.
	GetCardType(ctx context.Context) (string, error)

	// Cancel dismisses any in-flight payment overlay. Best-effort.
	Cancel(ctx context.Context) error
}
