package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pasarela/internal/domain"
	"pasarela/internal/repository"
	"pasarela/internal/service"
)

// ──────────────────────────────────────────────
// 3. RESULT RECONCILIATION
// ──────────────────────────────────────────────

type reconciliationFixture struct {
	store  *MockStore
	tokens *MockTokenStore
	locks  *MockOrderLockStore
	svc    *service.ReconciliationService
}

func newReconciliationFixture() *reconciliationFixture {
	store := NewMockStore()
	tokens := NewMockTokenStore()
	locks := NewMockOrderLockStore()
	transactions := service.NewTransactionService(store, store.Payments, locks, nil)
	return &reconciliationFixture{
		store:  store,
		tokens: tokens,
		locks:  locks,
		svc:    service.NewReconciliationService(tokens, transactions, store.Customers),
	}
}

func (f *reconciliationFixture) seedPreparedOrder(orderNumber string) {
	f.store.Customers.AddCustomer(&domain.Customer{
		NationalID: "1-2345-6789",
		FirstName:  "Maria",
		LastName:   "Solano",
		Email:      "maria@example.com",
		Country:    "CR",
	})
	f.store.Payments.AddPayment(&domain.Payment{
		OrderNumber:     orderNumber,
		NationalID:      "1-2345-6789",
		Method:          "card",
		Amount:          decimal.NewFromFloat(1500.50),
		Currency:        "CRC",
		Status:          domain.StatusPending,
		TransactionDate: time.Now().UTC(),
		Nonce:           "nonce-1",
	})
	f.tokens.AddToken("token-ord-1", orderNumber)
}

func TestResolve_PersistsApprovedOutcome(t *testing.T) {
	t.Parallel()

	f := newReconciliationFixture()
	f.seedPreparedOrder("ord-1")

	result, err := f.svc.Resolve(context.Background(), "token-ord-1", service.GatewayFields{
		Code:          "1",
		Description:   "Transaccion aprobada",
		Auth:          "AUTH-77",
		Brand:         "visa",
		TransactionID: "tpt-123",
		Status:        "success",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != domain.StatusApproved {
		t.Errorf("expected status %s, got %s", domain.StatusApproved, result.Status)
	}
	if result.AuthorizationCode != "AUTH-77" {
		t.Errorf("expected auth AUTH-77, got %q", result.AuthorizationCode)
	}
	if result.CardBrand != "visa" {
		t.Errorf("expected brand visa, got %q", result.CardBrand)
	}
	if result.GatewayTxID != "tpt-123" {
		t.Errorf("expected gateway tx id tpt-123, got %q", result.GatewayTxID)
	}
	if result.DisplayCustomer != "Maria Solano" {
		t.Errorf("expected joined customer name, got %q", result.DisplayCustomer)
	}
	// The prepared amount survives; the gateway does not report one.
	if !result.Amount.Equal(decimal.NewFromFloat(1500.50)) {
		t.Errorf("expected prepared amount, got %s", result.Amount)
	}

	stored := f.store.Payments.GetPayment("ord-1")
	if stored.Status != domain.StatusApproved {
		t.Errorf("outcome not persisted: %s", stored.Status)
	}
	if stored.RawResponse == "" {
		t.Error("gateway fields not recorded in raw response")
	}
}

func TestResolve_RevisitWithoutOutcomeIsReadOnly(t *testing.T) {
	t.Parallel()

	f := newReconciliationFixture()
	f.seedPreparedOrder("ord-1")

	result, err := f.svc.Resolve(context.Background(), "token-ord-1", service.GatewayFields{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != domain.StatusPending {
		t.Errorf("expected stored status back, got %s", result.Status)
	}
	// A pure read must not touch the write path.
	if f.store.InTransactionCallCount != 0 {
		t.Error("read-only resolve ran a transaction")
	}
	if f.store.Payments.UpdateCallCount != 0 {
		t.Error("read-only resolve updated the payment row")
	}
}

func TestResolve_ExpiredTokenFallsBackToOrderParam(t *testing.T) {
	t.Parallel()

	f := newReconciliationFixture()
	f.seedPreparedOrder("ord-1")
	f.tokens.ExpireToken("token-ord-1")

	result, err := f.svc.Resolve(context.Background(), "token-ord-1", service.GatewayFields{
		Code:          "1",
		Status:        "approved",
		OrderFallback: "ord-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.OrderNumber != "ord-1" {
		t.Errorf("fallback did not resolve the order, got %q", result.OrderNumber)
	}
	if result.Status != domain.StatusApproved {
		t.Errorf("expected status %s, got %s", domain.StatusApproved, result.Status)
	}
}

func TestResolve_ExpiredTokenWithoutFallbackIsNotFound(t *testing.T) {
	t.Parallel()

	f := newReconciliationFixture()
	f.seedPreparedOrder("ord-1")
	f.tokens.ExpireToken("token-ord-1")

	_, err := f.svc.Resolve(context.Background(), "token-ord-1", service.GatewayFields{Code: "1"})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolve_UnpreparedOrderIsNotFound(t *testing.T) {
	t.Parallel()

	f := newReconciliationFixture()
	f.tokens.AddToken("token-ghost", "ord-ghost")

	_, err := f.svc.Resolve(context.Background(), "token-ghost", service.GatewayFields{Code: "1"})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unprepared order, got %v", err)
	}
}

func TestResolve_LateRejectionCannotDemoteApprovedOrder(t *testing.T) {
	t.Parallel()

	f := newReconciliationFixture()
	f.seedPreparedOrder("ord-1")
	ctx := context.Background()

	if _, err := f.svc.Resolve(ctx, "token-ord-1", service.GatewayFields{Code: "1", Status: "approved", Auth: "AUTH-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A duplicate redirect with a rejection must report the stored approval.
	result, err := f.svc.Resolve(ctx, "token-ord-1", service.GatewayFields{Code: "51", Status: "denied"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != domain.StatusApproved {
		t.Errorf("approval demoted to %s", result.Status)
	}
	if result.AuthorizationCode != "AUTH-1" {
		t.Errorf("authorization code lost: %q", result.AuthorizationCode)
	}
}

func TestResolve_RejectionNeverReplacesFirstRecord(t *testing.T) {
	t.Parallel()

	f := newReconciliationFixture()
	f.seedPreparedOrder("ord-1")

	result, err := f.svc.Resolve(context.Background(), "token-ord-1", service.GatewayFields{
		Code:        "51",
		Description: "Fondos insuficientes",
		Status:      "denied",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Non-approved writes over an existing row are dropped; the prepared
	// record stands and only an approval can advance it.
	if result.Status != domain.StatusPending {
		t.Errorf("expected %s, got %s", domain.StatusPending, result.Status)
	}
	if got := f.store.Payments.GetPayment("ord-1").Status; got != domain.StatusPending {
		t.Errorf("first record replaced: %s", got)
	}
}

func TestResolve_MissingCustomerStillReturnsResult(t *testing.T) {
	t.Parallel()

	f := newReconciliationFixture()
	f.store.Payments.AddPayment(&domain.Payment{
		OrderNumber:     "ord-1",
		NationalID:      "0-0000-0000",
		Amount:          decimal.NewFromInt(100),
		Currency:        "CRC",
		Status:          domain.StatusApproved,
		TransactionDate: time.Now().UTC(),
	})
	f.tokens.AddToken("token-ord-1", "ord-1")

	result, err := f.svc.Resolve(context.Background(), "token-ord-1", service.GatewayFields{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.DisplayCustomer != "" {
		t.Errorf("expected empty customer display, got %q", result.DisplayCustomer)
	}
	if result.OrderNumber != "ord-1" {
		t.Errorf("expected ord-1, got %q", result.OrderNumber)
	}
}
