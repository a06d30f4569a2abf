package tests

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pasarela/internal/domain"
	"pasarela/internal/redis"
	"pasarela/internal/service"
)

// ──────────────────────────────────────────────
// 2. ORDER PREPARATION
// ──────────────────────────────────────────────

func newPreparationService(store *MockStore, tokens *MockTokenStore) *service.PreparationService {
	return service.NewPreparationService(store, tokens, nil)
}

func prepareRequest() service.PrepareOrderRequest {
	return service.PrepareOrderRequest{
		OrderNumber: "ord-1",
		NationalID:  "1-2345-6789",
		Amount:      decimal.NewFromFloat(1500.50),
		Currency:    "crc",
		FirstName:   "Maria",
		LastName:    "Solano",
		Email:       "maria@example.com",
		Country:     "CR",
	}
}

func TestPrepareOrder_CreatesPendingOrderWithToken(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	tokens := NewMockTokenStore()
	svc := newPreparationService(store, tokens)

	before := time.Now().UTC()
	prepared, err := svc.PrepareOrder(context.Background(), prepareRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if prepared.Token == "" {
		t.Fatal("expected a result token")
	}

	// The token resolves back to the order number.
	orderNumber, ok, err := tokens.TryGet(context.Background(), prepared.Token)
	if err != nil || !ok {
		t.Fatalf("token does not resolve: ok=%v err=%v", ok, err)
	}
	if orderNumber != "ord-1" {
		t.Errorf("expected token to map to ord-1, got %q", orderNumber)
	}

	// Expiry sits one full TTL out.
	if prepared.ExpiresAt.Before(before.Add(redis.ResultTokenTTL - time.Minute)) {
		t.Errorf("expiry too early: %v", prepared.ExpiresAt)
	}

	stored := store.Payments.GetPayment("ord-1")
	if stored == nil {
		t.Fatal("payment row not created")
	}
	if stored.Status != domain.StatusPending {
		t.Errorf("expected status %s, got %s", domain.StatusPending, stored.Status)
	}
	if stored.Currency != "CRC" {
		t.Errorf("expected currency CRC, got %q", stored.Currency)
	}
	if stored.Method != "card" {
		t.Errorf("expected method card, got %q", stored.Method)
	}
	if stored.Nonce == "" {
		t.Error("expected a generated nonce")
	}

	if store.Customers.GetCustomer("1-2345-6789") == nil {
		t.Error("customer row not created")
	}
}

func TestPrepareOrder_ValidationErrors(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	tokens := NewMockTokenStore()
	svc := newPreparationService(store, tokens)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*service.PrepareOrderRequest)
		want   error
	}{
		{"missing order number", func(r *service.PrepareOrderRequest) { r.OrderNumber = "  " }, service.ErrMissingOrderNumber},
		{"missing cedula", func(r *service.PrepareOrderRequest) { r.NationalID = "" }, service.ErrMissingNationalID},
		{"zero amount", func(r *service.PrepareOrderRequest) { r.Amount = decimal.Zero }, service.ErrInvalidAmount},
		{"negative amount", func(r *service.PrepareOrderRequest) { r.Amount = decimal.NewFromInt(-1) }, service.ErrInvalidAmount},
	}

	for _, tc := range cases {
		req := prepareRequest()
		tc.mutate(&req)
		if _, err := svc.PrepareOrder(ctx, req); !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	if tokens.SaveCallCount != 0 {
		t.Errorf("expected no tokens issued, got %d", tokens.SaveCallCount)
	}
}

func TestPrepareOrder_TruncatesAndNormalizes(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	tokens := NewMockTokenStore()
	svc := newPreparationService(store, tokens)

	req := prepareRequest()
	req.OrderNumber = strings.Repeat("x", domain.MaxOrderNumberLen+10)
	req.NationalID = strings.Repeat("9", domain.MaxNationalIDLen+5)
	req.Currency = "" // falls back to the default

	if _, err := svc.PrepareOrder(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantOrder := strings.Repeat("x", domain.MaxOrderNumberLen)
	stored := store.Payments.GetPayment(wantOrder)
	if stored == nil {
		t.Fatal("payment not stored under the truncated order number")
	}
	if len(stored.NationalID) != domain.MaxNationalIDLen {
		t.Errorf("cedula not truncated: %d chars", len(stored.NationalID))
	}
	if stored.Currency != domain.DefaultCurrency {
		t.Errorf("expected default currency %s, got %q", domain.DefaultCurrency, stored.Currency)
	}
}

func TestPrepareOrder_RefreshKeepsNonceAndStatus(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	tokens := NewMockTokenStore()
	svc := newPreparationService(store, tokens)
	ctx := context.Background()

	store.Customers.AddCustomer(&domain.Customer{NationalID: "1-2345-6789"})
	store.Payments.AddPayment(&domain.Payment{
		OrderNumber:     "ord-1",
		NationalID:      "1-2345-6789",
		Method:          "card",
		Amount:          decimal.NewFromInt(1000),
		Currency:        "CRC",
		Status:          domain.StatusRejected,
		TransactionDate: time.Now().UTC(),
		Nonce:           "nonce-original",
	})

	req := prepareRequest()
	req.Amount = decimal.NewFromInt(2500)
	req.Currency = "USD"
	prepared, err := svc.PrepareOrder(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := store.Payments.GetPayment("ord-1")
	if !stored.Amount.Equal(decimal.NewFromInt(2500)) {
		t.Errorf("amount not refreshed: %s", stored.Amount)
	}
	if stored.Currency != "USD" {
		t.Errorf("currency not refreshed: %q", stored.Currency)
	}
	// Re-preparation never rewinds an advanced status or rotates the nonce.
	if stored.Status != domain.StatusRejected {
		t.Errorf("status rewound to %s", stored.Status)
	}
	if stored.Nonce != "nonce-original" {
		t.Errorf("nonce rotated: %q", stored.Nonce)
	}

	// A fresh token is still issued for the new attempt.
	orderNumber, ok, _ := tokens.TryGet(ctx, prepared.Token)
	if !ok || orderNumber != "ord-1" {
		t.Errorf("fresh token does not resolve, ok=%v order=%q", ok, orderNumber)
	}
}

func TestPrepareOrder_ClientNonceIsUsedOnCreate(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	tokens := NewMockTokenStore()
	svc := newPreparationService(store, tokens)

	req := prepareRequest()
	req.StateNonce = "client-nonce"
	if _, err := svc.PrepareOrder(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := store.Payments.GetPayment("ord-1").Nonce; got != "client-nonce" {
		t.Errorf("expected client nonce, got %q", got)
	}
}

func TestPrepareOrder_TokenFailureFailsPreparation(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	tokens := NewMockTokenStore()
	tokens.SaveError = ErrMockRedisDown
	svc := newPreparationService(store, tokens)

	_, err := svc.PrepareOrder(context.Background(), prepareRequest())
	if !errors.Is(err, ErrMockRedisDown) {
		t.Fatalf("expected token store error, got %v", err)
	}
}
