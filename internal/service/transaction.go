package service

import (
	"context"
	"errors"
	"time"

	"pasarela/internal/domain"
	"pasarela/internal/metrics"
	"pasarela/internal/redis"
	"pasarela/internal/repository"
)

const (
	// orderLockTTL bounds how long a crashed holder can leave the lock behind.
	orderLockTTL = 10 * time.Second

	// Lock acquisition is waited on, not the operation itself; a failed
	// save is never retried.
	orderLockWait     = 5 * time.Second
	orderLockInterval = 50 * time.Millisecond
)

// TransactionService persists transaction outcomes with the monotonic
// status rule: once an order is aprobado, no later write may change it.
type TransactionService struct {
	store       repository.Store
	paymentRepo repository.PaymentRepository
	locks       redis.OrderLockInterface
	metrics     *metrics.PaymentMetrics
}

// NewTransactionService creates a new TransactionService.
func NewTransactionService(store repository.Store, paymentRepo repository.PaymentRepository, locks redis.OrderLockInterface, m *metrics.PaymentMetrics) *TransactionService {
	return &TransactionService{
		store:       store,
		paymentRepo: paymentRepo,
		locks:       locks,
		metrics:     m,
	}
}

// SaveTransaction upserts the customer and applies the payment write under
// the monotonic status rule. The read-modify-write sequence is serialized
// per order number via the distributed order lock.
//
// Write resolution by (current, incoming) status:
//   - current aprobado: the write is ignored entirely; aprobado is terminal.
//   - incoming aprobado: status, gateway response, amount, timestamp and the
//     gateway-reported authorization code / card brand overwrite the row.
//   - incoming non-aprobado with an existing row: ignored; the first
//     non-approved record wins.
//   - no existing row: inserted as-is.
func (s *TransactionService) SaveTransaction(ctx context.Context, customer *domain.Customer, payment *domain.Payment) error {
	if customer == nil || customer.NationalID == "" {
		return ErrMissingNationalID
	}
	if payment == nil || payment.OrderNumber == "" {
		return ErrMissingOrderNumber
	}
	if !payment.Amount.IsPositive() {
		return ErrInvalidAmount
	}

	if err := s.acquireOrderLock(ctx, payment.OrderNumber); err != nil {
		return err
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		_ = s.locks.ReleaseOrderLock(releaseCtx, payment.OrderNumber)
	}()

	start := time.Now()
	err := s.store.InTransaction(ctx, func(customers repository.CustomerRepository, payments repository.PaymentRepository) error {
		if err := upsertCustomer(ctx, customers, customer); err != nil {
			return err
		}
		return s.upsertPayment(ctx, payments, payment)
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.SaveTransactionDuration.Observe(time.Since(start).Seconds())
	}
	return nil
}

// GetByOrderNumber reads back a stored payment without mutating it.
func (s *TransactionService) GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Payment, error) {
	if orderNumber == "" {
		return nil, ErrMissingOrderNumber
	}
	return s.paymentRepo.GetByOrderNumber(ctx, orderNumber)
}

// Dashboard returns the filtered, paginated transaction listing.
func (s *TransactionService) Dashboard(ctx context.Context, filter repository.DashboardFilter) ([]repository.DashboardRow, int, error) {
	return s.paymentRepo.ListDashboard(ctx, filter)
}

func (s *TransactionService) acquireOrderLock(ctx context.Context, orderNumber string) error {
	deadline := time.Now().Add(orderLockWait)
	for {
		ok, err := s.locks.AcquireOrderLock(ctx, orderNumber, orderLockTTL)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrOrderBusy
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(orderLockInterval):
		}
	}
}

// upsertCustomer matches by cédula, merging only non-empty incoming fields
// into an existing row.
func upsertCustomer(ctx context.Context, customers repository.CustomerRepository, incoming *domain.Customer) error {
	existing, err := customers.GetByNationalID(ctx, incoming.NationalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return customers.Create(ctx, incoming)
		}
		return err
	}

	existing.Merge(incoming)
	return customers.Update(ctx, existing)
}

func (s *TransactionService) upsertPayment(ctx context.Context, payments repository.PaymentRepository, incoming *domain.Payment) error {
	if incoming.Status == "" {
		incoming.Status = domain.StatusPending
	}
	if incoming.TransactionDate.IsZero() {
		incoming.TransactionDate = time.Now().UTC()
	}

	existing, err := payments.GetByOrderNumber(ctx, incoming.OrderNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if err := payments.Create(ctx, incoming); err != nil {
				return err
			}
			s.countSaved(incoming)
			return nil
		}
		return err
	}

	if existing.Status == domain.StatusApproved {
		s.countDropped("already_approved")
		return nil
	}

	if incoming.Status != domain.StatusApproved {
		// First non-approved record wins; later pending/rejected
		// notifications for the same order are dropped.
		s.countDropped("duplicate_non_approved")
		return nil
	}

	existing.Status = domain.StatusApproved
	existing.RawResponse = incoming.RawResponse
	existing.Amount = incoming.Amount
	existing.TransactionDate = incoming.TransactionDate
	if incoming.AuthorizationCode != "" {
		existing.AuthorizationCode = incoming.AuthorizationCode
	}
	if incoming.CardBrand != "" {
		existing.CardBrand = incoming.CardBrand
	}
	if incoming.Method != "" {
		existing.Method = incoming.Method
	}

	if err := payments.Update(ctx, existing); err != nil {
		return err
	}
	s.countSaved(existing)
	return nil
}

func (s *TransactionService) countSaved(p *domain.Payment) {
	if s.metrics != nil {
		s.metrics.TransactionsSavedTotal.WithLabelValues(string(p.Status), p.Currency).Inc()
	}
}

func (s *TransactionService) countDropped(reason string) {
	if s.metrics != nil {
		s.metrics.TransactionsDroppedTotal.WithLabelValues(reason).Inc()
	}
}
