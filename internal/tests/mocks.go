package tests

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"pasarela/internal/domain"
	"pasarela/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK CUSTOMER REPOSITORY
// ──────────────────────────────────────────────

// MockCustomerRepository is a mock implementation of CustomerRepository.
type MockCustomerRepository struct {
	mu        sync.RWMutex
	customers map[string]*domain.Customer

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	GetError    error
	CreateError error
	UpdateError error
}

// NewMockCustomerRepository creates a new mock customer repository.
func NewMockCustomerRepository() *MockCustomerRepository {
	return &MockCustomerRepository{
		customers: make(map[string]*domain.Customer),
	}
}

// AddCustomer adds a customer to the mock repository.
func (m *MockCustomerRepository) AddCustomer(c *domain.Customer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers[c.NationalID] = c
}

func (m *MockCustomerRepository) GetByNationalID(ctx context.Context, nationalID string) (*domain.Customer, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.customers[nationalID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *c
	return &copy, nil
}

func (m *MockCustomerRepository) Create(ctx context.Context, c *domain.Customer) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.customers[c.NationalID]; exists {
		return ErrMockDBConstraint
	}
	cp := *c
	m.customers[c.NationalID] = &cp
	return nil
}

func (m *MockCustomerRepository) Update(ctx context.Context, c *domain.Customer) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.customers[c.NationalID]; !ok {
		return repository.ErrNotFound
	}
	cp := *c
	m.customers[c.NationalID] = &cp
	return nil
}

// GetCustomer returns a customer for test assertions.
func (m *MockCustomerRepository) GetCustomer(nationalID string) *domain.Customer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.customers[nationalID]
}

// CountCustomers returns the number of customers.
func (m *MockCustomerRepository) CountCustomers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.customers)
}

// ──────────────────────────────────────────────
// MOCK PAYMENT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentRepository is a mock implementation of PaymentRepository,
// keyed by order number like the real table's unique constraint.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment
	nextID   int64

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	GetError    error
	CreateError error
	UpdateError error
}

// NewMockPaymentRepository creates a new mock payment repository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[string]*domain.Payment),
	}
}

// AddPayment adds a payment to the mock repository.
func (m *MockPaymentRepository) AddPayment(p *domain.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.OrderNumber] = p
}

func (m *MockPaymentRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Payment, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.payments[orderNumber]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *p
	return &copy, nil
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.payments[p.OrderNumber]; exists {
		return ErrMockDBConstraint
	}
	m.nextID++
	p.ID = m.nextID
	cp := *p
	m.payments[p.OrderNumber] = &cp
	return nil
}

func (m *MockPaymentRepository) Update(ctx context.Context, p *domain.Payment) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.payments[p.OrderNumber]
	if !ok {
		return repository.ErrNotFound
	}
	cp := *p
	// Mirrors the SQL: an empty incoming nonce keeps the stored one.
	if cp.Nonce == "" {
		cp.Nonce = stored.Nonce
	}
	cp.ID = stored.ID
	m.payments[p.OrderNumber] = &cp
	return nil
}

func (m *MockPaymentRepository) ListDashboard(ctx context.Context, f repository.DashboardFilter) ([]repository.DashboardRow, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var rows []repository.DashboardRow
	for _, p := range m.payments {
		if f.Status != "" && string(p.Status) != f.Status {
			continue
		}
		t := p.TransactionDate
		rows = append(rows, repository.DashboardRow{
			NationalID:      p.NationalID,
			Amount:          p.Amount,
			Currency:        p.Currency,
			OrderNumber:     p.OrderNumber,
			Status:          p.Status,
			TransactionDate: &t,
		})
	}
	return rows, len(rows), nil
}

// GetPayment returns a payment for test assertions.
func (m *MockPaymentRepository) GetPayment(orderNumber string) *domain.Payment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.payments[orderNumber]
}

// CountPayments returns the number of payments.
func (m *MockPaymentRepository) CountPayments() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.payments)
}

// ──────────────────────────────────────────────
// MOCK STORE (UNIT OF WORK)
// ──────────────────────────────────────────────

// MockStore runs the transactional callback against the shared mock
// repositories. There is no rollback: a callback error simply propagates,
// so assertions about partial writes are possible where the real store
// would discard them.
type MockStore struct {
	Customers *MockCustomerRepository
	Payments  *MockPaymentRepository

	// Counters
	InTransactionCallCount int32

	// Error injection: returned before the callback runs.
	BeginError error
}

// NewMockStore creates a mock store around fresh mock repositories.
func NewMockStore() *MockStore {
	return &MockStore{
		Customers: NewMockCustomerRepository(),
		Payments:  NewMockPaymentRepository(),
	}
}

func (m *MockStore) InTransaction(ctx context.Context, fn func(customers repository.CustomerRepository, payments repository.PaymentRepository) error) error {
	atomic.AddInt32(&m.InTransactionCallCount, 1)
	if m.BeginError != nil {
		return m.BeginError
	}
	return fn(m.Customers, m.Payments)
}

// ──────────────────────────────────────────────
// MOCK TOKEN STORE
// ──────────────────────────────────────────────

// MockTokenStore is a mock implementation of the result-token store.
type MockTokenStore struct {
	mu     sync.Mutex
	tokens map[string]string
	nextID int

	// Counters
	SaveCallCount   int32
	TryGetCallCount int32

	// Error injection
	SaveError   error
	TryGetError error
}

// NewMockTokenStore creates a new mock token store.
func NewMockTokenStore() *MockTokenStore {
	return &MockTokenStore{
		tokens: make(map[string]string),
	}
}

// AddToken seeds a token mapping for test setup.
func (m *MockTokenStore) AddToken(token, orderNumber string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = orderNumber
}

// ExpireToken removes a token, simulating TTL expiry.
func (m *MockTokenStore) ExpireToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, token)
}

func (m *MockTokenStore) Save(ctx context.Context, orderNumber string) (string, error) {
	atomic.AddInt32(&m.SaveCallCount, 1)
	if m.SaveError != nil {
		return "", m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	token := fmt.Sprintf("token-%d", m.nextID)
	m.tokens[token] = orderNumber
	return token, nil
}

func (m *MockTokenStore) TryGet(ctx context.Context, token string) (string, bool, error) {
	atomic.AddInt32(&m.TryGetCallCount, 1)
	if m.TryGetError != nil {
		return "", false, m.TryGetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	orderNumber, ok := m.tokens[token]
	return orderNumber, ok, nil
}

func (m *MockTokenStore) Invalidate(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, token)
	return nil
}

// CountTokens returns the number of live tokens.
func (m *MockTokenStore) CountTokens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

// ──────────────────────────────────────────────
// MOCK ORDER LOCK STORE
// ──────────────────────────────────────────────

// MockOrderLockStore is a mock implementation of the per-order lock.
type MockOrderLockStore struct {
	mu    sync.Mutex
	locks map[string]time.Time

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error

	// Force lock failure
	ForceAcquireFailure bool
}

// NewMockOrderLockStore creates a new mock order lock store.
func NewMockOrderLockStore() *MockOrderLockStore {
	return &MockOrderLockStore{
		locks: make(map[string]time.Time),
	}
}

func (m *MockOrderLockStore) AcquireOrderLock(ctx context.Context, orderNumber string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	if m.ForceAcquireFailure {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if expiry, exists := m.locks[orderNumber]; exists {
		if time.Now().Before(expiry) {
			return false, nil // Lock still held.
		}
	}

	m.locks[orderNumber] = time.Now().Add(ttl)
	return true, nil
}

func (m *MockOrderLockStore) ReleaseOrderLock(ctx context.Context, orderNumber string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, orderNumber)
	return nil
}

// IsLocked checks whether an order is locked (for test assertions).
func (m *MockOrderLockStore) IsLocked(orderNumber string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, exists := m.locks[orderNumber]
	return exists && time.Now().Before(expiry)
}

// ──────────────────────────────────────────────
// HELPER ERRORS
// ──────────────────────────────────────────────

var (
	ErrMockDBConstraint = errors.New("mock: unique constraint violation")
	ErrMockRedisDown    = errors.New("mock: redis unavailable")
)
