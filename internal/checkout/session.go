package checkout

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pasarela/internal/domain"
)

// State is the session's position in the checkout flow.
type State int

const (
	StateIdle State = iota
	StateTokenRequested
	StateSdkInitializing
	StateAwaitingPaymentMethod
	StatePaying
	StateAwaitingConfirmation
	StateApproved
	StateRejected
	StateTimedOut
	StateValidationFailed
)

func (s State) String() string {
	switch s {
	case StateTokenRequested:
		return "token_requested"
	case StateSdkInitializing:
		return "sdk_initializing"
	case StateAwaitingPaymentMethod:
		return "awaiting_payment_method"
	case StatePaying:
		return "paying"
	case StateAwaitingConfirmation:
		return "awaiting_confirmation"
	case StateApproved:
		return "approved"
	case StateRejected:
		return "rejected"
	case StateTimedOut:
		return "timed_out"
	case StateValidationFailed:
		return "validation_failed"
	default:
		return "idle"
	}
}

// Clock abstracts time for the watchdog and the minimum-wait smoothing.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Watchdog bounds. The timeout is independent of the SDK promise: it is the
// fallback when the SDK never resolves or rejects.
const (
	DefaultPayTimeout = 90 * time.Second
	MinPayTimeout     = 60 * time.Second
	MaxPayTimeout     = 120 * time.Second
)

// DefaultMinFailureDelay is the minimum elapsed time between the pay click
// and any failure surfaced to the user, so a fast rejection does not flash.
// Success paths skip it; they redirect immediately.
const DefaultMinFailureDelay = 5 * time.Second

// Options configures a checkout session.
type Options struct {
	// BaseURL is the browser-facing origin of our server, used to build
	// the gateway redirect URL.
	BaseURL string
	// ResultPath is the result page path; the result token is appended as
	// a path segment and the raw order number as the fallback query param.
	ResultPath string

	Description string
	Language    string

	// PayTimeout is the watchdog bound, clamped to [MinPayTimeout,
	// MaxPayTimeout]. Zero means DefaultPayTimeout.
	PayTimeout time.Duration
	// MinFailureDelay overrides DefaultMinFailureDelay when positive.
	MinFailureDelay time.Duration

	// Clock is replaced in tests; nil means the real clock.
	Clock Clock
}

// PayRequest is one payment attempt.
type PayRequest struct {
	NationalID string
	Amount     decimal.Decimal
	Currency   string
	Billing    BillingFields
}

// Outcome is the terminal result of a payment attempt. For ClassNavigating
// the attempt is not terminal: the browser is following the gateway
// redirect and the backend reconciles.
type Outcome struct {
	Class       Class
	State       State
	OrderNumber string
	// RedirectURL carries the result-page URL on approval/navigation.
	RedirectURL string
	// Message is a generic, user-facing status line. Technical detail is
	// logged, never surfaced here.
	Message string
}

// Session owns one checkout attempt lifecycle on one page. It replaces the
// previous process-wide singleton SDK handle: initialization and busy state
// are scoped to the session instance.
type Session struct {
	sdk     SDK
	backend Backend
	opts    Options
	clock   Clock

	newOrderNumber func() string

	mu          sync.Mutex
	state       State
	initialized bool
	busy        bool
}

// NewSession creates a session over the given SDK and backend.
func NewSession(sdk SDK, backend Backend, opts Options) *Session {
	if opts.PayTimeout == 0 {
		opts.PayTimeout = DefaultPayTimeout
	}
	if opts.PayTimeout < MinPayTimeout {
		opts.PayTimeout = MinPayTimeout
	}
	if opts.PayTimeout > MaxPayTimeout {
		opts.PayTimeout = MaxPayTimeout
	}
	if opts.MinFailureDelay <= 0 {
		opts.MinFailureDelay = DefaultMinFailureDelay
	}
	if opts.ResultPath == "" {
		opts.ResultPath = "/pagos/resultado"
	}
	clock := opts.Clock
	if clock == nil {
		clock = realClock{}
	}

	return &Session{
		sdk:     sdk,
		backend: backend,
		opts:    opts,
		clock:   clock,
		newOrderNumber: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")
		},
		state: StateIdle,
	}
}

// State returns the session's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Reset returns the session to Idle. It backs the failure modal's OK action.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
}

type payAttempt struct {
	result *PaymentResult
	err    error
}

// Pay runs one full checkout attempt. Only one attempt may be in flight per
// session: a concurrent call returns ErrPaymentInProgress without touching
// the SDK. Abort/terminal sentinel errors are returned alongside an Outcome
// carrying the user-facing message.
func (s *Session) Pay(ctx context.Context, req PayRequest) (*Outcome, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, ErrPaymentInProgress
	}
	s.busy = true
	s.state = StateTokenRequested
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	start := s.clock.Now()

	token, err := s.backend.SDKToken(ctx)
	if err != nil || token == "" {
		if err != nil {
			log.Printf("checkout: sdk token fetch failed: %v", err)
		}
		s.setState(StateIdle)
		return &Outcome{
			Class:   ClassUnknown,
			State:   StateIdle,
			Message: "No se obtuvo token del servidor.",
		}, ErrNoSDKToken
	}

	// One fresh order number per attempt.
	orderNumber := s.newOrderNumber()

	s.setState(StateSdkInitializing)

	prepared, err := s.backend.PrepareOrder(ctx, PrepareOrderRequest{
		OrderNumber: orderNumber,
		NationalID:  req.NationalID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		FirstName:   req.Billing.FirstName,
		LastName:    req.Billing.LastName,
		Email:       req.Billing.Email,
		Country:     req.Billing.Country,
	})
	if err != nil {
		log.Printf("checkout: prepare order failed: %v", err)
		s.setState(StateIdle)
		return &Outcome{
			Class:       ClassUnknown,
			State:       StateIdle,
			OrderNumber: orderNumber,
			Message:     "No se pudo preparar la orden.",
		}, err
	}

	// The redirect URL carries the opaque result token plus the raw order
	// number as the documented fallback for an expired token.
	redirectURL := s.opts.BaseURL + s.opts.ResultPath + "/" + prepared.Token + "?order=" + orderNumber

	cfg := InitConfig{
		Token:       token,
		OrderNumber: orderNumber,
		Amount:      domain.WireAmount(req.Amount),
		Currency:    req.Currency,
		Description: s.opts.Description,
		Language:    s.opts.Language,
		Capture:     "1",
		RedirectURL: redirectURL,
		Billing:     req.Billing,
		HashVersion: "V2",
	}

	if err := s.initOnce(ctx, cfg); err != nil {
		log.Printf("checkout: sdk init failed: %v", err)
		return s.failure(ctx, start, ClassRejected, orderNumber, "No se pudo inicializar el pago."), nil
	}

	s.setState(StateAwaitingPaymentMethod)

	methods, err := s.sdk.GetMethods(ctx)
	if err != nil {
		log.Printf("checkout: get methods failed: %v", err)
		return s.failure(ctx, start, ClassRejected, orderNumber, "No se pudieron consultar los métodos de pago."), nil
	}
	if selectCardMethod(methods) == nil {
		// Currency/method compatibility must be established before any
		// charge is attempted.
		s.setState(StateIdle)
		return &Outcome{
			Class:       ClassUnknown,
			State:       StateIdle,
			OrderNumber: orderNumber,
			Message:     "No hay método de tarjeta disponible para esta moneda.",
		}, ErrNoCardMethod
	}

	s.setState(StatePaying)

	payCtx, cancelPay := context.WithCancel(ctx)
	defer cancelPay()

	attemptCh := make(chan payAttempt, 1)
	go func() {
		result, err := s.sdk.StartPayment(payCtx)
		attemptCh <- payAttempt{result: result, err: err}
	}()

	var attempt payAttempt
	timedOut := false
	select {
	case attempt = <-attemptCh:
	case <-s.clock.After(s.opts.PayTimeout):
		timedOut = true
		cancelPay()
	case <-ctx.Done():
		s.setState(StateIdle)
		return nil, ctx.Err()
	}

	s.setState(StateAwaitingConfirmation)

	if timedOut {
		return s.failure(ctx, start, ClassTimedOut, orderNumber, "El banco no respondió a tiempo."), nil
	}
	if attempt.err != nil {
		log.Printf("checkout: start payment failed: %v", attempt.err)
		return s.failure(ctx, start, ClassRejected, orderNumber, "El pago fue rechazado."), nil
	}

	switch class := Classify(attempt.result, true, ""); class {
	case ClassNavigating:
		// Browser is following the gateway redirect; suppress the local
		// callback and let the backend reconcile.
		return &Outcome{
			Class:       ClassNavigating,
			State:       StateAwaitingConfirmation,
			OrderNumber: orderNumber,
			RedirectURL: redirectURL,
		}, nil

	case ClassApproved:
		s.setState(StateApproved)
		s.cancelOverlay(ctx)
		return &Outcome{
			Class:       ClassApproved,
			State:       StateApproved,
			OrderNumber: orderNumber,
			RedirectURL: redirectURL,
			Message:     "Pago aprobado",
		}, nil

	case ClassValidationFailed:
		return s.failure(ctx, start, ClassValidationFailed, orderNumber, "Revise los datos de la tarjeta."), nil

	case ClassTimedOut:
		return s.failure(ctx, start, ClassTimedOut, orderNumber, "El banco no respondió a tiempo."), nil

	case ClassRejected:
		return s.failure(ctx, start, ClassRejected, orderNumber, "El pago fue rechazado."), nil

	default:
		// Unknown: the post-redirect reconciliation endpoint decides.
		return s.failure(ctx, start, ClassUnknown, orderNumber, "Resultado pendiente de confirmación."), nil
	}
}

// initOnce initializes the SDK exactly once per session lifetime; later
// attempts only update its options.
func (s *Session) initOnce(ctx context.Context, cfg InitConfig) error {
	s.mu.Lock()
	initialized := s.initialized
	s.mu.Unlock()

	if initialized {
		return s.sdk.UpdateOptions(ctx, cfg)
	}

	if err := s.sdk.Init(ctx, cfg); err != nil {
		return err
	}

	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()
	return nil
}

// failure applies the minimum-wait smoothing, dismisses any SDK overlay and
// produces the terminal failure outcome.
func (s *Session) failure(ctx context.Context, start time.Time, class Class, orderNumber, message string) *Outcome {
	if remaining := s.opts.MinFailureDelay - s.clock.Now().Sub(start); remaining > 0 {
		select {
		case <-s.clock.After(remaining):
		case <-ctx.Done():
		}
	}

	s.cancelOverlay(ctx)

	state := StateRejected
	switch class {
	case ClassTimedOut:
		state = StateTimedOut
	case ClassValidationFailed:
		state = StateValidationFailed
	case ClassUnknown:
		// Not locally terminal; the backend decides after the redirect.
		state = StateAwaitingConfirmation
	}
	s.setState(state)

	return &Outcome{
		Class:       class,
		State:       state,
		OrderNumber: orderNumber,
		Message:     message,
	}
}

// cancelOverlay asks the SDK to dismiss in-flight overlays. Best-effort;
// failures are swallowed.
func (s *Session) cancelOverlay(ctx context.Context) {
	if err := s.sdk.Cancel(ctx); err != nil {
		log.Printf("checkout: sdk cancel: %v", err)
	}
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// selectCardMethod picks the card-capable ("payfac") method, or nil.
func selectCardMethod(methods []PaymentMethod) *PaymentMethod {
	for i := range methods {
		m := &methods[i]
		if strings.EqualFold(m.Type, "card") || strings.Contains(strings.ToLower(m.ID), "payfac") {
			return m
		}
	}
	return nil
}
