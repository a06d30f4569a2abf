package checkout

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Brand detection fallback patterns, applied to the digits typed so far
// when the SDK cannot classify the number itself.
var (
	visaPattern       = regexp.MustCompile(`^4\d{6,}$`)
	mastercardPattern = regexp.MustCompile(`^(5[1-5]\d{4,}|2(2[2-9]\d{3}|2[3-9]\d{4}|[3-6]\d{5}|7[01]\d{4}|720\d{3}))\d*$`)
	amexPattern       = regexp.MustCompile(`^3[47]\d{5,}$`)
)

// DetectBrand classifies a partially-typed card number as visa, mastercard
// or amex, or returns "" while the prefix is still ambiguous.
func DetectBrand(pan string) string {
	raw := strings.Join(strings.Fields(pan), "")
	switch {
	case raw == "":
		return ""
	case visaPattern.MatchString(raw):
		return "visa"
	case mastercardPattern.MatchString(raw):
		return "mastercard"
	case amexPattern.MatchString(raw):
		return "amex"
	default:
		return ""
	}
}

// defaultDebounce coalesces the keystroke burst of typing a card number.
const defaultDebounce = 100 * time.Millisecond

// CardBrandWatcher observes the widget's card-number input and emits
// brand-change events. It replaces interval-based DOM polling with an
// explicit contract: the caller feeds input events (the current field
// value) through a channel; when the widget re-renders its own markup the
// caller rebinds with the new channel, and the watcher guarantees exactly
// one active handler set at a time. The SDK's own card-type query is
// preferred; the local patterns are the fallback.
type CardBrandWatcher struct {
	sdk      SDK
	onBrand  func(brand string)
	debounce time.Duration
	clock    Clock

	mu        sync.Mutex
	cancel    context.CancelFunc
	lastBrand string
}

// NewCardBrandWatcher creates a watcher emitting through onBrand.
func NewCardBrandWatcher(sdk SDK, onBrand func(brand string)) *CardBrandWatcher {
	return &CardBrandWatcher{
		sdk:      sdk,
		onBrand:  onBrand,
		debounce: defaultDebounce,
		clock:    realClock{},
	}
}

// Watch starts consuming input events. A previous binding, if any, is
// detached first, so rebinding after a widget remount never doubles the
// handler set.
func (w *CardBrandWatcher) Watch(ctx context.Context, inputs <-chan string) error {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.mu.Unlock()

	go w.run(watchCtx, inputs)
	return nil
}

// Stop detaches the current binding.
func (w *CardBrandWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
}

func (w *CardBrandWatcher) run(ctx context.Context, inputs <-chan string) {
	var pending string
	var timer <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case value, ok := <-inputs:
			if !ok {
				return
			}
			pending = value
			timer = w.clock.After(w.debounce)

		case <-timer:
			timer = nil
			// A detached binding must never emit.
			if ctx.Err() != nil {
				return
			}
			w.emit(ctx, pending)
		}
	}
}

func (w *CardBrandWatcher) emit(ctx context.Context, value string) {
	brand := ""
	if w.sdk != nil {
		if sdkBrand, err := w.sdk.GetCardType(ctx); err == nil && sdkBrand != "" {
			brand = strings.ToLower(sdkBrand)
		}
	}
	if brand == "" {
		brand = DetectBrand(value)
	}

	w.mu.Lock()
	changed := brand != w.lastBrand
	if changed {
		w.lastBrand = brand
	}
	w.mu.Unlock()

	if changed && w.onBrand != nil {
		w.onBrand(brand)
	}
}
