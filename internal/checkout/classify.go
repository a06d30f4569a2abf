package checkout

import "strings"

// Class is the local classification of an SDK payment result. The backend
// reconciliation endpoint remains the final source of truth; Unknown means
// the session defers to it.
type Class int

const (
	ClassUnknown Class = iota
	ClassApproved
	ClassRejected
	ClassTimedOut
	ClassValidationFailed
	// ClassNavigating means a redirect is configured and the SDK resolved
	// with an empty object: the browser is leaving the page and the local
	// callback must be suppressed, not treated as a terminal outcome.
	ClassNavigating
)

func (c Class) String() string {
	switch c {
	case ClassApproved:
		return "approved"
	case ClassRejected:
		return "rejected"
	case ClassTimedOut:
		return "timed_out"
	case ClassValidationFailed:
		return "validation_failed"
	case ClassNavigating:
		return "navigating"
	default:
		return "unknown"
	}
}

// Synonym tables for the SDK's free-form status field, matched
// case-insensitively. This is the single place the vocabulary lives.
var (
	approvedResultStatuses = map[string]struct{}{
		"approved": {}, "success": {}, "ok": {}, "completed": {},
		"paid": {}, "captured": {}, "authorized": {},
	}
	rejectedResultStatuses = map[string]struct{}{
		"denied": {}, "declined": {}, "rejected": {}, "failed": {},
		"error": {}, "cancelled": {}, "canceled": {}, "void": {}, "refused": {},
	}
)

// Markers of inline field validation shown by the widget when the form
// itself is invalid (wrong CVV, expiry, card number). Spanish and English.
var validationMarkers = []string{
	"cvv", "cvc", "expir", "vencimiento", "card number",
	"numero de tarjeta", "número de tarjeta", "invalid", "inválido", "invalido",
}

// Classify applies the total status mapping to an SDK result.
// hasRedirect tells whether a redirect URL was configured for this attempt;
// pageText is whatever visible response/DOM text is available for the
// inline-validation heuristic applied to otherwise-unknown results.
func Classify(r *PaymentResult, hasRedirect bool, pageText string) Class {
	if hasRedirect && r.IsEmpty() {
		return ClassNavigating
	}
	if r == nil {
		return ClassUnknown
	}

	status := strings.ToLower(strings.TrimSpace(r.Status))
	if status == "" {
		status = strings.ToLower(strings.TrimSpace(r.Result))
	}

	if r.Approved != nil && *r.Approved {
		return ClassApproved
	}
	if r.RedirectURL != "" {
		return ClassApproved
	}
	if _, ok := approvedResultStatuses[status]; ok {
		return ClassApproved
	}
	if _, ok := rejectedResultStatuses[status]; ok {
		return ClassRejected
	}
	if status == "timeout" {
		return ClassTimedOut
	}

	if hasValidationMarker(pageText) || hasValidationMarker(r.Message) ||
		hasValidationMarker(string(r.Payload)) {
		return ClassValidationFailed
	}

	return ClassUnknown
}

func hasValidationMarker(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, m := range validationMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
