package domain

import "strings"

// TransactionStatus is the closed persisted status taxonomy. The gateway
// reports status through several free-text fields with many synonymous
// spellings; NormalizeGatewayStatus folds all of them into these three
// values in one place.
type TransactionStatus string

const (
	StatusPending  TransactionStatus = "pendiente"
	StatusApproved TransactionStatus = "aprobado"
	StatusRejected TransactionStatus = "rechazado"
)

// ParseStatus lowercases and maps an already-normalized status string.
// Unknown input maps to StatusRejected, matching the reconciliation
// precedence where anything unrecognized is treated as a rejection.
func ParseStatus(s string) TransactionStatus {
	switch TransactionStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusApproved:
		return StatusApproved
	case StatusPending:
		return StatusPending
	default:
		return StatusRejected
	}
}

// Gateway status vocabularies. Matched case-insensitively against the
// `status` redirect field.
var (
	gatewayApprovedStatuses = map[string]struct{}{
		"success": {}, "approved": {}, "captured": {}, "completed": {}, "paid": {},
	}
	gatewayPendingStatuses = map[string]struct{}{
		"pending": {}, "review": {},
	}
)

// Description substrings that mark an outcome when the status field is
// absent or unrecognized. Both Spanish and English spellings occur.
var (
	approvedDescMarkers = []string{"aprobad", "approved", "exitos"}
	pendingDescMarkers  = []string{"pendiente", "pending", "revision", "review"}
)

// NormalizeGatewayStatus maps the redirect/callback fields to the closed
// taxonomy with this precedence:
//
//  1. code "1", an approved-like status, or an approved-like description
//     → aprobado
//  2. a pending-like status or description → pendiente
//  3. everything else → rechazado
func NormalizeGatewayStatus(code, status, description string) TransactionStatus {
	st := strings.ToLower(strings.TrimSpace(status))
	desc := strings.ToLower(description)

	if strings.TrimSpace(code) == "1" {
		return StatusApproved
	}
	if _, ok := gatewayApprovedStatuses[st]; ok {
		return StatusApproved
	}
	for _, m := range approvedDescMarkers {
		if strings.Contains(desc, m) {
			return StatusApproved
		}
	}

	if _, ok := gatewayPendingStatuses[st]; ok {
		return StatusPending
	}
	for _, m := range pendingDescMarkers {
		if strings.Contains(desc, m) {
			return StatusPending
		}
	}

	return StatusRejected
}
