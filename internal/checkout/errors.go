package checkout

import "errors"

var (
	// ErrPaymentInProgress is returned when Pay is called while another
	// payment is already in flight on the same session.
	ErrPaymentInProgress = errors.New("payment already in progress")

	// ErrNoSDKToken is returned when the backend yields no SDK access token.
	ErrNoSDKToken = errors.New("no sdk token obtained from server")

	// ErrNoCardMethod is returned when the SDK offers no card-capable
	// payment method for the configured currency.
	ErrNoCardMethod = errors.New("no card method available for this currency")
)
