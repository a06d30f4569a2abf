package service

import "errors"

var (
	// ErrMissingOrderNumber is returned when the order number is blank.
	ErrMissingOrderNumber = errors.New("numero de orden is required")

	// ErrMissingNationalID is returned when the cédula is blank.
	ErrMissingNationalID = errors.New("cedula is required")

	// ErrInvalidAmount is returned when the amount is not strictly positive.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrOrderBusy is returned when the per-order lock cannot be acquired
	// within the wait window.
	ErrOrderBusy = errors.New("order is being processed")

	// ErrUpstreamGateway is returned when the payment gateway call failed
	// or returned a non-success status.
	ErrUpstreamGateway = errors.New("upstream gateway error")
)
