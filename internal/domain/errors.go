package domain

import "errors"

// Failures surfaced by the state machine, account actions and the notifier.
var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidAmount        = errors.New("amount must be greater than zero")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrAlreadyResolved      = errors.New("transaction already resolved")
	ErrSelfActionForbidden  = errors.New("cannot suspend your own account")
	ErrUnknownTemplate      = errors.New("unknown email template")
	ErrNoAdminsConfigured   = errors.New("no admin emails found")
	ErrTransportUnavailable = errors.New("mail transport unavailable")
	ErrDeliveryFailed       = errors.New("email delivery failed")
	ErrInvalidKind          = errors.New("invalid transaction kind")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAccountSuspended     = errors.New("account suspended")
	ErrEmailTaken           = errors.New("email already registered")
)
