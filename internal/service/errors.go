package service

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid lease status transition")
	ErrInvalidPayment    = errors.New("invalid payment")
	ErrRentCancelled     = errors.New("rent is cancelled")
	ErrLeaseNotActive    = errors.New("lease is not active")
	ErrHasActiveLeases   = errors.New("record has active leases")
	ErrEmailTaken        = errors.New("email already used by another tenant")
)
