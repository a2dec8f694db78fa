package services

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidPayment   = errors.New("invalid payment")
	ErrInvalidInput     = errors.New("invalid input")
	ErrForbidden        = errors.New("forbidden")
	ErrParticipantInUse = errors.New("participant is referenced by payments")
	// ErrStaleResponse is returned by a load that was superseded by a newer
	// one for the same key before it finished
	ErrStaleResponse = errors.New("stale response")
	ErrUpstream      = errors.New("upstream request failed")
)
