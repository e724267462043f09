package domain

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrTemporarilyUnavailable = errors.New("temporarily unavailable")
	ErrRateLimitExceeded      = errors.New("rate limit exceeded")
	ErrIncompleteMatchList    = errors.New("incomplete match list")
	ErrInvalidHandle          = errors.New("invalid handle")
)
