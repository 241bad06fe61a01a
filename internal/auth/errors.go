package auth

import "errors"

var (
	ErrEmailRequired = errors.New("email required")

	// ErrInvalidSignInLink covers unknown, already-used, and expired links.
	// One message for all three so a caller cannot probe which case applies.
	ErrInvalidSignInLink = errors.New("sign-in link is invalid or has expired")

	ErrTooManyRequests = errors.New("too many sign-in requests, try again later")
)
