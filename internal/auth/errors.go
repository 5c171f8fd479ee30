package auth

import "errors"

// Expected failures of the authentication workflows. Handlers map these to
// HTTP responses; anything else is an unexpected server error.
var (
	// ErrNotFoundOrExpired covers both "never issued" and "timed out" for
	// OTP codes and pending registrations. The cache's own expiry removes
	// entries, so the two cases are indistinguishable on purpose.
	ErrNotFoundOrExpired = errors.New("code not found or expired")

	// ErrMismatch means a live code exists but the submitted one is wrong.
	ErrMismatch = errors.New("code mismatch")

	// ErrEmailTaken means a user with this email already exists.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials covers unknown identities and wrong passwords
	// alike; callers must not be able to tell them apart.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned for malformed, forged or expired tokens,
	// federated or local, without distinguishing the cause.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrInactiveAccount means the account exists but has been deactivated.
	ErrInactiveAccount = errors.New("account is deactivated")
)

// ValidationError is a user-correctable input problem with a field-level
// message.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
