package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/litverse/server/internal/cache"
)

// OTPTTL bounds the life of a code and of a pending registration.
const OTPTTL = 10 * time.Minute

const otpKeyPrefix = "otp:"

// OTPEngine issues and verifies single-use numeric codes bound to a
// destination (email address or phone number).
type OTPEngine struct {
	store cache.Store
}

// NewOTPEngine creates an OTP engine on top of the given cache.
func NewOTPEngine(store cache.Store) *OTPEngine {
	return &OTPEngine{store: store}
}

// Issue generates a uniformly random 6-digit code (000000-999999) and caches
// it under the destination with a 10-minute TTL. Any previously issued code
// for the destination is overwritten and thereby invalidated.
func (e *OTPEngine) Issue(ctx context.Context, destination string) (string, error) {
	code, err := GenerateCode()
	if err != nil {
		return "", err
	}
	if err := e.store.Set(ctx, otpKeyPrefix+destination, code, OTPTTL); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	return code, nil
}

// Verify checks the submitted code against the live one for the destination.
// Absent entries (never issued, expired, or replaced) return
// ErrNotFoundOrExpired; a wrong code returns ErrMismatch. A successful
// verification deletes the entry, so each code works at most once.
func (e *OTPEngine) Verify(ctx context.Context, destination, submitted string) error {
	key := otpKeyPrefix + destination
	stored, ok, err := e.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("lookup otp: %w", err)
	}
	if !ok {
		return ErrNotFoundOrExpired
	}
	// Plain equality: a 6-digit code living 10 minutes is not a viable
	// timing-attack target.
	if stored != submitted {
		return ErrMismatch
	}
	if err := e.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}
	return nil
}

// GenerateCode returns a uniformly random zero-padded 6-digit code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
