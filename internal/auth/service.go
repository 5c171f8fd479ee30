package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/litverse/server/internal/cache"
	"github.com/litverse/server/internal/model"
	"github.com/litverse/server/internal/notify"
	"github.com/litverse/server/internal/repo"
)

const (
	pendingKeyPrefix = "pendreg:"
	resetTokenTTL    = 1 * time.Hour

	// phoneEmailDomain synthesizes an email for phone-only signups so the
	// unique-email invariant holds for every record.
	phoneEmailDomain = "phone.litverse.local"
)

// Federated providers and OTP channels.
const (
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"

	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// OTPIssued reports an issued code and whether its dispatch to the
// destination succeeded. Handlers decide disclosure; the code never leaves
// the server unless the insecure-disclosure flag is set.
type OTPIssued struct {
	Code       string
	Dispatched bool
}

// Service is the identity unification layer: every authentication path
// (password, federated, email OTP, mobile OTP) resolves to exactly one
// canonical user record and one signed session token.
type Service struct {
	users      repo.UserRepo
	admins     repo.AdminRepo
	store      cache.Store
	otp        *OTPEngine
	jwt        *JWTService
	dispatcher notify.Dispatcher
	verifiers  map[string]FederatedVerifier

	// linkFederatedID attaches a newly seen provider id to a user record
	// resolved by email during federated sign-in.
	linkFederatedID bool
	resetBaseURL    string
	now             func() time.Time
}

// NewService creates the authentication service.
func NewService(
	users repo.UserRepo,
	admins repo.AdminRepo,
	store cache.Store,
	otp *OTPEngine,
	jwt *JWTService,
	dispatcher notify.Dispatcher,
	verifiers map[string]FederatedVerifier,
	linkFederatedID bool,
	resetBaseURL string,
) *Service {
	return &Service{
		users:           users,
		admins:          admins,
		store:           store,
		otp:             otp,
		jwt:             jwt,
		dispatcher:      dispatcher,
		verifiers:       verifiers,
		linkFederatedID: linkFederatedID,
		resetBaseURL:    resetBaseURL,
		now:             time.Now,
	}
}

// StartRegistration validates the candidate signup, hashes the password, and
// parks everything as a PendingRegistration in the cache; no user record is
// written yet. The issued code is dispatched to the email; a re-send
// overwrites any earlier pending entry for the same address.
func (s *Service) StartRegistration(ctx context.Context, firstName, lastName, email, password string) (OTPIssued, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	email = normalizeEmail(email)

	if firstName == "" {
		return OTPIssued{}, &ValidationError{Field: "first_name", Message: "is required"}
	}
	if err := validateEmail(email); err != nil {
		return OTPIssued{}, err
	}
	if err := ValidatePassword(password); err != nil {
		return OTPIssued{}, err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return OTPIssued{}, ErrEmailTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return OTPIssued{}, fmt.Errorf("lookup user: %w", err)
	}

	// Hash immediately so the plaintext never outlives this call.
	hash, err := HashPassword(password)
	if err != nil {
		return OTPIssued{}, err
	}

	code, err := GenerateCode()
	if err != nil {
		return OTPIssued{}, err
	}

	pending := model.PendingRegistration{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: hash,
		Code:         code,
		CreatedAt:    s.now(),
	}
	payload, err := json.Marshal(pending)
	if err != nil {
		return OTPIssued{}, fmt.Errorf("encode pending registration: %w", err)
	}
	if err := s.store.Set(ctx, pendingKeyPrefix+email, string(payload), OTPTTL); err != nil {
		return OTPIssued{}, fmt.Errorf("store pending registration: %w", err)
	}

	body := fmt.Sprintf("Your LitVerse verification code is %s. It expires in 10 minutes.", code)
	dispatched := true
	if err := s.dispatcher.SendEmail(ctx, email, "Verify your LitVerse account", body); err != nil {
		// Dispatch failure is not fatal to the flow.
		log.Printf("OTP mail dispatch to %s failed: %v", notify.MaskDestination(email), err)
		dispatched = false
	}

	return OTPIssued{Code: code, Dispatched: dispatched}, nil
}

// CompleteRegistration promotes a pending registration into a verified user
// and signs the caller in, atomically from the caller's perspective. Absent
// or timed-out pending entries fail with ErrNotFoundOrExpired, a wrong code
// with ErrMismatch.
func (s *Service) CompleteRegistration(ctx context.Context, email, code string) (model.User, string, error) {
	email = normalizeEmail(email)
	key := pendingKeyPrefix + email

	payload, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return model.User{}, "", fmt.Errorf("lookup pending registration: %w", err)
	}
	if !ok {
		return model.User{}, "", ErrNotFoundOrExpired
	}

	var pending model.PendingRegistration
	if err := json.Unmarshal([]byte(payload), &pending); err != nil {
		return model.User{}, "", fmt.Errorf("decode pending registration: %w", err)
	}

	if pending.Code != code {
		return model.User{}, "", ErrMismatch
	}
	// Wall-clock double check in case the cache has not evicted the entry.
	if s.now().Sub(pending.CreatedAt) > OTPTTL {
		_ = s.store.Delete(ctx, key)
		return model.User{}, "", ErrNotFoundOrExpired
	}

	verifiedAt := s.now()
	user, err := s.users.Create(ctx, model.User{
		FirstName:       pending.FirstName,
		LastName:        pending.LastName,
		Email:           pending.Email,
		PasswordHash:    pending.PasswordHash,
		IsActive:        true,
		EmailVerified:   true,
		EmailVerifiedAt: &verifiedAt,
	})
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			// A racing registration won; the unique index is the arbiter.
			_ = s.store.Delete(ctx, key)
			return model.User{}, "", ErrEmailTaken
		}
		return model.User{}, "", fmt.Errorf("create user: %w", err)
	}

	if err := s.store.Delete(ctx, key); err != nil {
		log.Printf("delete pending registration for %s: %v", notify.MaskDestination(email), err)
	}

	token, err := s.signUserToken(user)
	if err != nil {
		return model.User{}, "", err
	}
	return user, token, nil
}

// Login authenticates with email and password. Unknown emails, wrong
// passwords and deactivated accounts are not distinguishable beyond
// ErrInactiveAccount.
func (s *Service) Login(ctx context.Context, email, password string) (model.User, string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return model.User{}, "", &ValidationError{Field: "email", Message: "email and password are required"}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.User{}, "", ErrInvalidCredentials
		}
		return model.User{}, "", fmt.Errorf("lookup user: %w", err)
	}
	if !CheckPassword(user.PasswordHash, password) {
		return model.User{}, "", ErrInvalidCredentials
	}
	if !user.IsActive {
		return model.User{}, "", ErrInactiveAccount
	}

	token, err := s.signUserToken(user)
	if err != nil {
		return model.User{}, "", err
	}
	return user, token, nil
}

// FederatedLogin verifies a provider token and resolves it to the canonical
// record: found by email means login, not found means immediate creation
// with a random unusable password and the provider id attached.
func (s *Service) FederatedLogin(ctx context.Context, provider, token string) (model.User, string, error) {
	verifier, ok := s.verifiers[provider]
	if !ok {
		return model.User{}, "", &ValidationError{Field: "provider", Message: "unsupported provider"}
	}

	identity, err := verifier.VerifyIDToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return model.User{}, "", ErrInvalidToken
		}
		return model.User{}, "", fmt.Errorf("verify %s token: %w", provider, err)
	}

	email := normalizeEmail(identity.Email)
	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if !user.IsActive {
			return model.User{}, "", ErrInactiveAccount
		}
		if s.linkFederatedID && s.setProviderID(&user, provider, identity.ProviderID) {
			if user, err = s.users.Update(ctx, user); err != nil {
				return model.User{}, "", fmt.Errorf("link %s id: %w", provider, err)
			}
		}
	case errors.Is(err, repo.ErrNotFound):
		user, err = s.createFederatedUser(ctx, provider, identity)
		if err != nil {
			return model.User{}, "", err
		}
	default:
		return model.User{}, "", fmt.Errorf("lookup user: %w", err)
	}

	sessionToken, err := s.signUserToken(user)
	if err != nil {
		return model.User{}, "", err
	}
	return user, sessionToken, nil
}

func (s *Service) createFederatedUser(ctx context.Context, provider string, identity *Identity) (model.User, error) {
	hash, err := RandomPasswordHash()
	if err != nil {
		return model.User{}, err
	}

	verifiedAt := s.now()
	candidate := model.User{
		FirstName:       identity.GivenName,
		LastName:        identity.FamilyName,
		Email:           normalizeEmail(identity.Email),
		PasswordHash:    hash,
		IsActive:        true,
		EmailVerified:   true,
		EmailVerifiedAt: &verifiedAt,
	}
	s.setProviderID(&candidate, provider, identity.ProviderID)

	user, err := s.users.Create(ctx, candidate)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			// Lost a race against another first contact; the existing
			// record is canonical.
			return s.users.GetByEmail(ctx, candidate.Email)
		}
		return model.User{}, fmt.Errorf("create federated user: %w", err)
	}
	return user, nil
}

// setProviderID stores the provider identifier on the record and reports
// whether anything changed.
func (s *Service) setProviderID(user *model.User, provider, providerID string) bool {
	switch provider {
	case ProviderGoogle:
		if user.GoogleID == providerID {
			return false
		}
		user.GoogleID = providerID
	case ProviderFacebook:
		if user.FacebookID == providerID {
			return false
		}
		user.FacebookID = providerID
	default:
		return false
	}
	return true
}

// RequestLoginOTP issues a code for an email or phone destination and
// dispatches it over the matching channel. A new request replaces any live
// code for the destination.
func (s *Service) RequestLoginOTP(ctx context.Context, destination, channel string) (OTPIssued, error) {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return OTPIssued{}, &ValidationError{Field: "destination", Message: "is required"}
	}
	switch channel {
	case ChannelEmail:
		destination = normalizeEmail(destination)
		if err := validateEmail(destination); err != nil {
			return OTPIssued{}, err
		}
	case ChannelSMS:
		if err := validatePhone(destination); err != nil {
			return OTPIssued{}, err
		}
	default:
		return OTPIssued{}, &ValidationError{Field: "channel", Message: "must be email or sms"}
	}

	code, err := s.otp.Issue(ctx, destination)
	if err != nil {
		return OTPIssued{}, err
	}

	body := fmt.Sprintf("Your LitVerse sign-in code is %s. It expires in 10 minutes.", code)
	dispatched := true
	var dispatchErr error
	if channel == ChannelEmail {
		dispatchErr = s.dispatcher.SendEmail(ctx, destination, "Your LitVerse sign-in code", body)
	} else {
		dispatchErr = s.dispatcher.SendSMS(ctx, destination, body)
	}
	if dispatchErr != nil {
		log.Printf("OTP dispatch to %s failed: %v", notify.MaskDestination(destination), dispatchErr)
		dispatched = false
	}

	return OTPIssued{Code: code, Dispatched: dispatched}, nil
}

// OTPLogin verifies a code as the sole credential and resolves the
// destination to the canonical record, creating one on first contact.
// Phone-only signups get a synthesized placeholder email.
func (s *Service) OTPLogin(ctx context.Context, destination, channel, code string) (model.User, string, error) {
	destination = strings.TrimSpace(destination)
	if channel == ChannelEmail {
		destination = normalizeEmail(destination)
	}

	if err := s.otp.Verify(ctx, destination, code); err != nil {
		return model.User{}, "", err
	}

	var user model.User
	var err error
	if channel == ChannelSMS {
		user, err = s.users.GetByPhone(ctx, destination)
	} else {
		user, err = s.users.GetByEmail(ctx, destination)
	}

	switch {
	case err == nil:
		if !user.IsActive {
			return model.User{}, "", ErrInactiveAccount
		}
	case errors.Is(err, repo.ErrNotFound):
		user, err = s.createOTPUser(ctx, destination, channel)
		if err != nil {
			return model.User{}, "", err
		}
	default:
		return model.User{}, "", fmt.Errorf("lookup user: %w", err)
	}

	token, err := s.signUserToken(user)
	if err != nil {
		return model.User{}, "", err
	}
	return user, token, nil
}

func (s *Service) createOTPUser(ctx context.Context, destination, channel string) (model.User, error) {
	hash, err := RandomPasswordHash()
	if err != nil {
		return model.User{}, err
	}

	candidate := model.User{
		PasswordHash: hash,
		IsActive:     true,
	}
	verifiedAt := s.now()
	if channel == ChannelSMS {
		candidate.Phone = destination
		candidate.Email = synthesizeEmail(destination)
	} else {
		candidate.Email = destination
		candidate.EmailVerified = true
		candidate.EmailVerifiedAt = &verifiedAt
	}

	user, err := s.users.Create(ctx, candidate)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			if channel == ChannelSMS {
				return s.users.GetByPhone(ctx, destination)
			}
			return s.users.GetByEmail(ctx, destination)
		}
		return model.User{}, fmt.Errorf("create otp user: %w", err)
	}
	return user, nil
}

// ForgotPassword stores a one-hour reset token on the record and mails a
// reset link. Mail failure is downgraded, not surfaced.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return repo.ErrNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	token, err := RandomToken()
	if err != nil {
		return err
	}
	expiry := s.now().Add(resetTokenTTL)
	user.ResetToken = token
	user.ResetTokenExpiry = &expiry
	if _, err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	link := s.resetBaseURL + "/" + token
	body := fmt.Sprintf("Hello %s,\n\nYou requested a password reset. Open the link below within 1 hour:\n%s\n",
		user.FirstName, link)
	if err := s.dispatcher.SendEmail(ctx, email, "Password Reset Request - LitVerse", body); err != nil {
		log.Printf("reset mail dispatch to %s failed: %v", notify.MaskDestination(email), err)
	}
	return nil
}

// ResetPassword consumes a reset token and replaces the password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.users.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFoundOrExpired
		}
		return fmt.Errorf("lookup reset token: %w", err)
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.ResetToken = ""
	user.ResetTokenExpiry = nil
	if _, err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// AdminLogin authenticates against the separate admin identity space and
// mints a token carrying the admin role.
func (s *Service) AdminLogin(ctx context.Context, email, password string) (model.Admin, string, error) {
	email = normalizeEmail(email)
	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Admin{}, "", ErrInvalidCredentials
		}
		return model.Admin{}, "", fmt.Errorf("lookup admin: %w", err)
	}
	if !CheckPassword(admin.PasswordHash, password) {
		return model.Admin{}, "", ErrInvalidCredentials
	}

	token, err := s.jwt.Issue(admin.ID.String(), "", RoleAdmin)
	if err != nil {
		return model.Admin{}, "", err
	}
	return admin, token, nil
}

func (s *Service) signUserToken(user model.User) (string, error) {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	return s.jwt.Issue(user.ID.String(), name, "")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return &ValidationError{Field: "email", Message: "is required"}
	}
	if !emailPattern.MatchString(email) {
		return &ValidationError{Field: "email", Message: "is not a valid address"}
	}
	return nil
}

// validatePhone requires enough digits to synthesize a usable placeholder
// address for the number.
func validatePhone(phone string) error {
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < 5 {
		return &ValidationError{Field: "destination", Message: "is not a valid phone number"}
	}
	return nil
}

// synthesizeEmail builds a stable placeholder address for a phone-only
// signup, so repeat OTP logins resolve to the same record.
func synthesizeEmail(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	return digits + "@" + phoneEmailDomain
}

