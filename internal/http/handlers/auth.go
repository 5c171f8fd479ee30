package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/litverse/server/internal/auth"
	"github.com/litverse/server/internal/middleware"
	"github.com/litverse/server/internal/repo"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	service     *auth.Service
	users       repo.UserRepo
	otpLimiter  *middleware.RateLimiter
	discloseOTP bool
}

// NewAuthHandler creates a new auth handler. discloseOTP echoes issued codes
// in responses when dispatch fails; it must stay false outside demos.
func NewAuthHandler(service *auth.Service, users repo.UserRepo, discloseOTP bool) *AuthHandler {
	// IP limiter for the OTP-issuing endpoints: 10 per 10 min.
	return &AuthHandler{
		service:     service,
		users:       users,
		otpLimiter:  middleware.NewRateLimiter(10*time.Minute, 10),
		discloseOTP: discloseOTP,
	}
}

// registerSendOTPRequest is the request body for POST /auth/register/send-otp
type registerSendOTPRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// otpSentResponse is the JSON response of the OTP-issuing endpoints.
// DebugCode is only populated under the insecure-disclosure flag.
type otpSentResponse struct {
	Message   string `json:"message"`
	DebugCode string `json:"debug_code,omitempty"`
}

// tokenResponse is the JSON response of every successful sign-in path.
type tokenResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	User      userResponse `json:"user"`
}

// HandleRegisterSendOTP handles POST /auth/register/send-otp
func (h *AuthHandler) HandleRegisterSendOTP(w http.ResponseWriter, r *http.Request) {
	var req registerSendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !h.otpLimiter.Allow("ip:" + middleware.ClientIP(r)) {
		respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	issued, err := h.service.StartRegistration(r.Context(), req.FirstName, req.LastName, req.Email, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	resp := otpSentResponse{Message: "otp sent"}
	if h.discloseOTP && !issued.Dispatched {
		resp.DebugCode = issued.Code
	}
	respondJSON(w, http.StatusOK, resp)
}

// registerVerifyOTPRequest is the request body for POST /auth/register/verify-otp
type registerVerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// HandleRegisterVerifyOTP handles POST /auth/register/verify-otp
func (h *AuthHandler) HandleRegisterVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req registerVerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.OTP = strings.TrimSpace(req.OTP)
	if req.Email == "" || req.OTP == "" {
		respondWithError(w, http.StatusBadRequest, "email and otp are required")
		return
	}

	user, token, err := h.service.CompleteRegistration(r.Context(), req.Email, req.OTP)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, tokenResponse{
		Token:     token,
		TokenType: "bearer",
		User:      toUserResponse(user),
	})
}

// loginRequest is the request body for POST /auth/login
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin handles POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, tokenResponse{
		Token:     token,
		TokenType: "bearer",
		User:      toUserResponse(user),
	})
}

// loginSendOTPRequest is the request body for POST /auth/login/send-otp
type loginSendOTPRequest struct {
	Destination string `json:"destination"`
	Channel     string `json:"channel"`
}

// HandleLoginSendOTP handles POST /auth/login/send-otp
func (h *AuthHandler) HandleLoginSendOTP(w http.ResponseWriter, r *http.Request) {
	var req loginSendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Channel == "" {
		req.Channel = auth.ChannelEmail
	}

	if !h.otpLimiter.Allow("ip:" + middleware.ClientIP(r)) {
		respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	issued, err := h.service.RequestLoginOTP(r.Context(), req.Destination, req.Channel)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	resp := otpSentResponse{Message: "otp sent"}
	if h.discloseOTP && !issued.Dispatched {
		resp.DebugCode = issued.Code
	}
	respondJSON(w, http.StatusOK, resp)
}

// loginVerifyOTPRequest is the request body for POST /auth/login/verify-otp
type loginVerifyOTPRequest struct {
	Destination string `json:"destination"`
	Channel     string `json:"channel"`
	OTP         string `json:"otp"`
}

// HandleLoginVerifyOTP handles POST /auth/login/verify-otp
func (h *AuthHandler) HandleLoginVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req loginVerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Channel == "" {
		req.Channel = auth.ChannelEmail
	}
	req.OTP = strings.TrimSpace(req.OTP)
	if req.Destination == "" || req.OTP == "" {
		respondWithError(w, http.StatusBadRequest, "destination and otp are required")
		return
	}

	user, token, err := h.service.OTPLogin(r.Context(), req.Destination, req.Channel, req.OTP)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, tokenResponse{
		Token:     token,
		TokenType: "bearer",
		User:      toUserResponse(user),
	})
}

// federatedLoginRequest carries the provider-issued token.
type federatedLoginRequest struct {
	IDToken     string `json:"id_token"`
	AccessToken string `json:"access_token"`
}

// HandleGoogleLogin handles POST /auth/oauth/google
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	h.handleFederatedLogin(w, r, auth.ProviderGoogle)
}

// HandleFacebookLogin handles POST /auth/oauth/facebook
func (h *AuthHandler) HandleFacebookLogin(w http.ResponseWriter, r *http.Request) {
	h.handleFederatedLogin(w, r, auth.ProviderFacebook)
}

func (h *AuthHandler) handleFederatedLogin(w http.ResponseWriter, r *http.Request, provider string) {
	var req federatedLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	token := req.IDToken
	if token == "" {
		token = req.AccessToken
	}
	if token == "" {
		respondWithError(w, http.StatusBadRequest, "token is required")
		return
	}

	user, sessionToken, err := h.service.FederatedLogin(r.Context(), provider, token)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, tokenResponse{
		Token:     sessionToken,
		TokenType: "bearer",
		User:      toUserResponse(user),
	})
}

// forgotPasswordRequest is the request body for POST /auth/forgot-password
type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// HandleForgotPassword handles POST /auth/forgot-password
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" {
		respondWithError(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "password reset link sent"})
}

// resetPasswordRequest is the request body for POST /auth/reset-password
type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// HandleResetPassword handles POST /auth/reset-password
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Token == "" {
		respondWithError(w, http.StatusBadRequest, "token is required")
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "password reset successful"})
}

// HandleMe handles GET /me (protected). Returns the authenticated user.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetSubjectID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(user))
}
