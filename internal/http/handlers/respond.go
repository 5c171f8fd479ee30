package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/litverse/server/internal/auth"
	"github.com/litverse/server/internal/model"
	"github.com/litverse/server/internal/repo"
)

// userResponse is the user object in API responses. Password hashes and
// reset tokens never leave the server.
type userResponse struct {
	ID            string     `json:"id"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name,omitempty"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone,omitempty"`
	IsActive      bool       `json:"is_active"`
	EmailVerified bool       `json:"email_verified"`
	CreatedAt     time.Time  `json:"created_at"`
	VerifiedAt    *time.Time `json:"email_verified_at,omitempty"`
}

func toUserResponse(u model.User) userResponse {
	return userResponse{
		ID:            u.ID.String(),
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         u.Email,
		Phone:         u.Phone,
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		VerifiedAt:    u.EmailVerifiedAt,
	}
}

// respondJSON writes a JSON body with the given status.
func respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, map[string]string{"error": message})
}

// respondServiceError maps expected workflow failures to specific responses
// and everything else to a generic 500 with the detail logged, never leaked.
func respondServiceError(w http.ResponseWriter, err error) {
	var validationErr *auth.ValidationError
	switch {
	case errors.As(err, &validationErr):
		respondWithError(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, auth.ErrEmailTaken):
		respondWithError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, auth.ErrNotFoundOrExpired):
		respondWithError(w, http.StatusBadRequest, "code is invalid or expired")
	case errors.Is(err, auth.ErrMismatch):
		respondWithError(w, http.StatusBadRequest, "incorrect code")
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, auth.ErrInvalidToken):
		respondWithError(w, http.StatusUnauthorized, "invalid or expired token")
	case errors.Is(err, auth.ErrInactiveAccount):
		respondWithError(w, http.StatusForbidden, "account is deactivated")
	case errors.Is(err, repo.ErrDuplicate):
		respondWithError(w, http.StatusConflict, "record already exists")
	case errors.Is(err, repo.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "not found")
	default:
		log.Printf("unexpected error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "server error")
	}
}
