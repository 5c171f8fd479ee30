package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litverse/server/internal/auth"
)

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(time.Minute, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Error("fourth request within the window should be blocked")
	}
	// Keys are independent.
	if !rl.Allow("5.6.7.8") {
		t.Error("a different key should not be affected")
	}
}

func TestRateLimiter_windowSlides(t *testing.T) {
	rl := NewRateLimiter(50*time.Millisecond, 1)

	require.True(t, rl.Allow("k"))
	require.False(t, rl.Allow("k"))
	time.Sleep(60 * time.Millisecond)
	assert.True(t, rl.Allow("k"), "request should pass once the window has moved on")
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "10.0.0.1:1234", ClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", ClientIP(r))
}

func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func TestAuthenticate(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret-at-least-32-characters-long")
	userID := uuid.New()
	token, err := jwtService.Issue(userID.String(), "Jane Doe", "")
	require.NoError(t, err)

	cases := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-token", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, called := okHandler()
			handler := Authenticate(jwtService)(next)

			r := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Equal(t, tc.wantStatus == http.StatusOK, *called)
		})
	}
}

func TestAuthenticate_attachesClaims(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret-at-least-32-characters-long")
	userID := uuid.New()
	token, err := jwtService.Issue(userID.String(), "Jane Doe", "")
	require.NoError(t, err)

	handler := Authenticate(jwtService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := GetClaims(r.Context())
		require.True(t, ok)
		assert.Equal(t, userID.String(), claims.Subject)

		id, ok := GetSubjectID(r.Context())
		require.True(t, ok)
		assert.Equal(t, userID, id)
	}))

	r := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), r)
}

func TestRequireAdmin(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret-at-least-32-characters-long")

	userToken, err := jwtService.Issue(uuid.NewString(), "Jane Doe", "")
	require.NoError(t, err)
	adminToken, err := jwtService.Issue(uuid.NewString(), "", auth.RoleAdmin)
	require.NoError(t, err)

	next, _ := okHandler()
	handler := Authenticate(jwtService)(RequireAdmin(next))

	r := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	r.Header.Set("Authorization", "Bearer "+userToken)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code, "a user token must not open admin routes")

	r = httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	r.Header.Set("Authorization", "Bearer "+adminToken)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}
