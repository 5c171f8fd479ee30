package auth

import (
	"errors"
	"testing"
	"time"
)

func TestJWTService_issueAndVerify(t *testing.T) {
	svc := NewJWTService("test-secret-at-least-32-characters-long")

	token, err := svc.Issue("user-123", "Jane Doe", "")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "user-123" {
		t.Errorf("subject = %q, want user-123", claims.Subject)
	}
	if claims.Name != "Jane Doe" {
		t.Errorf("name = %q, want Jane Doe", claims.Name)
	}
	if claims.Role != "" {
		t.Errorf("role = %q, want empty for a regular user", claims.Role)
	}
}

func TestJWTService_adminRoleClaim(t *testing.T) {
	svc := NewJWTService("test-secret-at-least-32-characters-long")

	token, err := svc.Issue("admin-1", "", RoleAdmin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Role != RoleAdmin {
		t.Errorf("role = %q, want %q", claims.Role, RoleAdmin)
	}
}

func TestJWTService_expiresAfterTwoHours(t *testing.T) {
	svc := NewJWTService("test-secret-at-least-32-characters-long")
	issued := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }

	token, err := svc.Issue("user-123", "", "")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Still valid just inside the window.
	svc.now = func() time.Time { return issued.Add(2*time.Hour - time.Minute) }
	if _, err := svc.Verify(token); err != nil {
		t.Errorf("token should be valid before expiry: %v", err)
	}

	// Expired just past it.
	svc.now = func() time.Time { return issued.Add(2*time.Hour + time.Second) }
	if _, err := svc.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token: got %v, want ErrInvalidToken", err)
	}
}

func TestJWTService_rejectsForeignSecret(t *testing.T) {
	issuer := NewJWTService("secret-one-which-is-long-enough-ok")
	verifier := NewJWTService("secret-two-which-is-long-enough-ok")

	token, err := issuer.Issue("user-123", "", "")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifier.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign-secret token: got %v, want ErrInvalidToken", err)
	}
}

func TestJWTService_rejectsGarbage(t *testing.T) {
	svc := NewJWTService("test-secret-at-least-32-characters-long")
	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := svc.Verify(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify(%q): got %v, want ErrInvalidToken", token, err)
		}
	}
}
