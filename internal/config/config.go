package config

import (
	"fmt"
	"os"
)

// Config holds the application configuration
type Config struct {
	DatabaseURL string
	RedisURL    string // optional; empty selects the in-memory cache
	Port        string
	JWTSecret   string

	// Admin bootstrap credentials, applied once at startup.
	AdminEmail    string
	AdminPassword string

	// SMTP settings for the mail dispatcher. Leaving them empty disables
	// real delivery but never enables OTP disclosure by itself.
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	MailFrom string

	// ResetBaseURL is the frontend URL prefix embedded in password-reset mails.
	ResetBaseURL string

	// InsecureOTPDisclosure echoes OTP codes in API responses when dispatch
	// fails. Must stay false outside demos; never inferred from missing
	// SMTP credentials.
	InsecureOTPDisclosure bool

	// LinkFederatedID attaches a newly seen Google/Facebook id to a user
	// record that was resolved by email during federated sign-in.
	LinkFederatedID bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:          "8080",
		AdminEmail:    "admin@litverse.local",
		AdminPassword: "admin123",
		MailFrom:      "no-reply@litverse.local",
		ResetBaseURL:  "http://localhost:3000/reset-password",
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	cfg.DatabaseURL = databaseURL

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}
	cfg.JWTSecret = jwtSecret

	cfg.RedisURL = os.Getenv("REDIS_URL")

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}
	if v := os.Getenv("ADMIN_EMAIL"); v != "" {
		cfg.AdminEmail = v
	}
	if v := os.Getenv("ADMIN_PASSWORD"); v != "" {
		cfg.AdminPassword = v
	}

	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	cfg.SMTPPort = os.Getenv("SMTP_PORT")
	cfg.SMTPUser = os.Getenv("SMTP_USER")
	cfg.SMTPPass = os.Getenv("SMTP_PASS")
	if v := os.Getenv("MAIL_FROM"); v != "" {
		cfg.MailFrom = v
	}
	if v := os.Getenv("RESET_BASE_URL"); v != "" {
		cfg.ResetBaseURL = v
	}

	cfg.InsecureOTPDisclosure = os.Getenv("INSECURE_OTP_DISCLOSURE") == "true"
	cfg.LinkFederatedID = os.Getenv("LINK_FEDERATED_ID") == "true"

	return cfg, nil
}
