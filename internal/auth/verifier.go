package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Identity is a verified federated identity claim.
type Identity struct {
	Email      string
	GivenName  string
	FamilyName string
	ProviderID string
}

// FederatedVerifier validates a provider-issued token and extracts the
// identity it attests to.
type FederatedVerifier interface {
	VerifyIDToken(ctx context.Context, token string) (*Identity, error)
}

const (
	googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"
	facebookGraphURL   = "https://graph.facebook.com/me"
)

// GoogleVerifier validates Google ID tokens against the tokeninfo endpoint.
type GoogleVerifier struct {
	client   *http.Client
	endpoint string
}

// NewGoogleVerifier creates a verifier using Google's public tokeninfo endpoint.
func NewGoogleVerifier() *GoogleVerifier {
	return &GoogleVerifier{
		client:   &http.Client{Timeout: 10 * time.Second},
		endpoint: googleTokenInfoURL,
	}
}

// VerifyIDToken checks the ID token with Google and returns the identity.
// Any rejection by the provider maps to ErrInvalidToken.
func (v *GoogleVerifier) VerifyIDToken(ctx context.Context, token string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		v.endpoint+"?id_token="+url.QueryEscape(token), nil)
	if err != nil {
		return nil, fmt.Errorf("build tokeninfo request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call tokeninfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrInvalidToken
	}

	var payload struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified string `json:"email_verified"`
		GivenName     string `json:"given_name"`
		FamilyName    string `json:"family_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode tokeninfo response: %w", err)
	}
	if payload.Sub == "" || payload.Email == "" {
		return nil, ErrInvalidToken
	}

	return &Identity{
		Email:      payload.Email,
		GivenName:  payload.GivenName,
		FamilyName: payload.FamilyName,
		ProviderID: payload.Sub,
	}, nil
}

// FacebookVerifier validates Facebook access tokens via the Graph API.
type FacebookVerifier struct {
	client   *http.Client
	endpoint string
}

// NewFacebookVerifier creates a verifier using the public Graph API.
func NewFacebookVerifier() *FacebookVerifier {
	return &FacebookVerifier{
		client:   &http.Client{Timeout: 10 * time.Second},
		endpoint: facebookGraphURL,
	}
}

// VerifyIDToken checks the access token with Facebook and returns the identity.
func (v *FacebookVerifier) VerifyIDToken(ctx context.Context, token string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		v.endpoint+"?fields=id,email,first_name,last_name&access_token="+url.QueryEscape(token), nil)
	if err != nil {
		return nil, fmt.Errorf("build graph request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call graph api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrInvalidToken
	}

	var payload struct {
		ID        string `json:"id"`
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode graph response: %w", err)
	}
	if payload.ID == "" || payload.Email == "" {
		return nil, ErrInvalidToken
	}

	return &Identity{
		Email:      payload.Email,
		GivenName:  payload.FirstName,
		FamilyName: payload.LastName,
		ProviderID: payload.ID,
	}, nil
}
