package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pet-identity-registry/internal/platform/httpclient"
	"pet-identity-registry/internal/ports/auth"
)

var (
	ErrNotConfigured = errors.New("remote auth not configured")
	ErrUnauthorized  = errors.New("remote auth unauthorized")
	ErrUpstream      = fmt.Errorf("remote auth upstream error: %w", auth.ErrUnavailable)
	ErrTokenEmpty    = errors.New("token is empty")
)

// userPath devuelve el usuario dueño del bearer token (API de auth hospedada).
const userPath = "/auth/v1/user"

type Config struct {
	BaseURL string
	APIKey  string

	// Header de la API key. Vacío = "apikey".
	APIKeyHeader string

	Timeout time.Duration
}

// Verifier implementa auth.AuthVerifier preguntándole al servicio de auth por el usuario del token.
type Verifier struct {
	client       *httpclient.Client
	apiKey       string
	apiKeyHeader string
}

func NewVerifier(cfg Config) (*Verifier, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, ErrNotConfigured
	}
	c, err := httpclient.NewWithBaseURL(baseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "apikey"
	}
	return &Verifier{client: c, apiKey: strings.TrimSpace(cfg.APIKey), apiKeyHeader: h}, nil
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || v.client == nil {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	headers := map[string]string{"Authorization": "Bearer " + token}
	if v.apiKey != "" {
		headers[v.apiKeyHeader] = v.apiKey
	}

	var out struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	err := v.client.DoJSON(ctx, http.MethodGet, userPath, headers, nil, &out)
	if err != nil {
		switch httpclient.StatusCode(err) {
		case http.StatusUnauthorized, http.StatusForbidden:
			return auth.Claims{}, ErrUnauthorized
		default:
			return auth.Claims{}, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
	}

	out.ID = strings.TrimSpace(out.ID)
	if out.ID == "" {
		return auth.Claims{}, fmt.Errorf("%w: response missing user id", ErrUpstream)
	}
	return auth.Claims{UserID: out.ID, Email: strings.TrimSpace(out.Email)}, nil
}
