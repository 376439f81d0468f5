package gotrue

// Package gotrue implements ports.AuthProvider against a GoTrue-compatible
// auth service (the API surface exposed by Supabase Auth). Session expiry is
// read from the access token's own claims when possible; the expires_in hint
// in the response body is only a fallback.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/afyacare/hms/internal/ports"
	"github.com/afyacare/hms/internal/util"
)

// ErrInvalidCredentials is returned when the provider rejects the
// email/password pair. Callers must not distinguish bad email from bad
// password.
var ErrInvalidCredentials = ports.ErrInvalidCredentials

// ErrUnauthorized is returned when a token is rejected by the provider.
var ErrUnauthorized = ports.ErrTokenRejected

const defaultTimeout = 15 * time.Second

// Provider talks to a GoTrue-compatible HTTP API.
type Provider struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	clock      util.Clock
	parser     *jwt.Parser
}

// ProviderConfig holds configuration for the GoTrue provider.
type ProviderConfig struct {
	// BaseURL is the auth service root, e.g. https://proj.supabase.co/auth/v1.
	BaseURL string
	// AnonKey is sent as the apikey header on every request.
	AnonKey string
	// HTTPClient is optional; defaults to a client with a 15s timeout.
	HTTPClient *http.Client
	// Clock is optional; used for the expires_in fallback.
	Clock util.Clock
}

// NewProvider creates a GoTrue provider.
func NewProvider(config ProviderConfig) (*Provider, error) {
	if config.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	if config.AnonKey == "" {
		return nil, errors.New("anon key is required")
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	clock := config.Clock
	if clock == nil {
		clock = util.RealClock{}
	}
	return &Provider{
		baseURL:    strings.TrimSuffix(config.BaseURL, "/"),
		anonKey:    config.AnonKey,
		httpClient: httpClient,
		clock:      clock,
		parser:     jwt.NewParser(),
	}, nil
}

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	User         userResponse `json:"user"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// SignInWithPassword performs the password grant.
func (p *Provider) SignInWithPassword(ctx context.Context, creds ports.Credentials) (ports.ProviderSession, error) {
	body := map[string]string{"email": creds.Email, "password": creds.Password}

	var resp tokenResponse
	err := p.post(ctx, "/token?grant_type=password", "", body, &resp)
	if err != nil {
		if isAuthRejection(err) {
			return ports.ProviderSession{}, ErrInvalidCredentials
		}
		return ports.ProviderSession{}, fmt.Errorf("password grant: %w", err)
	}
	return p.toSession(resp), nil
}

// SignUp registers a new user.
func (p *Provider) SignUp(ctx context.Context, creds ports.Credentials) (ports.ProviderUser, error) {
	body := map[string]string{"email": creds.Email, "password": creds.Password}

	// GoTrue returns either the user object directly or nested under "user"
	// depending on autoconfirm settings.
	var resp struct {
		ID    string       `json:"id"`
		Email string       `json:"email"`
		User  userResponse `json:"user"`
	}
	if err := p.post(ctx, "/signup", "", body, &resp); err != nil {
		return ports.ProviderUser{}, fmt.Errorf("signup: %w", err)
	}
	if resp.ID != "" {
		return ports.ProviderUser{ID: resp.ID, Email: resp.Email}, nil
	}
	if resp.User.ID == "" {
		return ports.ProviderUser{}, errors.New("signup: provider returned no user ID")
	}
	return ports.ProviderUser{ID: resp.User.ID, Email: resp.User.Email}, nil
}

// GetUser fetches the user owning an access token.
func (p *Provider) GetUser(ctx context.Context, accessToken string) (ports.ProviderUser, error) {
	req, err := p.newRequest(ctx, http.MethodGet, "/user", accessToken, nil)
	if err != nil {
		return ports.ProviderUser{}, err
	}

	var resp userResponse
	if err := p.do(req, &resp); err != nil {
		if isAuthRejection(err) {
			return ports.ProviderUser{}, ErrUnauthorized
		}
		return ports.ProviderUser{}, fmt.Errorf("get user: %w", err)
	}
	if resp.ID == "" {
		return ports.ProviderUser{}, errors.New("get user: provider returned no user ID")
	}
	return ports.ProviderUser{ID: resp.ID, Email: resp.Email}, nil
}

// RefreshSession performs the refresh_token grant.
func (p *Provider) RefreshSession(ctx context.Context, refreshToken string) (ports.ProviderSession, error) {
	body := map[string]string{"refresh_token": refreshToken}

	var resp tokenResponse
	err := p.post(ctx, "/token?grant_type=refresh_token", "", body, &resp)
	if err != nil {
		if isAuthRejection(err) {
			return ports.ProviderSession{}, ErrUnauthorized
		}
		return ports.ProviderSession{}, fmt.Errorf("refresh grant: %w", err)
	}
	return p.toSession(resp), nil
}

// SignOut revokes the session behind an access token. A rejected token is
// treated as already signed out.
func (p *Provider) SignOut(ctx context.Context, accessToken string) error {
	req, err := p.newRequest(ctx, http.MethodPost, "/logout", accessToken, nil)
	if err != nil {
		return err
	}
	if err := p.do(req, nil); err != nil {
		if isAuthRejection(err) {
			return nil
		}
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// toSession converts a token response, preferring the JWT's own iat/exp
// claims over the expires_in hint. The token is not verified here; the
// provider just issued it over TLS, and expiry is advisory for scheduling,
// not an authorization input.
func (p *Provider) toSession(resp tokenResponse) ports.ProviderSession {
	now := p.clock.Now()
	issuedAt := now
	expiresAt := now.Add(time.Duration(resp.ExpiresIn) * time.Second)

	var claims jwt.RegisteredClaims
	if _, _, err := p.parser.ParseUnverified(resp.AccessToken, &claims); err == nil {
		if claims.IssuedAt != nil {
			issuedAt = claims.IssuedAt.Time
		}
		if claims.ExpiresAt != nil {
			expiresAt = claims.ExpiresAt.Time
		}
	}

	return ports.ProviderSession{
		UserID:       resp.User.ID,
		Email:        resp.User.Email,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		IssuedAt:     issuedAt,
		ExpiresAt:    expiresAt,
	}
}

type httpStatusError struct {
	status int
	body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("auth provider returned %d: %s", e.status, e.body)
}

func isAuthRejection(err error) bool {
	var statusErr *httpStatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	return statusErr.status == http.StatusBadRequest ||
		statusErr.status == http.StatusUnauthorized ||
		statusErr.status == http.StatusForbidden
}

func (p *Provider) post(ctx context.Context, path, accessToken string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := p.newRequest(ctx, http.MethodPost, path, accessToken, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return p.do(req, out)
}

func (p *Provider) newRequest(ctx context.Context, method, path, accessToken string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", p.anonKey)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	return req, nil
}

func (p *Provider) do(req *http.Request, out any) error {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth provider request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &httpStatusError{status: resp.StatusCode, body: strings.TrimSpace(string(data))}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
