package oidc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afyacare/hms/internal/ports"
)

// newDiscoveryServer serves a minimal OIDC discovery document.
func newDiscoveryServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, _ *http.Request) {
		doc := map[string]any{
			"issuer":                 srv.URL,
			"authorization_endpoint": srv.URL + "/authorize",
			"token_endpoint":         srv.URL + "/token",
			"userinfo_endpoint":      srv.URL + "/userinfo",
			"jwks_uri":               srv.URL + "/jwks",
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(doc); err != nil {
			t.Errorf("encode discovery doc: %v", err)
		}
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestProvider(t *testing.T) *Provider {
	t.Helper()

	srv := newDiscoveryServer(t)
	p, err := NewProvider(ProviderConfig{
		ClientID:     "hms-staff",
		ClientSecret: "secret",
		RedirectURL:  "https://hms.example.org/auth/sso/callback",
		IssuerURL:    srv.URL,
		HTTPClient:   srv.Client(),
	})
	require.NoError(t, err)
	return p
}

func TestNewProviderValidation(t *testing.T) {
	tests := []struct {
		name   string
		config ProviderConfig
	}{
		{"missing client id", ProviderConfig{ClientSecret: "s", RedirectURL: "r", IssuerURL: "i"}},
		{"missing client secret", ProviderConfig{ClientID: "c", RedirectURL: "r", IssuerURL: "i"}},
		{"missing redirect url", ProviderConfig{ClientID: "c", ClientSecret: "s", IssuerURL: "i"}},
		{"missing issuer url", ProviderConfig{ClientID: "c", ClientSecret: "s", RedirectURL: "r"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewProvider(tc.config)
			assert.Error(t, err)
		})
	}
}

func TestBeginReturnsAuthURLWithStateAndNonce(t *testing.T) {
	p := newTestProvider(t)

	authURL, state, nonce, err := p.Begin(context.Background(), ports.BeginInput{
		RedirectURL: "https://hms.example.org/auth/sso/callback",
	})
	require.NoError(t, err)
	assert.Len(t, state, 32)
	assert.Len(t, nonce, 32)
	assert.NotEqual(t, state, nonce)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, "hms-staff", q.Get("client_id"))
	assert.Equal(t, state, q.Get("state"))
	assert.Equal(t, nonce, q.Get("nonce"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Contains(t, q.Get("scope"), "openid")
}

func TestBeginRequiresRedirectURL(t *testing.T) {
	p := newTestProvider(t)

	_, _, _, err := p.Begin(context.Background(), ports.BeginInput{})
	assert.Error(t, err)
}

func TestBeginStatesAreUnique(t *testing.T) {
	p := newTestProvider(t)
	in := ports.BeginInput{RedirectURL: "https://hms.example.org/cb"}

	_, s1, n1, err := p.Begin(context.Background(), in)
	require.NoError(t, err)
	_, s2, n2, err := p.Begin(context.Background(), in)
	require.NoError(t, err)

	assert.NotEqual(t, s1, s2)
	assert.NotEqual(t, n1, n2)
}

func TestExchangeInputValidation(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	_, err := p.Exchange(ctx, ports.ExchangeInput{State: "s", Nonce: "n"})
	assert.Error(t, err, "missing code")

	_, err = p.Exchange(ctx, ports.ExchangeInput{Code: "c", Nonce: "n"})
	assert.Error(t, err, "missing state")

	_, err = p.Exchange(ctx, ports.ExchangeInput{Code: "c", State: "s"})
	assert.Error(t, err, "missing nonce")
}

func TestGenerateRandomString(t *testing.T) {
	for _, n := range []int{0, 1, 16, 32, 43} {
		s, err := generateRandomString(n)
		require.NoError(t, err)
		assert.Len(t, s, n)
	}
}
