package oidc

// Package oidc provides the OIDC SSO adapter used for hospital staff login.
// Patients use the password provider; staff identities come from the hospital
// directory via standard OIDC claims.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	domainauth "github.com/afyacare/hms/internal/domain/auth"
	"github.com/afyacare/hms/internal/ports"
)

const defaultTokenLifetime = time.Hour

// Provider implements ports.SSOProvider using OIDC/OAuth2.
type Provider struct {
	config   *oauth2.Config
	provider *gooidc.Provider
	verifier *gooidc.IDTokenVerifier
}

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	IssuerURL    string
	HTTPClient   *http.Client // Optional, defaults to a 30s-timeout client
}

// NewProvider creates an OIDC provider. Discovery runs once at construction.
func NewProvider(config ProviderConfig) (*Provider, error) {
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if config.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if config.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	if config.IssuerURL == "" {
		return nil, errors.New("issuer URL is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	issuer := strings.TrimSuffix(config.IssuerURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}

	scope := config.Scope
	if scope == "" {
		scope = "openid profile email groups"
	}

	return &Provider{
		provider: op,
		verifier: op.Verifier(&gooidc.Config{ClientID: config.ClientID}),
		config: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Scopes:       strings.Fields(scope),
			Endpoint:     op.Endpoint(),
		},
	}, nil
}

// Begin starts the login flow, returning the provider auth URL plus the state
// and nonce the caller must hold for Exchange.
func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	if in.RedirectURL == "" {
		return "", "", "", errors.New("redirect URL is required")
	}

	state, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}

	authURL := p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("response_type", "code"),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
	return authURL, state, nonce, nil
}

// Exchange completes the login flow. The caller has already matched the state
// it stored against the callback; the nonce is verified here against the ID
// token.
func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if in.Code == "" {
		return domainauth.Identity{}, errors.New("authorization code is required")
	}
	if in.State == "" {
		return domainauth.Identity{}, errors.New("state is required")
	}
	if in.Nonce == "" {
		return domainauth.Identity{}, errors.New("nonce is required")
	}

	token, err := p.config.Exchange(ctx, in.Code)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("exchange code for token: %w", err)
	}

	claims, err := p.verifyIDToken(ctx, token, in.Nonce)
	if err != nil {
		return domainauth.Identity{}, err
	}

	// Fall back to the userinfo endpoint when the ID token is sparse.
	if claims.Email == "" || claims.Name == "" || len(claims.Groups) == 0 {
		if uiErr := p.fillFromUserInfo(ctx, token.AccessToken, &claims); uiErr != nil {
			return domainauth.Identity{}, fmt.Errorf("get user info: %w", uiErr)
		}
	}

	if claims.Subject == "" {
		return domainauth.Identity{}, errors.New("provider returned no subject")
	}

	expiresAt := time.Now().Add(defaultTokenLifetime)
	if !token.Expiry.IsZero() {
		expiresAt = token.Expiry
	}

	return domainauth.Identity{
		Subject:   claims.Subject,
		Email:     claims.Email,
		FullName:  claims.Name,
		Groups:    claims.Groups,
		ExpiresAt: expiresAt,
	}, nil
}

// idTokenClaims covers the standard OIDC claim shape the hospital directory
// emits.
type idTokenClaims struct {
	Subject string   `json:"sub"`
	Email   string   `json:"email"`
	Name    string   `json:"name"`
	Groups  []string `json:"groups"`
	Nonce   string   `json:"nonce"`
}

func (p *Provider) verifyIDToken(ctx context.Context, tok *oauth2.Token, expectedNonce string) (idTokenClaims, error) {
	var claims idTokenClaims

	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return claims, errors.New("missing id_token in token response")
	}

	idTok, err := p.verifier.Verify(ctx, raw)
	if err != nil {
		return claims, fmt.Errorf("verify id_token: %w", err)
	}
	if claimsErr := idTok.Claims(&claims); claimsErr != nil {
		return claims, fmt.Errorf("parse id_token claims: %w", claimsErr)
	}
	if claims.Nonce != expectedNonce {
		return claims, errors.New("invalid nonce")
	}
	return claims, nil
}

func (p *Provider) fillFromUserInfo(ctx context.Context, accessToken string, claims *idTokenClaims) error {
	ui, err := p.provider.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	if err != nil {
		return fmt.Errorf("fetch user info: %w", err)
	}

	var info idTokenClaims
	if claimsErr := ui.Claims(&info); claimsErr != nil {
		return fmt.Errorf("decode user info: %w", claimsErr)
	}
	if claims.Subject == "" {
		claims.Subject = info.Subject
	}
	if claims.Email == "" {
		claims.Email = info.Email
	}
	if claims.Name == "" {
		claims.Name = info.Name
	}
	if len(claims.Groups) == 0 {
		claims.Groups = info.Groups
	}
	return nil
}

// generateRandomString generates a cryptographically secure URL-safe random
// string of exact length.
func generateRandomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	nBytes := (length*3 + 3) / 4
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	for len(s) < length {
		extra := make([]byte, 1)
		if _, err := rand.Read(extra); err != nil {
			return "", err
		}
		s += base64.RawURLEncoding.EncodeToString(extra)
	}
	return s[:length], nil
}
