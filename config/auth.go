package config

import (
	"fmt"
	"strings"
)

// AuthMode selects the password identity provider backing staff and patient
// logins.
type AuthMode string

const (
	// AuthModeGotrue uses a GoTrue-compatible auth service (Supabase et al).
	AuthModeGotrue AuthMode = "gotrue"
	// AuthModeMock uses the in-process dev provider (development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "gotrue", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: gotrue, mock)", v)
	}
}

// GotrueConfig contains GoTrue auth service configuration.
type GotrueConfig struct {
	// BaseURL is the auth service root, e.g. https://proj.supabase.co/auth/v1.
	BaseURL string `env:"BASE_URL"`
	// AnonKey is sent as the apikey header on every request.
	AnonKey string `env:"ANON_KEY"`
}

// SSOConfig contains OIDC configuration for staff single sign-on.
// SSO is optional; when Enabled is false the /auth/sso routes report
// sso_not_configured.
type SSOConfig struct {
	Enabled      bool   `env:"ENABLED"       envDefault:"false"`
	IssuerURL    string `env:"ISSUER_URL"`
	ClientID     string `env:"CLIENT_ID"     envDefault:"hms"`
	ClientSecret string `env:"CLIENT_SECRET"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email groups"`

	// GroupRoles overrides the default directory-group-to-role table, as
	// "group=role" pairs, e.g. "corp-doctors=doctor;corp-nurses=nurse".
	GroupRoles map[string]string `env:"GROUP_ROLES" envSeparator:";" envKeyValSeparator:"="`
}

// DevAuthConfig controls the mock provider's accounts.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	// Accounts are "id:email" pairs admitted with any password.
	Accounts []string `env:"ACCOUNTS" envDefault:"dev-admin:admin@hms.local" envSeparator:";"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which password provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"gotrue"`

	// Gotrue configuration (used when Mode=gotrue).
	Gotrue GotrueConfig `envPrefix:"GOTRUE_"`

	// SSO configuration for the staff OIDC flow.
	SSO SSOConfig `envPrefix:"SSO_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`
}
