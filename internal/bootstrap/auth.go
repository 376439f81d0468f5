package bootstrap

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/afyacare/hms/config"
	"github.com/afyacare/hms/internal/adapters/authroles"
	"github.com/afyacare/hms/internal/adapters/devauth"
	"github.com/afyacare/hms/internal/adapters/gotrue"
	"github.com/afyacare/hms/internal/adapters/oidc"
	redisadapter "github.com/afyacare/hms/internal/adapters/redis"
	domainauth "github.com/afyacare/hms/internal/domain/auth"
	"github.com/afyacare/hms/internal/ports"
)

// AuthComponents bundles the authentication building blocks the service
// layer is wired with.
type AuthComponents struct {
	Provider ports.AuthProvider
	SSO      ports.SSOProvider // nil when SSO is not configured
	Sessions ports.SessionStore
	Roles    ports.RoleMapper
}

// BuildAuthComponents constructs the auth provider stack from configuration.
func BuildAuthComponents(cfg config.AppConfig, redisClient redis.UniversalClient, logger *slog.Logger) (AuthComponents, error) {
	provider, err := buildPasswordProvider(cfg.Auth)
	if err != nil {
		return AuthComponents{}, err
	}

	sso, err := buildSSOProvider(cfg, logger)
	if err != nil {
		return AuthComponents{}, err
	}

	roles, err := buildRoleMapper(cfg.Auth.SSO.GroupRoles)
	if err != nil {
		return AuthComponents{}, err
	}

	sessions := redisadapter.NewSessionStore(redisClient, redisadapter.SessionStoreOptions{
		Encryptor: CreateEncryptor(cfg.Session.EncryptionKey, logger),
	})

	return AuthComponents{
		Provider: provider,
		SSO:      sso,
		Sessions: sessions,
		Roles:    roles,
	}, nil
}

//nolint:ireturn // provider selection happens at runtime
func buildPasswordProvider(cfg config.AuthConfig) (ports.AuthProvider, error) {
	switch cfg.Mode {
	case config.AuthModeGotrue:
		provider, err := gotrue.NewProvider(gotrue.ProviderConfig{
			BaseURL: cfg.Gotrue.BaseURL,
			AnonKey: cfg.Gotrue.AnonKey,
		})
		if err != nil {
			return nil, fmt.Errorf("gotrue provider: %w", err)
		}
		return provider, nil

	case config.AuthModeMock:
		accounts, err := parseDevAccounts(cfg.DevAuth.Accounts)
		if err != nil {
			return nil, err
		}
		provider, err := devauth.NewProvider(devauth.Config{Accounts: accounts})
		if err != nil {
			return nil, fmt.Errorf("dev auth provider: %w", err)
		}
		return provider, nil

	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Mode)
	}
}

// parseDevAccounts parses "id:email" entries.
func parseDevAccounts(entries []string) ([]devauth.Account, error) {
	accounts := make([]devauth.Account, 0, len(entries))
	for _, entry := range entries {
		id, email, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok || id == "" || email == "" {
			return nil, fmt.Errorf("invalid dev auth account %q, want id:email", entry)
		}
		accounts = append(accounts, devauth.Account{ID: id, Email: email})
	}
	return accounts, nil
}

//nolint:ireturn // nil means SSO disabled, which is a valid configuration
func buildSSOProvider(cfg config.AppConfig, logger *slog.Logger) (ports.SSOProvider, error) {
	sso := cfg.Auth.SSO
	if !sso.Enabled {
		return nil, nil
	}

	provider, err := oidc.NewProvider(oidc.ProviderConfig{
		ClientID:     sso.ClientID,
		ClientSecret: sso.ClientSecret,
		RedirectURL:  strings.TrimRight(cfg.HTTP.BaseURL, "/") + "/auth/sso/callback",
		Scope:        sso.Scope,
		IssuerURL:    sso.IssuerURL,
	})
	if err != nil {
		return nil, fmt.Errorf("oidc provider: %w", err)
	}

	if logger != nil {
		logger.Info("staff SSO enabled", "issuer", sso.IssuerURL)
	}
	return provider, nil
}

func buildRoleMapper(overrides map[string]string) (authroles.StaticRoleMapper, error) {
	if len(overrides) == 0 {
		return authroles.NewStaticRoleMapper(nil), nil
	}

	table := make(map[string]domainauth.Role, len(overrides))
	for group, roleName := range overrides {
		role := domainauth.Role(roleName)
		if !role.Valid() {
			return authroles.StaticRoleMapper{}, fmt.Errorf("group %q maps to unknown role %q", group, roleName)
		}
		table[group] = role
	}
	return authroles.NewStaticRoleMapper(table), nil
}
