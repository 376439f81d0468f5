package config

import "time"

// SessionConfig contains session lifecycle configuration.
type SessionConfig struct {
	// CheckInterval is how often the session monitor sweeps watched sessions.
	CheckInterval time.Duration `env:"SESSION_CHECK_INTERVAL" envDefault:"60s"`

	// WarnThreshold is how long before expiry the user is warned.
	WarnThreshold time.Duration `env:"SESSION_WARN_THRESHOLD" envDefault:"5m"`

	// EncryptionKey encrypts provider tokens at rest in the session store.
	// Hex-encoded, 32 bytes once decoded. Required outside dev mode.
	EncryptionKey string `env:"SESSION_ENCRYPTION_KEY"`
}

// Sanitize applies guardrails to session configuration values.
func (s *SessionConfig) Sanitize() {
	if s.CheckInterval <= 0 {
		s.CheckInterval = 60 * time.Second
	}
	if s.WarnThreshold <= 0 {
		s.WarnThreshold = 5 * time.Minute
	}
}
