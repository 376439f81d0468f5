package config

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// BaseURL is the externally visible base URL of the application
	// (e.g., "https://hms.example.org"). Used to build SSO callback URLs.
	BaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	// CookieDomain is the domain for session cookies.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// CookieSecure marks cookies Secure; leave false only for local HTTP dev.
	CookieSecure bool `env:"APP_COOKIE_SECURE" envDefault:"true"`
}
