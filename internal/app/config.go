package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/xenking/wildgarden/pkg/httpmiddleware"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (WILDGARDEN_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (WILDGARDEN_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	APIKeyPepper string `usage:"HMAC pepper for API key hashing" flag:"api-key-pepper"`
	ShippingCost int64  `default:"5000" usage:"Flat delivery fee in CLP" flag:"shipping-cost"`
	RateLimit    RateLimitConfig
	// CodeCheckLimit throttles the public discount code pre-check separately
	// so codes cannot be enumerated at the general rate.
	CodeCheckLimit CodeCheckLimitConfig
	CORS           CORSConfig
	Mail           MailConfig
	Graceful       GracefulConfig
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

type CodeCheckLimitConfig struct {
	Max    int           `default:"10" usage:"Max discount code checks per window"`
	Window time.Duration `default:"1m" usage:"Discount code check window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `usage:"Allowed CORS origins"`
	OriginPatterns   []string `usage:"Allowed CORS origin regular expressions" flag:"cors-origin-patterns"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// MailConfig configures order confirmation emails sent through Resend.
type MailConfig struct {
	ResendAPIKey  string        `usage:"Resend API key; empty disables confirmation emails" flag:"resend-api-key"`
	BaseURL       string        `default:"https://api.resend.com" usage:"Resend API base URL" flag:"resend-base-url"`
	From          string        `default:"WildGarden <noreply@floreriawildgarden.cl>" usage:"Sender address"`
	ReplyTo       string        `default:"wildgardenccp@gmail.com" usage:"Reply-To address" flag:"reply-to"`
	Workers       int           `default:"2" usage:"Concurrent email senders"`
	QueueSize     int           `default:"100" usage:"Pending email queue capacity" flag:"queue-size"`
	SendTimeout   time.Duration `default:"10s" usage:"Timeout for a single send" flag:"send-timeout"`
	StatusTimeout time.Duration `default:"5s" usage:"Timeout for an email status write" flag:"status-timeout"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "WILDGARDEN",
		Files:     []string{"config.yaml", "/etc/wildgarden/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's WILDGARDEN_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
	if c.Mail.ResendAPIKey == "" {
		c.Mail.ResendAPIKey = os.Getenv("RESEND_API_KEY")
	}
	if len(c.CORS.Origins) == 0 && len(c.CORS.OriginPatterns) == 0 {
		c.CORS.OriginPatterns = httpmiddleware.DefaultOriginPatterns
	}
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database URL is required: set WILDGARDEN_DATABASE_URL or DATABASE_URL")
	}
	if c.APIKeyPepper == "" {
		return errors.New("api key pepper is required: set WILDGARDEN_API_KEY_PEPPER")
	}
	if c.ShippingCost < 0 {
		return errors.Errorf("shipping cost must not be negative, got %d", c.ShippingCost)
	}
	return nil
}
