package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/wildgarden/pkg/httpmiddleware"
)

func TestConfig_ApplyPlatformDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://platform/db")
	t.Setenv("PORT", "9090")
	t.Setenv("RESEND_API_KEY", "re_123")

	cfg := Config{Addr: defaultAddr}
	cfg.applyPlatformDefaults()

	assert.Equal(t, "postgres://platform/db", cfg.DatabaseURL)
	assert.Equal(t, "0.0.0.0:9090", cfg.Addr)
	assert.Equal(t, "re_123", cfg.Mail.ResendAPIKey)
	assert.Equal(t, httpmiddleware.DefaultOriginPatterns, cfg.CORS.OriginPatterns)
}

func TestConfig_ApplyPlatformDefaults_ExplicitWins(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://platform/db")
	t.Setenv("PORT", "9090")

	cfg := Config{
		Addr:        "127.0.0.1:7000",
		DatabaseURL: "postgres://explicit/db",
		CORS:        CORSConfig{Origins: []string{"https://shop.example"}},
	}
	cfg.applyPlatformDefaults()

	assert.Equal(t, "postgres://explicit/db", cfg.DatabaseURL)
	assert.Equal(t, "127.0.0.1:7000", cfg.Addr)
	assert.Empty(t, cfg.CORS.OriginPatterns)
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{DatabaseURL: "postgres://x", APIKeyPepper: "pepper", ShippingCost: 5000}
	require.NoError(t, valid.validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{name: "no database", mutate: func(c *Config) { c.DatabaseURL = "" }, want: "database URL is required"},
		{name: "no pepper", mutate: func(c *Config) { c.APIKeyPepper = "" }, want: "pepper is required"},
		{name: "negative shipping", mutate: func(c *Config) { c.ShippingCost = -1 }, want: "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
