package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLoadShortlinkConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := LoadShortlinkConfig()
		assert.True(t, cfg.Cost.Equal(decimal.NewFromInt(10)))
		assert.Equal(t, 8, cfg.CodeLength)
		assert.Equal(t, 1000, cfg.MaxCodeAttempts)
		assert.Equal(t, 62, len(cfg.CodeAlphabet))
		assert.Equal(t, time.Hour, cfg.RateLimitWindow)
		assert.Equal(t, 3650, cfg.MaxExpiryDays)
		assert.True(t, cfg.PaymentMinAmount.Equal(decimal.NewFromInt(50)))
		assert.True(t, cfg.PaymentMaxAmount.Equal(decimal.NewFromInt(10000)))
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("SHORTLINK_COST", "2.5")
		t.Setenv("SHORTLINK_DOMAIN", "https://sho.rt/")
		t.Setenv("SHORTCODE_LENGTH", "6")
		t.Setenv("JANITOR_INTERVAL", "30s")

		cfg := LoadShortlinkConfig()
		assert.True(t, cfg.Cost.Equal(decimal.RequireFromString("2.5")))
		assert.Equal(t, "https://sho.rt", cfg.Domain)
		assert.Equal(t, 6, cfg.CodeLength)
		assert.Equal(t, 30*time.Second, cfg.JanitorInterval)
	})

	t.Run("invalid values fall back", func(t *testing.T) {
		t.Setenv("SHORTLINK_COST", "-4")
		t.Setenv("SHORTCODE_MAX_ATTEMPTS", "lots")

		cfg := LoadShortlinkConfig()
		assert.True(t, cfg.Cost.Equal(decimal.NewFromInt(10)))
		assert.Equal(t, 1000, cfg.MaxCodeAttempts)
	})
}

func TestLoadShortlinkConfig_CodeSettings(t *testing.T) {
	tests := []struct {
		name         string
		length       string
		alphabet     string
		wantLength   int
		wantAlphabet string
	}{
		{"negative length", "-1", "abc", 8, "abc"},
		{"zero length", "0", "", 8, defaultCodeAlphabet},
		{"too long for the column", "40", "", 8, defaultCodeAlphabet},
		{"single character alphabet", "6", "a", 6, defaultCodeAlphabet},
		{"repeated characters", "6", "aab", 6, defaultCodeAlphabet},
		{"non alphanumeric", "6", "ab-", 6, defaultCodeAlphabet},
		{"valid custom", "10", "0123456789", 10, "0123456789"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SHORTCODE_LENGTH", tt.length)
			t.Setenv("SHORTCODE_ALPHABET", tt.alphabet)

			cfg := LoadShortlinkConfig()
			assert.Equal(t, tt.wantLength, cfg.CodeLength)
			assert.Equal(t, tt.wantAlphabet, cfg.CodeAlphabet)
		})
	}
}

func TestLoadShortlinkConfig_Limits(t *testing.T) {
	t.Run("expiry ceiling out of range", func(t *testing.T) {
		t.Setenv("SHORTLINK_MAX_EXPIRY_DAYS", "213504")
		assert.Equal(t, 3650, LoadShortlinkConfig().MaxExpiryDays)
	})

	t.Run("payment bounds inverted", func(t *testing.T) {
		t.Setenv("PAYMENT_MIN_AMOUNT", "500")
		t.Setenv("PAYMENT_MAX_AMOUNT", "100")

		cfg := LoadShortlinkConfig()
		assert.True(t, cfg.PaymentMinAmount.Equal(decimal.NewFromInt(50)))
		assert.True(t, cfg.PaymentMaxAmount.Equal(decimal.NewFromInt(10000)))
	})
}

func TestShortlinkConfig_Helpers(t *testing.T) {
	cfg := &ShortlinkConfig{Cost: decimal.NewFromInt(10), Domain: "https://sho.rt"}

	assert.Equal(t, "https://sho.rt/abc", cfg.ShortURL("abc"))
	assert.Equal(t, int64(9), cfg.LinksAffordable(decimal.RequireFromString("99.99")))
	assert.Equal(t, int64(0), cfg.LinksAffordable(decimal.Zero))

	cfg.Cost = decimal.Zero
	assert.Equal(t, int64(0), cfg.LinksAffordable(decimal.NewFromInt(50)))
}
