package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultCodeLength   = 8
	defaultCodeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// short_codes.code is VARCHAR(32)
	maxCodeLength        = 32
	defaultMaxExpiryDays = 3650
	// time.Duration overflows past roughly 106751 days
	maxExpiryDaysCeiling = 100000
)

type ShortlinkConfig struct {
	Cost              decimal.Decimal
	Domain            string
	CodeLength        int
	CodeAlphabet      string
	MaxCodeAttempts   int
	MaxURLLength      int
	MaxExpiryDays     int
	CreateRateLimit   int
	RateLimitWindow   time.Duration
	SessionTTL        time.Duration
	JanitorInterval   time.Duration
	DefaultEntryLimit int
	MaxEntryLimit     int
	PaymentMinAmount  decimal.Decimal
	PaymentMaxAmount  decimal.Decimal
}

func LoadShortlinkConfig() *ShortlinkConfig {
	cfg := &ShortlinkConfig{
		Cost:              getEnvAsDecimal("SHORTLINK_COST", decimal.NewFromInt(10)),
		Domain:            strings.TrimRight(getEnv("SHORTLINK_DOMAIN", "http://localhost:8080"), "/"),
		CodeLength:        getEnvAsInt("SHORTCODE_LENGTH", defaultCodeLength),
		CodeAlphabet:      getEnv("SHORTCODE_ALPHABET", defaultCodeAlphabet),
		MaxCodeAttempts:   getEnvAsInt("SHORTCODE_MAX_ATTEMPTS", 1000),
		MaxURLLength:      getEnvAsInt("SHORTLINK_MAX_URL_LENGTH", 2048),
		MaxExpiryDays:     getEnvAsInt("SHORTLINK_MAX_EXPIRY_DAYS", defaultMaxExpiryDays),
		CreateRateLimit:   getEnvAsInt("SHORTLINK_RATE_LIMIT", 30),
		RateLimitWindow:   getEnvAsDuration("SHORTLINK_RATE_LIMIT_WINDOW", 1*time.Hour),
		SessionTTL:        getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		JanitorInterval:   getEnvAsDuration("JANITOR_INTERVAL", 10*time.Minute),
		DefaultEntryLimit: getEnvAsInt("LEDGER_DEFAULT_LIMIT", 20),
		MaxEntryLimit:     getEnvAsInt("LEDGER_MAX_LIMIT", 100),
		PaymentMinAmount:  getEnvAsDecimal("PAYMENT_MIN_AMOUNT", decimal.NewFromInt(50)),
		PaymentMaxAmount:  getEnvAsDecimal("PAYMENT_MAX_AMOUNT", decimal.NewFromInt(10000)),
	}

	if cfg.CodeLength <= 0 || cfg.CodeLength > maxCodeLength {
		log.Printf("[CONFIG] SHORTCODE_LENGTH %d out of range 1-%d, using %d", cfg.CodeLength, maxCodeLength, defaultCodeLength)
		cfg.CodeLength = defaultCodeLength
	}
	if !validAlphabet(cfg.CodeAlphabet) {
		log.Printf("[CONFIG] SHORTCODE_ALPHABET needs at least two distinct ASCII letters or digits, using default")
		cfg.CodeAlphabet = defaultCodeAlphabet
	}
	if cfg.MaxExpiryDays <= 0 || cfg.MaxExpiryDays > maxExpiryDaysCeiling {
		log.Printf("[CONFIG] SHORTLINK_MAX_EXPIRY_DAYS %d out of range 1-%d, using %d", cfg.MaxExpiryDays, maxExpiryDaysCeiling, defaultMaxExpiryDays)
		cfg.MaxExpiryDays = defaultMaxExpiryDays
	}
	if cfg.PaymentMaxAmount.LessThan(cfg.PaymentMinAmount) {
		log.Printf("[CONFIG] PAYMENT_MAX_AMOUNT below PAYMENT_MIN_AMOUNT, using defaults")
		cfg.PaymentMinAmount = decimal.NewFromInt(50)
		cfg.PaymentMaxAmount = decimal.NewFromInt(10000)
	}
	return cfg
}

// validAlphabet accepts two or more distinct ASCII letters and digits.
func validAlphabet(alphabet string) bool {
	if len(alphabet) < 2 {
		return false
	}
	seen := make(map[byte]bool, len(alphabet))
	for i := 0; i < len(alphabet); i++ {
		c := alphabet[i]
		isAlnum := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
		if !isAlnum || seen[c] {
			return false
		}
		seen[c] = true
	}
	return true
}

// ShortURL joins the public domain and a code.
func (c *ShortlinkConfig) ShortURL(code string) string {
	return c.Domain + "/" + code
}

// LinksAffordable is how many shortlinks balance pays for at the current cost.
func (c *ShortlinkConfig) LinksAffordable(balance decimal.Decimal) int64 {
	if !c.Cost.IsPositive() {
		return 0
	}
	return balance.Div(c.Cost).Floor().IntPart()
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}

func getEnvAsDecimal(key string, defaultVal decimal.Decimal) decimal.Decimal {
	if val := os.Getenv(key); val != "" {
		if d, err := decimal.NewFromString(val); err == nil && !d.IsNegative() {
			return d
		}
	}
	return defaultVal
}
