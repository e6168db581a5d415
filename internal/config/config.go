package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"clam-storefront/internal/logger"
)

type Config struct {
	Port             string
	DatabaseURL      string
	RedisAddr        string
	CartTTL          time.Duration
	TaxRate          decimal.Decimal
	Promos           map[string]decimal.Decimal
	CurrencySymbol   string
	RolloutKey       string
	JaegerEndpoint   string
	JWTSecret        string
	QueryCacheSize   int
	SessionCacheSize int
}

// DefaultPromos is used when PROMO_CODES_FILE is not set.
var DefaultPromos = map[string]decimal.Decimal{
	"SAVE10":    decimal.RequireFromString("0.10"),
	"WELCOME15": decimal.RequireFromString("0.15"),
	"SAVE20":    decimal.RequireFromString("0.20"),
}

// Load reads .env (when present) and then the process environment.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			logger.Warnf("error loading .env file: %v", err)
		} else {
			logger.Infof(".env file loaded")
		}
	}

	taxRate, err := parseRate("TAX_RATE", getEnv("TAX_RATE", "0.18"), true)
	if err != nil {
		return nil, err
	}

	ttl, err := time.ParseDuration(getEnv("CART_TTL", "720h"))
	if err != nil {
		return nil, errors.Wrap(err, "CART_TTL")
	}

	cacheSize, err := strconv.Atoi(getEnv("QUERY_CACHE_SIZE", "256"))
	if err != nil || cacheSize <= 0 {
		return nil, errors.Errorf("QUERY_CACHE_SIZE must be a positive integer, got %q", os.Getenv("QUERY_CACHE_SIZE"))
	}

	sessionSize, err := strconv.Atoi(getEnv("SESSION_CACHE_SIZE", "1024"))
	if err != nil || sessionSize <= 0 {
		return nil, errors.Errorf("SESSION_CACHE_SIZE must be a positive integer, got %q", os.Getenv("SESSION_CACHE_SIZE"))
	}

	promos := DefaultPromos
	if path := os.Getenv("PROMO_CODES_FILE"); path != "" {
		promos, err = LoadPromoFile(path)
		if err != nil {
			return nil, err
		}
	}

	return &Config{
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		CartTTL:          ttl,
		TaxRate:          taxRate,
		Promos:           promos,
		CurrencySymbol:   getEnv("CURRENCY_SYMBOL", "₹"),
		RolloutKey:       getEnv("ROLLOUT_KEY", ""),
		JaegerEndpoint:   getEnv("JAEGER_ENDPOINT", ""),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		QueryCacheSize:   cacheSize,
		SessionCacheSize: sessionSize,
	}, nil
}

type promoFile struct {
	Codes map[string]string `yaml:"codes"`
}

// LoadPromoFile reads a promo table of the form
//
//	codes:
//	  SAVE10: 0.10
func LoadPromoFile(path string) (map[string]decimal.Decimal, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read promo file")
	}
	return ParsePromos(raw)
}

// ParsePromos decodes a YAML promo table. Every rate must lie in [0,1).
func ParsePromos(raw []byte) (map[string]decimal.Decimal, error) {
	var f promoFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, errors.Wrap(err, "parse promo file")
	}

	out := make(map[string]decimal.Decimal, len(f.Codes))
	for code, v := range f.Codes {
		if code == "" {
			return nil, errors.New("promo file: empty code")
		}
		rate, err := parseRate("promo "+code, v, false)
		if err != nil {
			return nil, err
		}
		out[code] = rate
	}
	return out, nil
}

// parseRate accepts [0,1); allowOne widens the upper bound to 1 inclusive.
func parseRate(name, v string, allowOne bool) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "%s: invalid rate %q", name, v)
	}
	one := decimal.NewFromInt(1)
	if rate.IsNegative() || rate.GreaterThan(one) || (!allowOne && rate.Equal(one)) {
		return decimal.Zero, errors.Errorf("%s: rate %s out of range", name, v)
	}
	return rate, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
