package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"medifinder/m/domain"
)

// Config holds application configuration values.
type Config struct {
	Secret          string
	DatabaseDSN     string
	HTTPPort        string
	CORSOrigins     []string
	LogLevel        string
	LogFormat       string
	StockValidation domain.StockValidation
	TokenTTL        time.Duration
}

const defaultTokenTTL = 7 * 24 * time.Hour

// Load reads configuration from a .env file, if any, and the environment,
// with reasonable defaults.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(getenv func(string) string) Config {
	secret := getenv("SECRET")
	if secret == "" {
		secret = "medifinder-dev-secret"
	}

	port := getenv("HTTP_PORT")
	if port == "" {
		port = "3000"
	}
	// Validate that port is numeric.
	if _, err := strconv.Atoi(port); err != nil {
		log.Warn().Str("value", port).Msg("invalid HTTP_PORT, defaulting to 3000")
		port = "3000"
	}

	dsn := getenv("DATABASE_DSN")
	if dsn == "" {
		dsn = "data/medifinder.db"
	}

	origins := []string{"*"}
	if raw := strings.TrimSpace(getenv("CORS_ORIGINS")); raw != "" {
		origins = origins[:0]
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	level := strings.ToLower(getenv("LOG_LEVEL"))
	if level == "" {
		level = "info"
	}
	format := strings.ToLower(getenv("LOG_FORMAT"))
	if format != "json" {
		format = "console"
	}

	validation := domain.StockValidation(strings.ToLower(getenv("STOCK_VALIDATION")))
	switch validation {
	case domain.StockStrict, domain.StockLegacy:
	case "":
		validation = domain.StockStrict
	default:
		log.Warn().Str("value", string(validation)).Msg("invalid STOCK_VALIDATION, defaulting to strict")
		validation = domain.StockStrict
	}

	ttl := defaultTokenTTL
	if raw := getenv("TOKEN_TTL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			log.Warn().Str("value", raw).Msg("invalid TOKEN_TTL, defaulting to 168h")
		} else {
			ttl = d
		}
	}

	return Config{
		Secret:          secret,
		DatabaseDSN:     dsn,
		HTTPPort:        port,
		CORSOrigins:     origins,
		LogLevel:        level,
		LogFormat:       format,
		StockValidation: validation,
		TokenTTL:        ttl,
	}
}
