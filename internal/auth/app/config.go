package app

import (
	"os"
	"strconv"
	"time"

	"github.com/lumenlabs/membergate/internal/auth/service"
	"github.com/lumenlabs/membergate/pkg/cryptox"
	"github.com/lumenlabs/membergate/pkg/jwtx"
)

type Config struct {
	Issuer      string // Issuer claim for tokens (default: membergate)
	TokenSecret string // HS256 signing secret; generated per process when unset
	TokenTTL    time.Duration
	OTPTTL      time.Duration

	// SelfActionPolicy is "subject" or "role": what counts as acting on
	// yourself for the block/delete guards.
	SelfActionPolicy string

	AdminUsername string // Optional: seed admin on an empty database
	AdminEmail    string
	AdminPassword string

	DatabaseFile         string
	PepperFile           string
	Env                  string // Environment (dev, staging, prod) (default: dev)
	LogLevel             string
	LogFormat            string
	Port                 int
	ShutdownGracePeriod  time.Duration
	HousekeepingInterval time.Duration
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:      getEnvOrDefault("AUTH_ISSUER", "membergate"),
		TokenSecret: os.Getenv("AUTH_TOKEN_SECRET"),
		TokenTTL:    getEnvDurationOrDefault("AUTH_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		OTPTTL:      getEnvDurationOrDefault("AUTH_OTP_TTL", service.DefaultOTPTTL),

		SelfActionPolicy: getEnvOrDefault("AUTH_SELF_ACTION_POLICY", "subject"),

		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		DatabaseFile:         getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		PepperFile:           getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	if cfg.TokenSecret == "" {
		// A per-process secret keeps dev setups working; tokens do not
		// survive a restart without AUTH_TOKEN_SECRET set.
		if secret, err := cryptox.RandomSecret(32); err == nil {
			cfg.TokenSecret = secret
		}
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are read as minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
