package authbridge

import (
	"os"
	"strconv"
	"strings"
	"time"

	"authbridge/handlers"
	"authbridge/mail"
	"authbridge/ratelimit"
	"authbridge/service"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host     string
	Port     string
	BasePath string
}

type DatabaseConfig struct {
	DSN string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// JWTConfig configures the token manager and the rotation grace period.
type JWTConfig struct {
	Enabled          bool
	Secret           string
	ExpiresIn        time.Duration
	RefreshExpiresIn time.Duration
	SessionExpiresIn time.Duration
	GracePeriod      time.Duration
}

// Config is the explicit process-wide configuration object, constructed
// once at start and passed by reference. No package globals.
type Config struct {
	Server          ServerConfig
	Database        DatabaseConfig
	Redis           RedisConfig
	JWT             JWTConfig
	RateLimit       ratelimit.Config
	Auth            service.AuthConfig
	Identity        service.IdentityConfig
	LegacyEndpoints handlers.LegacyEndpointsConfig
	Mail            mail.Config
	LogLevel        string
}

// DefaultConfig returns the baseline every load merges into.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "0.0.0.0",
			Port:     "8080",
			BasePath: "/api/auth",
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: "6379",
		},
		JWT: JWTConfig{
			Enabled:          true,
			Secret:           "change_me",
			ExpiresIn:        15 * time.Minute,
			RefreshExpiresIn: 30 * 24 * time.Hour,
			SessionExpiresIn: 7 * 24 * time.Hour,
			GracePeriod:      5 * time.Second,
		},
		RateLimit: ratelimit.DefaultConfig(),
		Auth: service.AuthConfig{
			DefaultPhoneRegion: "US",
		},
		Identity: service.IdentityConfig{
			Enabled:    true,
			SessionTTL: 7 * 24 * time.Hour,
		},
		LegacyEndpoints: handlers.LegacyEndpointsConfig{
			Enabled: true,
			REST:    true,
		},
		LogLevel: "info",
	}
}

// LoadConfig merges environment overrides into the defaults.
func LoadConfig() *Config {
	cfg := DefaultConfig()

	cfg.Server.Host = getEnv("AUTH_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnv("AUTH_PORT", cfg.Server.Port)
	cfg.Server.BasePath = getEnv("AUTH_BASE_PATH", cfg.Server.BasePath)

	cfg.Database.DSN = getEnv("AUTH_DATABASE_DSN", cfg.Database.DSN)

	cfg.Redis.Host = getEnv("REDIS_HOST", cfg.Redis.Host)
	cfg.Redis.Port = getEnv("REDIS_PORT", cfg.Redis.Port)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvInt("REDIS_DB", cfg.Redis.DB)

	cfg.JWT.Enabled = getEnvBool("AUTH_JWT_ENABLED", cfg.JWT.Enabled)
	cfg.JWT.Secret = getEnv("AUTH_JWT_SECRET", cfg.JWT.Secret)
	cfg.JWT.ExpiresIn = getEnvDuration("AUTH_JWT_EXPIRES_IN", cfg.JWT.ExpiresIn)
	cfg.JWT.RefreshExpiresIn = getEnvDuration("AUTH_JWT_REFRESH_EXPIRES_IN", cfg.JWT.RefreshExpiresIn)
	cfg.JWT.SessionExpiresIn = getEnvDuration("AUTH_JWT_SESSION_EXPIRES_IN", cfg.JWT.SessionExpiresIn)
	cfg.JWT.GracePeriod = getEnvDuration("AUTH_JWT_GRACE_PERIOD", cfg.JWT.GracePeriod)

	cfg.RateLimit.Enabled = getEnvBool("AUTH_RATE_LIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.Max = getEnvInt("AUTH_RATE_LIMIT_MAX", cfg.RateLimit.Max)
	cfg.RateLimit.WindowSeconds = getEnvInt("AUTH_RATE_LIMIT_WINDOW_SECONDS", cfg.RateLimit.WindowSeconds)
	cfg.RateLimit.Message = getEnv("AUTH_RATE_LIMIT_MESSAGE", cfg.RateLimit.Message)
	cfg.RateLimit.StrictEndpoints = getEnvList("AUTH_RATE_LIMIT_STRICT_ENDPOINTS", cfg.RateLimit.StrictEndpoints)
	cfg.RateLimit.SkipEndpoints = getEnvList("AUTH_RATE_LIMIT_SKIP_ENDPOINTS", cfg.RateLimit.SkipEndpoints)

	cfg.Auth.DisableSignUp = getEnvBool("AUTH_DISABLE_SIGN_UP", cfg.Auth.DisableSignUp)
	cfg.Auth.RequireTerms = getEnvBool("AUTH_REQUIRE_TERMS", cfg.Auth.RequireTerms)
	cfg.Auth.RequireEmailVerification = getEnvBool("AUTH_REQUIRE_EMAIL_VERIFICATION", cfg.Auth.RequireEmailVerification)
	cfg.Auth.DefaultPhoneRegion = getEnv("AUTH_DEFAULT_PHONE_REGION", cfg.Auth.DefaultPhoneRegion)

	cfg.Identity.Enabled = getEnvBool("AUTH_IDENTITY_ENABLED", cfg.Identity.Enabled)
	cfg.Identity.SessionTTL = getEnvDuration("AUTH_IDENTITY_SESSION_TTL", cfg.Identity.SessionTTL)
	cfg.Identity.LoudSyncFailures = getEnvBool("AUTH_IDENTITY_LOUD_SYNC_FAILURES", cfg.Identity.LoudSyncFailures)
	cfg.Identity.TwoFactor = getEnvBool("AUTH_IDENTITY_TWO_FACTOR", cfg.Identity.TwoFactor)
	cfg.Identity.Passkey = getEnvBool("AUTH_IDENTITY_PASSKEY", cfg.Identity.Passkey)
	cfg.Identity.SocialLogin = getEnvBool("AUTH_IDENTITY_SOCIAL_LOGIN", cfg.Identity.SocialLogin)

	cfg.LegacyEndpoints.Enabled = getEnvBool("AUTH_LEGACY_ENABLED", cfg.LegacyEndpoints.Enabled)
	cfg.LegacyEndpoints.REST = getEnvBool("AUTH_LEGACY_REST", cfg.LegacyEndpoints.REST)

	cfg.Mail.Host = getEnv("SMTP_HOST", cfg.Mail.Host)
	cfg.Mail.Port = getEnv("SMTP_PORT", cfg.Mail.Port)
	cfg.Mail.User = getEnv("SMTP_USER", cfg.Mail.User)
	cfg.Mail.Password = getEnv("SMTP_PASS", cfg.Mail.Password)
	cfg.Mail.AppURL = getEnv("APP_URL", cfg.Mail.AppURL)

	cfg.LogLevel = getEnv("AUTH_LOG_LEVEL", cfg.LogLevel)

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	}
	return fallback
}
