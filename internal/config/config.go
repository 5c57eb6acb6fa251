// Package config reads process settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	CacheMemory     = "memory"
	CacheRedis      = "redis"

	minOnboardingGateTTL = 3 * time.Minute
	onboardingGateSlack  = time.Minute
)

var (
	ErrMissingJWTSecret = errors.New("JWT_SECRET must be set outside development")
	ErrUnknownDriver    = errors.New("unknown driver")
	ErrInvalidAITimeout = errors.New("AI_ATTEMPT_TIMEOUT must be positive")
)

// DefaultModels is tried in order until one model answers.
var DefaultModels = []string{
	"gemini-3-pro-preview",
	"gemini-exp-1206",
	"gemini-2.0-flash-exp",
	"gemini-flash-latest",
}

type DBConfig struct {
	User         string
	Password     string
	Host         string
	Port         string
	Name         string
	MaxOpenConns int
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Name)
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

type AIConfig struct {
	APIKey         string
	Models         []string
	AttemptTimeout time.Duration
}

// FallbackBudget is the longest a single fallback walk can take: every
// model timing out in turn.
func (c AIConfig) FallbackBudget() time.Duration {
	return c.AttemptTimeout * time.Duration(len(c.Models))
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type Config struct {
	Env     string
	Port    string
	Storage string
	Cache   string

	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	AI        AIConfig
	RateLimit RateLimitConfig
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("PORT", "8080")
	v.SetDefault("STORAGE_DRIVER", StoragePostgres)
	v.SetDefault("CACHE_DRIVER", CacheRedis)

	v.SetDefault("DB_USER", "twomoro_user")
	v.SetDefault("DB_PASSWORD", "secret")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "twomoro_db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "2moro-engine")
	v.SetDefault("JWT_TTL", "720h")

	v.SetDefault("GEMINI_KEY", "")
	v.SetDefault("GOOGLE_GENERATIVE_AI_API_KEY", "")
	v.SetDefault("AI_MODELS", strings.Join(DefaultModels, ","))
	v.SetDefault("AI_ATTEMPT_TIMEOUT", "30s")

	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")
}

// Load reads envFiles (missing files are ignored) and then the process
// environment, which always wins.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Env:     strings.ToLower(v.GetString("APP_ENV")),
		Port:    v.GetString("PORT"),
		Storage: strings.ToLower(v.GetString("STORAGE_DRIVER")),
		Cache:   strings.ToLower(v.GetString("CACHE_DRIVER")),
		DB: DBConfig{
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetString("DB_PORT"),
			Name:         v.GetString("DB_NAME"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			Issuer: v.GetString("JWT_ISSUER"),
			TTL:    v.GetDuration("JWT_TTL"),
		},
		AI: AIConfig{
			APIKey:         firstNonEmpty(v.GetString("GEMINI_KEY"), v.GetString("GOOGLE_GENERATIVE_AI_API_KEY")),
			Models:         splitList(v.GetString("AI_MODELS")),
			AttemptTimeout: v.GetDuration("AI_ATTEMPT_TIMEOUT"),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   v.GetDuration("RATE_LIMIT_WINDOW"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OnboardingGateTTL is how long one onboarding transition may hold the
// per-user gate. It covers a full fallback walk plus persistence, so the
// gate never expires under a transition that is still running.
func (c *Config) OnboardingGateTTL() time.Duration {
	return max(c.AI.FallbackBudget()+onboardingGateSlack, minOnboardingGateTTL)
}

func (c *Config) validate() error {
	switch c.Storage {
	case StorageMemory, StoragePostgres:
	default:
		return fmt.Errorf("%w: STORAGE_DRIVER=%q", ErrUnknownDriver, c.Storage)
	}

	switch c.Cache {
	case CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("%w: CACHE_DRIVER=%q", ErrUnknownDriver, c.Cache)
	}

	if c.AI.AttemptTimeout <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidAITimeout, c.AI.AttemptTimeout)
	}

	if c.JWT.Secret == "" {
		if !c.IsDevelopment() {
			return ErrMissingJWTSecret
		}
		c.JWT.Secret = "dev-only-secret"
	}

	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
