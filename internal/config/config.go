package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	// Remote clinical reasoning service. AppID/AppKey are the two static
	// credential headers sent on every call.
	ReasonerBaseURL string `mapstructure:"REASONER_BASE_URL"`
	ReasonerAppID   string `mapstructure:"REASONER_APP_ID"`
	ReasonerAppKey  string `mapstructure:"REASONER_APP_KEY"`

	// StageTimeoutSecs bounds each individual call to the reasoning service.
	StageTimeoutSecs int `mapstructure:"STAGE_TIMEOUT_SECS"`

	AuthSecret   string `mapstructure:"AUTH_SECRET"`
	AuthIssuer   string `mapstructure:"AUTH_ISSUER"`
	AuthAudience string `mapstructure:"AUTH_AUDIENCE"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`

	RequestTimeoutSecs int `mapstructure:"REQUEST_TIMEOUT_SECS"`
}

// defaults holds the value applied to each setting when neither the
// environment nor the .env file provides one. Settings absent from this map
// are still bound so Unmarshal sees them.
var defaults = map[string]any{
	"PORT":                 "8000",
	"ENV":                  "development",
	"DATABASE_URL":         nil,
	"DB_MAX_CONNS":         20,
	"DB_MIN_CONNS":         5,
	"CORS_ORIGINS":         "http://localhost:3000",
	"REASONER_BASE_URL":    nil,
	"REASONER_APP_ID":      nil,
	"REASONER_APP_KEY":     nil,
	"STAGE_TIMEOUT_SECS":   10,
	"AUTH_SECRET":          nil,
	"AUTH_ISSUER":          nil,
	"AUTH_AUDIENCE":        nil,
	"RATE_LIMIT_RPS":       float64(100),
	"RATE_LIMIT_BURST":     200,
	"REQUEST_TIMEOUT_SECS": 60,
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	for key, def := range defaults {
		v.BindEnv(key)
		if def != nil {
			v.SetDefault(key, def)
		}
	}

	// A missing .env file is fine; the environment alone is enough.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Viper leaves comma-separated lists as a single string.
	if cfg.CORSOrigins == nil {
		if raw := v.GetString("CORS_ORIGINS"); raw != "" {
			cfg.CORSOrigins = strings.Split(raw, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// StageTimeout returns the per-stage deadline for reasoning-service calls.
func (c *Config) StageTimeout() time.Duration {
	return time.Duration(c.StageTimeoutSecs) * time.Second
}

// RequestTimeout returns the overall deadline applied to each HTTP request.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

// Validate checks that the configuration is safe to run. The reasoning-service
// credentials are validated once here, at process start, so the orchestrator
// never has to re-check them before individual calls. In non-development modes
// AUTH_SECRET must be set so that real JWT authentication is enforced.
func (c *Config) Validate() error {
	if c.ReasonerBaseURL == "" {
		return fmt.Errorf("REASONER_BASE_URL is required")
	}
	if c.ReasonerAppID == "" || c.ReasonerAppKey == "" {
		return fmt.Errorf("REASONER_APP_ID and REASONER_APP_KEY are required")
	}
	if !c.IsDev() && c.AuthSecret == "" {
		return fmt.Errorf("AUTH_SECRET is required when ENV is %q", c.Env)
	}
	if c.StageTimeoutSecs <= 0 {
		return fmt.Errorf("STAGE_TIMEOUT_SECS must be positive, got %d", c.StageTimeoutSecs)
	}
	return nil
}
