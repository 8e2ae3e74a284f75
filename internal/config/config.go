package config

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port              string        `mapstructure:"PORT"`
	Env               string        `mapstructure:"ENV"`
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	DBMaxConns        int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns        int32         `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins       []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS      float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst    int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout    time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	BodyLimit         string        `mapstructure:"BODY_LIMIT"`
	LLMBaseURL        string        `mapstructure:"LLM_BASE_URL"`
	LLMAPIKey         string        `mapstructure:"LLM_API_KEY"`
	LLMTimeout        time.Duration `mapstructure:"LLM_TIMEOUT"`
	HistoryBackend    string        `mapstructure:"HISTORY_BACKEND"`
	RedisURL          string        `mapstructure:"REDIS_URL"`
	HistoryTTL        time.Duration `mapstructure:"HISTORY_TTL"`
	AuthSigningKey    string        `mapstructure:"AUTH_SIGNING_KEY"`
	AuthTokenTTL      time.Duration `mapstructure:"AUTH_TOKEN_TTL"`
	DiseaseModelURL   string        `mapstructure:"DISEASE_MODEL_URL"`
	FetalModelURL     string        `mapstructure:"FETAL_MODEL_URL"`
	InferenceTimeout  time.Duration `mapstructure:"INFERENCE_TIMEOUT"`
	UploadDir         string        `mapstructure:"UPLOAD_DIR"`
	ConsultDoctors    []string      `mapstructure:"CONSULT_DOCTORS"`
	ExposeErrorDetail string        `mapstructure:"EXPOSE_ERROR_DETAIL"`
}

var envKeys = []string{
	"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "REQUEST_TIMEOUT", "BODY_LIMIT",
	"LLM_BASE_URL", "LLM_API_KEY", "LLM_TIMEOUT",
	"HISTORY_BACKEND", "REDIS_URL", "HISTORY_TTL",
	"AUTH_SIGNING_KEY", "AUTH_TOKEN_TTL",
	"DISEASE_MODEL_URL", "FETAL_MODEL_URL", "INFERENCE_TIMEOUT",
	"UPLOAD_DIR", "CONSULT_DOCTORS", "EXPOSE_ERROR_DETAIL",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "5000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("REQUEST_TIMEOUT", "120s")
	v.SetDefault("BODY_LIMIT", "20M")
	v.SetDefault("LLM_BASE_URL", "http://127.0.0.1:11434/v1")
	v.SetDefault("LLM_API_KEY", "ollama")
	v.SetDefault("LLM_TIMEOUT", "90s")
	v.SetDefault("HISTORY_BACKEND", "memory")
	v.SetDefault("HISTORY_TTL", "24h")
	v.SetDefault("AUTH_TOKEN_TTL", "12h")
	v.SetDefault("DISEASE_MODEL_URL", "http://127.0.0.1:8601")
	v.SetDefault("FETAL_MODEL_URL", "http://127.0.0.1:8602")
	v.SetDefault("INFERENCE_TIMEOUT", "60s")
	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("CONSULT_DOCTORS", "Dr. Emily Carter,Dr. Ben Casey,Dr. Christina Yang,Dr. John Watson")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(cfg.CORSOrigins, v.GetString("CORS_ORIGINS"))
	cfg.ConsultDoctors = splitList(cfg.ConsultDoctors, v.GetString("CONSULT_DOCTORS"))
	cfg.HistoryBackend = strings.ToLower(strings.TrimSpace(cfg.HistoryBackend))

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: running in DEVELOPMENT mode (ENV=development); internal error detail is returned to clients.")
	}

	return cfg, nil
}

// splitList normalises a list setting that may have been decoded as a single
// comma-joined element.
func splitList(decoded []string, raw string) []string {
	if len(decoded) == 1 && strings.Contains(decoded[0], ",") {
		raw = decoded[0]
		decoded = nil
	}
	if len(decoded) == 0 && raw != "" {
		decoded = strings.Split(raw, ",")
	}
	out := make([]string, 0, len(decoded))
	for _, s := range decoded {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ExposeErrors reports whether internal fault text is echoed back to chat
// clients. EXPOSE_ERROR_DETAIL wins when set; otherwise only development
// mode exposes it.
func (c *Config) ExposeErrors() bool {
	if c.ExposeErrorDetail != "" {
		if b, err := strconv.ParseBool(c.ExposeErrorDetail); err == nil {
			return b
		}
	}
	return c.IsDev()
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	switch c.HistoryBackend {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when HISTORY_BACKEND is \"redis\"")
		}
	default:
		return fmt.Errorf("HISTORY_BACKEND must be \"memory\" or \"redis\", got %q", c.HistoryBackend)
	}

	if c.AuthSigningKey != "" && len(c.AuthSigningKey) < 32 {
		return fmt.Errorf("AUTH_SIGNING_KEY must be at least 32 bytes, got %d", len(c.AuthSigningKey))
	}
	if c.IsProduction() && c.AuthSigningKey == "" {
		return fmt.Errorf("AUTH_SIGNING_KEY is required in production")
	}

	if c.LLMBaseURL == "" {
		return fmt.Errorf("LLM_BASE_URL is required")
	}
	if c.UploadDir == "" {
		return fmt.Errorf("UPLOAD_DIR is required")
	}
	if len(c.ConsultDoctors) == 0 {
		return fmt.Errorf("CONSULT_DOCTORS must list at least one name")
	}
	if c.RequestTimeout > 0 && c.LLMTimeout > 0 && c.RequestTimeout <= c.LLMTimeout {
		return fmt.Errorf("REQUEST_TIMEOUT (%s) must exceed LLM_TIMEOUT (%s) so chat replies finish before the request deadline", c.RequestTimeout, c.LLMTimeout)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative")
	}

	return nil
}
