package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/apperr"
)

const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
)

// providerDefaults задает адрес и модель, если AI_BASE_URL и AI_MODEL не указаны.
var providerDefaults = map[string]struct{ baseURL, model, keyEnv string }{
	ProviderGemini: {"https://generativelanguage.googleapis.com/v1beta", "gemini-2.5-flash", "GEMINI_API_KEY"},
	ProviderGroq:   {"https://api.groq.com/openai/v1", "llama-3.1-8b-instant", "GROQ_API_KEY"},
}

type Config struct {
	Env      string
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	AI       AIConfig
	CORS     CORSConfig
	Admin    AdminConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig описывает PostgreSQL. URL, если задан, важнее отдельных полей.
type DatabaseConfig struct {
	URL             string
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	JWTSecret          string
	JWTIssuer          string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	RateLimitPerMinute int
	RateLimitBurst     int
}

// AIConfig describes the external generative API. APIKey never leaves the server.
type AIConfig struct {
	Provider           string
	APIKey             string
	BaseURL            string
	Model              string
	Timeout            time.Duration
	RateLimitPerMinute int
	RateLimitBurst     int
	MaxOutputTokens    int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type AdminConfig struct {
	Emails []string
}

// Load читает окружение и необязательный .env (ENV_FILE переопределяет путь).
// Все найденные ошибки возвращаются разом с видом apperr.KindConfiguration:
// без ключа модели сервис не стартует.
func Load() (Config, error) {
	const op = "config.load"

	if err := loadEnvFile(); err != nil {
		return Config{}, apperr.Wrap(apperr.KindConfiguration, op, err)
	}

	var env envReader
	cfg := Config{
		Env: env.str("APP_ENV", "local"),
		Server: ServerConfig{
			Host:        env.str("SERVER_HOST", "0.0.0.0"),
			Port:        env.positiveInt("SERVER_PORT", 8080),
			ReadTimeout: env.duration("SERVER_READ_TIMEOUT", 5*time.Second),
			// Ответ чата идет потоком, таймаут записи покрывает весь ход модели.
			WriteTimeout: env.duration("SERVER_WRITE_TIMEOUT", 90*time.Second),
			IdleTimeout:  env.duration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			URL:             env.str("DATABASE_URL", ""),
			Host:            env.str("DB_HOST", "localhost"),
			Port:            env.positiveInt("DB_PORT", 5432),
			User:            env.str("DB_USER", "wellness"),
			Password:        env.str("DB_PASSWORD", "wellness"),
			Name:            env.str("DB_NAME", "smart_diet"),
			SSLMode:         env.str("DB_SSLMODE", "disable"),
			MaxOpenConns:    env.positiveInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    env.positiveInt("DB_MAX_IDLE_CONNS", 2),
			ConnMaxIdleTime: env.duration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			ConnMaxLifetime: env.duration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret:          env.str("JWT_SECRET", ""),
			JWTIssuer:          env.str("JWT_ISSUER", "smart-diet"),
			AccessTokenTTL:     env.duration("JWT_ACCESS_TTL", 15*time.Minute),
			RefreshTokenTTL:    env.duration("JWT_REFRESH_TTL", 30*24*time.Hour),
			RateLimitPerMinute: env.positiveInt("AUTH_RATE_LIMIT_PER_MINUTE", 60),
			RateLimitBurst:     env.positiveInt("AUTH_RATE_LIMIT_BURST", 10),
		},
		AI: loadAI(&env),
		CORS: CORSConfig{
			AllowedOrigins: env.list("CORS_ALLOWED_ORIGINS", false),
		},
		Admin: AdminConfig{
			Emails: env.list("ADMIN_EMAILS", true),
		},
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{"*"}
	}

	cfg.check(&env)
	if err := env.err(); err != nil {
		return cfg, apperr.Wrap(apperr.KindConfiguration, op, err)
	}
	return cfg, nil
}

func loadAI(env *envReader) AIConfig {
	provider := strings.ToLower(strings.TrimSpace(env.str("AI_PROVIDER", ProviderGemini)))
	defaults, known := providerDefaults[provider]
	if !known {
		env.fail(fmt.Errorf("AI_PROVIDER must be %q or %q", ProviderGemini, ProviderGroq))
	}

	return AIConfig{
		Provider:           provider,
		APIKey:             env.firstOf("AI_API_KEY", defaults.keyEnv, "API_KEY"),
		BaseURL:            env.str("AI_BASE_URL", defaults.baseURL),
		Model:              env.str("AI_MODEL", defaults.model),
		Timeout:            env.duration("AI_TIMEOUT", 60*time.Second),
		RateLimitPerMinute: env.positiveInt("AI_RATE_LIMIT_PER_MINUTE", 30),
		RateLimitBurst:     env.positiveInt("AI_RATE_LIMIT_BURST", 10),
		MaxOutputTokens:    env.positiveInt("AI_MAX_OUTPUT_TOKENS", 2048),
	}
}

func (c Config) check(env *envReader) {
	if c.AI.APIKey == "" {
		env.fail(errors.New("AI_API_KEY is required"))
	}
	if c.Auth.JWTSecret == "" {
		env.fail(errors.New("JWT_SECRET is required"))
	}
	if c.Database.URL == "" && (c.Database.Host == "" || c.Database.User == "" || c.Database.Name == "") {
		env.fail(errors.New("DATABASE_URL or DB_HOST, DB_USER and DB_NAME are required"))
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		env.fail(errors.New("DB_MAX_IDLE_CONNS cannot exceed DB_MAX_OPEN_CONNS"))
	}
}

// DSN возвращает строку подключения к базе данных.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}

	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return dsn.String()
}

// envReader читает переменные окружения и копит ошибки разбора.
type envReader struct {
	errs []error
}

func (r *envReader) fail(err error) {
	r.errs = append(r.errs, err)
}

func (r *envReader) err() error {
	return errors.Join(r.errs...)
}

func (r *envReader) str(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// firstOf возвращает первое непустое значение из перечисленных переменных.
func (r *envReader) firstOf(keys ...string) string {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return ""
}

func (r *envReader) positiveInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	switch {
	case err != nil:
		r.fail(fmt.Errorf("%s must be an integer: %w", key, err))
	case parsed <= 0:
		r.fail(fmt.Errorf("%s must be greater than 0", key))
	}
	return parsed
}

func (r *envReader) duration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	switch {
	case err != nil:
		r.fail(fmt.Errorf("%s must be a duration: %w", key, err))
	case parsed <= 0:
		r.fail(fmt.Errorf("%s must be greater than 0", key))
	}
	return parsed
}

// list разбирает значения через запятую. lower приводит их к нижнему регистру.
func (r *envReader) list(key string, lower bool) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if lower {
			part = strings.ToLower(part)
		}
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func loadEnvFile() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}
