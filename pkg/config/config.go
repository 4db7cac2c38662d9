package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env         string
	Port        int
	APIPrefix   string
	FrontendURL string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	SMTP     SMTPConfig
	Captcha  CaptchaConfig
	Quota    QuotaConfig
	Cleanup  CleanupConfig
	Cache    CacheConfig
	CORS     CORSConfig
	Log      LogConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds secrets and lifetimes for the three token kinds. Access
// and reset tokens are signed JWTs; refresh tokens are opaque secrets whose
// lifetime is tracked in the database.
type JWTConfig struct {
	Secret        string
	ResetSecret   string
	Issuer        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	ResetExpiry   time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// CaptchaConfig enables the reCAPTCHA check on signup when a secret is set.
type CaptchaConfig struct {
	SecretKey string
	VerifyURL string
}

// QuotaConfig bounds per-user folder creation by verification tier.
type QuotaConfig struct {
	FoldersUnverified int
	FoldersVerified   int
}

// CleanupConfig tunes the periodic sweep of dead tokens and stale signups.
type CleanupConfig struct {
	Interval            time.Duration
	UnverifiedRetention time.Duration
}

// CacheConfig governs the Redis-backed list cache.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.FrontendURL = strings.TrimRight(v.GetString("FRONTEND_URL"), "/")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:        v.GetString("JWT_SECRET"),
		ResetSecret:   v.GetString("JWT_RESET_SECRET"),
		Issuer:        v.GetString("JWT_ISSUER"),
		AccessExpiry:  parseDuration(v.GetString("ACCESS_TOKEN_EXPIRATION"), 30*time.Minute),
		RefreshExpiry: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 12*time.Hour),
		ResetExpiry:   parseDuration(v.GetString("RESET_TOKEN_EXPIRATION"), 30*time.Minute),
	}

	cfg.SMTP = SMTPConfig{
		Host:     v.GetString("SMTP_HOST"),
		Port:     v.GetInt("SMTP_PORT"),
		User:     v.GetString("EMAIL_USER"),
		Password: v.GetString("EMAIL_PASS"),
		From:     v.GetString("EMAIL_FROM"),
	}
	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.User
	}

	cfg.Captcha = CaptchaConfig{
		SecretKey: v.GetString("RECAPTCHA_SECRET_KEY"),
		VerifyURL: v.GetString("RECAPTCHA_VERIFY_URL"),
	}

	cfg.Quota = QuotaConfig{
		FoldersUnverified: v.GetInt("FOLDER_QUOTA_UNVERIFIED"),
		FoldersVerified:   v.GetInt("FOLDER_QUOTA_VERIFIED"),
	}

	cfg.Cleanup = CleanupConfig{
		Interval:            parseDuration(v.GetString("CLEANUP_INTERVAL"), 24*time.Hour),
		UnverifiedRetention: parseDuration(v.GetString("UNVERIFIED_RETENTION"), 72*time.Hour),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_LIST_CACHE"),
		TTL:     parseDuration(v.GetString("LIST_CACHE_TTL"), 5*time.Minute),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "taskhive")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_RESET_SECRET", "dev_reset_secret")
	v.SetDefault("JWT_ISSUER", "taskhive-api")
	v.SetDefault("ACCESS_TOKEN_EXPIRATION", "30m")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "12h")
	v.SetDefault("RESET_TOKEN_EXPIRATION", "30m")

	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("EMAIL_USER", "")
	v.SetDefault("EMAIL_PASS", "")
	v.SetDefault("EMAIL_FROM", "")

	v.SetDefault("RECAPTCHA_SECRET_KEY", "")
	v.SetDefault("RECAPTCHA_VERIFY_URL", "https://www.google.com/recaptcha/api/siteverify")

	v.SetDefault("FOLDER_QUOTA_UNVERIFIED", 3)
	v.SetDefault("FOLDER_QUOTA_VERIFIED", 25)

	v.SetDefault("CLEANUP_INTERVAL", "24h")
	v.SetDefault("UNVERIFIED_RETENTION", "72h")

	v.SetDefault("ENABLE_LIST_CACHE", false)
	v.SetDefault("LIST_CACHE_TTL", "5m")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
