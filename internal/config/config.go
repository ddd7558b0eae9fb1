package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName      string
	AppEnv       string
	AppURL       string
	Port         string
	SupportEmail string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret        string
	JWTExpiry        time.Duration
	ResetTokenExpiry time.Duration

	// Email
	EmailFrom    string
	ResendAPIKey string

	// Uploads
	UploadMaxBytes int64

	// Observability (optional)
	SentryDSN string

	// Storage backend: "db" keeps blob bytes in the public_files table,
	// "s3" stores them in an S3-compatible bucket.
	StorageBackend         string
	S3Region               string
	S3Bucket               string
	S3AccessKey            string
	S3SecretKey            string
	S3Endpoint             string
	S3PresignExpiryPublic  time.Duration
	S3PresignExpiryPrivate time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		AppName:      envString("APP_NAME", "Pawloan"),
		AppEnv:       envRequired("APP_ENV"), // 'development' or 'production'
		AppURL:       envRequired("APP_URL"), // base URL for links in emails
		Port:         envString("PORT", "8090"),
		SupportEmail: envString("SUPPORT_EMAIL", "hello@pawloan.example"),

		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/pawloan.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		JWTSecret:        envRequired("JWT_SECRET"),
		JWTExpiry:        envDuration("JWT_EXPIRY", 168*time.Hour),
		ResetTokenExpiry: envDuration("RESET_TOKEN_EXPIRY", 30*time.Minute),

		EmailFrom:    envString("EMAIL_FROM", "noreply@pawloan.example"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),

		UploadMaxBytes: envInt64("UPLOAD_MAX_BYTES", 8<<20),

		SentryDSN: envString("SENTRY_DSN", ""),

		StorageBackend:         envString("STORAGE_BACKEND", "db"),
		S3Region:               envString("S3_REGION", ""),
		S3Bucket:               envString("S3_BUCKET", ""),
		S3AccessKey:            envString("S3_ACCESS_KEY", ""),
		S3SecretKey:            envString("S3_SECRET_KEY", ""),
		S3Endpoint:             envString("S3_ENDPOINT", ""),
		S3PresignExpiryPublic:  envDuration("S3_PRESIGN_EXPIRY_PUBLIC", 168*time.Hour),
		S3PresignExpiryPrivate: envDuration("S3_PRESIGN_EXPIRY_PRIVATE", 1*time.Hour),
	}

	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures services with dev fallbacks are configured
// for real deployments.
func validateProduction(cfg *Config) {
	if cfg.ResendAPIKey == "" {
		slog.Error("production deployment requires RESEND_API_KEY",
			"hint", "set APP_ENV=development for local testing with email log mode")
		os.Exit(1)
	}
	if cfg.StorageBackend == "s3" && (cfg.S3Bucket == "" || cfg.S3Region == "") {
		slog.Error("STORAGE_BACKEND=s3 requires S3_BUCKET and S3_REGION")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt64(key string, def int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		slog.Warn("config invalid integer, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Sanitized returns a copy with only public fields, safe to put in a
// request context.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:      c.AppName,
		AppEnv:       c.AppEnv,
		AppURL:       c.AppURL,
		Port:         c.Port,
		SupportEmail: c.SupportEmail,
		EmailFrom:    c.EmailFrom,
	}
}
