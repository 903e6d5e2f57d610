package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/jas-4484/eduhub/internal/errors"
	"github.com/jas-4484/eduhub/internal/utils"
)

type Config struct {
	Port         string
	MongoURI     string
	DatabaseName string
	Origin       string
	JWTSecret    string
	LogLevel     string
	LogFormat    string
	// QueryTimeout bounds every store call made for one HTTP request.
	QueryTimeout time.Duration
	// EnsureIndexes creates the catalogued indexes at startup.
	EnsureIndexes   bool
	SMTP            utils.SMTPConfig
	AlertRecipients []string
}

// LoadConfig reads .env when present, then the process environment.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, errors.Wrap(err, "load .env")
	}

	timeout, err := time.ParseDuration(getEnv("QUERY_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, errors.Wrap(err, "QUERY_TIMEOUT")
	}
	ensure, err := strconv.ParseBool(getEnv("ENSURE_INDEXES", "true"))
	if err != nil {
		return Config{}, errors.Wrap(err, "ENSURE_INDEXES")
	}
	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return Config{}, errors.Wrap(err, "SMTP_PORT")
	}

	cfg := Config{
		Port:          getEnv("PORT", "8000"),
		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DatabaseName:  getEnv("DATABASE_NAME", "eduhub"),
		Origin:        getEnv("ORIGIN", "http://localhost:3000"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		QueryTimeout:  timeout,
		EnsureIndexes: ensure,
		SMTP: utils.SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     smtpPort,
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
		},
		AlertRecipients: splitList(os.Getenv("ALERT_RECIPIENTS")),
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
