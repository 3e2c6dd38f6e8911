// Package config loads application configuration from environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable.
type Config struct {
	Env  string // APP_ENV (dev, test, prod)
	Port string // APP_PORT

	DBDriver   string // DB_DRIVER: mysql or sqlite
	DBUser     string
	DBPass     string // may be empty
	DBHost     string
	DBPort     string
	DBName     string
	SQLitePath string // SQLITE_PATH, used when DBDriver is sqlite

	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int

	FrontendURL string   // base of the customer page encoded in bill QR codes
	CORSOrigins []string // CORS_ORIGINS, comma separated; defaults to FrontendURL
	LogLevel    string

	RabbitURL            string // RABBITMQ_URL; empty disables event publishing
	AuditConsumerEnabled bool
	AuditLogDir          string
}

// LoadDotEnv reads the given .env files (".env" when none are named) into
// the process environment. Variables already set win. Missing files are
// not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads configuration values from environment variables. Every
// missing or malformed required variable is reported in one error.
func Load() (Config, error) {
	var r reader
	cfg := Config{
		Env:            r.must("APP_ENV"),
		Port:           r.must("APP_PORT"),
		DBDriver:       strings.ToLower(envStr("DB_DRIVER", "mysql")),
		DBPass:         os.Getenv("DB_PASS"),
		JWTSecret:      r.must("JWT_SECRET"),
		AccessTTLMin:   r.mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: r.mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     r.mustInt("BCRYPT_COST"),

		FrontendURL: strings.TrimRight(envStr("FRONTEND_URL", "http://localhost:3000"), "/"),
		LogLevel:    envStr("LOG_LEVEL", "info"),

		RabbitURL:            os.Getenv("RABBITMQ_URL"),
		AuditConsumerEnabled: envBool("AUDIT_CONSUMER_ENABLED", false),
		AuditLogDir:          envStr("AUDIT_LOG_DIR", "logs"),
	}

	switch cfg.DBDriver {
	case "mysql":
		cfg.DBUser = r.must("DB_USER")
		cfg.DBHost = r.must("DB_HOST")
		cfg.DBPort = r.must("DB_PORT")
		cfg.DBName = r.must("DB_NAME")
	case "sqlite", "sqlite3":
		cfg.SQLitePath = envStr("SQLITE_PATH", "splitbill.db")
	default:
		r.invalid = append(r.invalid, fmt.Sprintf("DB_DRIVER=%q", cfg.DBDriver))
	}

	cfg.CORSOrigins = splitList(os.Getenv("CORS_ORIGINS"))
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{cfg.FrontendURL}
	}
	return cfg, r.err()
}

// reader collects problems with required variables so that one run
// reports all of them.
type reader struct {
	missing []string
	invalid []string
}

// must retrieves the value of a required environment variable.
func (r *reader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		r.missing = append(r.missing, key)
	}
	return v
}

// mustInt is like must but converts the value into an integer.
func (r *reader) mustInt(key string) int {
	s := r.must(key)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		r.invalid = append(r.invalid, fmt.Sprintf("%s=%q", key, s))
	}
	return n
}

func (r *reader) err() error {
	var parts []string
	if len(r.missing) > 0 {
		parts = append(parts, "missing required env vars: "+strings.Join(r.missing, ", "))
	}
	if len(r.invalid) > 0 {
		parts = append(parts, "invalid values: "+strings.Join(r.invalid, ", "))
	}
	if len(parts) == 0 {
		return nil
	}
	return errors.New(strings.Join(parts, "; "))
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.TrimRight(p, "/"))
		}
	}
	return out
}
