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
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Host     string
	Port     string
	GinMode  string
	LogLevel string

	DatabaseURL       string
	DBDriver          string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBMigrate         bool

	JwtSecret            string
	JwtAlgorithm         string
	JwtExpirationMinutes int
	JwtIssuer            string

	DefaultStudentPassword string
	CORSAllowOrigins       []string
}

// LoadConfig reads the configuration and exits the process when it is invalid.
func LoadConfig() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using process environment")
	}

	cfg := &Config{
		Host:                   getenv("HOST", "127.0.0.1"),
		Port:                   getenv("PORT", "5000"),
		GinMode:                getenv("GIN_MODE", "release"),
		LogLevel:               getenv("LOG_LEVEL", "info"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		DBDriver:               strings.ToLower(getenv("DB_DRIVER", "postgres")),
		JwtSecret:              getenv("SECRET_KEY", os.Getenv("JWT_SECRET")),
		JwtAlgorithm:           strings.ToUpper(getenv("JWT_ALGORITHM", "HS256")),
		JwtIssuer:              getenv("JWT_ISSUER", "course-portal-api"),
		DefaultStudentPassword: getenv("DEFAULT_STUDENT_PASSWORD", "sunbeam"),
		CORSAllowOrigins:       splitList(getenv("CORS_ALLOW_ORIGINS", "*")),
	}

	var err error
	if cfg.JwtExpirationMinutes, err = getenvInt("JWT_EXPIRATION_MINUTES", 60); err != nil {
		return nil, err
	}
	if cfg.DBMaxOpenConns, err = getenvInt("DB_MAX_OPEN_CONNS", 5); err != nil {
		return nil, err
	}
	if cfg.DBMaxIdleConns, err = getenvInt("DB_MAX_IDLE_CONNS", 5); err != nil {
		return nil, err
	}
	if cfg.DBConnMaxLifetime, err = getenvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.DBMigrate, err = getenvBool("DB_MIGRATE", true); err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = buildDatabaseURL()
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JwtSecret == "" {
		return errors.New("SECRET_KEY environment variable is not set. This is critical for authentication")
	}
	switch c.JwtAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("unsupported JWT_ALGORITHM %q", c.JwtAlgorithm)
	}
	if c.JwtExpirationMinutes <= 0 {
		return errors.New("JWT_EXPIRATION_MINUTES must be positive")
	}
	switch c.DBDriver {
	case "postgres", "pgx":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("unsupported GIN_MODE %q", c.GinMode)
	}
	if c.DBMaxOpenConns <= 0 {
		return errors.New("DB_MAX_OPEN_CONNS must be positive")
	}
	if c.DefaultStudentPassword == "" {
		return errors.New("DEFAULT_STUDENT_PASSWORD must not be empty")
	}
	return nil
}

// TokenTTL is the lifetime of issued bearer tokens.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JwtExpirationMinutes) * time.Minute
}

func buildDatabaseURL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(getenv("DB_USER", "postgres"), getenv("DB_PASSWORD", "postgres")),
		Host:   getenv("DB_HOST", "localhost") + ":" + getenv("DB_PORT", "5432"),
		Path:   "/" + getenv("DB_NAME", "institute_management_db"),
	}
	q := url.Values{}
	q.Set("sslmode", getenv("DB_SSLMODE", "disable"))
	u.RawQuery = q.Encode()
	return u.String()
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) (int, error) {
	v := getenv(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

// getenvDuration accepts Go durations ("90s", "5m") or a bare number of seconds.
func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := getenv(key, "")
	if v == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := getenv(key, "")
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	return b, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
