package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	BackendMemory   = "memory"
	BackendBolt     = "bolt"
	BackendPostgres = "postgres"

	minJWTSecret = 32
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Catalog  CatalogConfig
	Postgres PostgresConfig
	Auth     AuthConfig
	Metrics  MetricsConfig
}

type ServerConfig struct {
	AppEnv            string
	Port              string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type CatalogConfig struct {
	Backend      string
	ResetOnStart bool
	SnapshotKey  string
	SeedPath     string
	BoltPath     string
	NodeID       int
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	JWTSecret     string
	AdminEmail    string
	AdminPassword string
	TokenTTL      time.Duration
	LoginLimit    int
}

type MetricsConfig struct {
	Enabled bool
	Token   string
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:            getEnv("APP_ENV", "dev"),
			Port:              getEnv("PORT", "8082"),
			ReadHeaderTimeout: getEnvDuration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
			ShutdownTimeout:   getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "info"),
			Encoding:          getEnv("LOGGER_ENCODING", "json"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Catalog: CatalogConfig{
			Backend:      strings.ToLower(getEnv("CATALOG_BACKEND", BackendMemory)),
			ResetOnStart: getEnvBool("CATALOG_RESET_ON_START", true),
			SnapshotKey:  getEnv("CATALOG_SNAPSHOT_KEY", "products_data"),
			SeedPath:     getEnv("CATALOG_SEED_PATH", ""),
			BoltPath:     getEnv("CATALOG_BOLT_PATH", "catalog.db"),
			NodeID:       getEnvInt("CATALOG_NODE_ID", 1),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5432"),
			User:            getEnv("POSTGRES_USER", "storefront"),
			Password:        getEnv("POSTGRES_PASSWORD", "storefront"),
			DBName:          getEnv("POSTGRES_DB", "storefront"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 5),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: getEnvDuration("POSTGRES_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", ""),
			AdminEmail:    getEnv("ADMIN_EMAIL", ""),
			AdminPassword: getEnv("ADMIN_PASSWORD", ""),
			TokenTTL:      getEnvDuration("AUTH_TOKEN_TTL", 15*time.Minute),
			LoginLimit:    getEnvInt("LOGIN_LIMIT_PER_MIN", 5),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Token:   getEnv("METRICS_TOKEN", ""),
		},
	}
}

func (c *Config) Validate() error {
	switch c.Catalog.Backend {
	case BackendMemory, BackendPostgres:
	case BackendBolt:
		if c.Catalog.BoltPath == "" {
			return errors.New("CATALOG_BOLT_PATH is required for the bolt backend")
		}
	default:
		return errors.Errorf("unknown CATALOG_BACKEND %q", c.Catalog.Backend)
	}

	if c.Catalog.NodeID < 0 || c.Catalog.NodeID > 1023 {
		return errors.Errorf("CATALOG_NODE_ID %d out of range 0..1023", c.Catalog.NodeID)
	}

	if c.AdminEnabled() && len(c.Auth.JWTSecret) < minJWTSecret {
		return errors.Errorf("JWT_SECRET must be at least %d chars when an admin is configured", minJWTSecret)
	}
	return nil
}

// AdminEnabled reports whether admin credentials were configured. Without
// them the catalog is served read-only.
func (c *Config) AdminEnabled() bool {
	return c.Auth.AdminEmail != "" && c.Auth.AdminPassword != ""
}

func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "dev" || c.Server.AppEnv == "development"
}

func (p PostgresConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     fmt.Sprintf("%s:%s", p.Host, p.Port),
		Path:     "/" + p.DBName,
		RawQuery: url.Values{"sslmode": []string{p.SSLMode}}.Encode(),
	}
	return u.String()
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
