package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the application's configuration values.
// Tags like `envconfig:"HTTP_SERVER_PORT"` specify the environment variable name,
// `default:""` provides a fallback and `validate:""` is checked after loading.
type Config struct {
	AppEnv     string `envconfig:"APP_ENV" default:"development" validate:"oneof=development staging production"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat  string `envconfig:"LOG_FORMAT" default:"console" validate:"oneof=json console"`
	HttpServer ServerConfig
	GrpcServer GrpcServerConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	CORS       CORSConfig
}

// ServerConfig holds HTTP server-specific configurations.
type ServerConfig struct {
	Port           string        `envconfig:"HTTP_SERVER_PORT" default:"5000" validate:"required,numeric"`
	TimeoutRead    time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_READ" default:"15s" validate:"gt=0"`
	TimeoutWrite   time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_WRITE" default:"15s" validate:"gt=0"`
	TimeoutIdle    time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_IDLE" default:"60s" validate:"gt=0"`
	TimeoutRequest time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_REQUEST" default:"30s" validate:"gt=0"`
}

// GrpcServerConfig holds gRPC server-specific configurations.
type GrpcServerConfig struct {
	Port string `envconfig:"GRPC_SERVER_PORT" default:"9090" validate:"required,numeric"`
}

// PostgresConfig holds PostgreSQL database connection details.
type PostgresConfig struct {
	Host         string        `envconfig:"POSTGRES_HOST" required:"true" validate:"required"`
	Port         string        `envconfig:"POSTGRES_PORT" default:"5432" validate:"required,numeric"`
	User         string        `envconfig:"POSTGRES_USER" required:"true" validate:"required"`
	Password     string        `envconfig:"POSTGRES_PASSWORD" required:"true"`
	DBName       string        `envconfig:"POSTGRES_DBNAME" required:"true" validate:"required"`
	SSLMode      string        `envconfig:"POSTGRES_SSLMODE" default:"disable" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxOpenConns int           `envconfig:"POSTGRES_MAX_OPEN_CONNS" default:"25" validate:"gte=1"`
	MaxIdleConns int           `envconfig:"POSTGRES_MAX_IDLE_CONNS" default:"5" validate:"gte=0,ltefield=MaxOpenConns"`
	ConnMaxLife  time.Duration `envconfig:"POSTGRES_CONN_MAX_LIFETIME" default:"5m" validate:"gte=0"`
}

// RedisConfig configures the filter-option cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string        `envconfig:"REDIS_ADDR" validate:"omitempty,hostname_port"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0" validate:"gte=0"`
	CacheTTL time.Duration `envconfig:"FILTER_OPTIONS_CACHE_TTL" default:"5m" validate:"gt=0"`
}

// Enabled reports whether a Redis address was configured.
func (rc RedisConfig) Enabled() bool {
	return rc.Addr != ""
}

// CORSConfig lists the origins allowed to call the HTTP API.
type CORSConfig struct {
	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*" validate:"min=1,dive,required"`
}

// DSN constructs the Data Source Name string for connecting to PostgreSQL.
func (pc *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		quoteDSNValue(pc.Host), pc.Port, quoteDSNValue(pc.User), quoteDSNValue(pc.Password),
		quoteDSNValue(pc.DBName), pc.SSLMode)
}

// quoteDSNValue quotes a keyword/value connection string value when it is empty
// or contains spaces, quotes or backslashes.
func quoteDSNValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v)
	return "'" + escaped + "'"
}

// HTTPAddr returns the listen address of the HTTP server.
func (c *Config) HTTPAddr() string { return net.JoinHostPort("", c.HttpServer.Port) }

// GRPCAddr returns the listen address of the gRPC server.
func (c *Config) GRPCAddr() string { return net.JoinHostPort("", c.GrpcServer.Port) }

// Load initializes the configuration from environment variables and validates it.
// It should be called once during application startup.
func Load() (*Config, error) {
	var cfg Config
	// The first argument is a prefix for env vars, empty means no prefix.
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
