package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. KB_SALEOR_CHANNEL.
const EnvPrefix = "KB"

// Credential store backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	HTTP        HTTPConfig
	Log         LogConfig
	Saleor      SaleorConfig
	Credentials CredentialsConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Ledger      LedgerConfig
	Telemetry   TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// SaleorConfig holds the commerce API client settings
type SaleorConfig struct {
	Channel         string
	Timeout         time.Duration
	MaxResponseSize int64
}

// CredentialsConfig selects where app credentials are stored
type CredentialsConfig struct {
	Backend  string // file, postgres, redis
	AppName  string
	FilePath string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
}

// LedgerConfig controls the optional lock around bundle ledger updates
type LedgerConfig struct {
	LockEnabled bool
	LockTTL     time.Duration
	LockWait    time.Duration
	LockRetry   time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool // traces
	MetricsEnabled    bool
	LogsEnabled       bool
	CollectorEndpoint string  // OTEL Collector gRPC endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // 0.0-1.0
	ServiceName       string
	Insecure          bool // non-TLS connection (development only)
	MetricsInterval   time.Duration
}

// envBindings maps config keys to the variable names used by existing deployments of
// the app. The KB_ form always wins.
var envBindings = map[string][]string{
	"saleor.channel":       {"NEXT_PUBLIC_DEFAULT_CHANNEL"},
	"credentials.backend":  {"APL"},
	"credentials.app_name": {"APP_NAME"},
	"database.host":        {"DB_HOST"},
	"database.port":        {"DB_PORT"},
	"database.dbname":      {"DB_NAME"},
	"database.user":        {"DB_USER"},
	"database.password":    {"DB_PASSWORD"},
}

// Load loads configuration from a .env file, the TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with KB_ prefix (e.g., KB_DATABASE_PASSWORD)
// 2. Legacy variable names (APL, DB_HOST, NEXT_PUBLIC_DEFAULT_CHANNEL, ...)
// 3. config.toml
// 4. Built-in defaults
func Load() (*Config, error) {
	// .env only fills variables that are not already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range envBindings {
		names := append([]string{EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, legacy...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", key, err)
		}
	}

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Saleor: SaleorConfig{
			Channel:         v.GetString("saleor.channel"),
			Timeout:         v.GetDuration("saleor.timeout"),
			MaxResponseSize: v.GetInt64("saleor.max_response_size"),
		},
		Credentials: CredentialsConfig{
			Backend:  strings.ToLower(v.GetString("credentials.backend")),
			AppName:  v.GetString("credentials.app_name"),
			FilePath: v.GetString("credentials.file_path"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:      v.GetString("redis.host"),
			Port:      v.GetInt("redis.port"),
			Password:  v.GetString("redis.password"),
			DB:        v.GetInt("redis.db"),
			KeyPrefix: v.GetString("redis.key_prefix"),
		},
		Ledger: LedgerConfig{
			LockEnabled: v.GetBool("ledger.lock_enabled"),
			LockTTL:     v.GetDuration("ledger.lock_ttl"),
			LockWait:    v.GetDuration("ledger.lock_wait"),
			LockRetry:   v.GetDuration("ledger.lock_retry"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "kits-and-bundles"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "3000"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		// one request may chain a dozen upstream round trips
		cfg.HTTP.WriteTimeout = 2 * time.Minute
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	// storefronts call the API directly from the browser
	if len(cfg.HTTP.CORSAllowOrigins) == 0 {
		cfg.HTTP.CORSAllowOrigins = []string{"*"}
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"POST", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Saleor-Domain"}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Saleor.Channel == "" {
		cfg.Saleor.Channel = "default-channel"
	}
	if cfg.Saleor.Timeout == 0 {
		cfg.Saleor.Timeout = 30 * time.Second
	}
	if cfg.Saleor.MaxResponseSize == 0 {
		cfg.Saleor.MaxResponseSize = 10 << 20 // 10MB
	}
	if cfg.Credentials.Backend == "" {
		cfg.Credentials.Backend = BackendFile
	}
	if cfg.Credentials.AppName == "" {
		cfg.Credentials.AppName = "kits-and-bundles"
	}
	if cfg.Credentials.FilePath == "" {
		cfg.Credentials.FilePath = ".auth-data.json"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "kits_bundles"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "kb:"
	}
	if cfg.Ledger.LockTTL == 0 {
		cfg.Ledger.LockTTL = 10 * time.Second
	}
	if cfg.Ledger.LockWait == 0 {
		cfg.Ledger.LockWait = 5 * time.Second
	}
	if cfg.Ledger.LockRetry == 0 {
		cfg.Ledger.LockRetry = 50 * time.Millisecond
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Credentials.Backend {
	case BackendFile, BackendPostgres, BackendRedis:
	default:
		return fmt.Errorf("credentials.backend must be one of file, postgres, redis, got %q", c.Credentials.Backend)
	}

	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Saleor.Timeout < 0 {
		return fmt.Errorf("saleor.timeout cannot be negative")
	}
	if c.Ledger.LockEnabled && c.Ledger.LockWait > c.Ledger.LockTTL {
		return fmt.Errorf("ledger.lock_wait (%s) cannot exceed ledger.lock_ttl (%s)", c.Ledger.LockWait, c.Ledger.LockTTL)
	}

	if c.App.Env == "production" {
		if c.Credentials.Backend == BackendPostgres {
			if missing := c.Database.Missing(); len(missing) > 0 {
				return fmt.Errorf("postgres credentials backend requires %s in production", strings.Join(missing, ", "))
			}
		}
		if c.Credentials.Backend == BackendFile {
			return fmt.Errorf("credentials.backend=file is for development only; use postgres or redis in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// IsProduction reports whether the app runs in production.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Missing lists the settings a Postgres connection needs but that are empty.
func (d *DatabaseConfig) Missing() []string {
	var missing []string
	if d.Host == "" {
		missing = append(missing, "database.host")
	}
	if d.DBName == "" {
		missing = append(missing, "database.dbname")
	}
	if d.User == "" {
		missing = append(missing, "database.user")
	}
	if d.Password == "" {
		missing = append(missing, "database.password")
	}
	return missing
}

// Addr returns host:port for the Redis client.
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
