package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig  `env:", prefix=DB_"`
	Redis     RedisConfig     `env:", prefix=REDIS_"`
	Session   SessionConfig   `env:", prefix=SESSION_"`
	CORS      CORSConfig      `env:", prefix=CORS_"`
	RateLimit RateLimitConfig `env:", prefix=RATE_LIMIT_"`
	Worker    WorkerConfig    `env:", prefix=WORKER_"`
}

type ServerConfig struct {
	Host         string        `env:"HOST, default=localhost"`
	Port         string        `env:"PORT, default=8080"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT, default=30s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT, default=30s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT, default=60s"`
	Environment  string        `env:"ENVIRONMENT, default=development"`
	LogLevel     string        `env:"LOG_LEVEL, default=info"`
}

type DatabaseConfig struct {
	Host            string        `env:"HOST, default=localhost"`
	Port            string        `env:"PORT, default=5432"`
	User            string        `env:"USER, default=postgres"`
	Password        string        `env:"PASSWORD"`
	Name            string        `env:"NAME, default=taskify"`
	SSLMode         string        `env:"SSL_MODE, default=disable"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS, default=25"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS, default=10"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME, default=1h"`
	ConnMaxIdleTime time.Duration `env:"CONN_MAX_IDLE_TIME, default=30m"`
}

type RedisConfig struct {
	Host         string        `env:"HOST, default=localhost"`
	Port         string        `env:"PORT, default=6379"`
	Password     string        `env:"PASSWORD"`
	DB           int           `env:"DB, default=0"`
	PoolSize     int           `env:"POOL_SIZE, default=10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS, default=5"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT, default=5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT, default=3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT, default=3s"`
}

type SessionConfig struct {
	// CookieName is the name of the HTTP-only cookie carrying the session id.
	CookieName string `env:"COOKIE_NAME, default=taskify_session"`
	// TTL is fixed from session creation; it does not slide on activity.
	TTL          time.Duration `env:"TTL, default=1h"`
	CookieSecure bool          `env:"COOKIE_SECURE, default=false"`
}

type CORSConfig struct {
	// AllowedOrigin is the single origin permitted to send credentialed
	// cross-origin requests (the frontend URL).
	AllowedOrigin string `env:"ALLOWED_ORIGIN, default=http://localhost:3000"`
	// StaticDir, when set, makes the server also serve the built frontend
	// from this directory instead of running API-only.
	StaticDir string `env:"STATIC_DIR"`
}

type RateLimitConfig struct {
	Enabled         bool          `env:"ENABLED, default=true"`
	RequestsPerMin  int           `env:"RPM, default=100"`
	BurstSize       int           `env:"BURST, default=10"`
	CleanupInterval time.Duration `env:"CLEANUP, default=10m"`
}

type WorkerConfig struct {
	Concurrency    int           `env:"CONCURRENCY, default=4"`
	PollInterval   time.Duration `env:"POLL_INTERVAL, default=5s"`
	ReminderWindow time.Duration `env:"REMINDER_WINDOW, default=24h"`
}

func LoadConfig() (*Config, error) {
	var config Config
	if err := envconfig.Process(context.Background(), &config); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if config.Server.Environment == "production" {
		if config.Database.Password == "" {
			return nil, fmt.Errorf("database password is required in production")
		}
		if !config.Session.CookieSecure {
			return nil, fmt.Errorf("session cookie must be secure in production")
		}
	}

	return &config, nil
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
