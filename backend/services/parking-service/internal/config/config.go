package config

import (
	"fmt"
	"strings"
	"time"

	libconfig "vehicleparking/backend/libs/config"
	libredis "vehicleparking/backend/libs/redis"
)

// HTTPConfig configures the HTTP listener.
type HTTPConfig struct {
	Port         string `yaml:"port" env:"PARKING_HTTP_PORT"`
	SecureCookie bool   `yaml:"secureCookie" env:"PARKING_COOKIE_SECURE"`
}

// DatabaseConfig configures the Postgres pool.
type DatabaseConfig struct {
	DSN          string `yaml:"dsn" env:"PARKING_POSTGRES_DSN" required:"true"`
	MaxOpenConns int    `yaml:"maxOpenConns" env:"PARKING_POSTGRES_MAX_CONNS"`
}

// RedisConfig configures the session store connection.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"PARKING_REDIS_ADDR"`
	Password string `yaml:"password" env:"PARKING_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"PARKING_REDIS_DB"`

	PoolSize     int           `yaml:"poolSize" env:"PARKING_REDIS_POOL_SIZE"`
	MinIdleConns int           `yaml:"minIdleConns" env:"PARKING_REDIS_MIN_IDLE_CONNS"`
	DialTimeout  time.Duration `yaml:"dialTimeout" env:"PARKING_REDIS_DIAL_TIMEOUT"`
	ReadTimeout  time.Duration `yaml:"readTimeout" env:"PARKING_REDIS_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"writeTimeout" env:"PARKING_REDIS_WRITE_TIMEOUT"`
}

// SessionConfig configures login sessions.
type SessionConfig struct {
	Secret     string `yaml:"secret" env:"PARKING_JWT_SECRET" required:"true"`
	TTLMinutes int    `yaml:"ttlMinutes" env:"SESSION_TTL_MINUTES"`
}

// AdminConfig describes the bootstrap admin account.
type AdminConfig struct {
	Username string `yaml:"username" env:"PARKING_ADMIN_USERNAME"`
	Password string `yaml:"password" env:"PARKING_ADMIN_PASSWORD"`
	FullName string `yaml:"fullName" env:"PARKING_ADMIN_FULL_NAME"`
}

// FeedConfig tunes the availability websocket feed.
type FeedConfig struct {
	WriteTimeout time.Duration `yaml:"writeTimeout" env:"PARKING_FEED_WRITE_TIMEOUT"`
	PingInterval time.Duration `yaml:"pingInterval" env:"PARKING_FEED_PING_INTERVAL"`
}

// Config represents service configuration loaded from YAML/env.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Session  SessionConfig  `yaml:"session"`
	Admin    AdminConfig    `yaml:"admin"`
	Feed     FeedConfig     `yaml:"feed"`
}

// Load reads configuration using the shared config loader.
func Load() (*Config, error) {
	cfg := &Config{
		HTTP:     HTTPConfig{Port: "8080"},
		Database: DatabaseConfig{MaxOpenConns: 10},
		Redis:    RedisConfig{Addr: "localhost:6379"},
		Admin:    AdminConfig{Username: "admin", FullName: "Admin"},
		Feed:     FeedConfig{WriteTimeout: 10 * time.Second, PingInterval: 30 * time.Second},
	}

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.Session.TTLMinutes < 0 {
		return nil, fmt.Errorf("config: SESSION_TTL_MINUTES must not be negative, got %d", cfg.Session.TTLMinutes)
	}
	return cfg, nil
}

// HTTPAddress ensures we always return host:port formatted string.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.Contains(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// SessionTTL converts the configured lifetime to a duration. Zero means sessions
// last until logout.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLMinutes) * time.Minute
}

// RedisOptions maps the redis section onto the shared client options. Unset pool
// and timeout values take the client defaults.
func (c *Config) RedisOptions() libredis.Options {
	return libredis.Options{
		Addr:         c.Redis.Addr,
		Password:     c.Redis.Password,
		DB:           c.Redis.DB,
		PoolSize:     c.Redis.PoolSize,
		MinIdleConns: c.Redis.MinIdleConns,
		DialTimeout:  c.Redis.DialTimeout,
		ReadTimeout:  c.Redis.ReadTimeout,
		WriteTimeout: c.Redis.WriteTimeout,
	}
}

// SeedAdmin reports whether a bootstrap admin account should be ensured.
func (c *Config) SeedAdmin() bool {
	return strings.TrimSpace(c.Admin.Username) != "" && c.Admin.Password != ""
}
