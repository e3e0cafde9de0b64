// Package config loads the front-desk service configuration. Values come
// from an optional YAML file, then a .env file, then the environment;
// later sources win.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Lock     LockConfig     `yaml:"lock"`
	AMQP     AMQPConfig     `yaml:"amqp"`
	Cache    CacheConfig    `yaml:"cache"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port            string  `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LockConfig selects the advisory lock backend. Backend is "sqlite" or "redis".
type LockConfig struct {
	Backend       string        `yaml:"backend"`
	TTL           time.Duration `yaml:"ttl"`
	Wait          time.Duration `yaml:"wait"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
}

// AMQPConfig enables the RabbitMQ notifier when URL is set.
type AMQPConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

type CacheConfig struct {
	RoomTypeTTL time.Duration `yaml:"room_type_ttl"`
}

// LogConfig.Format is "text" or "json".
type LogConfig struct {
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server:   ServerConfig{Port: "8080", RateLimitPerSec: 20, RateLimitBurst: 40},
		Database: DatabaseConfig{Path: "frontdesk.db"},
		Lock:     LockConfig{Backend: "sqlite", TTL: 30 * time.Second, Wait: 2 * time.Second},
		AMQP:     AMQPConfig{Exchange: "frontdesk.events"},
		Cache:    CacheConfig{RoomTypeTTL: 5 * time.Minute},
		Log:      LogConfig{Format: "text"},
	}
}

// Load builds the configuration. path may be empty; a missing file or
// .env is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		}
	}

	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	c.Server.Port = envOrDefault("PORT", c.Server.Port)
	c.Database.Path = envOrDefault("DATABASE_PATH", c.Database.Path)
	c.Lock.Backend = envOrDefault("LOCK_BACKEND", c.Lock.Backend)
	c.Lock.RedisAddr = envOrDefault("REDIS_ADDR", c.Lock.RedisAddr)
	c.Lock.RedisPassword = envOrDefault("REDIS_PASSWORD", c.Lock.RedisPassword)
	c.AMQP.URL = envOrDefault("AMQP_URL", c.AMQP.URL)
	c.AMQP.Exchange = envOrDefault("AMQP_EXCHANGE", c.AMQP.Exchange)
	c.Log.Format = envOrDefault("LOG_FORMAT", c.Log.Format)

	var err error
	if c.Lock.TTL, err = durationEnv("LOCK_TTL", c.Lock.TTL); err != nil {
		return err
	}
	if c.Lock.Wait, err = durationEnv("LOCK_WAIT", c.Lock.Wait); err != nil {
		return err
	}
	if c.Cache.RoomTypeTTL, err = durationEnv("ROOM_TYPE_CACHE_TTL", c.Cache.RoomTypeTTL); err != nil {
		return err
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if c.Lock.RedisDB, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("parsing REDIS_DB: %w", err)
		}
	}
	if v := os.Getenv("RATE_LIMIT_PER_SEC"); v != "" {
		if c.Server.RateLimitPerSec, err = strconv.ParseFloat(v, 64); err != nil {
			return fmt.Errorf("parsing RATE_LIMIT_PER_SEC: %w", err)
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if c.Server.RateLimitBurst, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("parsing RATE_LIMIT_BURST: %w", err)
		}
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.Lock.Backend != "sqlite" && c.Lock.Backend != "redis":
		return fmt.Errorf("lock backend %q: want sqlite or redis", c.Lock.Backend)
	case c.Lock.Backend == "redis" && c.Lock.RedisAddr == "":
		return errors.New("lock backend redis needs REDIS_ADDR")
	case c.Lock.TTL <= 0:
		return errors.New("lock ttl must be positive")
	case c.Lock.Wait < 0:
		return errors.New("lock wait must not be negative")
	case c.Log.Format != "text" && c.Log.Format != "json":
		return fmt.Errorf("log format %q: want text or json", c.Log.Format)
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return d, nil
}
