// -----------------------------------------------------------------------------
// Config Package
// -----------------------------------------------------------------------------
// Central configuration of the booking service. Values are resolved in three
// layers: built-in defaults, an optional YAML file (--config) and finally
// environment variables, which always win. A missing variable is logged with
// the value that will be used instead, so a misconfigured deployment shows up
// in the first lines of the log.
//
// DB.DSN and Redis.Host may be empty: the service then runs on the in-memory
// drivers, which is what local development and the tests use.
// -----------------------------------------------------------------------------

package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/biyonik/rail-booking-api/internal/patterns/strategy"
	"github.com/biyonik/rail-booking-api/internal/repositories"
)

const (
	defaultJWTSecret  = "change-me-jwt-secret"
	defaultPassSecret = "change-me-pass-secret"
	minSecretLength   = 32
)

// Config groups every setting of the service.
type Config struct {
	App struct {
		Name string `yaml:"name"`
		Env  string `yaml:"env"` // development, production, test
		URL  string `yaml:"url"`
	} `yaml:"app"`

	Server struct {
		Port            string        `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		CORSOrigins     []string      `yaml:"cors_origins"`
	} `yaml:"server"`

	DB struct {
		DSN             string        `yaml:"dsn"` // empty: in-memory repositories
		MaxOpenConns    int           `yaml:"max_open_conns"`
		MaxIdleConns    int           `yaml:"max_idle_conns"`
		ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	} `yaml:"db"`

	Redis struct {
		Host     string `yaml:"host"` // empty: no redis
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	JWT struct {
		Secret     string        `yaml:"secret"`
		Issuer     string        `yaml:"issuer"`
		Expiration time.Duration `yaml:"expiration"`
	} `yaml:"jwt"`

	Cache struct {
		Driver string `yaml:"driver"` // memory, redis
		Prefix string `yaml:"prefix"`
	} `yaml:"cache"`

	RateLimit struct {
		Enabled   bool    `yaml:"enabled"`
		PerSecond float64 `yaml:"per_second"`
		Burst     int     `yaml:"burst"`

		// Reservations get their own, stricter bucket per user.
		BookingPerSecond float64 `yaml:"booking_per_second"`
		BookingBurst     int     `yaml:"booking_burst"`
	} `yaml:"rate_limit"`

	Queue struct {
		Driver     string        `yaml:"driver"` // sync, redis
		Prefix     string        `yaml:"prefix"`
		RetryAfter time.Duration `yaml:"retry_after"`
	} `yaml:"queue"`

	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`

	Booking struct {
		SeatStore          string             `yaml:"seat_store"` // mysql, redis, memory
		SeatStorePrefix    string             `yaml:"seat_store_prefix"`
		PassSecret         string             `yaml:"pass_secret"`
		BaseFarePerSegment float64            `yaml:"base_fare_per_segment"`
		ClassMultipliers   map[string]float64 `yaml:"class_multipliers"`
	} `yaml:"booking"`
}

// Default returns the development configuration.
func Default() *Config {
	cfg := &Config{}

	cfg.App.Name = "rail-booking-api"
	cfg.App.Env = "development"
	cfg.App.URL = "http://localhost:8080"

	cfg.Server.Port = "8080"
	cfg.Server.ReadTimeout = 15 * time.Second
	cfg.Server.WriteTimeout = 15 * time.Second
	cfg.Server.ShutdownTimeout = 30 * time.Second
	cfg.Server.CORSOrigins = []string{"*"}

	cfg.DB.MaxOpenConns = 25
	cfg.DB.MaxIdleConns = 25
	cfg.DB.ConnMaxLifetime = 5 * time.Minute

	cfg.Redis.Port = 6379

	cfg.JWT.Secret = defaultJWTSecret
	cfg.JWT.Issuer = "rail-booking-api"
	cfg.JWT.Expiration = time.Hour

	cfg.Cache.Driver = "memory"
	cfg.Cache.Prefix = "rail:"

	cfg.RateLimit.Enabled = true
	cfg.RateLimit.PerSecond = 20
	cfg.RateLimit.Burst = 40
	cfg.RateLimit.BookingPerSecond = 0.5
	cfg.RateLimit.BookingBurst = 5

	cfg.Queue.Driver = "sync"
	cfg.Queue.Prefix = "rail:queue:"
	cfg.Queue.RetryAfter = 30 * time.Second

	cfg.Storage.Path = "./storage/app"

	cfg.Booking.SeatStore = repositories.SeatStoreMemory
	cfg.Booking.SeatStorePrefix = "rail:"
	cfg.Booking.PassSecret = defaultPassSecret
	cfg.Booking.BaseFarePerSegment = strategy.DefaultBaseFarePerSegment
	cfg.Booking.ClassMultipliers = strategy.DefaultClassMultipliers()

	return cfg
}

// Load resolves defaults, then the YAML file at path (skipped when empty),
// then the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	envString("APP_NAME", &c.App.Name)
	envString("APP_ENV", &c.App.Env)
	envString("APP_URL", &c.App.URL)

	envString("PORT", &c.Server.Port)
	envList("CORS_ORIGINS", &c.Server.CORSOrigins)

	envString("DB_DSN", &c.DB.DSN)
	envInt("DB_MAX_OPEN_CONNS", &c.DB.MaxOpenConns)
	envInt("DB_MAX_IDLE_CONNS", &c.DB.MaxIdleConns)
	envSeconds("DB_CONN_MAX_LIFETIME", &c.DB.ConnMaxLifetime)

	envString("REDIS_HOST", &c.Redis.Host)
	envInt("REDIS_PORT", &c.Redis.Port)
	envString("REDIS_PASSWORD", &c.Redis.Password)
	envInt("REDIS_DB", &c.Redis.DB)

	envString("JWT_SECRET", &c.JWT.Secret)
	envString("JWT_ISSUER", &c.JWT.Issuer)
	envSeconds("JWT_EXPIRATION", &c.JWT.Expiration)

	envString("CACHE_DRIVER", &c.Cache.Driver)
	envString("CACHE_PREFIX", &c.Cache.Prefix)

	envBool("RATE_LIMIT_ENABLED", &c.RateLimit.Enabled)
	envFloat("RATE_LIMIT_PER_SECOND", &c.RateLimit.PerSecond)
	envInt("RATE_LIMIT_BURST", &c.RateLimit.Burst)
	envFloat("BOOKING_RATE_PER_SECOND", &c.RateLimit.BookingPerSecond)
	envInt("BOOKING_RATE_BURST", &c.RateLimit.BookingBurst)

	envString("QUEUE_DRIVER", &c.Queue.Driver)
	envSeconds("QUEUE_RETRY_AFTER", &c.Queue.RetryAfter)

	envString("STORAGE_PATH", &c.Storage.Path)

	envString("SEAT_STORE", &c.Booking.SeatStore)
	envString("PASS_SECRET", &c.Booking.PassSecret)
	envFloat("BASE_FARE_PER_SEGMENT", &c.Booking.BaseFarePerSegment)
}

func envString(key string, dst *string) {
	value, ok := os.LookupEnv(key)
	if !ok {
		log.Printf("⚠️  %s is not set, using %q", key, redact(key, *dst))
		return
	}
	*dst = value
}

func envList(key string, dst *[]string) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	*dst = items
}

func envInt(key string, dst *int) {
	value, ok := os.LookupEnv(key)
	if !ok {
		log.Printf("⚠️  %s is not set, using %d", key, *dst)
		return
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("⚠️  Invalid value for %s: %q, using %d", key, value, *dst)
		return
	}
	*dst = n
}

func envFloat(key string, dst *float64) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("⚠️  Invalid value for %s: %q, using %g", key, value, *dst)
		return
	}
	*dst = f
}

func envBool(key string, dst *bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("⚠️  Invalid boolean for %s: %q, using %t", key, value, *dst)
		return
	}
	*dst = b
}

// envSeconds reads a whole number of seconds.
func envSeconds(key string, dst *time.Duration) {
	seconds := int(*dst / time.Second)
	before := seconds
	envInt(key, &seconds)
	if seconds != before {
		*dst = time.Duration(seconds) * time.Second
	}
}

func redact(key, value string) string {
	if value != "" && (strings.Contains(key, "SECRET") || strings.Contains(key, "PASSWORD") || key == "DB_DSN") {
		return "****"
	}
	return value
}

// Validate reports the first setting the service cannot start with.
func (c *Config) Validate() error {
	if !repositories.ValidSeatStoreDriver(c.Booking.SeatStore) {
		return fmt.Errorf("invalid SEAT_STORE %q (mysql, redis or memory)", c.Booking.SeatStore)
	}
	if c.Booking.SeatStore == repositories.SeatStoreMySQL && c.DB.DSN == "" {
		return errors.New("SEAT_STORE=mysql requires DB_DSN")
	}

	switch c.Cache.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid CACHE_DRIVER %q (memory or redis)", c.Cache.Driver)
	}
	switch c.Queue.Driver {
	case "sync", "redis":
	default:
		return fmt.Errorf("invalid QUEUE_DRIVER %q (sync or redis)", c.Queue.Driver)
	}
	if c.Redis.Host == "" {
		if c.Booking.SeatStore == repositories.SeatStoreRedis || c.Cache.Driver == "redis" || c.Queue.Driver == "redis" {
			return errors.New("redis drivers require REDIS_HOST")
		}
	}

	if c.Booking.BaseFarePerSegment <= 0 {
		return fmt.Errorf("base fare per segment must be positive, got %g", c.Booking.BaseFarePerSegment)
	}
	for class, multiplier := range c.Booking.ClassMultipliers {
		if multiplier <= 0 {
			return fmt.Errorf("class multiplier for %q must be positive", class)
		}
	}
	if c.RateLimit.Enabled && (c.RateLimit.PerSecond <= 0 || c.RateLimit.Burst < 1) {
		return errors.New("rate limit needs a positive rate and burst")
	}

	if c.IsProduction() {
		if len(c.JWT.Secret) < minSecretLength || c.JWT.Secret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be changed and at least %d characters in production", minSecretLength)
		}
		if len(c.Booking.PassSecret) < minSecretLength || c.Booking.PassSecret == defaultPassSecret {
			return fmt.Errorf("PASS_SECRET must be changed and at least %d characters in production", minSecretLength)
		}
		if c.Booking.SeatStore == repositories.SeatStoreMemory {
			log.Println("⚠️  WARNING: the memory seat store loses every booking on restart")
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

func (c *Config) IsTest() bool {
	return c.App.Env == "test"
}

// UsesRedis reports whether a redis connection is configured.
func (c *Config) UsesRedis() bool {
	return c.Redis.Host != ""
}

// UsesMySQL reports whether a database connection is configured.
func (c *Config) UsesMySQL() bool {
	return c.DB.DSN != ""
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	if strings.Contains(c.Server.Port, ":") {
		return c.Server.Port
	}
	return ":" + c.Server.Port
}
