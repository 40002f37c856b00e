package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const EnvPrefix = "FINCENTIVA"

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Engine    EngineConfig
	Product   ProductConfig
}

type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig selects the Postgres stores. An empty URL keeps everything in memory.
type DatabaseConfig struct {
	URL        string
	Migrations string
}

// RedisConfig selects the Redis cache. An empty address uses the in-memory cache.
type RedisConfig struct {
	Addr string
}

type CacheConfig struct {
	TTL time.Duration
}

type RateLimitConfig struct {
	Capacity int
	Window   time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type EngineConfig struct {
	TaxRate         decimal.Decimal
	StrictFrequency bool
}

type ProductConfig struct {
	Timeout time.Duration
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("database.url", "")
	v.SetDefault("database.migrations", "migrations")
	v.SetDefault("redis.addr", "")
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("ratelimit.capacity", 5)
	v.SetDefault("ratelimit.window", time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("engine.tax_rate", "0.16")
	v.SetDefault("engine.strict_frequency", false)
	v.SetDefault("product.timeout", 8*time.Second)
}

// BindEnv makes every key overridable with FINCENTIVA_<SECTION>_<KEY>.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads the configuration from v and validates it.
func Load(v *viper.Viper) (Config, error) {
	taxRate, err := decimal.NewFromString(v.GetString("engine.tax_rate"))
	if err != nil {
		return Config{}, fmt.Errorf("engine.tax_rate: %w", err)
	}

	cfg := Config{
		Server: ServerConfig{
			Addr:         v.GetString("server.addr"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
			IdleTimeout:  v.GetDuration("server.idle_timeout"),
		},
		Database: DatabaseConfig{
			URL:        v.GetString("database.url"),
			Migrations: v.GetString("database.migrations"),
		},
		Redis: RedisConfig{
			Addr: v.GetString("redis.addr"),
		},
		Cache: CacheConfig{
			TTL: v.GetDuration("cache.ttl"),
		},
		RateLimit: RateLimitConfig{
			Capacity: v.GetInt("ratelimit.capacity"),
			Window:   v.GetDuration("ratelimit.window"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Engine: EngineConfig{
			TaxRate:         taxRate,
			StrictFrequency: v.GetBool("engine.strict_frequency"),
		},
		Product: ProductConfig{
			Timeout: v.GetDuration("product.timeout"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.IdleTimeout <= 0 {
		errs = append(errs, errors.New("server timeouts must be positive"))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, errors.New("cache.ttl must not be negative"))
	}
	if c.RateLimit.Capacity <= 0 {
		errs = append(errs, errors.New("ratelimit.capacity must be positive"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("ratelimit.window must be positive"))
	}
	if c.Engine.TaxRate.IsNegative() || c.Engine.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		errs = append(errs, errors.New("engine.tax_rate must be in [0, 1)"))
	}
	if c.Product.Timeout <= 0 {
		errs = append(errs, errors.New("product.timeout must be positive"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be json or text", c.Log.Format))
	}
	return errors.Join(errs...)
}
