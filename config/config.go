// Package config loads persistence settings with viper and turns them into
// the orm collaborators.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/untout/persistence/orm"
)

// EnvPrefix prefixes environment overrides, e.g. PERSIST_DATABASE_DSN.
const EnvPrefix = "PERSIST"

// PgxPoolDriver selects the native pgx pool instead of database/sql.
const PgxPoolDriver = "pgxpool"

// Config represents the persistence configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Naming   NamingConfig   `mapstructure:"naming"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DatabaseConfig represents database configuration.
type DatabaseConfig struct {
	// Driver is a database/sql driver name (pgx, postgres, mysql, sqlite)
	// or "pgxpool".
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	// Dialect overrides the dialect registered for Driver.
	Dialect  string `mapstructure:"dialect"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// NamingConfig selects the NameAdapter.
type NamingConfig struct {
	Style    string `mapstructure:"style"` // snake_case or attribute
	Acronyms bool   `mapstructure:"acronyms"`
	Plural   bool   `mapstructure:"plural"`
}

// CacheConfig represents the optional Redis cache.
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// LoggingConfig represents logger configuration.
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load reads the YAML file at path, or persist.yaml in the working
// directory when path is empty, applies PERSIST_* environment overrides
// and validates the result. A missing default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("database.driver", "pgx")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.dialect", "")
	v.SetDefault("database.max_conns", 0)
	v.SetDefault("naming.style", "snake_case")
	v.SetDefault("naming.acronyms", false)
	v.SetDefault("naming.plural", false)
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("persist")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("database.dsn is required")
	}
	if _, err := c.Dialect(); err != nil {
		return err
	}
	if _, err := c.NameAdapter(); err != nil {
		return err
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if c.Cache.Enabled && c.Cache.Addr == "" {
		return errors.New("cache.addr is required when the cache is enabled")
	}
	if c.Database.MaxConns < 0 {
		return fmt.Errorf("database.max_conns must not be negative, got %d", c.Database.MaxConns)
	}
	return nil
}

// NameAdapter returns the adapter selected by naming.style.
func (c *Config) NameAdapter() (orm.NameAdapter, error) {
	switch c.Naming.Style {
	case "snake_case", "snake":
		var opts []orm.SnakeCaseOption
		if c.Naming.Acronyms {
			opts = append(opts, orm.WithAcronymGrouping())
		}
		if c.Naming.Plural {
			opts = append(opts, orm.WithPluralTables())
		}
		return orm.NewSnakeCaseAdapter(opts...), nil
	case "attribute":
		return orm.NewAttributeAdapter(), nil
	default:
		return nil, fmt.Errorf("naming.style must be snake_case or attribute, got %q", c.Naming.Style)
	}
}

// Dialect returns database.dialect if set, otherwise the dialect
// registered for database.driver.
func (c *Config) Dialect() (orm.Dialect, error) {
	name := c.Database.Dialect
	if name == "" {
		name = c.Database.Driver
	}
	if name == PgxPoolDriver {
		return orm.PostgreSQL, nil
	}
	d, err := orm.DialectFor(name)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	return d, nil
}

// Logger builds a zap logger at logging.level.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("logging.level: %w", err)
	}

	zc := zap.NewProductionConfig()
	if c.Logging.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// OpenFactory opens the connection factory for database.driver. The
// caller closes it through the concrete type.
func (c *Config) OpenFactory(ctx context.Context) (orm.ConnectionFactory, error) {
	if c.Database.Driver == PgxPoolDriver {
		f, err := orm.OpenPgx(ctx, c.Database.DSN, c.Database.MaxConns)
		if err != nil {
			return nil, err
		}
		return f, nil
	}

	a, err := c.NameAdapter()
	if err != nil {
		return nil, err
	}
	f, err := orm.OpenSQL(c.Database.Driver, c.Database.DSN, a)
	if err != nil {
		return nil, err
	}
	if c.Database.MaxConns > 0 {
		f.DB().SetMaxOpenConns(int(c.Database.MaxConns))
	}
	return f, nil
}

// RedisClient returns a client for the cache, or nil when the cache is
// disabled.
func (c *Config) RedisClient() *redis.Client {
	if !c.Cache.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     c.Cache.Addr,
		Password: c.Cache.Password,
		DB:       c.Cache.DB,
	})
}
