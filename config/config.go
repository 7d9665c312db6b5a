package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

// LedgerConfig holds the money-movement policy knobs. Amounts are whole
// naira. Timezone anchors the daily fee quota and spending cap windows.
type LedgerConfig struct {
	MinAmount             int64  `mapstructure:"min_amount"`
	MaxAmount             int64  `mapstructure:"max_amount"`
	LoadMinAmount         int64  `mapstructure:"load_min_amount"`
	DailyLimit            int64  `mapstructure:"daily_limit"`
	FreeDailyTransactions int    `mapstructure:"free_daily_transactions"`
	TransactionFee        int64  `mapstructure:"transaction_fee"`
	Timezone              string `mapstructure:"timezone"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: CW_ (Campus Wallet).
// Nested keys use underscore: CW_DATABASE_HOST, CW_LEDGER_DAILY_LIMIT, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "campus_wallet")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "campus-wallet")
	v.SetDefault("ledger.min_amount", 10)
	v.SetDefault("ledger.max_amount", 50000)
	v.SetDefault("ledger.load_min_amount", 100)
	v.SetDefault("ledger.daily_limit", 50000)
	v.SetDefault("ledger.free_daily_transactions", 5)
	v.SetDefault("ledger.transaction_fee", 5)
	v.SetDefault("ledger.timezone", "Africa/Lagos")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: CW_DATABASE_HOST -> database.host
	v.SetEnvPrefix("CW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional; env vars can carry everything.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	l := c.Ledger
	if l.MinAmount <= 0 || l.MaxAmount < l.MinAmount {
		return fmt.Errorf("ledger: invalid amount bounds [%d, %d]", l.MinAmount, l.MaxAmount)
	}
	if l.DailyLimit < l.MaxAmount {
		return fmt.Errorf("ledger: daily limit %d below per-transaction maximum %d", l.DailyLimit, l.MaxAmount)
	}
	if l.FreeDailyTransactions < 0 || l.TransactionFee < 0 {
		return fmt.Errorf("ledger: fee policy must be non-negative")
	}
	if _, err := time.LoadLocation(l.Timezone); err != nil {
		return fmt.Errorf("ledger: invalid timezone %q: %w", l.Timezone, err)
	}
	return nil
}

// Location returns the ledger's day-window timezone. validate() guarantees
// the name parses.
func (c *Config) Location() *time.Location {
	loc, _ := time.LoadLocation(c.Ledger.Timezone)
	return loc
}
