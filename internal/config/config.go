package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/blxryer/haste-server/internal/args"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "HASTE_"

type Config struct {
	Database  DatabaseConfig
	Documents DocumentsConfig
}

type DatabaseMode string

const (
	DatabaseModeInMemory DatabaseMode = "memory"
	DatabaseModeMySql    DatabaseMode = "mysql"
	DatabaseModePostgres DatabaseMode = "postgres"
	DatabaseModeRedis    DatabaseMode = "redis"
)

type DatabaseConfig struct {
	Mode           DatabaseMode
	MaxConnections int
	Migrate        MigrateConfig
	MySql          MySqlConfig
	Postgres       PostgresConfig
	Redis          RedisConfig
}

type MigrateConfig struct {
	Attempts uint
	Delay    time.Duration
}

type MySqlConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type PostgresConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
	SslMode  string
}

type RedisConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Database int
	Prefix   string
}

type DocumentsConfig struct {
	// Expire is the document TTL in seconds, zero disables expiration.
	Expire int
}

func (c DocumentsConfig) TTL() time.Duration {
	return time.Duration(c.Expire) * time.Second
}

var C Config

func Init() {
	C = mustLoad(args.ConfigFilePath())
}

func mustLoad(configFilePath string) Config {
	k := koanf.New(".")

	if configFilePath != "" {
		_, err := os.Stat(configFilePath)
		if err != nil {
			panic(fmt.Errorf("failed to stat config file: %w", err))
		}

		err = k.Load(file.Provider(configFilePath), yaml.Parser())
		if err != nil {
			panic(fmt.Errorf("failed to load config file: %w", err))
		}
	}

	err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, envPrefix)), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		panic(fmt.Errorf("failed to load env provider: %w", err))
	}

	var c Config
	err = k.Unmarshal("", &c)
	if err != nil {
		panic(fmt.Errorf("failed to unmarshal config: %w", err))
	}

	setDefaultsOrPanic(&c)
	return c
}

func setDefaultsOrPanic(c *Config) {
	setDatabaseDefaultsOrPanic(&c.Database)
	setDocumentsDefaultsOrPanic(&c.Documents)
}

func setDatabaseDefaultsOrPanic(c *DatabaseConfig) {
	if c.Mode == "" {
		if args.IsProduction() {
			panic("Database.Mode must be set in production.")
		}

		c.Mode = DatabaseModeInMemory
	}

	if c.MaxConnections == 0 {
		c.MaxConnections = 10
	}

	if c.MaxConnections < 0 {
		panic(fmt.Errorf("Database.MaxConnections must be positive, got %d", c.MaxConnections))
	}

	if c.Migrate.Attempts == 0 {
		c.Migrate.Attempts = 5
	}

	if c.Migrate.Delay == 0 {
		c.Migrate.Delay = 5 * time.Second
	}

	switch c.Mode {
	case DatabaseModeInMemory:
		return

	case DatabaseModeMySql:
		setMySqlDefaultsOrPanic(&c.MySql)

	case DatabaseModePostgres:
		setPostgresDefaultsOrPanic(&c.Postgres)

	case DatabaseModeRedis:
		setRedisDefaultsOrPanic(&c.Redis)

	default:
		panic(fmt.Errorf("unsupported database mode: %s", c.Mode))
	}
}

func setMySqlDefaultsOrPanic(c *MySqlConfig) {
	if c.Host == "" {
		c.Host = "localhost"
	}

	if c.Port == 0 {
		c.Port = 3306
	}

	if c.User == "" {
		c.User = "root"
	}

	if c.Database == "" {
		c.Database = "documents"
	}
}

func setPostgresDefaultsOrPanic(c *PostgresConfig) {
	if c.Host == "" {
		if args.IsProduction() {
			panic("Database.Postgres.Host must be set in production.")
		}

		c.Host = "localhost"
	}

	if c.Port == 0 {
		c.Port = 5432
	}

	if c.Username == "" {
		panic("Database.Postgres.Username must be set.")
	}

	if c.Database == "" {
		c.Database = "documents"
	}

	if c.SslMode == "" {
		c.SslMode = "disable"
	}
}

func setRedisDefaultsOrPanic(c *RedisConfig) {
	if c.Host == "" {
		if args.IsProduction() {
			panic("Database.Redis.Host must be set in production.")
		}

		c.Host = "localhost"
	}

	if c.Port == 0 {
		c.Port = 6379
	}

	if c.Prefix == "" {
		c.Prefix = "haste:"
	}
}

func setDocumentsDefaultsOrPanic(c *DocumentsConfig) {
	if c.Expire < 0 {
		panic(fmt.Errorf("Documents.Expire must not be negative, got %d", c.Expire))
	}
}
