/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package config provides the configuration of RowStore stores and tooling.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (explicit path, ROWSTORE_CONFIG, ./rowstore.yaml)
//  3. Optional .env file
//  4. Environment variable overrides (ROWSTORE_ prefix) for the default store
//  5. File reference resolution (_file suffix fields)
//  6. Validation
package config

import (
	"sort"
	"time"
)

// DefaultStore is the store name used when only one store is configured
// and the store environment overrides apply to.
const DefaultStore = "default"

// Config holds all configuration for RowStore.
type Config struct {
	Stores  map[string]StoreConfig `yaml:"stores"`
	Schema  SchemaConfig           `yaml:"schema"`
	Logging LoggingConfig          `yaml:"logging"`
	Metrics MetricsConfig          `yaml:"metrics"`
}

// StoreConfig selects and configures one backend.
type StoreConfig struct {
	Type     string         `yaml:"type" env:"STORE_TYPE"` // memory, sqlite, mysql, postgres, dynamodb
	SQLite   SQLiteConfig   `yaml:"sqlite" envPrefix:"SQLITE_"`
	MySQL    MySQLConfig    `yaml:"mysql" envPrefix:"MYSQL_"`
	Postgres PostgresConfig `yaml:"postgres" envPrefix:"POSTGRES_"`
	DynamoDB DynamoDBConfig `yaml:"dynamodb" envPrefix:"DYNAMODB_"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

// MySQLConfig holds MySQL-specific settings.
type MySQLConfig struct {
	DSN             string        `yaml:"dsn" env:"DSN"`
	DSNFile         string        `yaml:"dsn_file" env:"DSN_FILE"` // _file variant for dsn
	MaxOpenConns    int           `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`       // default: 25
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`       // default: 5
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"` // default: 5m
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn" env:"DSN"`
	DSNFile         string        `yaml:"dsn_file" env:"DSN_FILE"` // _file variant for dsn
	MaxConns        int32         `yaml:"max_conns" env:"MAX_CONNS"`                 // default: 25
	MinConns        int32         `yaml:"min_conns" env:"MIN_CONNS"`                 // default: 5
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" env:"MAX_CONN_LIFETIME"` // default: 5m
}

// DynamoDBConfig holds DynamoDB-specific settings.
type DynamoDBConfig struct {
	Table         string `yaml:"table" env:"TABLE"`
	Region        string `yaml:"region" env:"REGION"`
	Endpoint      string `yaml:"endpoint" env:"ENDPOINT"` // e.g. DynamoDB Local
	AccessKey     string `yaml:"access_key" env:"ACCESS_KEY"`
	SecretKey     string `yaml:"secret_key" env:"SECRET_KEY"`
	SecretKeyFile string `yaml:"secret_key_file" env:"SECRET_KEY_FILE"` // _file variant for secret_key
	PartitionKey  string `yaml:"partition_key" env:"PARTITION_KEY"`     // default: PK
	SortKey       string `yaml:"sort_key" env:"SORT_KEY"`               // default: SK
}

// SchemaConfig locates the table catalog.
type SchemaConfig struct {
	File           string `yaml:"file" env:"SCHEMA_FILE"`
	MigrateOnStart bool   `yaml:"migrate_on_start" env:"MIGRATE_ON_START"` // default: true
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`   // default: info
	Format string `yaml:"format" env:"LOG_FORMAT"` // console or json, default: console
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED"` // default: false
	Listen  string `yaml:"listen" env:"METRICS_LISTEN"`   // default: ":9464"
}

// Defaults returns a Config populated with default values.
// Stores are filled in after loading so YAML maps do not merge into a default entry.
func Defaults() Config {
	return Config{
		Schema: SchemaConfig{
			MigrateOnStart: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Listen: ":9464",
		},
	}
}

// applyStoreDefaults fills per-backend defaults for every configured store.
func (s *StoreConfig) applyStoreDefaults() {
	if s.MySQL.MaxOpenConns == 0 {
		s.MySQL.MaxOpenConns = 25
	}
	if s.MySQL.MaxIdleConns == 0 {
		s.MySQL.MaxIdleConns = 5
	}
	if s.MySQL.ConnMaxLifetime == 0 {
		s.MySQL.ConnMaxLifetime = 5 * time.Minute
	}
	if s.Postgres.MaxConns == 0 {
		s.Postgres.MaxConns = 25
	}
	if s.Postgres.MinConns == 0 {
		s.Postgres.MinConns = 5
	}
	if s.Postgres.MaxConnLifetime == 0 {
		s.Postgres.MaxConnLifetime = 5 * time.Minute
	}
	if s.DynamoDB.PartitionKey == "" {
		s.DynamoDB.PartitionKey = "PK"
	}
	if s.DynamoDB.SortKey == "" {
		s.DynamoDB.SortKey = "SK"
	}
}

// Store returns the named store configuration.
func (c *Config) Store(name string) (StoreConfig, bool) {
	s, ok := c.Stores[name]
	return s, ok
}

// StoreNames returns the configured store names in sorted order.
func (c *Config) StoreNames() []string {
	names := make([]string, 0, len(c.Stores))
	for name := range c.Stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
