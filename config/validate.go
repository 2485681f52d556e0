/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"errors"
	"fmt"
	"sort"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	names := make([]string, 0, len(c.Stores))
	for name := range c.Stores {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		s := c.Stores[name]
		path := "stores." + name
		switch s.Type {
		case "memory":
		case "sqlite":
			if s.SQLite.Path == "" {
				errs = append(errs, fmt.Errorf("%s.sqlite.path is required when type is \"sqlite\"", path))
			}
		case "mysql":
			if s.MySQL.DSN == "" {
				errs = append(errs, fmt.Errorf("%s.mysql.dsn or %s.mysql.dsn_file is required when type is \"mysql\"", path, path))
			}
		case "postgres":
			if s.Postgres.DSN == "" {
				errs = append(errs, fmt.Errorf("%s.postgres.dsn or %s.postgres.dsn_file is required when type is \"postgres\"", path, path))
			}
			if s.Postgres.MinConns > s.Postgres.MaxConns {
				errs = append(errs, fmt.Errorf("%s.postgres.min_conns must not exceed max_conns", path))
			}
		case "dynamodb":
			if s.DynamoDB.Table == "" {
				errs = append(errs, fmt.Errorf("%s.dynamodb.table is required when type is \"dynamodb\"", path))
			}
			if (s.DynamoDB.AccessKey == "") != (s.DynamoDB.SecretKey == "") {
				errs = append(errs, fmt.Errorf("%s.dynamodb.access_key and secret_key must be set together", path))
			}
		default:
			errs = append(errs, fmt.Errorf("%s.type must be one of memory, sqlite, mysql, postgres, dynamodb, got %q", path, s.Type))
		}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format))
	}

	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		errs = append(errs, fmt.Errorf("metrics.listen is required when metrics are enabled"))
	}

	return errors.Join(errs...)
}
