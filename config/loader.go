/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "ROWSTORE_"

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, ROWSTORE_CONFIG env, ./rowstore.yaml)
//  3. .env file (ROWSTORE_ENV_FILE or ./.env), never overriding the process environment
//  4. ROWSTORE_* environment overrides
//  5. File reference resolution (_file suffix)
//  6. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	if len(cfg.Stores) == 0 {
		cfg.Stores = map[string]StoreConfig{DefaultStore: {Type: "memory"}}
	}
	for name, s := range cfg.Stores {
		s.applyStoreDefaults()
		cfg.Stores[name] = s
	}

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile returns the explicit path, ROWSTORE_CONFIG, or ./rowstore.yaml
// when it exists. Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if envPath := os.Getenv(envPrefix + "CONFIG"); envPath != "" {
		return envPath
	}
	if _, err := os.Stat("rowstore.yaml"); err == nil {
		return "rowstore.yaml"
	}
	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func loadDotEnv() error {
	path := os.Getenv(envPrefix + "ENV_FILE")
	if path == "" {
		path = ".env"
		if _, err := os.Stat(path); err != nil {
			return nil
		}
	}
	return godotenv.Load(path)
}

// applyEnvOverrides maps ROWSTORE_* variables onto the config. Store variables
// (ROWSTORE_STORE_TYPE, ROWSTORE_SQLITE_PATH, ...) apply to the default store.
func applyEnvOverrides(cfg *Config) error {
	opts := env.Options{Prefix: envPrefix}

	if err := env.ParseWithOptions(&cfg.Schema, opts); err != nil {
		return err
	}
	if err := env.ParseWithOptions(&cfg.Logging, opts); err != nil {
		return err
	}
	if err := env.ParseWithOptions(&cfg.Metrics, opts); err != nil {
		return err
	}

	store, exists := cfg.Stores[DefaultStore]
	if err := env.ParseWithOptions(&store, opts); err != nil {
		return err
	}
	if exists || store.Type != "" {
		if cfg.Stores == nil {
			cfg.Stores = make(map[string]StoreConfig)
		}
		cfg.Stores[DefaultStore] = store
	}
	return nil
}

// resolveFileReferences reads _file fields and populates the corresponding value fields
// when the value field is empty.
func resolveFileReferences(cfg *Config) error {
	for name, s := range cfg.Stores {
		if s.MySQL.DSNFile != "" && s.MySQL.DSN == "" {
			val, err := readSecretFile(s.MySQL.DSNFile)
			if err != nil {
				return fmt.Errorf("stores.%s.mysql.dsn_file: %w", name, err)
			}
			s.MySQL.DSN = val
		}
		if s.Postgres.DSNFile != "" && s.Postgres.DSN == "" {
			val, err := readSecretFile(s.Postgres.DSNFile)
			if err != nil {
				return fmt.Errorf("stores.%s.postgres.dsn_file: %w", name, err)
			}
			s.Postgres.DSN = val
		}
		if s.DynamoDB.SecretKeyFile != "" && s.DynamoDB.SecretKey == "" {
			val, err := readSecretFile(s.DynamoDB.SecretKeyFile)
			if err != nil {
				return fmt.Errorf("stores.%s.dynamodb.secret_key_file: %w", name, err)
			}
			s.DynamoDB.SecretKey = val
		}
		cfg.Stores[name] = s
	}
	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
