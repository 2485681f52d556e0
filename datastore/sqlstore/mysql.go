/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/suparena/rowstore/config"
	"github.com/suparena/rowstore/datastore"
	"github.com/suparena/rowstore/datastore/sqlbuild"
	"github.com/suparena/rowstore/logging"
	"github.com/suparena/rowstore/registry"
	"github.com/suparena/rowstore/schema"
)

func init() {
	registry.RegisterBackend("mysql", func(ctx context.Context, cfg config.StoreConfig, catalog *schema.Catalog) (datastore.StoragePort, error) {
		return OpenMySQL(ctx, cfg.MySQL, catalog)
	})
}

// MySQLDriverConfig parses dsn and forces the settings the store relies on:
// matched-row counts for updates and UTC DATETIME values.
func MySQLDriverConfig(dsn string) (*mysql.Config, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ClientFoundRows = true
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.MultiStatements = false
	if cfg.Params == nil {
		cfg.Params = map[string]string{}
	}
	cfg.Params["time_zone"] = "'+00:00'"
	cfg.Collation = "utf8mb4_bin"
	return cfg, nil
}

// OpenMySQL opens a pooled MySQL handle configured from cfg.
func OpenMySQL(ctx context.Context, cfg config.MySQLConfig, catalog *schema.Catalog) (*Store, error) {
	driverCfg, err := MySQLDriverConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}
	connector, err := mysql.NewConnector(driverCfg)
	if err != nil {
		return nil, fmt.Errorf("open mysql store: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql store: %w", err)
	}

	logging.FromContext(ctx).Debug().
		Str("addr", driverCfg.Addr).
		Str("database", driverCfg.DBName).
		Msg("opened mysql store")
	return New(db, sqlbuild.MySQL{}, catalog), nil
}
