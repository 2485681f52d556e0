/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/suparena/rowstore/config"
	"github.com/suparena/rowstore/datastore"
	"github.com/suparena/rowstore/datastore/sqlbuild"
	"github.com/suparena/rowstore/logging"
	"github.com/suparena/rowstore/registry"
	"github.com/suparena/rowstore/schema"
)

// MemoryPath opens a private in-memory SQLite database.
const MemoryPath = ":memory:"

const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

func init() {
	registry.RegisterBackend("sqlite", func(ctx context.Context, cfg config.StoreConfig, catalog *schema.Catalog) (datastore.StoragePort, error) {
		return OpenSQLite(ctx, cfg.SQLite.Path, catalog)
	})
}

// OpenSQLite opens a SQLite database file with foreign keys enforced.
// The handle is limited to one connection so writers never contend.
func OpenSQLite(ctx context.Context, path string, catalog *schema.Catalog) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if path != MemoryPath {
		path = filepath.Clean(path)
	}

	db, err := sql.Open("sqlite", path+"?"+sqlitePragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite store: %w", err)
	}

	logging.FromContext(ctx).Debug().Str("path", path).Msg("opened sqlite store")
	return New(db, sqlbuild.SQLite{}, catalog), nil
}
