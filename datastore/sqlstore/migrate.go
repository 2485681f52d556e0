/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlstore

import (
	"context"
	"fmt"

	"github.com/suparena/rowstore/datastore/sqlbuild"
	"github.com/suparena/rowstore/logging"
)

// EnsureSchema creates every catalog table that does not exist yet, referenced
// tables first. Existing tables are left untouched.
func (s *Store) EnsureSchema(ctx context.Context) error {
	log := logging.FromContext(ctx)
	for _, t := range s.catalog.Tables() {
		ddl, err := sqlbuild.CreateTable(s.dialect, t, s.catalog)
		if err != nil {
			return fmt.Errorf("render table %s: %w", t.Name, err)
		}
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return s.mapError("EnsureSchema", t.Name, err)
		}
		log.Debug().Str("table", t.Name).Str("dialect", s.dialect.Name()).Msg("ensured table")
	}
	return nil
}
