/*
Package sqlstore implements datastore.StoragePort on database/sql for SQLite
and MySQL.

Statements are rendered by the sqlbuild package for the dialect of the
connection, so both engines share one code path:

	store, err := sqlstore.OpenSQLite(ctx, "rows.db", catalog)
	if err != nil {
	    return err
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
	    return err
	}
	id, err := store.AddRow(ctx, "person", storagemodels.Row{"name": "Ada"})

SQLite is opened through modernc.org/sqlite with foreign keys enabled and a
single connection. MySQL is opened through github.com/go-sql-driver/mysql
with ClientFoundRows so an UPDATE that changes nothing still reports the
matched row.

Driver errors are mapped onto the errors package: constraint codes become
ConstraintViolation with a rule, connection and context failures become
Unavailable.
*/
package sqlstore
