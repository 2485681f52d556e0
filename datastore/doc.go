/*
Package datastore defines the persistence port of RowStore.

The main interface is StoragePort, a table-level contract over rows of named tables:

	type StoragePort interface {
	    AddRow(ctx context.Context, table string, fields storagemodels.Row) (int64, error)
	    AddRelationRow(ctx context.Context, table string, fields storagemodels.Row) error
	    UpdateRow(ctx context.Context, table string, fields storagemodels.Row) error
	    UpdateRelationTableRow(ctx context.Context, table string, fields storagemodels.Row) error
	    RemoveRow(ctx context.Context, table string, where storagemodels.Predicate) error
	    GetMaxValueFromTable(ctx context.Context, table string, where storagemodels.Predicate, column string) (any, bool, error)
	    GetObjectCountByQuery(ctx context.Context, q *storagemodels.QuerySpec) (int, error)
	    GetObjectDataByQuery(ctx context.Context, q *storagemodels.QuerySpec) ([]storagemodels.Row, error)
	    StreamObjectDataByQuery(ctx context.Context, q *storagemodels.QuerySpec, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult
	    GetUIDOfAlreadyPersistedValueObject(ctx context.Context, vo storagemodels.ValueObject) (int64, bool, error)
	    Close() error
	}

Implementations:
  - memory: in-process reference implementation, also used in callers' tests
  - sqlstore: database/sql implementation for SQLite and MySQL
  - pg: PostgreSQL implementation over a pgx connection pool
  - ddb: DynamoDB implementation using a single-table layout
  - instrumented: decorator adding metrics, tracing and debug logging

Shared helpers live in eval (in-process predicate, ordering and aggregate
evaluation) and sqlbuild (dialect-aware statement generation). The storagetest
package holds the conformance suite every implementation runs.

Results only carry canonical values (nil, int64, float64, string, bool and
UTC time.Time at millisecond precision), so rows compare equal across engines.
*/
package datastore
