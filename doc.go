/*
Package rowstore provides a schema-driven row persistence layer for Go
applications, with one storage contract and several interchangeable backends.

Tables are declared in a YAML schema file as primary tables, whose rows get a
store-assigned integer identity, or relation tables keyed by a composite of
their columns. Every backend implements datastore.StoragePort:

  - memory: an in-process reference implementation
  - sqlite and mysql: database/sql with modernc.org/sqlite and go-sql-driver/mysql
  - postgres: pgx connection pool
  - dynamodb: a single-table layout on aws-sdk-go-v2

Ports opened through this package are wrapped with tracing, metrics and
structured logging.

Basic Usage:

	catalog, _ := schema.Load("schema.yaml")
	port, _ := rowstore.Open(ctx, config.StoreConfig{Type: "sqlite",
		SQLite: config.SQLiteConfig{Path: "app.db"}}, catalog)
	defer port.Close()

	uid, _ := port.AddRow(ctx, "tag", storagemodels.Row{"label": "go"})
	rows, _ := port.GetObjectDataByQuery(ctx, storagemodels.NewQuery("tag").Where("uid", uid))

Several named stores can be opened from one configuration file with OpenAll,
which returns a Manager.

Value objects are plain structs with column tags, registered against a table:

	registry.RegisterValueObject[Tag]("tag")
	uid, found, _ := rowstore.FindValueObject(ctx, port, Tag{Label: "go"})
*/
package rowstore
