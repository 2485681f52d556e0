/*
Package registry manages backend and value-object registration for RowStore.

The registry system enables:
  - Opening any backend by its configured type name
  - Resolving the table a Go value-object type is persisted in

Backend Registry:
Maps backend type names to factories. Adapters register themselves in init():

	func init() {
	    registry.RegisterBackend("sqlite", openSQLite)
	}

Table Registry:
Associates Go types with table names for typed value-object lookups:

	registry.RegisterValueObject[Address]("address")
	table, ok := registry.TableOf[Address]()

The registry is thread-safe and should be populated during initialization,
typically in init() functions.
*/
package registry
