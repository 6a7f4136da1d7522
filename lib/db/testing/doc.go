// Package testing provides standardised tests and benchmarks for
// engine implementations that satisfy the db.SQLDB interface.
//
// The package contains:
//   - testing: A test suite for validating conformance to the SQLDB interface contract
//     (upsert semantics, idempotent create/drop, missing tables read as empty,
//     rollback on error, read-only views, table name validation, concurrent writers)
//   - benchmark: Performance tests for measuring throughput of common engine operations
//
// Example usage:
//
//	// Creating a factory function for your implementation
//	factory := func(t testing.TB) db.SQLDB {
//		return NewMyDatabase(filepath.Join(t.TempDir(), "test.db"))
//	}
//
//	// Running the standard test suite
//	dbtesting.RunSQLDBTests(t, "MyDatabase", factory)
//
//	// Running performance benchmarks
//	dbtesting.RunSQLDBBenchmarks(b, "MyDatabase", factory)
package testing
