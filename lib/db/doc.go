// Package db provides the engine interface sKV stores are built on.
// It defines a small transactional row API (SQLDB / Tx) over tables that each hold
// (key TEXT PRIMARY KEY, value TEXT) rows, independent of the relational engine used.
//
// Key Components:
//
//   - SQLDB Interface: The core interface that all engine implementations must satisfy.
//     Every View / Update call runs one transaction; transactions never span calls.
//
//   - Tx Interface: The operations available inside a transaction (create/drop table,
//     put, delete, get, scan). Missing tables behave as empty tables so that reads after
//     a drop do not fail.
//
//   - Table Name Validation: Table names are spliced into SQL text. ValidateTableName
//     restricts them to [A-Za-z0-9_]+ and must be applied once when a store is opened.
//
//   - Database Information: The DatabaseInfo structure reports the engine type, file
//     location, file size and the tables that currently exist.
//
// Related Packages:
//
// The engines/sqlite package (github.com/ValentinKolb/sKV/lib/db/engines/sqlite) provides the
// SQLite implementation in write-ahead logging mode: one writer at a time, concurrent readers.
//
// The testing package (github.com/ValentinKolb/sKV/lib/db/testing) provides
// standardized tests and benchmarks for implementations of the SQLDB interface.
package db
