// Package store provides the table namespaced key-value interface of sKV
// together with its key rules, query variant and unified error handling.
// It serves as an abstraction layer over the lower-level db.SQLDB engines, adding
// scoped keys, JSON values, default resolution and multi record queries.
//
// Key Components:
//
//   - IStore Interface: The core abstraction defining all operations on a store.
//     Scoped operations (Get, Set, Delete) build the storage key from a base key
//     and an optional scope, raw operations (FindOne, Drop) take the storage key as is.
//
//   - Keys: BuildKey joins base and scope with "_". Because the separator is not
//     escaped, ValidateKeyParts rejects base keys and scopes that contain it, so two
//     different pairs never map to the same storage key. A scope that is empty or the
//     literal "undefined" leaves the key unscoped.
//
//   - Query: A tagged variant selecting rows for FindMany and DeleteMany:
//
//   - PredicateQuery: a function over the raw (undecoded) row
//
//   - MatchQuery: top-level field equality against the decoded value
//
//   - PatternQuery / PrefixQuery: a case-sensitive glob over the raw key
//
//     The tag is explicit, an object meant as a filter is never mistaken for a key.
//
//   - Error System: *Error carries a RetCode, a message and the underlying cause.
//     IsCode checks the code of any error chain. Per operation errors leave the
//     store usable for subsequent calls.
//
//   - DBFactory: A function type that abstracts the creation of the underlying
//     db.SQLDB, so tests and tools can open stores on other locations or engines.
//
// Implementations:
//
//	- SQL Store (sqlstore): The implementation on top of a db.SQLDB (SQLite by default).
//	  Available in the "github.com/ValentinKolb/sKV/lib/store/sqlstore" package.
package store
