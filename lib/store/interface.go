package store

import (
	"fmt"
	"io"
	"time"

	"github.com/ValentinKolb/sKV/lib/db"
	"github.com/pkg/errors"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// DBFactory is a function type that creates the db used by the store.
// This is used to abstract the creation of the db from the store implementation.
type DBFactory func(location string) (db.SQLDB, error)

// GetResult is returned by IStore.Get
type GetResult struct {
	Value any    // The stored value, the declared default or nil
	Key   string // The full storage key (base or base_scope)
	Scope string // The scope as passed by the caller
	Found bool   // True if a row existed for the key
	// Default is true if Value was supplied by the schema
	Default bool
}

// Record is a single result of a multi record operation
type Record struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// SortOrder controls the ordering of IStore.All
type SortOrder int

const (
	SortAsc  SortOrder = iota // Ascending by value (default)
	SortDesc                  // Descending by value
	SortNone                  // Storage order
)

// String returns the name of the sort order
func (o SortOrder) String() string {
	switch o {
	case SortAsc:
		return "asc"
	case SortDesc:
		return "desc"
	case SortNone:
		return "none"
	default:
		return "unknown"
	}
}

// ParseSortOrder parses asc, desc or none
func ParseSortOrder(s string) (SortOrder, error) {
	switch s {
	case "asc", "":
		return SortAsc, nil
	case "desc":
		return SortDesc, nil
	case "none":
		return SortNone, nil
	default:
		return SortAsc, errors.Errorf("invalid sort order %q (asc, desc, none)", s)
	}
}

// DefaultAllLimit is the limit of IStore.All when AllOptions.Limit is not set
const DefaultAllLimit = 100

// AllOptions configures IStore.All
type AllOptions struct {
	Limit int // Maximum number of records, 0 means DefaultAllLimit and a negative limit means no limit
	Sort  SortOrder
}

// IStore is the interface of a table namespaced key–value store.
// Every operation runs in exactly one transaction of the underlying engine.
// Tables are fixed when the store is opened, operations on any other table return
// an *Error with code RetCUnknownTable.
type IStore interface {

	// --------------------------------------------------------------------------
	// Scoped Key Operations
	// --------------------------------------------------------------------------

	// Get returns the value for the key built from base and scope.
	// On a miss the schema default is returned unless base is a global key.
	Get(table, base, scope string) (result GetResult, err error)
	// Set inserts or replaces the value for the key built from base and scope.
	Set(table, base, scope string, value any) (err error)
	// Delete removes the value for the key built from base and scope. Deleting a missing key is a no-op.
	Delete(table, base, scope string) (err error)
	// Drop removes a single raw key from the table, or the whole table if key is empty.
	// Both are idempotent.
	Drop(table, key string) (err error)

	// --------------------------------------------------------------------------
	// Query Operations
	// --------------------------------------------------------------------------

	// FindOne returns the record stored under the raw key.
	// The boolean return value indicates whether a record was found.
	FindOne(table, key string) (record Record, found bool, err error)
	// FindMany returns all records selected by the query, at most limit records if limit > 0.
	FindMany(table string, q Query, limit int) (records []Record, err error)
	// DeleteMany removes exactly the records FindMany would return for the same query
	// and returns their number.
	DeleteMany(table string, q Query) (deleted int, err error)
	// All returns the decoded records accepted by filter (nil accepts all), sorted by value and limited.
	All(table string, filter func(record Record) bool, opts AllOptions) (records []Record, err error)

	// --------------------------------------------------------------------------
	// Diagnostics
	// --------------------------------------------------------------------------

	// Ping executes a trivial query and returns the elapsed wall time.
	Ping() (elapsed time.Duration, err error)
	// AvgPing returns the mean duration of all successful pings (0 before the first ping).
	AvgPing() (avg time.Duration)
	// Tables returns the configured tables followed by the reserved table.
	Tables() (tables []string)
	// GetDBInfo returns metadata about the database underlying the store.
	// It is not guaranteed that all fields are filled in or that the information is up-to-date!
	GetDBInfo() (info db.DatabaseInfo, err error)
	// Close releases the underlying database. The store must not be used afterward.
	Close() (err error)
}

// MetricsWriter is implemented by stores that record operation metrics
type MetricsWriter interface {
	// WriteMetrics writes all metrics of the store in Prometheus text format.
	WriteMetrics(w io.Writer)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode),
// an error message and the optional underlying cause.
type Error struct {
	Code  RetCode // The return code
	Msg   string  // The error message.
	Cause error   // The underlying error (may be nil)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("KVStoreError (code %s): %s: %v", e.Code, e.Msg, e.Cause)
	}
	return fmt.Sprintf("KVStoreError (code %s): %s", e.Code, e.Msg)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new KVStoreError with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// WrapError creates a new KVStoreError with the given code and message around a cause.
// A cause that already is an *Error is returned unchanged.
func WrapError(code RetCode, cause error, msg string) error {
	var storeErr *Error
	if errors.As(cause, &storeErr) {
		return cause
	}
	return &Error{
		Code:  code,
		Msg:   msg,
		Cause: cause,
	}
}

// IsCode reports whether err is (or wraps) an *Error with the given code
func IsCode(err error, code RetCode) bool {
	var storeErr *Error
	return errors.As(err, &storeErr) && storeErr.Code == code
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess            RetCode = iota // 0: Command executed successfully.
	RetCInternalError                     // 1: Command failed due to an internal error.
	RetCConfigurationError                // 2: The store options are invalid.
	RetCStorageError                      // 3: The storage engine failed (I/O, constraint, SQL).
	RetCDecodeError                       // 4: A stored value is not valid JSON.
	RetCInvalidValue                      // 5: A value can not be encoded.
	RetCInvalidKey                        // 6: A base or scope is not a valid identifier.
	RetCUnknownTable                      // 7: The table was not configured.
	RetCInvalidQuery                      // 8: The query is malformed.
)

// String returns the name of the return code
func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCConfigurationError:
		return "ConfigurationError"
	case RetCStorageError:
		return "StorageError"
	case RetCDecodeError:
		return "DecodeError"
	case RetCInvalidValue:
		return "InvalidValue"
	case RetCInvalidKey:
		return "InvalidKey"
	case RetCUnknownTable:
		return "UnknownTable"
	case RetCInvalidQuery:
		return "InvalidQuery"
	default:
		return "Unknown"
	}
}
