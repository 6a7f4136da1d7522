package db

import (
	"regexp"
	"time"

	"github.com/pkg/errors"
)

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplSQLite Implementation = "sqlite"
)

// Row is a single stored entry exactly as the engine holds it.
type Row struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type DatabaseInfo struct {
	SizeBytes int            `json:"size_bytes"`
	DbType    Implementation `json:"db_type"`
	Location  string         `json:"location"`
	Tables    []string       `json:"tables"`
	Metadata  interface{}    `json:"metadata"`
	// ReadyAt is the time the owning store finished opening, engines leave it zero
	ReadyAt time.Time `json:"ready_at"`
}

// ErrInvalidTableName is returned for table names outside of [A-Za-z0-9_]+.
var ErrInvalidTableName = errors.New("invalid table name")

var tableNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidateTableName checks that a table name may be spliced into SQL text.
// Table names come from trusted configuration, this check closes the input space
// once at startup instead of quoting on every statement.
func ValidateTableName(name string) error {
	if !tableNamePattern.MatchString(name) {
		return errors.Wrapf(ErrInvalidTableName, "%q (allowed: letters, digits, underscore)", name)
	}
	return nil
}

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// Tx is a single unit of work against the engine. A Tx handed out by View may
// only read. All methods treat a table that does not exist (e.g. after DropTable)
// as an empty table: reads find nothing and deletes are no-ops.
type Tx interface {

	// --------------------------------------------------------------------------
	// Schema Operations
	// --------------------------------------------------------------------------

	// CreateTable creates the table if it does not exist yet. Existing data is never touched.
	CreateTable(table string) (err error)

	// DropTable removes the table and all of its rows. Dropping a missing table is a no-op.
	DropTable(table string) (err error)

	// --------------------------------------------------------------------------
	// Write Operations
	// --------------------------------------------------------------------------

	// Put inserts or replaces the row with the given key.
	Put(table, key, value string) (err error)

	// Delete removes the row with the given key.
	// The boolean return value indicates whether a row was removed.
	Delete(table, key string) (deleted bool, err error)

	// --------------------------------------------------------------------------
	// Query Operations
	// --------------------------------------------------------------------------

	// Get retrieves the value for an exact key.
	// The boolean return value indicates whether a row for the key was found.
	Get(table, key string) (value string, found bool, err error)

	// Scan calls fn for every row of the table in storage order until fn returns false.
	Scan(table string, fn func(row Row) (next bool)) (err error)

	// ScanGlob is Scan restricted to keys matching a glob pattern (*, ?, [...]).
	ScanGlob(table, pattern string, fn func(row Row) (next bool)) (err error)
}

// SQLDB defines an interface for the relational engine backing the store.
// Every call to View or Update runs exactly one transaction: the transaction is
// committed when fn returns nil and rolled back otherwise.
type SQLDB interface {

	// View runs fn inside a read-only transaction. Multiple View calls may run concurrently.
	View(fn func(tx Tx) error) (err error)

	// Update runs fn inside a read-write transaction. Update calls are serialized.
	Update(fn func(tx Tx) error) (err error)

	// Ping executes a trivial query against the engine.
	Ping() (err error)

	// GetInfo returns information about the database.
	GetInfo() (info DatabaseInfo)

	// Close closes the database.
	Close() (err error)
}
