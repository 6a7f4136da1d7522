package sqlite

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ValentinKolb/sKV/lib/db"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	driverName          = "sqlite3"
	journalModeWAL      = "wal"
	defaultBusyTimeout  = 5 * time.Second
	defaultMaxOpenConns = 4
)

// --------------------------------------------------------------------------
// Core SQLite database structure
// --------------------------------------------------------------------------

// sqliteImpl implements db.SQLDB on a single SQLite file in WAL mode
type sqliteImpl struct {
	path string
	db   *sql.DB

	// single writer: Update transactions are serialized in process,
	// readers are never blocked by the writer in WAL mode
	writeMu sync.Mutex

	// SQL text per table, built once after the table name was validated
	queries *xsync.MapOf[string, *tableQueries]
}

// DBOptions configures the sqliteImpl behavior during initialization
type DBOptions struct {
	Path         string        // Path of the database file (created if missing)
	BusyTimeout  time.Duration // How long to wait for a lock held by another connection
	MaxOpenConns int           // Upper bound of pooled connections (readers)
}

// DefaultOptions returns the default sqliteImpl options for a database file
func DefaultOptions(path string) *DBOptions {
	return &DBOptions{
		Path:         path,
		BusyTimeout:  defaultBusyTimeout,
		MaxOpenConns: defaultMaxOpenConns,
	}
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewSQLiteDB opens (or creates) the database file and switches it to write-ahead logging.
//
// Thread-safety: This function should only be called once per file. Opening a second
// handle to the same file bypasses the single writer guarantee.
func NewSQLiteDB(opts *DBOptions) (db.SQLDB, error) {
	if opts == nil || opts.Path == "" {
		return nil, errors.New("sqlite: missing database path")
	}
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = defaultBusyTimeout
	}
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = defaultMaxOpenConns
	}

	v := url.Values{}
	v.Set("_journal_mode", "WAL")
	v.Set("_busy_timeout", strconv.FormatInt(opts.BusyTimeout.Milliseconds(), 10))
	v.Set("_synchronous", "NORMAL")
	dsn := fileURI(opts.Path) + "?" + v.Encode()

	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "sqlite: open %s", opts.Path)
	}
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetMaxIdleConns(opts.MaxOpenConns)

	// sql.Open is lazy, the first query actually opens the file
	var mode string
	if err := sqlDB.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrapf(err, "sqlite: open %s", opts.Path)
	}
	if !strings.EqualFold(mode, journalModeWAL) {
		_ = sqlDB.Close()
		return nil, errors.Errorf("sqlite: %s does not support write-ahead logging (journal_mode=%s)", opts.Path, mode)
	}

	return &sqliteImpl{
		path:    opts.Path,
		db:      sqlDB,
		queries: xsync.NewMapOf[string, *tableQueries](),
	}, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see db/db.go)
// --------------------------------------------------------------------------

func (s *sqliteImpl) View(fn func(tx db.Tx) error) error {
	return s.run(true, fn)
}

func (s *sqliteImpl) Update(fn func(tx db.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.run(false, fn)
}

func (s *sqliteImpl) Ping() error {
	var one int
	return s.db.QueryRow("SELECT 1").Scan(&one)
}

func (s *sqliteImpl) GetInfo() db.DatabaseInfo {
	libVersion, _, _ := sqlite3.Version()

	size := 0
	for _, p := range []string{s.path, s.path + "-wal"} {
		if fi, err := os.Stat(p); err == nil {
			size += int(fi.Size())
		}
	}

	var tables []string
	_ = s.View(func(tx db.Tx) error {
		var err error
		tables, err = tx.(*txImpl).tableNames()
		return err
	})

	return db.DatabaseInfo{
		SizeBytes: size,
		DbType:    db.ImplSQLite,
		Location:  s.path,
		Tables:    tables,
		Metadata: map[string]string{
			"sqlite_version": libVersion,
			"journal_mode":   journalModeWAL,
		},
	}
}

func (s *sqliteImpl) Close() error {
	return s.db.Close()
}

// --------------------------------------------------------------------------
// Transaction Handling
// --------------------------------------------------------------------------

// run executes fn in one transaction: commit on success, rollback on error or panic.
func (s *sqliteImpl) run(readOnly bool, fn func(tx db.Tx) error) (err error) {
	sqlTx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "sqlite: begin transaction")
	}

	committed := false
	defer func() {
		if !committed {
			_ = sqlTx.Rollback()
		}
	}()

	if err = fn(&txImpl{db: s, tx: sqlTx, readOnly: readOnly}); err != nil {
		return err
	}

	if err = sqlTx.Commit(); err != nil {
		return errors.Wrap(err, "sqlite: commit transaction")
	}
	committed = true
	return nil
}

// tableQueries holds the SQL text of all statements for one table
type tableQueries struct {
	create, drop, put, delete, get, scan, scanGlob string
}

// queriesFor returns the statements for a table, validating the name on first use.
func (s *sqliteImpl) queriesFor(table string) (*tableQueries, error) {
	if q, ok := s.queries.Load(table); ok {
		return q, nil
	}
	if err := db.ValidateTableName(table); err != nil {
		return nil, err
	}
	q, _ := s.queries.LoadOrStore(table, &tableQueries{
		create:   fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (key TEXT PRIMARY KEY, value TEXT)", table),
		drop:     fmt.Sprintf("DROP TABLE IF EXISTS %s", table),
		put:      fmt.Sprintf("INSERT OR REPLACE INTO %s (key, value) VALUES (?, ?)", table),
		delete:   fmt.Sprintf("DELETE FROM %s WHERE key = ?", table),
		get:      fmt.Sprintf("SELECT value FROM %s WHERE key = ?", table),
		scan:     fmt.Sprintf("SELECT key, value FROM %s", table),
		scanGlob: fmt.Sprintf("SELECT key, value FROM %s WHERE key GLOB ?", table),
	})
	return q, nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// fileURI turns a filesystem path into a SQLite file: URI. Characters with a
// meaning in URIs (%, ? and #) are percent-encoded so the file opened is
// exactly the configured path.
func fileURI(path string) string {
	return "file:" + (&url.URL{Path: path}).EscapedPath()
}

// isNoSuchTable reports whether the engine rejected a statement because the table is missing
func isNoSuchTable(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrError {
		return strings.HasPrefix(sqliteErr.Error(), "no such table")
	}
	return false
}
