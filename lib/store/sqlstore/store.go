package sqlstore

import (
	"fmt"
	"os"
	"time"

	"github.com/ValentinKolb/sKV/lib/codec"
	"github.com/ValentinKolb/sKV/lib/common"
	"github.com/ValentinKolb/sKV/lib/db"
	"github.com/ValentinKolb/sKV/lib/db/engines/sqlite"
	"github.com/ValentinKolb/sKV/lib/schema"
	"github.com/ValentinKolb/sKV/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("store")

type storeImpl struct {
	cfg    common.StoreConfig
	db     db.SQLDB
	codec  codec.IValueCodec
	schema schema.IVariableSchema

	// tables and globals are fixed after Open
	tables  map[string]struct{}
	globals map[string]struct{}

	// dropped holds the tables removed by Drop, they are created again by the next write
	dropped *xsync.MapOf[string, struct{}]

	diag *diagnostics

	// readyAt is set once all tables exist
	readyAt time.Time
}

// SQLiteFactory opens the SQLite database file at location
func SQLiteFactory(location string) (db.SQLDB, error) {
	return sqlite.NewSQLiteDB(sqlite.DefaultOptions(location))
}

// --------------------------------------------------------------------------
// Initialization
// --------------------------------------------------------------------------

// Open validates the configuration, opens the SQLite file at cfg.Location and
// creates all configured tables plus the reserved table if they do not exist.
// The schema is consulted on misses, it may be nil.
func Open(cfg common.StoreConfig, variables schema.IVariableSchema) (store.IStore, error) {
	return OpenWith(cfg, variables, SQLiteFactory)
}

// MustOpen is Open for process startup: a store that can not be opened is fatal,
// the error is logged and the process exits with status 1.
func MustOpen(cfg common.StoreConfig, variables schema.IVariableSchema) store.IStore {
	s, err := Open(cfg, variables)
	if err != nil {
		Logger.Errorf("failed to open store: %v", err)
		os.Exit(1)
	}
	return s
}

// OpenWith is Open with a custom database factory
func OpenWith(cfg common.StoreConfig, variables schema.IVariableSchema, factory store.DBFactory) (store.IStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, store.WrapError(store.RetCConfigurationError, err, "open store")
	}
	if factory == nil {
		factory = SQLiteFactory
	}

	database, err := factory(cfg.Location)
	if err != nil {
		return nil, store.WrapError(store.RetCStorageError, err, fmt.Sprintf("open database %s", cfg.Location))
	}

	tables := cfg.AllTables()
	if err := database.Update(func(tx db.Tx) error {
		for _, table := range tables {
			if err := tx.CreateTable(table); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = database.Close()
		return nil, store.WrapError(store.RetCStorageError, err, "create tables")
	}

	s := &storeImpl{
		cfg:     cfg,
		db:      database,
		codec:   codec.Default(),
		schema:  variables,
		tables:  toSet(tables),
		globals: toSet(cfg.GlobalKeys),
		dropped: xsync.NewMapOf[string, struct{}](),
		diag:    newDiagnostics(cfg.Debug, TraceLogger),
		readyAt: time.Now(),
	}

	if cfg.Logging {
		s.banner()
	}
	return s, nil
}

// banner logs the connection message
func (s *storeImpl) banner() {
	info := s.db.GetInfo()
	engineVersion := "unknown"
	if meta, ok := info.Metadata.(map[string]string); ok && meta["sqlite_version"] != "" {
		engineVersion = meta["sqlite_version"]
	}
	Logger.Infof("sKV v%s connected to %s (%d tables, %s %s, ready at %s)",
		common.Version, s.cfg.Location, len(s.tables), info.DbType, engineVersion, s.readyAt.Format(time.RFC3339))
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Get(table, base, scope string) (result store.GetResult, err error) {
	trace := s.diag.begin("get", table, base, scope)
	defer func() { trace.end(result, err) }()

	if err = s.checkScoped(table, base, scope); err != nil {
		return store.GetResult{}, err
	}
	key := store.BuildKey(base, scope)

	var text string
	var found bool
	if err = s.db.View(func(tx db.Tx) error {
		var e error
		text, found, e = tx.Get(table, key)
		return e
	}); err != nil {
		return store.GetResult{}, storageError(err, "get", table, key)
	}

	result = store.GetResult{Key: key, Scope: scope, Found: found}
	if found {
		if result.Value, err = s.decode(text, table, key); err != nil {
			return store.GetResult{}, err
		}
		return result, nil
	}

	if result.Value, result.Default, err = s.resolveDefault(table, base); err != nil {
		return store.GetResult{}, err
	}
	return result, nil
}

func (s *storeImpl) Set(table, base, scope string, value any) (err error) {
	trace := s.diag.begin("set", table, base, scope, value)
	defer func() { trace.end(nil, err) }()

	if err = s.checkScoped(table, base, scope); err != nil {
		return err
	}
	key := store.BuildKey(base, scope)

	text, err := s.codec.Encode(value)
	if err != nil {
		return store.WrapError(store.RetCInvalidValue, err, fmt.Sprintf("encode value of %s[%s]", table, key))
	}

	if err = s.update(table, func(tx db.Tx) error {
		return tx.Put(table, key, text)
	}); err != nil {
		return storageError(err, "set", table, key)
	}
	return nil
}

func (s *storeImpl) Delete(table, base, scope string) (err error) {
	trace := s.diag.begin("delete", table, base, scope)
	defer func() { trace.end(nil, err) }()

	if err = s.checkScoped(table, base, scope); err != nil {
		return err
	}
	key := store.BuildKey(base, scope)

	if err = s.db.Update(func(tx db.Tx) error {
		_, e := tx.Delete(table, key)
		return e
	}); err != nil {
		return storageError(err, "delete", table, key)
	}
	return nil
}

func (s *storeImpl) Drop(table, key string) (err error) {
	trace := s.diag.begin("drop", table, key)
	defer func() { trace.end(nil, err) }()

	if err = s.checkTable(table); err != nil {
		return err
	}

	if key != "" {
		if err = s.db.Update(func(tx db.Tx) error {
			_, e := tx.Delete(table, key)
			return e
		}); err != nil {
			return storageError(err, "drop", table, key)
		}
		return nil
	}

	if err = s.db.Update(func(tx db.Tx) error {
		// marked inside the write transaction, so no write can slip in between
		s.dropped.Store(table, struct{}{})
		return tx.DropTable(table)
	}); err != nil {
		return storageError(err, "drop", table, "")
	}
	return nil
}

func (s *storeImpl) Ping() (elapsed time.Duration, err error) {
	trace := s.diag.begin("ping", "")
	defer func() { trace.end(elapsed, err) }()

	start := time.Now()
	if err = s.db.Ping(); err != nil {
		return 0, store.WrapError(store.RetCStorageError, err, "ping")
	}
	elapsed = time.Since(start)
	s.diag.pings.Update(elapsed)
	return elapsed, nil
}

func (s *storeImpl) AvgPing() time.Duration {
	return time.Duration(s.diag.pings.Mean())
}

func (s *storeImpl) Tables() []string {
	return s.cfg.AllTables()
}

func (s *storeImpl) GetDBInfo() (db.DatabaseInfo, error) {
	info := s.db.GetInfo()
	info.ReadyAt = s.readyAt
	return info, nil
}

func (s *storeImpl) Close() error {
	s.diag.close()
	if err := s.db.Close(); err != nil {
		return store.WrapError(store.RetCStorageError, err, "close")
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// checkTable fails for tables that were not configured
func (s *storeImpl) checkTable(table string) error {
	if _, ok := s.tables[table]; !ok {
		return store.NewError(store.RetCUnknownTable, fmt.Sprintf("table %q is not configured", table))
	}
	return nil
}

// checkScoped validates the table and the key parts of a scoped operation
func (s *storeImpl) checkScoped(table, base, scope string) error {
	if err := s.checkTable(table); err != nil {
		return err
	}
	return store.ValidateKeyParts(base, scope)
}

// update runs fn in a write transaction and creates the table first if it was dropped
func (s *storeImpl) update(table string, fn func(tx db.Tx) error) error {
	recreated := false
	err := s.db.Update(func(tx db.Tx) error {
		if _, ok := s.dropped.Load(table); ok {
			if err := tx.CreateTable(table); err != nil {
				return err
			}
			s.dropped.Delete(table)
			recreated = true
		}
		return fn(tx)
	})
	if err != nil && recreated {
		// the create was rolled back with the rest of the transaction
		s.dropped.Store(table, struct{}{})
	}
	return err
}

// decode decodes a stored value
func (s *storeImpl) decode(text, table, key string) (any, error) {
	v, err := s.codec.Decode(text)
	if err != nil {
		return nil, store.WrapError(store.RetCDecodeError, err, fmt.Sprintf("decode %s[%s]", table, key))
	}
	return v, nil
}

// storageError wraps an engine error
func storageError(err error, op, table, key string) error {
	if key == "" {
		return store.WrapError(store.RetCStorageError, err, fmt.Sprintf("%s %s", op, table))
	}
	return store.WrapError(store.RetCStorageError, err, fmt.Sprintf("%s %s[%s]", op, table, key))
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
