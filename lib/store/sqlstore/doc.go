// Package sqlstore implements store.IStore on top of a db.SQLDB engine (SQLite by default).
//
// Open validates a common.StoreConfig, opens the database file and creates every configured
// table plus the reserved table. Each table holds rows of (key TEXT PRIMARY KEY, value TEXT)
// where value is the JSON text produced by the value codec.
//
// Operations:
//
//   - Get / Set / Delete work on scoped keys (base or base_scope). A Get miss asks the
//     schema for a declared default unless the base key is global. Answers of the schema
//     are never cached.
//   - Drop removes a raw key or, with an empty key, the whole table. A dropped table reads
//     as empty and is created again by the next Set.
//   - FindOne, FindMany, DeleteMany and All implement the multi record queries. FindMany and
//     DeleteMany share one selection function, so a DeleteMany removes exactly what a
//     FindMany with the same query reports.
//   - Ping measures a trivial query, AvgPing returns the mean of all pings.
//
// Every operation runs in exactly one transaction. Writes are serialized by the engine,
// reads run concurrently in WAL mode.
//
// Diagnostics:
//
// With StoreConfig.Debug every call is logged before it runs and its result or error is
// logged before it returns. Independently of Debug, every operation is counted in a
// per-store VictoriaMetrics set that can be written with WriteMetrics.
//
// Example:
//
//	cfg := common.DefaultStoreConfig()
//	cfg.Location = "data.db"
//	cfg.Tables = []string{"main"}
//
//	s, err := sqlstore.Open(cfg, variables)
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	_ = s.Set("main", "score", "user1", 42)
//	res, _ := s.Get("main", "score", "user1") // res.Value == int64(42), res.Key == "score_user1"
package sqlstore
