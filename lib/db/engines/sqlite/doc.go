// Package sqlite implements the db.SQLDB interface on a single SQLite file using
// github.com/mattn/go-sqlite3 through database/sql.
//
// Implementation Details:
//
//   - Write-Ahead Logging: The file is opened with journal_mode=WAL, synchronous=NORMAL
//     and a busy timeout. Opening fails if the file cannot be switched to WAL
//     (e.g. in-memory databases).
//
//   - Single Writer: Update transactions are serialized by an in-process mutex, View
//     transactions use the connection pool and run concurrently with the writer.
//
//   - Table Layout: Every table is (key TEXT PRIMARY KEY, value TEXT). Table names are
//     validated once per name with db.ValidateTableName, the SQL text for each table is
//     built once and cached in a concurrent map.
//
//   - Missing Tables: "no such table" errors are translated into empty results for
//     Get / Scan / ScanGlob / Delete so that a dropped table reads as empty.
//
// Usage Example:
//
//	database, err := sqlite.NewSQLiteDB(sqlite.DefaultOptions("data/skv.db"))
//	if err != nil {
//		return err
//	}
//	defer database.Close()
//
//	err = database.Update(func(tx db.Tx) error {
//		if err := tx.CreateTable("main"); err != nil {
//			return err
//		}
//		return tx.Put("main", "score_user1", "42")
//	})
package sqlite
