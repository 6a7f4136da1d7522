package sqlite

import (
	"database/sql"

	"github.com/ValentinKolb/sKV/lib/db"
	"github.com/pkg/errors"
)

// errReadOnly is returned when a write is attempted inside View
var errReadOnly = errors.New("sqlite: write inside read-only transaction")

// txImpl implements db.Tx on top of a *sql.Tx
type txImpl struct {
	db       *sqliteImpl
	tx       *sql.Tx
	readOnly bool
}

// --------------------------------------------------------------------------
// Interface Methods (docu see db/db.go)
// --------------------------------------------------------------------------

func (t *txImpl) CreateTable(table string) error {
	q, err := t.writeQueries(table)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(q.create)
	return errors.Wrapf(err, "sqlite: create table %s", table)
}

func (t *txImpl) DropTable(table string) error {
	q, err := t.writeQueries(table)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(q.drop)
	return errors.Wrapf(err, "sqlite: drop table %s", table)
}

func (t *txImpl) Put(table, key, value string) error {
	q, err := t.writeQueries(table)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(q.put, key, value)
	return errors.Wrapf(err, "sqlite: put %s[%s]", table, key)
}

func (t *txImpl) Delete(table, key string) (bool, error) {
	q, err := t.writeQueries(table)
	if err != nil {
		return false, err
	}
	res, err := t.tx.Exec(q.delete, key)
	if isNoSuchTable(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "sqlite: delete %s[%s]", table, key)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrapf(err, "sqlite: delete %s[%s]", table, key)
	}
	return n > 0, nil
}

func (t *txImpl) Get(table, key string) (string, bool, error) {
	q, err := t.db.queriesFor(table)
	if err != nil {
		return "", false, err
	}

	var value sql.NullString
	err = t.tx.QueryRow(q.get, key).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows), isNoSuchTable(err):
		return "", false, nil
	case err != nil:
		return "", false, errors.Wrapf(err, "sqlite: get %s[%s]", table, key)
	}

	// a NULL column can only come from outside writers, read it as JSON null
	if !value.Valid {
		return "null", true, nil
	}
	return value.String, true, nil
}

func (t *txImpl) Scan(table string, fn func(row db.Row) bool) error {
	q, err := t.db.queriesFor(table)
	if err != nil {
		return err
	}
	return t.scan(table, fn, q.scan)
}

func (t *txImpl) ScanGlob(table, pattern string, fn func(row db.Row) bool) error {
	q, err := t.db.queriesFor(table)
	if err != nil {
		return err
	}
	return t.scan(table, fn, q.scanGlob, pattern)
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// writeQueries returns the statements of a table after checking the transaction may write
func (t *txImpl) writeQueries(table string) (*tableQueries, error) {
	if t.readOnly {
		return nil, errReadOnly
	}
	return t.db.queriesFor(table)
}

// scan runs a row query and feeds every row to fn.
// All rows are read before fn is called, so fn may issue statements on the same transaction.
func (t *txImpl) scan(table string, fn func(row db.Row) bool, query string, args ...any) error {
	rows, err := t.tx.Query(query, args...)
	if isNoSuchTable(err) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "sqlite: scan %s", table)
	}

	var result []db.Row
	for rows.Next() {
		var key string
		var value sql.NullString
		if err := rows.Scan(&key, &value); err != nil {
			_ = rows.Close()
			return errors.Wrapf(err, "sqlite: scan %s", table)
		}
		if !value.Valid {
			value.String = "null"
		}
		result = append(result, db.Row{Key: key, Value: value.String})
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return errors.Wrapf(err, "sqlite: scan %s", table)
	}
	if err := rows.Close(); err != nil {
		return errors.Wrapf(err, "sqlite: scan %s", table)
	}

	for _, row := range result {
		if !fn(row) {
			break
		}
	}
	return nil
}

// tableNames lists the tables that currently exist
func (t *txImpl) tableNames() ([]string, error) {
	rows, err := t.tx.Query("SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name")
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: list tables")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "sqlite: list tables")
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
