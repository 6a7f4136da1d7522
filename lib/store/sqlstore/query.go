package sqlstore

import (
	"sort"

	"github.com/ValentinKolb/sKV/lib/codec"
	"github.com/ValentinKolb/sKV/lib/db"
	"github.com/ValentinKolb/sKV/lib/store"
)

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) FindOne(table, key string) (record store.Record, found bool, err error) {
	trace := s.diag.begin("findOne", table, key)
	defer func() { trace.end(record, err) }()

	if err = s.checkTable(table); err != nil {
		return store.Record{}, false, err
	}

	var text string
	if err = s.db.View(func(tx db.Tx) error {
		var e error
		text, found, e = tx.Get(table, key)
		return e
	}); err != nil {
		return store.Record{}, false, storageError(err, "findOne", table, key)
	}
	if !found {
		return store.Record{}, false, nil
	}

	value, err := s.decode(text, table, key)
	if err != nil {
		return store.Record{}, false, err
	}
	return store.Record{Key: key, Value: value}, true, nil
}

func (s *storeImpl) FindMany(table string, q store.Query, limit int) (records []store.Record, err error) {
	trace := s.diag.begin("findMany", table, q, limit)
	defer func() { trace.end(records, err) }()

	if err = s.checkTable(table); err != nil {
		return nil, err
	}
	if q, err = q.Prepare(); err != nil {
		return nil, err
	}

	var rows []selectedRow
	if err = s.db.View(func(tx db.Tx) error {
		var e error
		rows, e = s.selectRows(tx, table, q, limit, true)
		return e
	}); err != nil {
		return nil, storageError(err, "findMany", table, "")
	}

	records = make([]store.Record, len(rows))
	for i, row := range rows {
		records[i] = store.Record{Key: row.Key, Value: row.value}
	}
	return records, nil
}

func (s *storeImpl) DeleteMany(table string, q store.Query) (deleted int, err error) {
	trace := s.diag.begin("deleteMany", table, q)
	defer func() { trace.end(deleted, err) }()

	if err = s.checkTable(table); err != nil {
		return 0, err
	}
	if q, err = q.Prepare(); err != nil {
		return 0, err
	}

	// selection and deletion share one write transaction, nothing can change in between
	if err = s.db.Update(func(tx db.Tx) error {
		rows, e := s.selectRows(tx, table, q, 0, false)
		if e != nil {
			return e
		}
		n := 0
		for _, row := range rows {
			ok, e := tx.Delete(table, row.Key)
			if e != nil {
				return e
			}
			if ok {
				n++
			}
		}
		deleted = n
		return nil
	}); err != nil {
		return 0, storageError(err, "deleteMany", table, "")
	}
	return deleted, nil
}

func (s *storeImpl) All(table string, filter func(record store.Record) bool, opts store.AllOptions) (records []store.Record, err error) {
	trace := s.diag.begin("all", table, filter, opts.Limit, opts.Sort)
	defer func() { trace.end(records, err) }()

	if err = s.checkTable(table); err != nil {
		return nil, err
	}

	var rows []db.Row
	if err = s.db.View(func(tx db.Tx) error {
		return tx.Scan(table, func(row db.Row) bool {
			rows = append(rows, row)
			return true
		})
	}); err != nil {
		return nil, storageError(err, "all", table, "")
	}

	records = make([]store.Record, 0, len(rows))
	for _, row := range rows {
		value, err := s.decode(row.Value, table, row.Key)
		if err != nil {
			return nil, err
		}
		record := store.Record{Key: row.Key, Value: value}
		if filter == nil || filter(record) {
			records = append(records, record)
		}
	}

	switch opts.Sort {
	case store.SortAsc:
		sort.SliceStable(records, func(i, j int) bool {
			return codec.Compare(records[i].Value, records[j].Value) < 0
		})
	case store.SortDesc:
		sort.SliceStable(records, func(i, j int) bool {
			return codec.Compare(records[i].Value, records[j].Value) > 0
		})
	}

	limit := opts.Limit
	if limit == 0 {
		limit = store.DefaultAllLimit
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// --------------------------------------------------------------------------
// Row Selection
// --------------------------------------------------------------------------

// selectedRow is a row chosen by a query, value is set if the row was decoded
type selectedRow struct {
	db.Row
	value any
}

// selectRows is the single selection function behind FindMany and DeleteMany.
// Rows are picked in storage order until limit rows were found (limit <= 0 is unlimited).
// With decodeAll every selected value is decoded, otherwise only match queries decode.
// A decode error aborts the whole selection.
func (s *storeImpl) selectRows(tx db.Tx, table string, q store.Query, limit int, decodeAll bool) ([]selectedRow, error) {
	var (
		selected  []selectedRow
		decodeErr error
	)

	collect := func(row db.Row) bool {
		sel := selectedRow{Row: row}
		decoded := false

		switch q.Kind {
		case store.QueryPredicate:
			if !q.Predicate(row) {
				return true
			}
		case store.QueryMatch:
			if sel.value, decodeErr = s.decode(row.Value, table, row.Key); decodeErr != nil {
				return false
			}
			decoded = true
			if !store.MatchFields(sel.value, q.Match) {
				return true
			}
		}

		if decodeAll && !decoded {
			if sel.value, decodeErr = s.decode(row.Value, table, row.Key); decodeErr != nil {
				return false
			}
		}

		selected = append(selected, sel)
		return limit <= 0 || len(selected) < limit
	}

	var err error
	if q.Kind == store.QueryPattern {
		err = tx.ScanGlob(table, q.Pattern, collect)
	} else {
		err = tx.Scan(table, collect)
	}
	if err != nil {
		return nil, err
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return selected, nil
}
