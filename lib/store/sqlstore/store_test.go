package sqlstore

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/sKV/lib/common"
	"github.com/ValentinKolb/sKV/lib/db"
	"github.com/ValentinKolb/sKV/lib/schema"
	"github.com/ValentinKolb/sKV/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func testConfig(t testing.TB, tables ...string) common.StoreConfig {
	cfg := common.DefaultStoreConfig()
	cfg.Location = filepath.Join(t.TempDir(), "skv.db")
	cfg.Tables = tables
	cfg.Logging = false
	return cfg
}

func openTestStore(t testing.TB, variables schema.IVariableSchema) store.IStore {
	s, err := Open(testConfig(t, "main", "guild"), variables)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// openWithEngine also returns the engine so tests can write raw rows
func openWithEngine(t testing.TB) (store.IStore, db.SQLDB) {
	var engine db.SQLDB
	s, err := OpenWith(testConfig(t, "main"), nil, func(location string) (db.SQLDB, error) {
		var err error
		engine, err = SQLiteFactory(location)
		return engine, err
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, engine
}

// countingSchema records how often it is asked
type countingSchema struct {
	*schema.MemorySchema
	has atomic.Int64
	get atomic.Int64
}

func (c *countingSchema) HasDeclaration(base, table string) bool {
	c.has.Add(1)
	return c.MemorySchema.HasDeclaration(base, table)
}

func (c *countingSchema) GetDeclaration(base, table string) (schema.Declaration, bool) {
	c.get.Add(1)
	return c.MemorySchema.GetDeclaration(base, table)
}

func keys(records []store.Record) []string {
	result := make([]string, len(records))
	for i, r := range records {
		result[i] = r.Key
	}
	return result
}

// --------------------------------------------------------------------------
// Open
// --------------------------------------------------------------------------

func TestOpenRejectsInvalidConfig(t *testing.T) {
	_, err := Open(testConfig(t), nil)
	assert.True(t, store.IsCode(err, store.RetCConfigurationError), "empty tables: %v", err)

	_, err = Open(testConfig(t, "main", common.ReservedTable), nil)
	assert.True(t, store.IsCode(err, store.RetCConfigurationError), "reserved table: %v", err)
	assert.True(t, errors.Is(err, common.ErrInvalidConfig))

	cfg := testConfig(t, "main")
	cfg.Location = ""
	_, err = Open(cfg, nil)
	assert.True(t, store.IsCode(err, store.RetCConfigurationError), "missing location: %v", err)
}

func TestOpenFactoryError(t *testing.T) {
	_, err := OpenWith(testConfig(t, "main"), nil, func(string) (db.SQLDB, error) {
		return nil, errors.New("boom")
	})
	assert.True(t, store.IsCode(err, store.RetCStorageError))
}

func TestOpenCreatesTables(t *testing.T) {
	before := time.Now()
	s := openTestStore(t, nil)
	assert.Equal(t, []string{"main", "guild", common.ReservedTable}, s.Tables())

	info, err := s.GetDBInfo()
	require.NoError(t, err)
	assert.Equal(t, db.ImplSQLite, info.DbType)
	assert.False(t, info.ReadyAt.Before(before))
	assert.False(t, info.ReadyAt.After(time.Now()))

	again, err := s.GetDBInfo()
	require.NoError(t, err)
	assert.Equal(t, info.ReadyAt, again.ReadyAt)
	assert.ElementsMatch(t, []string{"main", "guild", common.ReservedTable}, info.Tables)
}

func TestReopenKeepsData(t *testing.T) {
	cfg := testConfig(t, "main")
	s, err := Open(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, s.Set("main", "score", "user1", 7))
	require.NoError(t, s.Close())

	s, err = Open(cfg, nil)
	require.NoError(t, err)
	defer s.Close()
	res, err := s.Get("main", "score", "user1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.Value)
}

// --------------------------------------------------------------------------
// Scoped Key Operations
// --------------------------------------------------------------------------

func TestScoreScenario(t *testing.T) {
	s := openTestStore(t, nil)

	require.NoError(t, s.Set("main", "score", "user1", 42))

	res, err := s.Get("main", "score", "user1")
	require.NoError(t, err)
	assert.Equal(t, store.GetResult{Value: int64(42), Key: "score_user1", Scope: "user1", Found: true}, res)

	require.NoError(t, s.Drop("main", ""))

	res, err = s.Get("main", "score", "user1")
	require.NoError(t, err)
	assert.Nil(t, res.Value)
	assert.False(t, res.Found)
	assert.Equal(t, "score_user1", res.Key)

	// dropping again is not an error
	require.NoError(t, s.Drop("main", ""))
}

func TestScoreScenarioWithDefault(t *testing.T) {
	variables := schema.NewMemorySchema()
	require.NoError(t, variables.Declare("main", "score", 0))
	s := openTestStore(t, variables)

	require.NoError(t, s.Set("main", "score", "user1", 42))
	require.NoError(t, s.Drop("main", ""))

	res, err := s.Get("main", "score", "user1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Value)
	assert.True(t, res.Default)
	assert.False(t, res.Found)
}

func TestRoundTrip(t *testing.T) {
	s := openTestStore(t, nil)

	values := map[string]any{
		"int":    123,
		"neg":    -9007199254740993,
		"float":  3.25,
		"string": "hällo \"world\"",
		"true":   true,
		"false":  false,
		"null":   nil,
		"array":  []any{1, "two", []any{3.5}, nil},
		"object": map[string]any{"a": 1, "nested": map[string]any{"b": []any{true}}},
		"empty":  map[string]any{},
	}

	for name, value := range values {
		require.NoError(t, s.Set("main", name, "", value), name)
	}
	for name, value := range values {
		res, err := s.Get("main", name, "")
		require.NoError(t, err, name)
		want, err := normalize(value)
		require.NoError(t, err)
		assert.Equal(t, want, res.Value, name)
		assert.True(t, res.Found, name)
	}
}

func TestSetIdempotent(t *testing.T) {
	s := openTestStore(t, nil)

	require.NoError(t, s.Set("main", "level", "u1", map[string]any{"xp": 10}))
	require.NoError(t, s.Set("main", "level", "u1", map[string]any{"xp": 10}))

	records, err := s.All("main", nil, store.AllOptions{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "level_u1", records[0].Key)
}

func TestSetReplaces(t *testing.T) {
	s := openTestStore(t, nil)

	require.NoError(t, s.Set("main", "level", "u1", 1))
	require.NoError(t, s.Set("main", "level", "u1", "two"))

	res, err := s.Get("main", "level", "u1")
	require.NoError(t, err)
	assert.Equal(t, "two", res.Value)
}

func TestDelete(t *testing.T) {
	variables := schema.NewMemorySchema()
	require.NoError(t, variables.Declare("main", "money", 100))
	s := openTestStore(t, variables)

	require.NoError(t, s.Set("main", "money", "u1", 5))
	require.NoError(t, s.Delete("main", "money", "u1"))

	res, err := s.Get("main", "money", "u1")
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Equal(t, int64(100), res.Value)

	// deleting a missing key is a no-op
	require.NoError(t, s.Delete("main", "money", "u1"))
	require.NoError(t, s.Delete("main", "never", ""))
}

func TestUndefinedScope(t *testing.T) {
	s := openTestStore(t, nil)

	require.NoError(t, s.Set("main", "prefix", "undefined", "!"))
	res, err := s.Get("main", "prefix", "")
	require.NoError(t, err)
	assert.Equal(t, "!", res.Value)
	assert.Equal(t, "prefix", res.Key)
}

func TestInvalidKeys(t *testing.T) {
	s := openTestStore(t, nil)

	err := s.Set("main", "my_score", "u1", 1)
	assert.True(t, store.IsCode(err, store.RetCInvalidKey), "%v", err)

	_, err = s.Get("main", "score", "u_1")
	assert.True(t, store.IsCode(err, store.RetCInvalidKey), "%v", err)

	err = s.Delete("main", "", "u1")
	assert.True(t, store.IsCode(err, store.RetCInvalidKey), "%v", err)
}

func TestUnknownTable(t *testing.T) {
	s := openTestStore(t, nil)

	_, err := s.Get("nope", "score", "")
	assert.True(t, store.IsCode(err, store.RetCUnknownTable))
	assert.True(t, store.IsCode(s.Set("nope", "score", "", 1), store.RetCUnknownTable))
	assert.True(t, store.IsCode(s.Drop("nope", ""), store.RetCUnknownTable))

	_, err = s.FindMany("nope", store.PatternQuery("*"), 0)
	assert.True(t, store.IsCode(err, store.RetCUnknownTable))
}

func TestInvalidValue(t *testing.T) {
	s := openTestStore(t, nil)

	err := s.Set("main", "fn", "", func() {})
	assert.True(t, store.IsCode(err, store.RetCInvalidValue), "%v", err)

	// the store stays usable
	require.NoError(t, s.Set("main", "ok", "", 1))
}

func TestDropKey(t *testing.T) {
	s := openTestStore(t, nil)

	require.NoError(t, s.Set("main", "a", "1", 1))
	require.NoError(t, s.Set("main", "b", "", 2))

	require.NoError(t, s.Drop("main", "a_1"))
	require.NoError(t, s.Drop("main", "a_1"))

	_, found, err := s.FindOne("main", "a_1")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = s.FindOne("main", "b")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestDropThenWrite(t *testing.T) {
	s := openTestStore(t, nil)

	require.NoError(t, s.Set("main", "a", "", 1))
	require.NoError(t, s.Drop("main", ""))

	// reads and deletes on the dropped table behave as on an empty table
	records, err := s.All("main", nil, store.AllOptions{})
	require.NoError(t, err)
	assert.Empty(t, records)
	require.NoError(t, s.Delete("main", "a", ""))
	n, err := s.DeleteMany("main", store.PatternQuery("*"))
	require.NoError(t, err)
	assert.Zero(t, n)

	// the next write creates the table again
	require.NoError(t, s.Set("main", "b", "", 2))
	res, err := s.Get("main", "b", "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Value)

	// other tables are untouched by the drop
	require.NoError(t, s.Set("guild", "prefix", "g1", "!"))
	res, err = s.Get("guild", "prefix", "g1")
	require.NoError(t, err)
	assert.Equal(t, "!", res.Value)
}

// --------------------------------------------------------------------------
// Default Resolution
// --------------------------------------------------------------------------

func TestDefaultsAreNotCached(t *testing.T) {
	variables := &countingSchema{MemorySchema: schema.NewMemorySchema()}
	require.NoError(t, variables.Declare("main", "money", 10))
	s := openTestStore(t, variables)

	res, err := s.Get("main", "money", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.Value)

	// a changed declaration is visible on the next miss
	require.NoError(t, variables.Declare("main", "money", 20))
	res, err = s.Get("main", "money", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(20), res.Value)

	assert.Equal(t, int64(2), variables.has.Load())
	assert.Equal(t, int64(2), variables.get.Load())
}

func TestDefaultsOnlyOnMiss(t *testing.T) {
	variables := &countingSchema{MemorySchema: schema.NewMemorySchema()}
	require.NoError(t, variables.Declare("main", "money", 10))
	s := openTestStore(t, variables)

	require.NoError(t, s.Set("main", "money", "u1", 3))
	res, err := s.Get("main", "money", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Value)
	assert.False(t, res.Default)
	assert.Zero(t, variables.has.Load())
}

func TestGlobalKeysSkipSchema(t *testing.T) {
	variables := &countingSchema{MemorySchema: schema.NewMemorySchema()}
	require.NoError(t, variables.Declare("main", "cooldown", 5))
	s := openTestStore(t, variables)

	res, err := s.Get("main", "cooldown", "u1")
	require.NoError(t, err)
	assert.Nil(t, res.Value)
	assert.False(t, res.Default)
	assert.Zero(t, variables.has.Load())
	assert.Zero(t, variables.get.Load())
}

func TestUndeclaredMiss(t *testing.T) {
	variables := &countingSchema{MemorySchema: schema.NewMemorySchema()}
	s := openTestStore(t, variables)

	res, err := s.Get("main", "money", "u1")
	require.NoError(t, err)
	assert.Nil(t, res.Value)
	assert.Equal(t, int64(1), variables.has.Load())
	assert.Zero(t, variables.get.Load())
}

// --------------------------------------------------------------------------
// Queries
// --------------------------------------------------------------------------

func TestFindOne(t *testing.T) {
	s := openTestStore(t, nil)
	require.NoError(t, s.Set("main", "score", "user1", 42))

	record, found, err := s.FindOne("main", "score_user1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, store.Record{Key: "score_user1", Value: int64(42)}, record)

	_, found, err = s.FindOne("main", "score_user2")
	require.NoError(t, err)
	assert.False(t, found)
}

func fillProfiles(t *testing.T, s store.IStore) {
	profiles := []struct {
		scope string
		value any
	}{
		{"u1", map[string]any{"level": 1, "guild": "a"}},
		{"u2", map[string]any{"level": 2, "guild": "a"}},
		{"u3", map[string]any{"level": 1, "guild": "b"}},
		{"u4", map[string]any{"level": 1.0, "guild": "a"}},
		{"u5", "not an object"},
		{"u6", map[string]any{"guild": "a"}},
	}
	for _, p := range profiles {
		require.NoError(t, s.Set("main", "profile", p.scope, p.value))
	}
	require.NoError(t, s.Set("main", "score", "u1", 1))
}

func TestFindManyMatchAndDeleteManyMatchAgree(t *testing.T) {
	s := openTestStore(t, nil)
	fillProfiles(t, s)

	q := store.MatchQuery(map[string]any{"level": 1, "guild": "a"})

	found, err := s.FindMany("main", q, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"profile_u1", "profile_u4"}, keys(found))

	deleted, err := s.DeleteMany("main", q)
	require.NoError(t, err)
	assert.Equal(t, len(found), deleted)

	found, err = s.FindMany("main", q, 0)
	require.NoError(t, err)
	assert.Empty(t, found)

	rest, err := s.All("main", nil, store.AllOptions{Sort: store.SortNone})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"profile_u2", "profile_u3", "profile_u5", "profile_u6", "score_u1"}, keys(rest))
}

func TestDeleteManyPredicate(t *testing.T) {
	s := openTestStore(t, nil)
	fillProfiles(t, s)

	// the predicate sees the raw JSON text
	pred := func(row db.Row) bool { return strings.Contains(row.Value, `"guild":"a"`) }

	var want []string
	all, err := s.All("main", nil, store.AllOptions{Sort: store.SortNone})
	require.NoError(t, err)
	for _, r := range all {
		text, err := normalizeText(r.Value)
		require.NoError(t, err)
		if pred(db.Row{Key: r.Key, Value: text}) {
			want = append(want, r.Key)
		}
	}
	require.NotEmpty(t, want)

	deleted, err := s.DeleteMany("main", store.PredicateQuery(pred))
	require.NoError(t, err)
	assert.Equal(t, len(want), deleted)

	rest, err := s.All("main", nil, store.AllOptions{Sort: store.SortNone})
	require.NoError(t, err)
	assert.Len(t, rest, len(all)-len(want))
	for _, r := range rest {
		assert.NotContains(t, want, r.Key)
	}
}

func TestFindManyPatternAndPrefix(t *testing.T) {
	s := openTestStore(t, nil)
	fillProfiles(t, s)

	found, err := s.FindMany("main", store.PatternQuery("profile_u[12]"), 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"profile_u1", "profile_u2"}, keys(found))

	found, err = s.FindMany("main", store.PrefixQuery("score"), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"score_u1"}, keys(found))
	assert.Equal(t, int64(1), found[0].Value)

	// glob is case-sensitive
	found, err = s.FindMany("main", store.PrefixQuery("SCORE"), 0)
	require.NoError(t, err)
	assert.Empty(t, found)

	// meta characters in a prefix are literal
	require.NoError(t, s.Set("main", "a*b", "", 1))
	require.NoError(t, s.Set("main", "axb", "", 2))
	found, err = s.FindMany("main", store.PrefixQuery("a*"), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a*b"}, keys(found))
}

func TestFindManyLimitAfterFilter(t *testing.T) {
	s := openTestStore(t, nil)
	for i := 0; i < 10; i++ {
		require.NoError(t, s.Set("main", "n", fmt.Sprint(i), i))
	}

	even := store.PredicateQuery(func(row db.Row) bool {
		return strings.ContainsAny(row.Value, "02468")
	})
	found, err := s.FindMany("main", even, 3)
	require.NoError(t, err)
	assert.Len(t, found, 3)
	for _, r := range found {
		assert.Zero(t, r.Value.(int64)%2)
	}

	found, err = s.FindMany("main", even, 0)
	require.NoError(t, err)
	assert.Len(t, found, 5)
}

func TestInvalidQuery(t *testing.T) {
	s := openTestStore(t, nil)

	_, err := s.FindMany("main", store.Query{}, 0)
	assert.True(t, store.IsCode(err, store.RetCInvalidQuery))

	_, err = s.DeleteMany("main", store.PredicateQuery(nil))
	assert.True(t, store.IsCode(err, store.RetCInvalidQuery))
}

func TestAllLimitAndSort(t *testing.T) {
	s := openTestStore(t, nil)
	values := []any{5, "b", 1.5, nil, true, map[string]any{"x": 1}, []any{1}, "a", -2}
	for i, v := range values {
		require.NoError(t, s.Set("main", "v", fmt.Sprint(i), v))
	}

	all := func(store.Record) bool { return true }

	limited, err := s.All("main", all, store.AllOptions{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	asc, err := s.All("main", all, store.AllOptions{Sort: store.SortAsc})
	require.NoError(t, err)
	got := make([]any, len(asc))
	for i, r := range asc {
		got[i] = r.Value
	}
	assert.Equal(t, []any{nil, true, int64(-2), 1.5, int64(5), "a", "b", []any{int64(1)}, map[string]any{"x": int64(1)}}, got)

	desc, err := s.All("main", all, store.AllOptions{Sort: store.SortDesc, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": int64(1)}, desc[0].Value)

	numbers, err := s.All("main", func(r store.Record) bool {
		_, ok := r.Value.(int64)
		return ok
	}, store.AllOptions{Sort: store.SortDesc})
	require.NoError(t, err)
	assert.Equal(t, []string{"v_0", "v_8"}, keys(numbers))
}

func TestAllDefaultLimit(t *testing.T) {
	s := openTestStore(t, nil)
	for i := 0; i < store.DefaultAllLimit+20; i++ {
		require.NoError(t, s.Set("main", "n", fmt.Sprint(i), i))
	}

	records, err := s.All("main", nil, store.AllOptions{})
	require.NoError(t, err)
	assert.Len(t, records, store.DefaultAllLimit)
	assert.Equal(t, int64(0), records[0].Value)

	records, err = s.All("main", nil, store.AllOptions{Limit: -1})
	require.NoError(t, err)
	assert.Len(t, records, store.DefaultAllLimit+20)
}

func TestDecodeErrorsAbortQueries(t *testing.T) {
	s, engine := openWithEngine(t)
	require.NoError(t, s.Set("main", "good", "", 1))
	require.NoError(t, engine.Update(func(tx db.Tx) error {
		return tx.Put("main", "bad", "{not json")
	}))

	_, err := s.Get("main", "bad", "")
	assert.True(t, store.IsCode(err, store.RetCDecodeError), "%v", err)

	_, _, err = s.FindOne("main", "bad")
	assert.True(t, store.IsCode(err, store.RetCDecodeError), "%v", err)

	records, err := s.FindMany("main", store.PatternQuery("*"), 0)
	assert.True(t, store.IsCode(err, store.RetCDecodeError), "%v", err)
	assert.Nil(t, records)

	_, err = s.DeleteMany("main", store.MatchQuery(map[string]any{"a": 1}))
	assert.True(t, store.IsCode(err, store.RetCDecodeError), "%v", err)

	records, err = s.All("main", nil, store.AllOptions{})
	assert.True(t, store.IsCode(err, store.RetCDecodeError), "%v", err)
	assert.Nil(t, records)

	// raw row selection does not decode, so broken rows can be cleaned up
	n, err := s.DeleteMany("main", store.PredicateQuery(func(row db.Row) bool { return row.Key == "bad" }))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	records, err = s.All("main", nil, store.AllOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"good"}, keys(records))
}

// --------------------------------------------------------------------------
// Diagnostics
// --------------------------------------------------------------------------

func TestPing(t *testing.T) {
	s := openTestStore(t, nil)
	assert.Zero(t, s.AvgPing())

	for i := 0; i < 3; i++ {
		elapsed, err := s.Ping()
		require.NoError(t, err)
		assert.Positive(t, elapsed)
	}
	assert.Positive(t, s.AvgPing())
}

func TestMetrics(t *testing.T) {
	s := openTestStore(t, nil)
	require.NoError(t, s.Set("main", "a", "", 1))
	require.NoError(t, s.Set("main", "b", "", 2))
	_, _ = s.Get("nope", "a", "")
	_, _ = s.Ping()

	mw, ok := s.(store.MetricsWriter)
	require.True(t, ok)

	var buf bytes.Buffer
	mw.WriteMetrics(&buf)
	out := buf.String()
	assert.Contains(t, out, `skv_operations_total{op="set",table="main"} 2`)
	assert.Contains(t, out, `skv_operation_errors_total{op="get",table="nope"} 1`)
	assert.Contains(t, out, `skv_operation_duration_seconds_bucket{op="set"`)
	assert.Contains(t, out, "skv_ping_total 1")
}

func TestDebugTraceKeepsResults(t *testing.T) {
	cfg := testConfig(t, "main")
	cfg.Debug = true
	s, err := Open(cfg, nil)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set("main", "a", "x", []any{1}))
	res, err := s.Get("main", "a", "x")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1)}, res.Value)

	_, err = s.Get("main", "a_b", "x")
	assert.True(t, store.IsCode(err, store.RetCInvalidKey))
}

// recordingLogger keeps the messages that pass its level
type recordingLogger struct {
	mu    sync.Mutex
	level logger.LogLevel
	lines []string
}

func (r *recordingLogger) SetLevel(level logger.LogLevel) { r.level = level }
func (r *recordingLogger) Debugf(format string, args ...interface{}) {
	r.record(logger.DEBUG, format, args...)
}
func (r *recordingLogger) Infof(format string, args ...interface{}) {
	r.record(logger.INFO, format, args...)
}
func (r *recordingLogger) Warningf(format string, args ...interface{}) {
	r.record(logger.WARNING, format, args...)
}
func (r *recordingLogger) Errorf(format string, args ...interface{}) {
	r.record(logger.ERROR, format, args...)
}
func (r *recordingLogger) Panicf(format string, args ...interface{}) {
	panic(fmt.Sprintf(format, args...))
}

func (r *recordingLogger) record(level logger.LogLevel, format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.level >= level {
		r.lines = append(r.lines, fmt.Sprintf(format, args...))
	}
}

func TestDebugTraceIgnoresQuietLogLevel(t *testing.T) {
	tracer := &recordingLogger{level: logger.WARNING}
	d := newDiagnostics(true, tracer)
	defer d.close()

	d.begin("get", "main", "score", "u1").end(store.GetResult{Found: true, Value: int64(3)}, nil)
	d.begin("get", "nope", "score", "").end(nil, store.NewError(store.RetCUnknownTable, "unknown table nope"))

	require.Len(t, tracer.lines, 4)
	assert.Equal(t, `[received] get("main", "score", "u1")`, tracer.lines[0])
	assert.True(t, strings.HasPrefix(tracer.lines[1], `[returning] get("main", "score", "u1") -> `))
	assert.True(t, strings.HasPrefix(tracer.lines[3], `[failed] get("nope", "score", "") -> `))
}

func TestTraceSilentWithoutDebug(t *testing.T) {
	tracer := &recordingLogger{level: logger.DEBUG}
	d := newDiagnostics(false, tracer)
	defer d.close()

	d.begin("set", "main", "a", "", 1).end(nil, nil)
	assert.Empty(t, tracer.lines)
	assert.Equal(t, logger.DEBUG, tracer.level)
}

func TestFormatCall(t *testing.T) {
	assert.Equal(t, `get("main", "score", "u1")`, formatCall("get", "main", []any{"score", "u1"}))
	assert.Equal(t, `findMany("main", pattern("a*"), 3)`, formatCall("findMany", "main", []any{store.PatternQuery("a*"), 3}))
	assert.Equal(t, `ping()`, formatCall("ping", "", nil))
	assert.Equal(t, `all("main", nil, 0, asc)`, formatCall("all", "main", []any{nil, 0, store.SortAsc}))
}

// --------------------------------------------------------------------------
// Concurrency
// --------------------------------------------------------------------------

func TestConcurrentAccess(t *testing.T) {
	s := openTestStore(t, nil)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			scope := fmt.Sprintf("w%d", w)
			for i := 0; i < 50; i++ {
				assert.NoError(t, s.Set("main", "counter", scope, i))
				res, err := s.Get("main", "counter", scope)
				assert.NoError(t, err)
				assert.Equal(t, int64(i), res.Value)
			}
		}(w)
	}
	wg.Wait()

	records, err := s.FindMany("main", store.PrefixQuery("counter_"), 0)
	require.NoError(t, err)
	assert.Len(t, records, 8)
}
