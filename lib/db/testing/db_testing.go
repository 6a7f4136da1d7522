package testing

import (
	"fmt"
	"sync"
	"testing"

	"github.com/ValentinKolb/sKV/lib/db"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// DBFactory is a function that creates a new, empty instance of a SQLDB implementation.
// Implementations should place their files below t.TempDir().
type DBFactory func(t testing.TB) db.SQLDB

// testTable is the table all tests work on
const testTable = "test_table"

// RunSQLDBTests runs a comprehensive test suite for a SQLDB implementation.
func RunSQLDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Put&Get", func(t *testing.T) {
			testPutGet(t, factory(t))
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory(t))
		})

		t.Run("CreateTableIdempotent", func(t *testing.T) {
			testCreateTableIdempotent(t, factory(t))
		})

		t.Run("DropTable", func(t *testing.T) {
			testDropTable(t, factory(t))
		})

		t.Run("Scan", func(t *testing.T) {
			testScan(t, factory(t))
		})

		t.Run("ScanGlob", func(t *testing.T) {
			testScanGlob(t, factory(t))
		})

		t.Run("Rollback", func(t *testing.T) {
			testRollback(t, factory(t))
		})

		t.Run("ReadOnlyView", func(t *testing.T) {
			testReadOnlyView(t, factory(t))
		})

		t.Run("InvalidTableName", func(t *testing.T) {
			testInvalidTableName(t, factory(t))
		})

		t.Run("ConcurrentWriters", func(t *testing.T) {
			testConcurrentWriters(t, factory(t))
		})

		t.Run("Ping&Info", func(t *testing.T) {
			testPingInfo(t, factory(t))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// createTable creates the test table or fails the test
func createTable(t testing.TB, database db.SQLDB, table string) {
	require.NoError(t, database.Update(func(tx db.Tx) error {
		return tx.CreateTable(table)
	}))
}

// put writes a single row in its own transaction
func put(t testing.TB, database db.SQLDB, key, value string) {
	require.NoError(t, database.Update(func(tx db.Tx) error {
		return tx.Put(testTable, key, value)
	}))
}

// get reads a single row in its own transaction
func get(t testing.TB, database db.SQLDB, key string) (string, bool) {
	var value string
	var found bool
	require.NoError(t, database.View(func(tx db.Tx) error {
		var err error
		value, found, err = tx.Get(testTable, key)
		return err
	}))
	return value, found
}

// collect returns all rows of a scan
func collect(t testing.TB, database db.SQLDB, pattern string) []db.Row {
	var rows []db.Row
	require.NoError(t, database.View(func(tx db.Tx) error {
		fn := func(row db.Row) bool {
			rows = append(rows, row)
			return true
		}
		if pattern == "" {
			return tx.Scan(testTable, fn)
		}
		return tx.ScanGlob(testTable, pattern, fn)
	}))
	return rows
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testPutGet(t *testing.T, database db.SQLDB) {
	defer database.Close()
	createTable(t, database, testTable)

	put(t, database, "test-key", `"test-value1"`)

	value, found := get(t, database, "test-key")
	assert.True(t, found, "Expected key to exist after Put")
	assert.Equal(t, `"test-value1"`, value)

	// replace, never duplicate
	put(t, database, "test-key", `"test-value2"`)

	value, found = get(t, database, "test-key")
	assert.True(t, found)
	assert.Equal(t, `"test-value2"`, value)
	assert.Len(t, collect(t, database, ""), 1)

	_, found = get(t, database, "nonexistent-key")
	assert.False(t, found, "Expected nonexistent key to return found=false")
}

func testDelete(t *testing.T, database db.SQLDB) {
	defer database.Close()
	createTable(t, database, testTable)

	put(t, database, "delete-test-key", "1")

	require.NoError(t, database.Update(func(tx db.Tx) error {
		deleted, err := tx.Delete(testTable, "delete-test-key")
		assert.True(t, deleted)
		return err
	}))

	_, found := get(t, database, "delete-test-key")
	assert.False(t, found, "Expected key to not exist after Delete")

	// deleting a missing key is not an error
	require.NoError(t, database.Update(func(tx db.Tx) error {
		deleted, err := tx.Delete(testTable, "nonexistent-key")
		assert.False(t, deleted)
		return err
	}))
}

func testCreateTableIdempotent(t *testing.T, database db.SQLDB) {
	defer database.Close()
	createTable(t, database, testTable)
	put(t, database, "keep", "1")

	// creating again must neither fail nor touch existing rows
	createTable(t, database, testTable)
	createTable(t, database, testTable)

	value, found := get(t, database, "keep")
	assert.True(t, found)
	assert.Equal(t, "1", value)
}

func testDropTable(t *testing.T, database db.SQLDB) {
	defer database.Close()
	createTable(t, database, testTable)
	put(t, database, "a", "1")

	require.NoError(t, database.Update(func(tx db.Tx) error {
		return tx.DropTable(testTable)
	}))
	assert.NotContains(t, database.GetInfo().Tables, testTable)

	// a missing table reads as empty
	_, found := get(t, database, "a")
	assert.False(t, found)
	assert.Empty(t, collect(t, database, ""))
	assert.Empty(t, collect(t, database, "a*"))

	require.NoError(t, database.Update(func(tx db.Tx) error {
		deleted, err := tx.Delete(testTable, "a")
		assert.False(t, deleted)
		return err
	}))

	// dropping again is a no-op
	require.NoError(t, database.Update(func(tx db.Tx) error {
		return tx.DropTable(testTable)
	}))

	// the table can be created again and starts empty
	createTable(t, database, testTable)
	assert.Empty(t, collect(t, database, ""))
}

func testScan(t *testing.T, database db.SQLDB) {
	defer database.Close()
	createTable(t, database, testTable)

	numEntries := 100
	for i := 0; i < numEntries; i++ {
		put(t, database, fmt.Sprintf("scan-key-%03d", i), fmt.Sprintf("%d", i))
	}

	rows := collect(t, database, "")
	require.Len(t, rows, numEntries)

	// storage order follows insertion order for fresh rows
	for i, row := range rows {
		assert.Equal(t, fmt.Sprintf("scan-key-%03d", i), row.Key)
		assert.Equal(t, fmt.Sprintf("%d", i), row.Value)
	}

	// fn can stop the scan
	seen := 0
	require.NoError(t, database.View(func(tx db.Tx) error {
		return tx.Scan(testTable, func(row db.Row) bool {
			seen++
			return seen < 10
		})
	}))
	assert.Equal(t, 10, seen)
}

func testScanGlob(t *testing.T, database db.SQLDB) {
	defer database.Close()
	createTable(t, database, testTable)

	for _, key := range []string{"score_user1", "score_user2", "Score_user3", "money_user1", "score"} {
		put(t, database, key, "0")
	}

	keys := func(rows []db.Row) []string {
		var result []string
		for _, row := range rows {
			result = append(result, row.Key)
		}
		return result
	}

	assert.ElementsMatch(t, []string{"score_user1", "score_user2"}, keys(collect(t, database, "score_*")))
	assert.ElementsMatch(t, []string{"score_user1", "money_user1"}, keys(collect(t, database, "*_user1")))
	assert.ElementsMatch(t, []string{"score"}, keys(collect(t, database, "score")))
	assert.ElementsMatch(t, []string{"score_user1", "score_user2"}, keys(collect(t, database, "score_user?")))
	assert.Empty(t, collect(t, database, "nothing*"))
}

func testRollback(t *testing.T, database db.SQLDB) {
	defer database.Close()
	createTable(t, database, testTable)
	put(t, database, "stable", "1")

	failure := errors.New("abort")
	err := database.Update(func(tx db.Tx) error {
		if err := tx.Put(testTable, "stable", "2"); err != nil {
			return err
		}
		if err := tx.Put(testTable, "partial", "3"); err != nil {
			return err
		}
		return failure
	})
	assert.ErrorIs(t, err, failure)

	// nothing of the failed transaction is visible
	value, _ := get(t, database, "stable")
	assert.Equal(t, "1", value)
	_, found := get(t, database, "partial")
	assert.False(t, found)
}

func testReadOnlyView(t *testing.T, database db.SQLDB) {
	defer database.Close()
	createTable(t, database, testTable)

	err := database.View(func(tx db.Tx) error {
		return tx.Put(testTable, "key", "1")
	})
	assert.Error(t, err)

	_, found := get(t, database, "key")
	assert.False(t, found)
}

func testInvalidTableName(t *testing.T, database db.SQLDB) {
	defer database.Close()

	for _, name := range []string{"", "drop table x; --", "with space", "dash-name", "quote'"} {
		err := database.Update(func(tx db.Tx) error {
			return tx.CreateTable(name)
		})
		assert.ErrorIs(t, err, db.ErrInvalidTableName, name)
	}
}

func testConcurrentWriters(t *testing.T, database db.SQLDB) {
	defer database.Close()
	createTable(t, database, testTable)

	numWriters := 8
	numWrites := 25

	var wg sync.WaitGroup
	errs := make(chan error, numWriters*numWrites*2)
	for w := 0; w < numWriters; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < numWrites; i++ {
				key := fmt.Sprintf("writer-%d-%d", w, i)
				errs <- database.Update(func(tx db.Tx) error {
					return tx.Put(testTable, key, fmt.Sprintf("%d", i))
				})
				// concurrent readers must not be blocked by the writer
				errs <- database.View(func(tx db.Tx) error {
					_, _, err := tx.Get(testTable, key)
					return err
				})
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Len(t, collect(t, database, ""), numWriters*numWrites)
}

func testPingInfo(t *testing.T, database db.SQLDB) {
	defer database.Close()
	createTable(t, database, testTable)
	put(t, database, "key", "1")

	assert.NoError(t, database.Ping())

	info := database.GetInfo()
	assert.Contains(t, info.Tables, testTable)
	assert.NotEmpty(t, info.DbType)
	assert.Greater(t, info.SizeBytes, 0)
}
