package sqlite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/sKV/lib/db"
	dbtesting "github.com/ValentinKolb/sKV/lib/db/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDB opens a fresh database file in the test's temp dir
func newTestDB(t testing.TB) db.SQLDB {
	database, err := NewSQLiteDB(DefaultOptions(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, err)
	return database
}

func Test(t *testing.T) {
	dbtesting.RunSQLDBTests(t, "SQLite", newTestDB)
}

func Benchmark(b *testing.B) {
	dbtesting.RunSQLDBBenchmarks(b, "SQLite", newTestDB)
}

func TestWriteAheadLogging(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.db")
	database, err := NewSQLiteDB(DefaultOptions(path))
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, database.Update(func(tx db.Tx) error {
		if err := tx.CreateTable("main"); err != nil {
			return err
		}
		return tx.Put("main", "key", "1")
	}))

	_, err = os.Stat(path + "-wal")
	assert.NoError(t, err, "WAL file should exist next to the database")

	info := database.GetInfo()
	assert.Equal(t, db.ImplSQLite, info.DbType)
	assert.Equal(t, path, info.Location)
	assert.Equal(t, "wal", info.Metadata.(map[string]string)["journal_mode"])
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")

	database, err := NewSQLiteDB(DefaultOptions(path))
	require.NoError(t, err)
	require.NoError(t, database.Update(func(tx db.Tx) error {
		if err := tx.CreateTable("main"); err != nil {
			return err
		}
		return tx.Put("main", "persisted", `{"a":1}`)
	}))
	require.NoError(t, database.Close())

	database, err = NewSQLiteDB(DefaultOptions(path))
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, database.View(func(tx db.Tx) error {
		value, found, err := tx.Get("main", "persisted")
		assert.True(t, found)
		assert.Equal(t, `{"a":1}`, value)
		return err
	}))
}

func TestOpenErrors(t *testing.T) {
	_, err := NewSQLiteDB(nil)
	assert.Error(t, err)

	_, err = NewSQLiteDB(DefaultOptions(""))
	assert.Error(t, err)

	_, err = NewSQLiteDB(DefaultOptions(filepath.Join(t.TempDir(), "missing", "dir", "x.db")))
	assert.Error(t, err)
}

func TestPathWithURIMetaCharacters(t *testing.T) {
	dir := t.TempDir()

	for i, name := range []string{"data#1.db", "data#2.db", "100%.db", "what?.db"} {
		path := filepath.Join(dir, name)
		database, err := NewSQLiteDB(DefaultOptions(path))
		require.NoError(t, err, name)
		require.NoError(t, database.Update(func(tx db.Tx) error {
			if err := tx.CreateTable("main"); err != nil {
				return err
			}
			return tx.Put("main", "file", name)
		}), name)
		assert.Equal(t, path, database.GetInfo().Location)
		require.NoError(t, database.Close())

		_, err = os.Stat(path)
		assert.NoError(t, err, "database file %d should be created at %s", i, path)
	}

	// every file holds only its own row
	for _, name := range []string{"data#1.db", "data#2.db"} {
		database, err := NewSQLiteDB(DefaultOptions(filepath.Join(dir, name)))
		require.NoError(t, err)
		require.NoError(t, database.View(func(tx db.Tx) error {
			value, found, err := tx.Get("main", "file")
			assert.True(t, found)
			assert.Equal(t, name, value)
			return err
		}))
		require.NoError(t, database.Close())
	}

	_, err := os.Stat(filepath.Join(dir, "data"))
	assert.True(t, os.IsNotExist(err), "path must not be truncated at '#'")
}

func TestFileURI(t *testing.T) {
	assert.Equal(t, "file:data.db", fileURI("data.db"))
	assert.Equal(t, "file:/tmp/data%231.db", fileURI("/tmp/data#1.db"))
	assert.Equal(t, "file:/tmp/100%25%3F.db", fileURI("/tmp/100%?.db"))
}
