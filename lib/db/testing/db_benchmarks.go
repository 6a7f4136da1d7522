package testing

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/sKV/lib/db"
)

// RunSQLDBBenchmarks runs all benchmarks for a SQLDB implementation
func RunSQLDBBenchmarks(b *testing.B, name string, factory DBFactory) {

	b.Run("Put", func(b *testing.B) {
		benchmarkPut(b, factory(b))
	})

	b.Run("PutExisting", func(b *testing.B) {
		benchmarkPutExisting(b, factory(b))
	})

	b.Run("Get", func(b *testing.B) {
		benchmarkGet(b, factory(b))
	})

	b.Run("Delete", func(b *testing.B) {
		benchmarkDelete(b, factory(b))
	})

	b.Run("Scan", func(b *testing.B) {
		benchmarkScan(b, factory(b))
	})

	b.Run("MixedUsage", func(b *testing.B) {
		benchmarkMixedUsage(b, factory(b))
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// prepare creates the test table and closes the database after the benchmark
func prepare(b *testing.B, database db.SQLDB) {
	b.Cleanup(func() {
		database.Close()
	})
	createTable(b, database, testTable)
}

// Benchmark for Put operation
func benchmarkPut(b *testing.B, database db.SQLDB) {
	prepare(b, database)

	var counter atomic.Uint64
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			key := fmt.Sprintf("key-%d", counter.Add(1))
			if err := database.Update(func(tx db.Tx) error {
				return tx.Put(testTable, key, `"value"`)
			}); err != nil {
				b.Error(err)
			}
		}
	})
}

// Benchmark for overwriting the same small set of keys
func benchmarkPutExisting(b *testing.B, database db.SQLDB) {
	prepare(b, database)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("key-%d", counter%100)
			if err := database.Update(func(tx db.Tx) error {
				return tx.Put(testTable, key, `"value"`)
			}); err != nil {
				b.Error(err)
			}
			counter++
		}
	})
}

// Benchmark for Get operation
func benchmarkGet(b *testing.B, database db.SQLDB) {
	prepare(b, database)

	numKeys := 1000
	for i := 0; i < numKeys; i++ {
		put(b, database, fmt.Sprintf("key-%d", i), `"value"`)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			key := fmt.Sprintf("key-%d", r.Intn(numKeys))
			if err := database.View(func(tx db.Tx) error {
				_, _, err := tx.Get(testTable, key)
				return err
			}); err != nil {
				b.Error(err)
			}
		}
	})
}

// Benchmark for Delete operation
func benchmarkDelete(b *testing.B, database db.SQLDB) {
	prepare(b, database)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("key-%d", i)
		if err := database.Update(func(tx db.Tx) error {
			if err := tx.Put(testTable, key, "1"); err != nil {
				return err
			}
			_, err := tx.Delete(testTable, key)
			return err
		}); err != nil {
			b.Error(err)
		}
	}
}

// Benchmark for a full table scan over 1000 rows
func benchmarkScan(b *testing.B, database db.SQLDB) {
	prepare(b, database)

	for i := 0; i < 1000; i++ {
		put(b, database, fmt.Sprintf("key-%d", i), fmt.Sprintf("%d", i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := database.View(func(tx db.Tx) error {
			return tx.Scan(testTable, func(db.Row) bool { return true })
		}); err != nil {
			b.Error(err)
		}
	}
}

// Benchmark for a mix of reads and writes
func benchmarkMixedUsage(b *testing.B, database db.SQLDB) {
	prepare(b, database)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("key-%d", counter%100)
			var err error
			switch counter % 4 {
			case 0: // put
				err = database.Update(func(tx db.Tx) error { return tx.Put(testTable, key, "1") })
			case 1, 2: // get
				err = database.View(func(tx db.Tx) error {
					_, _, err := tx.Get(testTable, key)
					return err
				})
			case 3: // delete
				err = database.Update(func(tx db.Tx) error {
					_, err := tx.Delete(testTable, key)
					return err
				})
			}
			if err != nil {
				b.Error(err)
			}
			counter++
		}
	})
}
