package kv

import (
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/sKV/cmd/util"
	"github.com/ValentinKolb/sKV/lib/common"
	"github.com/ValentinKolb/sKV/lib/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for sKV databases",
		Long:    "Runs parallel benchmarks against the configured database file. All benchmark keys are written to the first configured table and removed afterward.",
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfKeyBase          = "perftest"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfSkip             = make([]string, 0)
)

// perfBenchmark is one named benchmark. prepare runs before the timer starts,
// op runs in parallel for the measured iterations.
type perfBenchmark struct {
	name    string
	prepare func(table string, keys []string) error
	op      func(table string, key string, counter int) error
}

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the set-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = max(viper.GetInt("keys"), 1)
	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfSkip = util.SplitList(viper.GetString("skip"))

	return nil
}

func run(_ *cobra.Command, _ []string) error {
	config := util.GetStoreConfig()
	table := config.Tables[0]

	fmt.Println("Performance testing tool for sKV databases")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(config.String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Printf("Table: %s\n", table)
	fmt.Println()

	fmt.Println("starting tests...")

	largeValue := strings.Repeat("x", perfLargeValueSizeKB*1024)
	setAll := func(table string, keys []string) error {
		for _, k := range keys {
			if err := kvStore.Set(table, perfKeyBase, k, map[string]any{"n": 1, "tag": "perf"}); err != nil {
				return err
			}
		}
		return nil
	}

	benchmarks := []perfBenchmark{
		{
			name: "set",
			op: func(table, key string, counter int) error {
				return kvStore.Set(table, perfKeyBase, key, counter)
			},
		},
		{
			name: "set-large",
			op: func(table, key string, _ int) error {
				return kvStore.Set(table, perfKeyBase, key, largeValue)
			},
		},
		{
			name:    "get",
			prepare: setAll,
			op: func(table, key string, _ int) error {
				_, err := kvStore.Get(table, perfKeyBase, key)
				return err
			},
		},
		{
			name: "get-miss",
			op: func(table, key string, _ int) error {
				_, err := kvStore.Get(table, perfKeyBase+"miss", key)
				return err
			},
		},
		{
			name:    "delete",
			prepare: setAll,
			op: func(table, key string, _ int) error {
				return kvStore.Delete(table, perfKeyBase, key)
			},
		},
		{
			name:    "find-many",
			prepare: setAll,
			op: func(table, _ string, _ int) error {
				_, err := kvStore.FindMany(table, store.PrefixQuery(perfKeyBase+"_"), 10)
				return err
			},
		},
		{
			name:    "mixed",
			prepare: setAll,
			op: func(table, key string, counter int) error {
				var err error
				switch counter % 4 {
				case 0: // set
					err = kvStore.Set(table, perfKeyBase, key, counter)
				case 1: // get
					_, err = kvStore.Get(table, perfKeyBase, key)
				case 2: // delete
					err = kvStore.Delete(table, perfKeyBase, key)
				case 3: // find
					_, _, err = kvStore.FindOne(table, store.BuildKey(perfKeyBase, key))
				}
				return err
			},
		},
	}

	// Create results map
	results := make(map[string]testing.BenchmarkResult)

	for _, bench := range benchmarks {
		result := testing.Benchmark(func(b *testing.B) {
			if shouldSkip(bench.name) {
				return
			}

			// prepare keys
			getKey, keys := getKeys(bench.name)

			if bench.prepare != nil {
				if err := bench.prepare(table, keys); err != nil {
					log.Printf("(%s) - error preparing keys: %v\n", bench.name, err)
				}
			}

			// cleanup
			b.Cleanup(func() {
				for _, k := range keys {
					if err := kvStore.Delete(table, perfKeyBase, k); err != nil {
						log.Printf("(%s) - error deleting key: %v\n", bench.name, err)
					}
				}
			})

			b.SetParallelism(perfNumThreads)

			b.ResetTimer()

			b.RunParallel(func(pb *testing.PB) {
				counter := 0
				for pb.Next() {
					if err := bench.op(table, getKey(counter), counter); err != nil {
						log.Printf("(%s) - error: %v\n", bench.name, err)
					}
					counter++
				}
			})
		})

		results[bench.name] = result
		printResult(bench.name, result)
	}

	fmt.Printf("\navg ping: %s\n", kvStore.AvgPing())

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, config); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// creates the scopes used as test keys and a function to pick one by index
func getKeys(prefix string) (func(int) string, []string) {
	// scopes must not contain the key separator
	prefix = strings.ReplaceAll(prefix, store.KeySeparator, "")

	keys := make([]string, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		keys[i] = fmt.Sprintf("%s-%d", prefix, i)
	}

	// Function to get a key by index (with wraparound)
	getKey := func(i int) string {
		return keys[i%perfKeySpread]
	}

	return getKey, keys
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	// Print the formatted result
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult, config common.StoreConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"Location", "Table", "Debug",
		"Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, result := range results {
		var nsPerOp float64
		var opsPerSec float64
		var skipped string

		if result.NsPerOp() == 0 {
			skipped = "true"
			nsPerOp = 0
			opsPerSec = 0
		} else {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			config.Location,
			config.Tables[0],
			strconv.FormatBool(config.Debug),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
