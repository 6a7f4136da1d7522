package kv

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ValentinKolb/sKV/cmd/util"
	"github.com/ValentinKolb/sKV/lib/db"
	"github.com/ValentinKolb/sKV/lib/store"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	setCmd = &cobra.Command{
		Use:   "set [table] [base] [value]",
		Short: "Sets the value for a key (the value is parsed as JSON, anything else is stored as string)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, _ := cmd.Flags().GetString("scope")
			if err := kvStore.Set(args[0], args[1], scope, util.ParseValue(args[2])); err != nil {
				return err
			}
			fmt.Println("set successfully")
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [table] [base]",
		Short: "Reads the value for a key, falling back to the declared default",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, _ := cmd.Flags().GetString("scope")
			res, err := kvStore.Get(args[0], args[1], scope)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, found=%t, default=%t, value=%s\n", res.Key, res.Found, res.Default, util.FormatValue(res.Value))
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [table] [base]",
		Short: "Deletes a key value pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, _ := cmd.Flags().GetString("scope")
			if err := kvStore.Delete(args[0], args[1], scope); err != nil {
				return err
			}
			fmt.Println("delete successfully")
			return nil
		},
	}
	dropCmd = &cobra.Command{
		Use:   "drop [table] [key]",
		Short: "Drops a raw key, or the whole table if no key is given",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 2 {
				key = args[1]
			}
			if err := kvStore.Drop(args[0], key); err != nil {
				return err
			}
			fmt.Println("drop successfully")
			return nil
		},
	}
	findOneCmd = &cobra.Command{
		Use:   "find-one [table] [key]",
		Short: "Reads the record stored under a raw key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, found, err := kvStore.FindOne(args[0], args[1])
			if err != nil {
				return err
			}
			if !found {
				fmt.Printf("key=%s, found=false\n", args[1])
				return nil
			}
			util.RenderRecords(os.Stdout, []store.Record{record})
			return nil
		},
	}
	findManyCmd = &cobra.Command{
		Use:   "find-many [table]",
		Short: "Lists the records selected by a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := queryFromFlags(cmd)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")
			records, err := kvStore.FindMany(args[0], q, limit)
			if err != nil {
				return err
			}
			util.RenderRecords(os.Stdout, records)
			return nil
		},
	}
	deleteManyCmd = &cobra.Command{
		Use:   "delete-many [table]",
		Short: "Deletes the records selected by a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := queryFromFlags(cmd)
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")
			if err := checkDeleteAll(q, force); err != nil {
				return err
			}
			n, err := kvStore.DeleteMany(args[0], q)
			if err != nil {
				return err
			}
			fmt.Printf("deleted %d records\n", n)
			return nil
		},
	}
	allCmd = &cobra.Command{
		Use:   "all [table]",
		Short: "Lists the records of a table sorted by value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			sortFlag, _ := cmd.Flags().GetString("sort")
			order, err := store.ParseSortOrder(sortFlag)
			if err != nil {
				return err
			}
			records, err := kvStore.All(args[0], nil, store.AllOptions{Limit: limit, Sort: order})
			if err != nil {
				return err
			}
			util.RenderRecords(os.Stdout, records)
			return nil
		},
	}
	pingCmd = &cobra.Command{
		Use:   "ping",
		Short: "Measures the latency of the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			count, _ := cmd.Flags().GetInt("count")
			for i := 0; i < count; i++ {
				elapsed, err := kvStore.Ping()
				if err != nil {
					return err
				}
				fmt.Printf("ping %d: %s\n", i+1, elapsed)
			}
			fmt.Printf("avg: %s\n", kvStore.AvgPing())
			return nil
		},
	}
	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Prints the operation metrics of this process in Prometheus format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mw, ok := kvStore.(store.MetricsWriter)
			if !ok {
				return errors.New("store does not record metrics")
			}
			if _, err := kvStore.Ping(); err != nil {
				return err
			}
			mw.WriteMetrics(os.Stdout)
			return nil
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Prints information about the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := kvStore.GetDBInfo()
			if err != nil {
				return err
			}
			values := [][]string{
				{"Location", info.Location},
				{"Engine", string(info.DbType)},
				{"Size", fmt.Sprintf("%d bytes", info.SizeBytes)},
				{"Tables", strings.Join(info.Tables, ", ")},
				{"Ready at", info.ReadyAt.Format(time.RFC3339)},
			}
			if meta, ok := info.Metadata.(map[string]string); ok {
				for _, k := range []string{"sqlite_version", "journal_mode"} {
					values = append(values, []string{k, meta[k]})
				}
			}
			util.RenderTable(os.Stdout, []string{"Property", "Value"}, values)
			return nil
		},
	}
)

func init() {
	for _, cmd := range []*cobra.Command{setCmd, getCmd, delCmd} {
		cmd.Flags().String("scope", "", util.WrapString("Scope of the key (e.g. a user or guild id)"))
	}

	for _, cmd := range []*cobra.Command{findManyCmd, deleteManyCmd} {
		cmd.Flags().String("match", "", util.WrapString("JSON object, selects values whose top-level fields are equal"))
		cmd.Flags().String("pattern", "", util.WrapString("Glob over the raw keys (*, ?, [...])"))
		cmd.Flags().String("prefix", "", util.WrapString("Selects raw keys starting with the prefix"))
		cmd.Flags().String("contains", "", util.WrapString("Selects rows whose raw JSON text contains the string"))
	}
	deleteManyCmd.Flags().Bool("force", false, util.WrapString("Allow an empty --match that deletes every record of the table"))
	findManyCmd.Flags().Int("limit", 0, util.WrapString("Maximum number of records (0 = unlimited)"))

	allCmd.Flags().Int("limit", store.DefaultAllLimit, util.WrapString("Maximum number of records (negative = unlimited)"))
	allCmd.Flags().String("sort", "asc", util.WrapString("Sort order of the values (asc, desc, none)"))

	pingCmd.Flags().Int("count", 3, util.WrapString("Number of pings"))
}

// checkDeleteAll refuses a delete that would empty the whole table unless forced
func checkDeleteAll(q store.Query, force bool) error {
	if q.SelectsAll() && !force {
		return errors.New("an empty --match deletes every record, use --force or the drop command")
	}
	return nil
}

// queryFromFlags builds the query selected by exactly one of the query flags
func queryFromFlags(cmd *cobra.Command) (store.Query, error) {
	var queries []store.Query

	if match, _ := cmd.Flags().GetString("match"); match != "" {
		fields, ok := util.ParseValue(match).(map[string]any)
		if !ok {
			return store.Query{}, errors.Errorf("--match must be a JSON object, got %s", match)
		}
		queries = append(queries, store.MatchQuery(fields))
	}
	if cmd.Flags().Changed("pattern") {
		pattern, _ := cmd.Flags().GetString("pattern")
		queries = append(queries, store.PatternQuery(pattern))
	}
	if cmd.Flags().Changed("prefix") {
		prefix, _ := cmd.Flags().GetString("prefix")
		queries = append(queries, store.PrefixQuery(prefix))
	}
	if contains, _ := cmd.Flags().GetString("contains"); contains != "" {
		queries = append(queries, store.PredicateQuery(func(row db.Row) bool {
			return strings.Contains(row.Value, contains)
		}))
	}

	if len(queries) != 1 {
		return store.Query{}, errors.New("exactly one of --match, --pattern, --prefix or --contains is required")
	}
	return queries[0], nil
}
