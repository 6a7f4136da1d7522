package util

import (
	"fmt"
	"io"
	"strings"

	"github.com/ValentinKolb/sKV/lib/codec"
	"github.com/ValentinKolb/sKV/lib/common"
	"github.com/ValentinKolb/sKV/lib/schema"
	"github.com/ValentinKolb/sKV/lib/store"
	"github.com/ValentinKolb/sKV/lib/store/sqlstore"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// --------------------------------------------------------------------------
// Configuration
// --------------------------------------------------------------------------

// SetupStoreFlags adds the store configuration flags to a command
func SetupStoreFlags(cmd *cobra.Command) {
	defaults := common.DefaultStoreConfig()

	key := "location"
	cmd.PersistentFlags().String(key, "skv.db", WrapString("Path of the SQLite database file (created if missing)"))

	key = "tables"
	cmd.PersistentFlags().String(key, "main", WrapString("Comma-separated list of tables. The reserved table is added automatically"))

	key = "global-keys"
	cmd.PersistentFlags().String(key, strings.Join(defaults.GlobalKeys, ","), WrapString("Comma-separated list of base keys that never fall back to a schema default"))

	key = "schema"
	cmd.PersistentFlags().String(key, "", WrapString("Optional YAML file with default values (table -> base key -> default)"))

	key = "debug"
	cmd.PersistentFlags().Bool(key, defaults.Debug, WrapString("Log every store operation with its arguments and result"))

	key = "logging"
	cmd.PersistentFlags().Bool(key, defaults.Logging, WrapString("Log the connection banner when the store is opened"))

	key = "log-level"
	cmd.PersistentFlags().String(key, defaults.LogLevel, WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	key = "sweep-interval"
	cmd.PersistentFlags().Duration(key, defaults.SweepInterval, WrapString("Interval of the maintenance sweep over the reserved table"))

	key = "config"
	cmd.PersistentFlags().String(key, "", WrapString("Optional config file (yaml, toml or json) with the same keys as the flags"))
}

// InitConfig loads the env files and initializes viper with the SKV env prefix
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("skv")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper and reads the config file if one is set
func BindCommandFlags(cmd *cobra.Command) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if path := viper.GetString("config"); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "read config file %s", path)
		}
	}
	return nil
}

// GetStoreConfig reads the store configuration from viper
func GetStoreConfig() common.StoreConfig {
	conf := common.DefaultStoreConfig()
	conf.Location = viper.GetString("location")
	conf.Tables = SplitList(viper.GetString("tables"))
	conf.GlobalKeys = SplitList(viper.GetString("global-keys"))
	conf.Debug = viper.GetBool("debug")
	conf.Logging = viper.GetBool("logging")
	conf.LogLevel = viper.GetString("log-level")
	conf.SweepInterval = viper.GetDuration("sweep-interval")
	return conf
}

// LoadSchema loads the schema file if one is configured, otherwise it returns nil
func LoadSchema() (schema.IVariableSchema, error) {
	path := viper.GetString("schema")
	if path == "" {
		return nil, nil
	}
	s, err := schema.LoadYAML(path)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// OpenStore initializes the loggers and opens the configured store
func OpenStore() (store.IStore, common.StoreConfig, error) {
	conf := GetStoreConfig()
	if err := common.InitLoggers(conf.LogLevel); err != nil {
		return nil, conf, err
	}

	variables, err := LoadSchema()
	if err != nil {
		return nil, conf, err
	}

	s, err := sqlstore.Open(conf, variables)
	return s, conf, err
}

// SplitList splits a comma-separated list and drops empty entries
func SplitList(list string) []string {
	var result []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}

// --------------------------------------------------------------------------
// Values and Output
// --------------------------------------------------------------------------

// ParseValue decodes a command line argument as JSON. Text that is not valid JSON is taken as a string.
func ParseValue(text string) any {
	if v, err := codec.Default().Decode(text); err == nil {
		return v
	}
	return text
}

// FormatValue encodes a value as JSON for output
func FormatValue(v any) string {
	text, err := codec.Default().Encode(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return text
}

// RenderRecords renders records as a table
func RenderRecords(w io.Writer, records []store.Record) {
	values := make([][]string, len(records))
	for i, r := range records {
		values[i] = []string{r.Key, FormatValue(r.Value)}
	}
	RenderTable(w, []string{"Key", "Value"}, values)
}

// RenderTable will use given headers and values to render a table style output
func RenderTable(w io.Writer, headers []string, values [][]string) {
	if len(values) == 0 {
		fmt.Fprintln(w, "(empty)")
		return
	}
	tb := tablewriter.NewWriter(w)
	tb.SetHeader(headers)
	tb.SetAutoWrapText(false)
	tb.AppendBulk(values)
	tb.Render()
}
