package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/ValentinKolb/sKV/lib/db"
	"github.com/pkg/errors"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

// Version of sKV
const Version = "0.3.1"

// ReservedTable is managed by the store itself (residual bookkeeping, maintenance sweeps).
// It is always created and must not appear in the configured table list.
const ReservedTable = "__skv_vars__"

// DefaultSweepInterval is the interval between two maintenance sweeps of the reserved table
const DefaultSweepInterval = time.Hour

// DefaultGlobalKeys are base keys that never fall back to a schema default
var DefaultGlobalKeys = []string{"cooldown", "setTimeout", "ticketChannel"}

// ErrInvalidConfig is wrapped by all configuration validation errors
var ErrInvalidConfig = errors.New("invalid configuration")

// --------------------------------------------------------------------------
// Store configuration struct
// --------------------------------------------------------------------------

// StoreConfig holds all configuration parameters of a store.
type StoreConfig struct {
	// Location is the path of the database file
	Location string
	// Tables are the caller defined tables (the reserved table is added automatically)
	Tables []string

	// Debug logs every operation with its arguments and result
	Debug bool
	// Logging prints the connection banner on startup
	Logging bool
	// LogLevel is the level at which logs will be output (debug, info, warn, error)
	LogLevel string

	// GlobalKeys are base keys exempt from default resolution
	GlobalKeys []string

	// SweepInterval is the interval of the maintenance sweep over the reserved table
	SweepInterval time.Duration
}

// DefaultStoreConfig returns a configuration with all optional fields set to their defaults
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Logging:       true,
		LogLevel:      "info",
		GlobalKeys:    append([]string(nil), DefaultGlobalKeys...),
		SweepInterval: DefaultSweepInterval,
	}
}

// Validate checks the configuration. All returned errors wrap ErrInvalidConfig.
func (c *StoreConfig) Validate() error {
	if strings.TrimSpace(c.Location) == "" {
		return errors.Wrap(ErrInvalidConfig, "missing database location, please provide a path for the database file")
	}
	if len(c.Tables) == 0 {
		return errors.Wrap(ErrInvalidConfig, "missing tables, please provide at least one table")
	}

	seen := make(map[string]struct{}, len(c.Tables))
	for _, table := range c.Tables {
		if table == ReservedTable {
			return errors.Wrapf(ErrInvalidConfig, "'%s' is reserved as a table name", ReservedTable)
		}
		if err := db.ValidateTableName(table); err != nil {
			return errors.Wrapf(ErrInvalidConfig, "table %s", err)
		}
		if _, dup := seen[table]; dup {
			return errors.Wrapf(ErrInvalidConfig, "table %q is listed twice", table)
		}
		seen[table] = struct{}{}
	}

	if c.LogLevel != "" {
		if _, err := ParseLogLevel(c.LogLevel); err != nil {
			return errors.Wrap(ErrInvalidConfig, err.Error())
		}
	}
	if c.SweepInterval < 0 {
		return errors.Wrap(ErrInvalidConfig, "sweep interval must not be negative")
	}
	return nil
}

// AllTables returns the configured tables followed by the reserved table
func (c *StoreConfig) AllTables() []string {
	return append(append([]string(nil), c.Tables...), ReservedTable)
}

// String returns a formatted string representation of the configuration
func (c *StoreConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// Storage
	addSection("Storage")
	addField("Location", c.Location)
	addField("Tables", strings.Join(c.AllTables(), ", "))
	addField("Global Keys", strings.Join(c.GlobalKeys, ", "))

	// Maintenance
	addSection("Maintenance")
	addField("Sweep Interval", c.SweepInterval.String())

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)
	addField("Debug", fmt.Sprintf("%t", c.Debug))
	addField("Banner", fmt.Sprintf("%t", c.Logging))

	return sb.String()
}
