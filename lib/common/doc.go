// Package common provides configuration and logging shared across the sKV packages.
//
// Key Components:
//
//   - StoreConfig: Configuration of a store (database file location, tables, debug
//     tracing, startup banner, log level, exempt global keys, sweep interval).
//     Validate rejects a missing location, an empty table list, the reserved table
//     name, table names outside [A-Za-z0-9_]+ and duplicates.
//
//   - ReservedTable: The table managed by the store itself. It is appended to every
//     configured table list and swept periodically.
//
//   - Logger: Custom logging implementation that plugs into the dragonboat logger
//     registry (logger.GetLogger / logger.SetLoggerFactory) and writes through a
//     colored slog handler (tint) on stderr.
package common
