// Package cmd implements the command-line interface of sKV. It provides a
// hierarchical command structure for working with a database file directly.
//
// The package is organized into several subpackages:
//
//   - kv: Commands for store operations (get, set, del, drop, find-one, find-many,
//     delete-many, all, ping, stats, info, perf)
//   - maintain: Runs the maintenance sweep of the reserved table until stopped
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can also be set as environment variable SKV_<FLAG> (dashes become
// underscores), in .env / .env.local files or in a config file passed with --config.
//
// See skv -help for a list of all commands.
package cmd
