// Package sqlite provides a SQLite-based implementation of the profile store
// and scheduler state ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - ProfileStore / ProfileQueries: the argo_profiles table
//   - SchedulerStore: scheduled task state and run history
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// Measurement arrays are stored as JSON text and aggregated with json_each.
// The profile position is stored as WKT text in the geom column, the same
// value the postgres adapter writes into its PostGIS geometry column.
// Timestamps are fixed-width UTC text so lexical order is time order.
//
// # Data Location
//
// By default, the database is stored at ~/.oceanai/data/oceanai.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
