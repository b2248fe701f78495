// Package sqlstore implements store.Store on SQLite through database/sql and
// the modernc.org/sqlite driver. Each vocabulary tree owns a table prefix
// (<prefix>_tree, <prefix>_node) while image metadata lives in a shared
// image_metadata table, so a captions tree and an images tree can share one
// database file.
//
// Atomically maps to a single SQL transaction; with WAL journaling readers
// keep seeing the previously committed generation until the replacing
// transaction commits.
package sqlstore
