// Package memstore provides an in-process store.Store. Committed state is an
// immutable snapshot; a transaction reads that snapshot through a
// copy-on-write overlay and a successful commit swaps the snapshot in one
// step. Like SQLite in WAL mode, the first write of a transaction takes the
// single writer slot and fails when another writer committed after the
// transaction's snapshot was taken.
package memstore
