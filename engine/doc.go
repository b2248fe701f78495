// Package engine provides helpers for working with the modernc.org/sqlite
// driver in this module: opening in-memory and file-backed connections with
// the pragmas the tree stores rely on. It intentionally keeps a thin surface
// so other packages can share the same driver instance.
package engine
