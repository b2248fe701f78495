// Package store defines the transactional persistence contract of the
// vocabulary tree and the search service. All reads and writes go through a
// transaction-scoped TxStore handed out by Store.Atomically; implementations
// guarantee that readers observe either the fully prior or the fully new tree
// generation, never a mix.
//
// Implementations live in sub-packages:
//   - sqlstore: SQLite (modernc.org/sqlite) tables per tree
//   - memstore: in-process snapshot store
package store
