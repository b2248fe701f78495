package engine

import (
	"database/sql"
	"fmt"
	"net/url"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// BusyTimeoutMillis is how long a connection waits on a locked database.
const BusyTimeoutMillis = 5000

// Open opens a SQLite database using the modernc.org/sqlite driver.
//
// For file-based databases, pass a path like "./db.sqlite". For in-memory
// databases, pass ":memory:"; note that every pooled connection then sees its
// own private database, so callers sharing state should prefer OpenFile.
func Open(dsn string) (*sql.DB, error) { return sql.Open(DriverName, dsn) }

// OpenFile opens a file-backed database tuned for one writer and concurrent
// readers: WAL journaling, a busy timeout and enforced foreign keys apply to
// every connection in the pool.
func OpenFile(path string) (*sql.DB, error) { return Open(FileDSN(path)) }

// FileDSN builds the DSN used by OpenFile.
func FileDSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", BusyTimeoutMillis))
	q.Add("_pragma", "foreign_keys(1)")
	return "file:" + path + "?" + q.Encode()
}
