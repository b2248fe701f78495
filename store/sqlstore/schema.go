package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
)

const imageSchema = `
CREATE TABLE IF NOT EXISTS image_metadata (
    id       TEXT PRIMARY KEY,
    dataset  TEXT NOT NULL DEFAULT '',
    captions TEXT NOT NULL DEFAULT ''
);
`

const treeSchema = `
CREATE TABLE IF NOT EXISTS %[1]s_tree (
    id         TEXT PRIMARY KEY,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS %[1]s_node (
    id       TEXT PRIMARY KEY,
    tree_id  TEXT NOT NULL,
    depth    INTEGER NOT NULL,
    vec      BLOB,
    children TEXT NOT NULL,
    features BLOB,

    CONSTRAINT fk_%[1]s_tree_id FOREIGN KEY (tree_id) REFERENCES %[1]s_tree(id)
);
CREATE INDEX IF NOT EXISTS %[1]s_node_depth_tree_id_idx ON %[1]s_node (depth, tree_id);
`

var prefixPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,31}$`)

// ValidPrefix reports whether prefix can be interpolated into table names.
func ValidPrefix(prefix string) bool { return prefixPattern.MatchString(prefix) }

// EnsureSchema creates the image metadata table and the tree tables for
// prefix if they do not already exist.
func EnsureSchema(ctx context.Context, db *sql.DB, prefix string) error {
	if !ValidPrefix(prefix) {
		return fmt.Errorf("sqlstore: invalid table prefix %q", prefix)
	}
	if _, err := db.ExecContext(ctx, imageSchema); err != nil {
		return fmt.Errorf("sqlstore: create image_metadata: %w", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf(treeSchema, prefix)); err != nil {
		return fmt.Errorf("sqlstore: create %s tables: %w", prefix, err)
	}
	return nil
}
