package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/viant/voctree/model"
	"github.com/viant/voctree/store"
	"github.com/viant/voctree/vector"
)

// Store is a SQLite-backed store.Store for one tree prefix.
type Store struct {
	db     *sql.DB
	prefix string
}

// New creates a Store over db for the tree tables named by prefix, creating
// the schema when needed.
func New(ctx context.Context, db *sql.DB, prefix string) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: db is nil")
	}
	if err := EnsureSchema(ctx, db, prefix); err != nil {
		return nil, err
	}
	return &Store{db: db, prefix: prefix}, nil
}

// Prefix returns the table prefix of the tree.
func (s *Store) Prefix() string { return s.prefix }

// Atomically runs fn inside one SQL transaction. The transaction commits only
// when fn returns nil; any error or panic rolls it back.
func (s *Store) Atomically(ctx context.Context, fn func(ctx context.Context, tx store.TxStore) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.Fail("begin", err)
	}
	defer func() { _ = sqlTx.Rollback() }()

	if err := fn(ctx, &tx{tx: sqlTx, prefix: s.prefix}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return store.Fail("commit", err)
	}
	return nil
}

type tx struct {
	tx     *sql.Tx
	prefix string
	treeID string
}

func (t *tx) table(name string) string { return t.prefix + "_" + name }

func (t *tx) RemoveAllNodes(ctx context.Context) error {
	if _, err := t.tx.ExecContext(ctx, "DELETE FROM "+t.table("node")); err != nil {
		return store.Fail("remove all nodes", err)
	}
	if _, err := t.tx.ExecContext(ctx, "DELETE FROM "+t.table("tree")); err != nil {
		return store.Fail("remove all nodes", err)
	}
	t.treeID = ""
	return nil
}

// generation returns the tree row the nodes of this transaction belong to,
// creating it on first use.
func (t *tx) generation(ctx context.Context) (string, error) {
	if t.treeID != "" {
		return t.treeID, nil
	}
	id := uuid.NewString()
	if _, err := t.tx.ExecContext(ctx, "INSERT INTO "+t.table("tree")+"(id) VALUES (?)", id); err != nil {
		return "", err
	}
	t.treeID = id
	return id, nil
}

func (t *tx) StoreNode(ctx context.Context, node *model.Node) error {
	if node == nil {
		return store.Fail("store node", errors.New("nil node"))
	}
	treeID, err := t.generation(ctx)
	if err != nil {
		return store.Fail("store node", err)
	}
	children, err := json.Marshal(nonNil(node.Children))
	if err != nil {
		return store.Fail("store node", err)
	}
	features, err := encodeFeatures(node.Features)
	if err != nil {
		return store.Fail("store node", err)
	}
	stmt := "INSERT INTO " + t.table("node") + "(id, tree_id, depth, vec, children, features) VALUES (?, ?, ?, ?, ?, ?)"
	if _, err := t.tx.ExecContext(ctx, stmt, node.ID.String(), treeID, node.Depth,
		vector.EncodeEmbedding(node.Vec), string(children), features); err != nil {
		return store.Fail("store node", err)
	}
	return nil
}

func (t *tx) FindNode(ctx context.Context, id model.NodeID) (*model.Node, error) {
	q := "SELECT id, depth, vec, children, features FROM " + t.table("node") + " WHERE id = ?"
	node, err := scanNode(t.tx.QueryRowContext(ctx, q, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlstore: node %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, store.Fail("find node", err)
	}
	return node, nil
}

func (t *tx) FindRoot(ctx context.Context) (*model.Node, error) {
	q := fmt.Sprintf(`SELECT n.id, n.depth, n.vec, n.children, n.features
FROM %[1]s_node n JOIN %[1]s_tree t ON t.id = n.tree_id
WHERE n.depth = 0
ORDER BY t.created_at DESC, t.rowid DESC
LIMIT 1`, t.prefix)
	node, err := scanNode(t.tx.QueryRowContext(ctx, q))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlstore: %s root: %w", t.prefix, store.ErrNotFound)
	}
	if err != nil {
		return nil, store.Fail("find root", err)
	}
	return node, nil
}

func (t *tx) StoreImageMetadata(ctx context.Context, im model.Image) error {
	const stmt = `
INSERT INTO image_metadata(id, dataset, captions)
VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  dataset = excluded.dataset,
  captions = excluded.captions`
	if _, err := t.tx.ExecContext(ctx, stmt, im.ID.String(), im.Dataset, im.Captions); err != nil {
		return store.Fail("store image metadata", err)
	}
	return nil
}

func (t *tx) FindImageMetadata(ctx context.Context, id model.ImageID) (model.Image, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT id, dataset, captions FROM image_metadata WHERE id = ?`, id.String())
	im, err := scanImage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Image{}, fmt.Errorf("sqlstore: image %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return model.Image{}, store.Fail("find image metadata", err)
	}
	return im, nil
}

func (t *tx) LoadTrainingImages(ctx context.Context) ([]model.Image, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT id, dataset, captions FROM image_metadata ORDER BY id`)
	if err != nil {
		return nil, store.Fail("load training images", err)
	}
	defer rows.Close()

	var out []model.Image
	for rows.Next() {
		im, err := scanImage(rows)
		if err != nil {
			return nil, store.Fail("load training images", err)
		}
		out = append(out, im)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Fail("load training images", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNode(row scanner) (*model.Node, error) {
	var (
		id       string
		depth    int
		vecBlob  []byte
		children string
		features []byte
	)
	if err := row.Scan(&id, &depth, &vecBlob, &children, &features); err != nil {
		return nil, err
	}
	node := &model.Node{Depth: depth}
	var err error
	if node.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("node id %q: %w", id, err)
	}
	if node.Vec, err = vector.DecodeEmbedding(vecBlob); err != nil {
		return nil, err
	}
	if err = json.Unmarshal([]byte(children), &node.Children); err != nil {
		return nil, fmt.Errorf("node %s children: %w", id, err)
	}
	if node.Features, err = decodeFeatures(features); err != nil {
		return nil, err
	}
	return node, nil
}

func scanImage(row scanner) (model.Image, error) {
	var id string
	var im model.Image
	if err := row.Scan(&id, &im.Dataset, &im.Captions); err != nil {
		return model.Image{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return model.Image{}, fmt.Errorf("image id %q: %w", id, err)
	}
	im.ID = parsed
	return im, nil
}

func nonNil(ids []model.NodeID) []model.NodeID {
	if ids == nil {
		return []model.NodeID{}
	}
	return ids
}

// Ensure Store satisfies the store.Store interface.
var _ store.Store = (*Store)(nil)
