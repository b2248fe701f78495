package imstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrNotFound is returned when a blob or matrix does not exist.
var ErrNotFound = errors.New("imstore: not found")

// Blobs is a flat key/value blob backend.
type Blobs interface {
	// Put writes a blob atomically, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error
	// Get reads a whole blob. A missing blob yields ErrNotFound.
	Get(ctx context.Context, name string) ([]byte, error)
	// Delete removes a blob; deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// Path returns where the blob lives, for display to users.
	Path(name string) string
}

// Local implements Blobs on a local directory.
type Local struct {
	root string
}

// NewLocal creates a Local backend rooted at dir. The directory is created on
// first write.
func NewLocal(dir string) *Local {
	return &Local{root: dir}
}

// Path returns the absolute-or-relative file path of name under the root.
func (l *Local) Path(name string) string {
	return filepath.Join(l.root, name)
}

// Put writes data to a temporary file in the root and renames it into place.
func (l *Local) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(l.root, 0o755); err != nil {
		return fmt.Errorf("imstore: create %s: %w", l.root, err)
	}
	f, err := os.CreateTemp(l.root, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("imstore: put %s: %w", name, err)
	}
	tmp := f.Name()
	if _, err = f.Write(data); err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp, l.Path(name))
	}
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("imstore: put %s: %w", name, err)
	}
	return nil
}

func (l *Local) Get(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(l.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("imstore: %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("imstore: get %s: %w", name, err)
	}
	return data, nil
}

func (l *Local) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(l.Path(name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("imstore: delete %s: %w", name, err)
	}
	return nil
}

var _ Blobs = (*Local)(nil)
