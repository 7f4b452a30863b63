// Package localfs is the object store used when no bucket is configured.
package localfs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Put copies r into dir/name and returns a file:// URL. The public flag has
// no meaning on a local disk.
func (s *Store) Put(ctx context.Context, name, _ string, r io.Reader, _ bool) (string, error) {
	if err := os.MkdirAll(s.dir, 0o750); err != nil { // #nosec G703 -- dir comes from config
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	path := filepath.Clean(filepath.Join(s.dir, filepath.Base(name)))
	dst, err := os.Create(path) // #nosec G304 -- name is UUID-prefixed basename
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		if removeErr := os.Remove(path); removeErr != nil {
			slog.WarnContext(ctx, "failed to clean up partial file", "error", removeErr, "path", path)
		}
		return "", fmt.Errorf("write file: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return "file://" + filepath.ToSlash(abs), nil
}
