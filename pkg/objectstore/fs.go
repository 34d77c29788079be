package objectstore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// FSStore implements Store on the local filesystem, laid out as
// root/<bucket>/<key>. Used for development and air-gapped runs.
type FSStore struct {
	root string
}

// NewFS returns a filesystem store rooted at dir.
func NewFS(dir string) *FSStore {
	return &FSStore{root: dir}
}

func (s *FSStore) path(bucket, key string) string {
	return filepath.Join(s.root, bucket, filepath.FromSlash(key))
}

func (s *FSStore) Get(_ context.Context, bucket, key string) ([]byte, error) {
	body, err := os.ReadFile(s.path(bucket, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Bucket: bucket, Key: key}
		}
		return nil, eris.Wrapf(err, "objectstore: read %s/%s", bucket, key)
	}
	return body, nil
}

func (s *FSStore) Put(_ context.Context, bucket, key string, body []byte) error {
	path := s.path(bucket, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "objectstore: mkdir for %s/%s", bucket, key)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return eris.Wrapf(err, "objectstore: write %s/%s", bucket, key)
	}
	return nil
}
