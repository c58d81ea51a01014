package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DirStore keeps uploads in a local directory served under PublicPrefix.
type DirStore struct {
	root         string
	publicPrefix string
}

// NewDirStore creates root if needed.
// PRE: root is writable
// POST: returns a store writing beneath root
func NewDirStore(root, publicPrefix string) (*DirStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DirStore{root: root, publicPrefix: strings.TrimSuffix(publicPrefix, "/")}, nil
}

// Put writes data under its content key. Existing identical objects are kept.
func (s *DirStore) Put(_ context.Context, data []byte) (Object, string, error) {
	ct, key, err := Sniff(data)
	if err != nil {
		return Object{}, "", err
	}
	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Object{}, "", err
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, data, 0o644); err != nil {
			return Object{}, "", err
		}
		if err := os.Rename(tmp, path); err != nil {
			return Object{}, "", err
		}
	}
	obj := Object{Key: key, ContentType: ct, Size: int64(len(data))}
	return obj, s.publicPrefix + "/" + key, nil
}

// Open reads a stored object.
func (s *DirStore) Open(_ context.Context, key string) (io.ReadCloser, Object, error) {
	if !validKey(key) {
		return nil, Object{}, ErrInvalidKey
	}
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(key)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, Object{}, ErrNotFound
	}
	if err != nil {
		return nil, Object{}, err
	}
	ct, _, err := Sniff(data)
	if err != nil {
		return nil, Object{}, err
	}
	return io.NopCloser(bytes.NewReader(data)), Object{Key: key, ContentType: ct, Size: int64(len(data))}, nil
}
