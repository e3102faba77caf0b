package positions

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/matzehuels/vertexflow/pkg/errors"
)

// DefaultFileName is the file [Open] creates inside the configured directory.
const DefaultFileName = "positions.json"

// FileStore keeps all positions in one JSON file.
type FileStore struct {
	mu   sync.RWMutex
	path string
}

// NewFileStore creates a store backed by the file at path. The parent
// directory is created if needed. If path is empty, defaults to
// ~/.config/vertexflow/positions.json.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" || path == DefaultFileName {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "get home dir")
		}
		path = filepath.Join(home, ".config", "vertexflow", DefaultFileName)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create positions dir")
	}
	return &FileStore{path: path}, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

// Load returns the stored positions of ids.
func (s *FileStore) Load(ctx context.Context, ids []string) (map[string]Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all, err := s.read()
	if err != nil {
		return nil, err
	}
	out := make(map[string]Position, len(ids))
	for _, id := range ids {
		if p, ok := all[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// Save merges positions into the file.
func (s *FileStore) Save(ctx context.Context, positions map[string]Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return err
	}
	for id, p := range positions {
		all[id] = p
	}

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "marshal positions")
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write positions file")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeInternal, err, "replace positions file")
	}
	return nil
}

// Close does nothing for a file store.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) read() (map[string]Position, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return make(map[string]Position), nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read positions file")
	}

	all := make(map[string]Position)
	if err := json.Unmarshal(data, &all); err != nil {
		// A corrupt file is treated as empty and rewritten on the next save.
		return make(map[string]Position), nil
	}
	return all, nil
}

var _ Store = (*FileStore)(nil)
