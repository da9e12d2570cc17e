package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const fileExt = ".json"

// FileStore keeps one JSON file per session in a directory. Writes go to a
// temporary file that is renamed over the target, so a crash never leaves a
// half-written snapshot.
type FileStore struct {
	dir string
}

// DefaultDir returns ~/.local/share/briefwork/sessions.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".briefwork", "sessions")
	}
	return filepath.Join(home, ".local", "share", "briefwork", "sessions")
}

// NewFileStore creates dir if needed. An empty dir uses DefaultDir.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory holding the snapshots.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(sessionID string) string {
	return filepath.Join(s.dir, sessionID+fileExt)
}

// Save writes the snapshot for sessionID atomically.
func (s *FileStore) Save(ctx context.Context, sessionID string, data []byte) error {
	if err := checkID(sessionID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, sessionID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(sessionID)); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

// Load reads the snapshot for sessionID.
func (s *FileStore) Load(ctx context.Context, sessionID string) ([]byte, error) {
	if err := checkID(sessionID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(sessionID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	return data, nil
}

// Delete removes the snapshot for sessionID.
func (s *FileStore) Delete(_ context.Context, sessionID string) error {
	if err := checkID(sessionID); err != nil {
		return err
	}
	if err := os.Remove(s.path(sessionID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// List returns the ids of all snapshots in the directory.
func (s *FileStore) List(context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read session directory: %w", err)
	}
	ids := []string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), fileExt))
	}
	slices.Sort(ids)
	return ids, nil
}

// Close is a no-op.
func (s *FileStore) Close() error {
	return nil
}
