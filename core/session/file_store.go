package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const sessionFileExt = ".json"

// FileStore keeps one JSON file per session in a directory, so sessions
// survive restarts of a single process.
type FileStore[Data any] struct {
	dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore[Data any](dir string) (*FileStore[Data], error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	return &FileStore[Data]{dir: dir}, nil
}

func (s *FileStore[Data]) path(id uuid.UUID) string {
	return filepath.Join(s.dir, id.String()+sessionFileExt)
}

func (s *FileStore[Data]) Get(ctx context.Context, id uuid.UUID) (*Session[Data], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read session %s: %w", id, err)
	}

	var sess Session[Data]
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &sess, nil
}

// Save writes through a temporary file and renames it into place, so readers
// never see a partial session.
func (s *FileStore[Data]) Save(ctx context.Context, sess *Session[Data]) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sess.ID, err)
	}

	path := s.path(sess.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session %s: %w", sess.ID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("save session %s: %w", sess.ID, err)
	}
	return nil
}

func (s *FileStore[Data]) Delete(_ context.Context, id uuid.UUID) error {
	if err := os.Remove(s.path(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// DeleteExpired scans the directory. Unreadable files are removed as well.
func (s *FileStore[Data]) DeleteExpired(ctx context.Context) (int64, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}

	now := time.Now()
	var n int64
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, sessionFileExt) {
			continue
		}
		id, err := uuid.Parse(strings.TrimSuffix(name, sessionFileExt))
		if err != nil {
			continue
		}

		sess, err := s.Get(ctx, id)
		if err == nil && !now.After(sess.ExpiresAt) {
			continue
		}
		if err := s.Delete(ctx, id); err == nil {
			n++
		}
	}
	return n, nil
}
