package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"candyworks/internal/tycoon"
)

const snapshotExt = ".json"

// FileRepo persists factory state to one JSON file per session.
type FileRepo struct {
	mu      sync.Mutex
	dataDir string
}

// NewFileRepo creates a new file-based state repository.
// dataDir is the directory where snapshot files will be stored.
func NewFileRepo(dataDir string) (*FileRepo, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}
	return &FileRepo{dataDir: dataDir}, nil
}

func (r *FileRepo) Dir() string { return r.dataDir }

func (r *FileRepo) filePath(sessionID string) string {
	return filepath.Join(r.dataDir, sessionID+snapshotExt)
}

func (r *FileRepo) Load(ctx context.Context, sessionID string) (*tycoon.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validID(sessionID); err != nil {
		return nil, err
	}

	r.mu.Lock()
	data, err := os.ReadFile(r.filePath(sessionID))
	r.mu.Unlock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	st, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	return st, nil
}

// Save writes the snapshot to a temp file and renames it into place so a
// crash mid-write never leaves a truncated snapshot behind.
func (r *FileRepo) Save(ctx context.Context, sessionID string, state *tycoon.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validID(sessionID); err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	path := r.filePath(sessionID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (r *FileRepo) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(r.dataDir)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if id, ok := strings.CutSuffix(e.Name(), snapshotExt); ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Decode parses one snapshot file and repairs nil collections.
func Decode(data []byte) (*tycoon.State, error) {
	var st tycoon.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if st.Candies == nil {
		st.Candies = []tycoon.Candy{}
	}
	if st.RebirthMultiplier == 0 {
		st.RebirthMultiplier = 1
	}
	return &st, nil
}

func validID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return fmt.Errorf("invalid session id %q", id)
	}
	return nil
}
