package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/praetor-ai/praetor/internal/model"
)

// FileStore archives debates as one JSON document per debate under a
// directory. Writes are atomic: the document is written to a temp file
// and renamed into place, so a crash never leaves a torn archive.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates the archive directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("file store: directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("file store: create %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(debateID string) string {
	// Debate IDs are UUIDs, but sanitize anyway so a hostile ID cannot
	// escape the archive directory.
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		}
		return '_'
	}, debateID)
	return filepath.Join(s.dir, safe+".json")
}

// load reads the current record for a debate, or returns a zero record
// with the ID set when none exists yet. Caller holds s.mu.
func (s *FileStore) load(debateID string) (DebateRecord, error) {
	data, err := os.ReadFile(s.path(debateID))
	if os.IsNotExist(err) {
		return DebateRecord{ID: debateID}, nil
	}
	if err != nil {
		return DebateRecord{}, fmt.Errorf("file store: read %s: %w", debateID, err)
	}
	var rec DebateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return DebateRecord{}, fmt.Errorf("file store: decode %s: %w", debateID, err)
	}
	return rec, nil
}

// save writes a record atomically. Caller holds s.mu.
func (s *FileStore) save(rec DebateRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("file store: encode %s: %w", rec.ID, err)
	}
	final := s.path(rec.ID)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("file store: write %s: %w", rec.ID, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("file store: rename %s: %w", rec.ID, err)
	}
	return nil
}

// AppendTransition implements Store.
func (s *FileStore) AppendTransition(_ context.Context, debateID string, tr model.TransitionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load(debateID)
	if err != nil {
		return err
	}
	rec.History = append(rec.History, tr)
	rec.State = tr.To
	return s.save(rec)
}

// SaveVerdict implements Store.
func (s *FileStore) SaveVerdict(_ context.Context, debateID string, v model.Verdict) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load(debateID)
	if err != nil {
		return err
	}
	rec.Verdicts = append(rec.Verdicts, v)
	return s.save(rec)
}

// SaveAppeal implements Store.
func (s *FileStore) SaveAppeal(_ context.Context, debateID string, ap model.Appeal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load(debateID)
	if err != nil {
		return err
	}
	rec.Appeal = &ap
	return s.save(rec)
}

// ArchiveDebate implements Store. The engine's record is authoritative
// and replaces anything written incrementally.
func (s *FileStore) ArchiveDebate(_ context.Context, rec DebateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(rec)
}

// LoadDebate implements Store.
func (s *FileStore) LoadDebate(_ context.Context, debateID string) (DebateRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path(debateID))
	if os.IsNotExist(err) {
		return DebateRecord{}, ErrDebateNotFound
	}
	if err != nil {
		return DebateRecord{}, fmt.Errorf("file store: read %s: %w", debateID, err)
	}
	var rec DebateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return DebateRecord{}, fmt.Errorf("file store: decode %s: %w", debateID, err)
	}
	return rec, nil
}
