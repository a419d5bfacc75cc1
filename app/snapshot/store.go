package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lysyi3m/glp1-survey/app/fingerprint"
)

// Store is the only reader and writer of the on-disk snapshot file.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted snapshot. It returns ErrNoSnapshot when the file
// does not exist and *SnapshotReadError when it cannot be decoded.
func (s *Store) Load() (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoSnapshot
		}
		return nil, &SnapshotReadError{Path: s.path, Err: err}
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, &SnapshotReadError{Path: s.path, Err: err}
	}

	if snap.Sources == nil {
		snap.Sources = make(map[string]*Source)
	}

	// files written before fingerprints were stored
	for _, src := range snap.Sources {
		if src == nil {
			continue
		}
		for i := range src.Records {
			if src.Records[i].Fingerprint == "" {
				src.Records[i].Fingerprint = fingerprint.Of(src.Records[i].Record)
			}
		}
	}

	return &snap, nil
}

// LoadPrevious returns the last persisted snapshot or nil when there is
// none. Read failures are logged and treated as a first run.
func (s *Store) LoadPrevious() *Snapshot {
	snap, err := s.Load()
	if err != nil {
		if !errors.Is(err, ErrNoSnapshot) {
			slog.Warn("Previous snapshot unreadable, treating run as first run", "path", s.path, "error", err)
		} else {
			slog.Debug("No previous snapshot found", "path", s.path)
		}
		return nil
	}
	return snap
}

// Save atomically replaces the snapshot file. It is a no-op, returning
// false, when no freshly fetched source has records.
func (s *Store) Save(snap *Snapshot) (bool, error) {
	if !snap.HasRecords() {
		slog.Warn("Snapshot not saved, no source returned records", "path", s.path)
		return false, nil
	}

	if err := s.write(snap); err != nil {
		return false, &SnapshotWriteError{Path: s.path, Err: err}
	}

	slog.Debug("Snapshot saved", "path", s.path, "sources", len(snap.Sources))
	return true, nil
}

func (s *Store) write(snap *Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := writeSynced(tmp, data); err != nil {
		os.Remove(tmp)
		return err
	}

	// read back before the rename so a short write never replaces good state
	check, err := os.ReadFile(tmp)
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to read back temp file: %w", err)
	}
	var verify Snapshot
	if err := json.Unmarshal(check, &verify); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("temp file verification failed: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

func writeSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	return f.Close()
}
