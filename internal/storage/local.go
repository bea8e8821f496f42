package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/apperr"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/models"
)

// DefaultMetadataFile is where the local catalog persists when no path is configured.
const DefaultMetadataFile = "file_metadata.json"

// localSnapshot is the on-disk layout of the local catalog.
type localSnapshot struct {
	NextID int64               `json:"nextId"`
	Files  []models.FileRecord `json:"files"`
}

// LocalStorage implements Catalog on top of a single JSON file.
// Every mutation rewrites the file (temp file + rename).
type LocalStorage struct {
	path  string
	now   func() time.Time
	mu    sync.RWMutex
	files map[int64]models.FileRecord
	// nextID only grows, so ids are never reused after a delete.
	nextID int64
}

// NewLocalStorage loads the catalog from path, starting empty if the file
// does not exist yet.
func NewLocalStorage(path string) (*LocalStorage, error) {
	if path == "" {
		path = DefaultMetadataFile
	}
	l := &LocalStorage{
		path:   path,
		now:    time.Now,
		files:  make(map[int64]models.FileRecord),
		nextID: 1,
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}

	var snap localSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse metadata file: %w", err)
	}
	for _, r := range snap.Files {
		l.files[r.ID] = r
		if r.ID >= l.nextID {
			l.nextID = r.ID + 1
		}
	}
	if snap.NextID > l.nextID {
		l.nextID = snap.NextID
	}
	return l, nil
}

func (l *LocalStorage) Create(_ context.Context, record models.FileRecord) (models.FileRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.nameTaken(record.Name, 0) {
		return models.FileRecord{}, apperr.Conflict("a file named %q already exists", record.Name)
	}

	now := l.now().UTC()
	record.ID = l.nextID
	record.TimeCreated = now
	record.TimeModified = now

	l.files[record.ID] = record
	l.nextID++

	if err := l.saveToFile(); err != nil {
		// Keep memory consistent with disk. nextID stays advanced.
		delete(l.files, record.ID)
		return models.FileRecord{}, fmt.Errorf("failed to persist metadata: %w", err)
	}
	return record, nil
}

func (l *LocalStorage) FindByID(_ context.Context, id int64) (models.FileRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	record, ok := l.files[id]
	if !ok {
		return models.FileRecord{}, apperr.NotFound("file with ID %d not found", id)
	}
	return record, nil
}

func (l *LocalStorage) FindByIDs(_ context.Context, ids []int64) ([]models.FileRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	seen := make(map[int64]bool, len(ids))
	files := make([]models.FileRecord, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if r, ok := l.files[id]; ok {
			files = append(files, r)
		}
	}
	sortByID(files)
	return files, nil
}

func (l *LocalStorage) Filter(_ context.Context, f Filter) ([]models.FileRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	files := make([]models.FileRecord, 0, len(l.files))
	for _, r := range l.files {
		if f.Matches(r) {
			files = append(files, r)
		}
	}
	sortByID(files)
	return files, nil
}

func (l *LocalStorage) Update(_ context.Context, id int64, changes models.FileChanges) (models.FileRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	old, ok := l.files[id]
	if !ok {
		return models.FileRecord{}, apperr.NotFound("file with ID %d not found", id)
	}
	if changes.Name != nil && *changes.Name != old.Name && l.nameTaken(*changes.Name, id) {
		return models.FileRecord{}, apperr.Conflict("a file named %q already exists", *changes.Name)
	}

	updated := changes.Apply(old)
	updated.TimeModified = l.now().UTC()
	l.files[id] = updated

	if err := l.saveToFile(); err != nil {
		l.files[id] = old
		return models.FileRecord{}, fmt.Errorf("failed to persist metadata: %w", err)
	}
	return updated, nil
}

func (l *LocalStorage) Delete(_ context.Context, id int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	old, ok := l.files[id]
	if !ok {
		return false, nil
	}
	delete(l.files, id)

	if err := l.saveToFile(); err != nil {
		l.files[id] = old
		return false, fmt.Errorf("failed to persist metadata deletion: %w", err)
	}
	return true, nil
}

func (l *LocalStorage) Ping(_ context.Context) error {
	dir := filepath.Dir(l.path)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("metadata directory unavailable: %w", err)
	}
	return nil
}

func (l *LocalStorage) Close() error {
	return nil
}

// nameTaken reports whether another record (not exceptID) already uses name.
// Caller holds the lock.
func (l *LocalStorage) nameTaken(name string, exceptID int64) bool {
	for id, r := range l.files {
		if id != exceptID && r.Name == name {
			return true
		}
	}
	return false
}

// saveToFile writes the current catalog to disk. Caller holds the write lock.
func (l *LocalStorage) saveToFile() error {
	snap := localSnapshot{NextID: l.nextID, Files: make([]models.FileRecord, 0, len(l.files))}
	for _, r := range l.files {
		snap.Files = append(snap.Files, r)
	}
	sortByID(snap.Files)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	// Write to temporary file first for atomicity
	tempFile := l.path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}
	if err := os.Rename(tempFile, l.path); err != nil {
		return fmt.Errorf("failed to rename metadata file: %w", err)
	}
	return nil
}

func sortByID(files []models.FileRecord) {
	sort.Slice(files, func(i, j int) bool {
		return files[i].ID < files[j].ID
	})
}
