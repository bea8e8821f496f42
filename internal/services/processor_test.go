package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/models"
)

type fakeScanner struct {
	verdict ScanVerdict
	err     error
	scanned []string
}

func (s *fakeScanner) Scan(path string) (ScanVerdict, error) {
	s.scanned = append(s.scanned, path)
	return s.verdict, s.err
}

type fakeMirror struct {
	uploaded []int64
	removed  []int64
}

func (m *fakeMirror) Upload(_ context.Context, r models.FileRecord) error {
	m.uploaded = append(m.uploaded, r.ID)
	return nil
}

func (m *fakeMirror) Remove(_ context.Context, id int64) error {
	m.removed = append(m.removed, id)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func event(t models.EventType, id int64) models.FileEvent {
	return models.NewFileEvent(t, models.FileRecord{ID: id, Name: "f", FileType: ".txt", FilePath: "/srv/f.txt"})
}

func TestFileProcessor_CleanFileIsMirrored(t *testing.T) {
	scanner := &fakeScanner{}
	mirror := &fakeMirror{}
	p := NewFileProcessor(scanner, mirror, discardLogger())

	require.NoError(t, p.Process(context.Background(), event(models.EventFileRegistered, 1)))
	require.NoError(t, p.Process(context.Background(), event(models.EventFileUpdated, 1)))

	assert.Equal(t, []string{"/srv/f.txt", "/srv/f.txt"}, scanner.scanned)
	assert.Equal(t, []int64{1, 1}, mirror.uploaded)
	assert.Empty(t, mirror.removed)
}

func TestFileProcessor_InfectedFileIsDroppedFromMirror(t *testing.T) {
	scanner := &fakeScanner{verdict: ScanVerdict{Infected: true, Signature: "Eicar-Test-Signature"}}
	mirror := &fakeMirror{}
	p := NewFileProcessor(scanner, mirror, discardLogger())

	require.NoError(t, p.Process(context.Background(), event(models.EventFileUpdated, 4)))
	assert.Empty(t, mirror.uploaded)
	assert.Equal(t, []int64{4}, mirror.removed)
}

func TestFileProcessor_ScanErrorIsReturned(t *testing.T) {
	scanner := &fakeScanner{err: errors.New("connection refused")}
	mirror := &fakeMirror{}
	p := NewFileProcessor(scanner, mirror, discardLogger())

	err := p.Process(context.Background(), event(models.EventFileRegistered, 2))
	assert.Error(t, err)
	assert.Empty(t, mirror.uploaded)
}

func TestFileProcessor_Deleted(t *testing.T) {
	scanner := &fakeScanner{}
	mirror := &fakeMirror{}
	p := NewFileProcessor(scanner, mirror, discardLogger())

	require.NoError(t, p.Process(context.Background(), event(models.EventFileDeleted, 9)))
	assert.Empty(t, scanner.scanned)
	assert.Equal(t, []int64{9}, mirror.removed)
}

func TestFileProcessor_NoCollaborators(t *testing.T) {
	p := NewFileProcessor(nil, nil, discardLogger())
	pub := InlinePublisher{Processor: p}

	for _, typ := range []models.EventType{models.EventFileRegistered, models.EventFileUpdated, models.EventFileDeleted, "files.unknown"} {
		assert.NoError(t, pub.Publish(context.Background(), event(typ, 1)))
	}
}

func TestObjectName(t *testing.T) {
	assert.Equal(t, "records/42", ObjectName(42))
}
