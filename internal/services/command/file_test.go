package command

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/apperr"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/services/infrastructure"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/storage"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.FileEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event models.FileEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []models.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	svc       *Service
	catalog   *storage.LocalStorage
	publisher *recordingPublisher
	root      string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	root := filepath.ToSlash(filepath.Join(dir, "storage"))
	require.NoError(t, os.MkdirAll(root, 0o755))

	policy, err := infrastructure.NewPathPolicy(root)
	require.NoError(t, err)
	catalog, err := storage.NewLocalStorage(filepath.Join(dir, "catalog.json"))
	require.NoError(t, err)

	pub := &recordingPublisher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return fixture{
		svc:       NewService(catalog, policy, pub, logger),
		catalog:   catalog,
		publisher: pub,
		root:      policy.Root(),
	}
}

func strPtr(s string) *string { return &s }

func TestRegister_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.root + "/docs/a.txt"

	before := time.Now().UTC()
	created, err := f.svc.Register(ctx, RegisterInput{Name: "a", FileType: ".txt", FilePath: p})
	require.NoError(t, err)

	got, err := f.catalog.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Name)
	assert.Equal(t, ".txt", got.FileType)
	assert.Equal(t, p, got.FilePath)
	assert.False(t, got.TimeCreated.After(time.Now().UTC()))
	assert.False(t, got.TimeCreated.Before(before.Add(-time.Second)))

	exists, err := infrastructure.FileExists(p)
	require.NoError(t, err)
	assert.True(t, exists, "missing backing file is created empty")
	assert.Equal(t, []models.EventType{models.EventFileRegistered}, f.publisher.types())
}

func TestRegister_PathForms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	byName, err := f.svc.Register(ctx, RegisterInput{Name: "plain", FileType: "md"})
	require.NoError(t, err)
	assert.Equal(t, ".md", byName.FileType)
	assert.Equal(t, f.root+"/plain.md", byName.FilePath)

	inDir, err := f.svc.Register(ctx, RegisterInput{Name: "song", FileType: ".mp3", FilePath: f.root + `\music\`})
	require.NoError(t, err)
	assert.Equal(t, f.root+"/music/song.mp3", inDir.FilePath)

	relative, err := f.svc.Register(ctx, RegisterInput{FilePath: "photos/cat.PNG"})
	require.NoError(t, err)
	assert.Equal(t, "cat", relative.Name)
	assert.Equal(t, ".PNG", relative.FileType)
	assert.Equal(t, f.root+"/photos/cat.PNG", relative.FilePath)
}

func TestRegister_KeepsExistingFileContent(t *testing.T) {
	f := newFixture(t)
	p := f.root + "/kept.txt"
	require.NoError(t, os.WriteFile(p, []byte("hello"), 0o644))

	_, err := f.svc.Register(context.Background(), RegisterInput{FilePath: p})
	require.NoError(t, err)

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestRegister_RejectsPathsOutsideRoot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, p := range []string{
		"../escape.txt",
		f.root + "/../escape.txt",
		f.root + "-evil/x.txt",
		"/etc/passwd.txt",
	} {
		_, err := f.svc.Register(ctx, RegisterInput{Name: "x", FileType: ".txt", FilePath: p})
		assert.ErrorIs(t, err, apperr.ErrPathRejected, p)
	}

	files, err := f.catalog.Filter(ctx, storage.Filter{})
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.Empty(t, f.publisher.types())
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		in     RegisterInput
		fields []string
	}{
		{"nothing", RegisterInput{}, []string{"name", "fileType"}},
		{"name too long", RegisterInput{Name: strings.Repeat("n", 51), FileType: ".txt"}, []string{"name"}},
		{"separator in name", RegisterInput{Name: "a/b", FileType: ".txt"}, []string{"name"}},
		{"type too long", RegisterInput{Name: "a", FileType: "." + strings.Repeat("t", 20)}, []string{"fileType"}},
		{"bare dot", RegisterInput{Name: "a", FileType: "."}, []string{"fileType"}},
		{"path without extension", RegisterInput{FilePath: "README"}, []string{"fileType"}},
		{"path too long", RegisterInput{Name: "a", FileType: ".txt", FilePath: strings.Repeat("p", 501)}, []string{"filePath"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Register(ctx, tc.in)
			require.ErrorIs(t, err, apperr.ErrValidation)

			var appErr *apperr.Error
			require.ErrorAs(t, err, &appErr)
			var fields []string
			for _, fe := range appErr.Fields {
				fields = append(fields, fe.Field)
			}
			assert.Equal(t, tc.fields, fields)
		})
	}
}

func TestRegister_DuplicateNameConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, RegisterInput{Name: "dup", FileType: ".txt"})
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, RegisterInput{Name: "dup", FileType: ".md"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestUpdate_RenameKeepsPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Register(ctx, RegisterInput{Name: "old", FileType: ".txt"})
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, created.ID, UpdateInput{Name: strPtr("new")})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Name)
	assert.Equal(t, created.FilePath, updated.FilePath)
	assert.False(t, updated.TimeModified.Before(created.TimeModified))
}

func TestUpdate_MoveIntoDirectory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Register(ctx, RegisterInput{Name: "report", FileType: ".txt"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(created.FilePath, []byte("data"), 0o644))

	updated, err := f.svc.Update(ctx, created.ID, UpdateInput{
		Name:     strPtr("summary"),
		FileType: strPtr("md"),
		FilePath: strPtr("archive/2025/"),
	})
	require.NoError(t, err)
	assert.Equal(t, f.root+"/archive/2025/summary.md", updated.FilePath)
	assert.Equal(t, ".md", updated.FileType)

	data, err := os.ReadFile(updated.FilePath)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))

	oldExists, err := infrastructure.FileExists(created.FilePath)
	require.NoError(t, err)
	assert.False(t, oldExists)
	assert.Equal(t, []models.EventType{models.EventFileRegistered, models.EventFileUpdated}, f.publisher.types())
}

func TestUpdate_CreatesFileWhenOldOneIsMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Register(ctx, RegisterInput{Name: "gone", FileType: ".txt"})
	require.NoError(t, err)
	require.NoError(t, os.Remove(created.FilePath))

	updated, err := f.svc.Update(ctx, created.ID, UpdateInput{FilePath: strPtr(f.root + "/moved/gone.txt")})
	require.NoError(t, err)

	exists, err := infrastructure.FileExists(updated.FilePath)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUpdate_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.svc.Register(ctx, RegisterInput{Name: "a", FileType: ".txt"})
	require.NoError(t, err)
	b, err := f.svc.Register(ctx, RegisterInput{Name: "b", FileType: ".txt"})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, 999, UpdateInput{Name: strPtr("z")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.svc.Update(ctx, a.ID, UpdateInput{Name: strPtr("b")})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = f.svc.Update(ctx, a.ID, UpdateInput{FilePath: strPtr(b.FilePath)})
	assert.ErrorIs(t, err, apperr.ErrConflict, "moving onto another file")

	_, err = f.svc.Update(ctx, a.ID, UpdateInput{FilePath: strPtr("../../outside.txt")})
	assert.ErrorIs(t, err, apperr.ErrPathRejected)

	_, err = f.svc.Update(ctx, a.ID, UpdateInput{Name: strPtr(strings.Repeat("x", 60))})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	got, err := f.catalog.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Name, got.Name)
	assert.Equal(t, a.FilePath, got.FilePath)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Register(ctx, RegisterInput{Name: "bye", FileType: ".txt"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, created.ID))

	_, err = f.catalog.FindByID(ctx, created.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	exists, err := infrastructure.FileExists(created.FilePath)
	require.NoError(t, err)
	assert.False(t, exists)

	assert.ErrorIs(t, f.svc.Delete(ctx, created.ID), apperr.ErrNotFound)
}

func TestDelete_MissingBackingFileIsNotAnError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Register(ctx, RegisterInput{Name: "orphan", FileType: ".txt"})
	require.NoError(t, err)
	require.NoError(t, os.Remove(created.FilePath))

	assert.NoError(t, f.svc.Delete(ctx, created.ID))
}

func TestNormalizeFileType(t *testing.T) {
	assert.Equal(t, ".txt", NormalizeFileType("txt"))
	assert.Equal(t, ".TXT", NormalizeFileType(" .TXT "))
	assert.Equal(t, "", NormalizeFileType("  "))
}
