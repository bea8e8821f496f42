package download

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/apperr"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/storage"
)

type fixture struct {
	svc     *Service
	catalog *storage.LocalStorage
	root    string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	catalog, err := storage.NewLocalStorage(filepath.Join(dir, "catalog.json"))
	require.NoError(t, err)
	root := filepath.ToSlash(filepath.Join(dir, "storage"))
	require.NoError(t, os.MkdirAll(filepath.FromSlash(root), 0o755))
	return fixture{
		svc:     NewService(catalog, slog.New(slog.NewTextHandler(io.Discard, nil))),
		catalog: catalog,
		root:    root,
	}
}

// add creates a record; content == nil leaves the file absent from disk.
func (f fixture) add(t *testing.T, name, fileType, rel string, content []byte) models.FileRecord {
	t.Helper()
	p := f.root + "/" + rel
	if content != nil {
		require.NoError(t, os.MkdirAll(filepath.Dir(filepath.FromSlash(p)), 0o755))
		require.NoError(t, os.WriteFile(filepath.FromSlash(p), content, 0o644))
	}
	r, err := f.catalog.Create(context.Background(), models.FileRecord{Name: name, FileType: fileType, FilePath: p})
	require.NoError(t, err)
	return r
}

func readZip(t *testing.T, s *Stream) map[string]string {
	t.Helper()
	defer s.Body.Close()
	data, err := io.ReadAll(s.Body)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), s.Size)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := make(map[string]string)
	for _, zf := range zr.File {
		rc, err := zf.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		out[zf.Name] = string(body)
	}
	return out
}

func TestDownloadBatch_ZipWithCollisions(t *testing.T) {
	f := newFixture(t)
	first := f.add(t, "report", ".txt", "a/report.txt", []byte("first"))
	other := f.add(t, "notes", ".md", "notes.md", []byte("# notes"))
	// Names are unique in the catalog, so the collision comes from name+type.
	second := f.add(t, "report.", "txt", "b/report.txt", []byte("second"))
	require.Equal(t, first.FileName(), second.FileName())

	s, err := f.svc.DownloadBatch(context.Background(), []int64{first.ID, other.ID, second.ID})
	require.NoError(t, err)
	assert.Equal(t, ZipContentType, s.ContentType)
	assert.Regexp(t, `^files_\d{8}_\d{6}\.zip$`, s.Name)

	entries := readZip(t, s)
	assert.Equal(t, map[string]string{
		"report.txt":   "first",
		"notes.md":     "# notes",
		"3_report.txt": "second",
	}, entries)
}

func TestDownloadBatch_SingleRecordIsServedDirectly(t *testing.T) {
	f := newFixture(t)
	r := f.add(t, "logo", ".png", "img/logo-final.png", []byte("png-bytes"))

	s, err := f.svc.DownloadBatch(context.Background(), []int64{r.ID, r.ID})
	require.NoError(t, err)
	defer s.Body.Close()

	assert.Equal(t, "image/png", s.ContentType)
	assert.Equal(t, "logo-final.png", s.Name)
	body, err := io.ReadAll(s.Body)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(body))
}

func TestDownloadBatch_CatalogMissing(t *testing.T) {
	f := newFixture(t)
	r := f.add(t, "a", ".txt", "a.txt", []byte("a"))

	s, err := f.svc.DownloadBatch(context.Background(), []int64{r.ID, 42})
	assert.Nil(t, s)
	require.ErrorIs(t, err, apperr.ErrDiskInconsistency)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, []int64{42}, appErr.CatalogMissing)
	assert.Empty(t, appErr.DiskMissing)
	assert.Equal(t, []models.FileRef{r.Ref()}, appErr.Available)
}

func TestDownloadBatch_DiskMissing(t *testing.T) {
	f := newFixture(t)
	present := f.add(t, "here", ".txt", "here.txt", []byte("x"))
	absent := f.add(t, "gone", ".txt", "gone.txt", nil)

	s, err := f.svc.DownloadBatch(context.Background(), []int64{present.ID, absent.ID})
	assert.Nil(t, s)
	require.ErrorIs(t, err, apperr.ErrDiskInconsistency)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Empty(t, appErr.CatalogMissing)
	assert.Equal(t, []models.FileRef{absent.Ref()}, appErr.DiskMissing)
	assert.Equal(t, []models.FileRef{present.Ref()}, appErr.Available)
}

func TestDownloadBatch_EmptyIDs(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.DownloadBatch(context.Background(), nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestDownloadBatch_CanceledContext(t *testing.T) {
	f := newFixture(t)
	a := f.add(t, "a", ".txt", "a.txt", []byte("a"))
	b := f.add(t, "b", ".txt", "b.txt", []byte("b"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.svc.DownloadBatch(ctx, []int64{a.ID, b.ID})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDownloadOne(t *testing.T) {
	f := newFixture(t)
	png := f.add(t, "pic", ".png", "pic.png", []byte("p"))
	odd := f.add(t, "blob", ".xyz", "blob.xyz", []byte("b"))
	gone := f.add(t, "gone", ".txt", "gone.txt", nil)
	ctx := context.Background()

	s, err := f.svc.DownloadOne(ctx, png.ID)
	require.NoError(t, err)
	s.Body.Close()
	assert.Equal(t, "image/png", s.ContentType)
	assert.Equal(t, "pic.png", s.Name)
	assert.Equal(t, int64(1), s.Size)

	s, err = f.svc.DownloadOne(ctx, odd.ID)
	require.NoError(t, err)
	s.Body.Close()
	assert.Equal(t, "application/octet-stream", s.ContentType)

	_, err = f.svc.DownloadOne(ctx, gone.ID)
	require.ErrorIs(t, err, apperr.ErrDiskInconsistency)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, []models.FileRef{gone.Ref()}, appErr.DiskMissing)

	_, err = f.svc.DownloadOne(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDownloadOne_DirectoryIsNotAFile(t *testing.T) {
	f := newFixture(t)
	dir := f.add(t, "folder", ".txt", "folder.txt", nil)
	require.NoError(t, os.MkdirAll(filepath.FromSlash(dir.FilePath), 0o755))

	s, err := f.svc.DownloadOne(context.Background(), dir.ID)
	assert.Nil(t, s)
	require.ErrorIs(t, err, apperr.ErrDiskInconsistency)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, []models.FileRef{dir.Ref()}, appErr.DiskMissing)
}

func TestReconcile_KeepsRequestOrder(t *testing.T) {
	f := newFixture(t)
	a := f.add(t, "a", ".txt", "a.txt", []byte("a"))
	b := f.add(t, "b", ".txt", "b.txt", nil)
	c := f.add(t, "c", ".txt", "c.txt", []byte("c"))

	res, err := NewReconciler(f.catalog).Reconcile(context.Background(), []int64{c.ID, 7, a.ID, b.ID, c.ID})
	require.NoError(t, err)
	assert.False(t, res.Consistent())
	assert.Equal(t, []models.FileRecord{c, a}, res.Valid)
	assert.Equal(t, []int64{7}, res.CatalogMissing)
	assert.Equal(t, []models.FileRecord{b}, res.DiskMissing)
}

func TestEntryNames(t *testing.T) {
	records := []models.FileRecord{
		{ID: 5, Name: "report", FileType: ".txt"},
		{ID: 2, Name: "report", FileType: ".txt"},
		{ID: 9, Name: "report", FileType: ".pdf"},
		{ID: 11, Name: "report", FileType: ".txt"},
	}
	assert.Equal(t, []string{"report.txt", "2_report.txt", "report.pdf", "11_report.txt"}, EntryNames(records))
}

func TestEntryNames_PrefixedNameStillUnique(t *testing.T) {
	records := []models.FileRecord{
		{ID: 8, Name: "7_a", FileType: ".b.c"},
		{ID: 3, Name: "a", FileType: ".b.c"},
		{ID: 7, Name: "a.b", FileType: ".c"},
	}
	names := EntryNames(records)
	assert.Equal(t, []string{"7_a.b.c", "a.b.c", "7_7_a.b.c"}, names)

	seen := make(map[string]bool, len(names))
	for _, n := range names {
		assert.False(t, seen[n], "duplicate entry name %q", n)
		seen[n] = true
	}
}

func TestArchiveName(t *testing.T) {
	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.FixedZone("UTC+2", 2*3600))
	assert.Equal(t, "files_20250304_030607.zip", ArchiveName(at))
}

func TestZip_SourceReadFailureAbortsArchive(t *testing.T) {
	f := newFixture(t)
	a := f.add(t, "a", ".txt", "a.txt", []byte("a"))
	b := f.add(t, "b", ".txt", "b.txt", []byte("b"))
	require.NoError(t, os.Remove(filepath.FromSlash(b.FilePath)))

	s, err := NewBuilder().Zip(context.Background(), []models.FileRecord{a, b})
	assert.Nil(t, s)
	assert.ErrorIs(t, err, apperr.ErrArchiveFailure)
}
