package download

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/klauspost/compress/flate"

	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/apperr"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/services"
)

const ZipContentType = "application/zip"

// Stream is a download body with the headers needed to serve it.
type Stream struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

// Builder turns validated records into a download stream.
type Builder struct {
	now   func() time.Time
	level int
}

func NewBuilder() *Builder {
	return &Builder{now: time.Now, level: flate.DefaultCompression}
}

// Build returns the file itself for one record and a zip archive otherwise.
func (b *Builder) Build(ctx context.Context, records []models.FileRecord) (*Stream, error) {
	switch len(records) {
	case 0:
		return nil, apperr.Internal("nothing to download", nil)
	case 1:
		return b.Single(records[0])
	default:
		return b.Zip(ctx, records)
	}
}

// Single opens the record's file for reading. The caller closes Body.
func (b *Builder) Single(record models.FileRecord) (*Stream, error) {
	f, err := os.Open(filepath.FromSlash(record.FilePath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.DiskInconsistency(nil, []models.FileRef{record.Ref()}, nil)
		}
		return nil, apperr.Internal("failed to open file", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, apperr.Internal("failed to stat file", err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, apperr.DiskInconsistency(nil, []models.FileRef{record.Ref()}, nil)
	}

	return &Stream{
		Name:        downloadName(record),
		ContentType: services.GetContentType(record.FileType),
		Size:        info.Size(),
		Body:        f,
	}, nil
}

// Zip builds the whole archive in memory. Any failure discards it.
func (b *Builder) Zip(ctx context.Context, records []models.FileRecord) (*Stream, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, b.level)
	})

	names := EntryNames(records)
	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := addEntry(zw, names[i], record); err != nil {
			return nil, apperr.ArchiveFailure(err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, apperr.ArchiveFailure(err)
	}

	return &Stream{
		Name:        ArchiveName(b.now()),
		ContentType: ZipContentType,
		Size:        int64(buf.Len()),
		Body:        io.NopCloser(bytes.NewReader(buf.Bytes())),
	}, nil
}

func addEntry(zw *zip.Writer, name string, record models.FileRecord) error {
	f, err := os.Open(filepath.FromSlash(record.FilePath))
	if err != nil {
		return fmt.Errorf("open %s: %w", record.FilePath, err)
	}
	defer f.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: record.TimeModified,
	})
	if err != nil {
		return fmt.Errorf("create entry %s: %w", name, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("write entry %s: %w", name, err)
	}
	return nil
}

// EntryNames assigns archive entry names in input order. A name that is
// already taken is prefixed with the record id, {id}_{name}{fileType}, and
// prefixed again until it is unique.
func EntryNames(records []models.FileRecord) []string {
	used := make(map[string]bool, len(records))
	names := make([]string, len(records))
	for i, r := range records {
		name := r.FileName()
		prefix := strconv.FormatInt(r.ID, 10) + "_"
		for used[name] {
			name = prefix + name
		}
		used[name] = true
		names[i] = name
	}
	return names
}

// ArchiveName is files_{yyyyMMdd_HHmmss}.zip in UTC.
func ArchiveName(t time.Time) string {
	return "files_" + t.UTC().Format("20060102_150405") + ".zip"
}

func downloadName(record models.FileRecord) string {
	base := path.Base(record.FilePath)
	if base == "." || base == "/" {
		return record.FileName()
	}
	return base
}
