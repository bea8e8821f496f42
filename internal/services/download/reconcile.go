package download

import (
	"context"
	"fmt"

	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/apperr"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/services/infrastructure"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/storage"
)

// Result partitions a requested id set against the catalog and the disk.
// Valid and DiskMissing keep the order in which the ids were requested.
type Result struct {
	Valid          []models.FileRecord
	CatalogMissing []int64
	DiskMissing    []models.FileRecord
}

// Consistent reports whether every requested id has a record and a file.
func (r Result) Consistent() bool {
	return len(r.CatalogMissing) == 0 && len(r.DiskMissing) == 0
}

// Err returns the disk-inconsistency error describing r, or nil.
func (r Result) Err() error {
	if r.Consistent() {
		return nil
	}
	return apperr.DiskInconsistency(r.CatalogMissing, refs(r.DiskMissing), refs(r.Valid))
}

// Reconciler compares catalog state with what is on disk.
type Reconciler struct {
	catalog storage.Catalog
	exists  func(path string) (bool, error)
}

func NewReconciler(catalog storage.Catalog) *Reconciler {
	return &Reconciler{catalog: catalog, exists: infrastructure.FileExists}
}

// Reconcile fetches the records for ids and probes each backing file.
// Duplicate ids are collapsed, keeping the first occurrence.
func (r *Reconciler) Reconcile(ctx context.Context, ids []int64) (Result, error) {
	ids = dedupe(ids)

	records, err := r.catalog.FindByIDs(ctx, ids)
	if err != nil {
		return Result{}, apperr.Internal("failed to load files", err)
	}
	byID := make(map[int64]models.FileRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	var res Result
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		rec, ok := byID[id]
		if !ok {
			res.CatalogMissing = append(res.CatalogMissing, id)
			continue
		}
		found, err := r.exists(rec.FilePath)
		if err != nil {
			return Result{}, apperr.Internal(fmt.Sprintf("failed to check file %d", id), err)
		}
		if found {
			res.Valid = append(res.Valid, rec)
		} else {
			res.DiskMissing = append(res.DiskMissing, rec)
		}
	}
	return res, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func refs(records []models.FileRecord) []models.FileRef {
	if len(records) == 0 {
		return nil
	}
	out := make([]models.FileRef, 0, len(records))
	for _, r := range records {
		out = append(out, r.Ref())
	}
	return out
}
