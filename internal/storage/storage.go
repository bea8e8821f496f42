package storage

import (
	"context"

	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/models"
)

// Catalog defines the contract for all file metadata stores.
//
// The catalog owns record identity and timestamps. It knows nothing about the
// files themselves: a record may point at a path that no longer exists.
type Catalog interface {
	// Create assigns ID, TimeCreated and TimeModified and stores the record.
	// A duplicate name yields apperr.ErrConflict.
	Create(ctx context.Context, record models.FileRecord) (models.FileRecord, error)

	// FindByID returns apperr.ErrNotFound when no record has the id.
	FindByID(ctx context.Context, id int64) (models.FileRecord, error)

	// FindByIDs returns the records that exist among ids, in ascending id order.
	// Unknown ids are skipped.
	FindByIDs(ctx context.Context, ids []int64) ([]models.FileRecord, error)

	// Filter returns the records matching f, in ascending id order.
	Filter(ctx context.Context, f Filter) ([]models.FileRecord, error)

	// Update applies changes and refreshes TimeModified. Returns the new snapshot.
	Update(ctx context.Context, id int64, changes models.FileChanges) (models.FileRecord, error)

	// Delete reports whether a record was removed.
	Delete(ctx context.Context, id int64) (bool, error)

	Ping(ctx context.Context) error
	Close() error
}
