package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/apperr"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/models"
	"github.com/lib/pq"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

const fileColumns = `id, name, file_type, file_path, time_created, time_modified`

// PostgresStorage implements Catalog for PostgreSQL
type PostgresStorage struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStorage connects to PostgreSQL and makes sure the files table exists.
func NewPostgresStorage(ctx context.Context, connectionString string, logger *slog.Logger) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	// Test the connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	p := &PostgresStorage{db: db, logger: logger.With(slog.String("component", "postgres_catalog"))}
	if err := p.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	p.logger.Info("connected to PostgreSQL")
	return p, nil
}

func (p *PostgresStorage) createTables(ctx context.Context) error {
	query := `
    CREATE TABLE IF NOT EXISTS files (
        id BIGSERIAL PRIMARY KEY,
        name VARCHAR(50) NOT NULL,
        file_type VARCHAR(20) NOT NULL,
        file_path VARCHAR(500) NOT NULL,
        time_created TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        time_modified TIMESTAMPTZ NOT NULL DEFAULT NOW()
    );

    CREATE UNIQUE INDEX IF NOT EXISTS idx_files_name ON files(name);
    CREATE INDEX IF NOT EXISTS idx_files_time_created ON files(time_created);
    CREATE INDEX IF NOT EXISTS idx_files_file_type ON files(LOWER(file_type));
    `

	_, err := p.db.ExecContext(ctx, query)
	return err
}

func (p *PostgresStorage) Create(ctx context.Context, record models.FileRecord) (models.FileRecord, error) {
	query := `
    INSERT INTO files (name, file_type, file_path, time_created, time_modified)
    VALUES ($1, $2, $3, NOW(), NOW())
    RETURNING ` + fileColumns

	created, err := scanRecord(p.db.QueryRowContext(ctx, query, record.Name, record.FileType, record.FilePath))
	if err != nil {
		if isUniqueViolation(err) {
			return models.FileRecord{}, apperr.Conflict("a file named %q already exists", record.Name)
		}
		return models.FileRecord{}, fmt.Errorf("failed to insert file: %w", err)
	}
	return created, nil
}

func (p *PostgresStorage) FindByID(ctx context.Context, id int64) (models.FileRecord, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1`

	record, err := scanRecord(p.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.FileRecord{}, apperr.NotFound("file with ID %d not found", id)
		}
		return models.FileRecord{}, fmt.Errorf("failed to get file %d: %w", id, err)
	}
	return record, nil
}

func (p *PostgresStorage) FindByIDs(ctx context.Context, ids []int64) ([]models.FileRecord, error) {
	if len(ids) == 0 {
		return []models.FileRecord{}, nil
	}
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = ANY($1) ORDER BY id`
	return p.queryRecords(ctx, query, pq.Array(ids))
}

func (p *PostgresStorage) Filter(ctx context.Context, f Filter) ([]models.FileRecord, error) {
	where, args := buildFilterWhere(f, 1)
	query := fmt.Sprintf(`SELECT %s FROM files %s ORDER BY id`, fileColumns, where)
	return p.queryRecords(ctx, query, args...)
}

func (p *PostgresStorage) Update(ctx context.Context, id int64, changes models.FileChanges) (models.FileRecord, error) {
	sets := []string{"time_modified = NOW()"}
	var args []any
	add := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, *value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("name", changes.Name)
	add("file_type", changes.FileType)
	add("file_path", changes.FilePath)

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE files SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), fileColumns)

	updated, err := scanRecord(p.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.FileRecord{}, apperr.NotFound("file with ID %d not found", id)
		}
		if isUniqueViolation(err) {
			return models.FileRecord{}, apperr.Conflict("a file named %q already exists", *changes.Name)
		}
		return models.FileRecord{}, fmt.Errorf("failed to update file %d: %w", id, err)
	}
	return updated, nil
}

func (p *PostgresStorage) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := p.db.ExecContext(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete file %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

func (p *PostgresStorage) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *PostgresStorage) Close() error {
	return p.db.Close()
}

func (p *PostgresStorage) queryRecords(ctx context.Context, query string, args ...any) ([]models.FileRecord, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer func(rows *sql.Rows) {
		if cerr := rows.Close(); cerr != nil {
			p.logger.Warn("error closing rows", slog.String("error", cerr.Error()))
		}
	}(rows)

	files := []models.FileRecord{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file row: %w", err)
		}
		files = append(files, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate file rows: %w", err)
	}
	return files, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (models.FileRecord, error) {
	var r models.FileRecord
	if err := row.Scan(&r.ID, &r.Name, &r.FileType, &r.FilePath, &r.TimeCreated, &r.TimeModified); err != nil {
		return models.FileRecord{}, err
	}
	r.TimeCreated = r.TimeCreated.UTC()
	r.TimeModified = r.TimeModified.UTC()
	return r, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
