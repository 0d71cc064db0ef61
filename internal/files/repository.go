package files

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/shared"
)

// Repository provides PostgreSQL backed persistence for file metadata.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const fileColumns = `id, project_id, kind, key, original_name, COALESCE(content_type, ''),
	size_bytes, COALESCE(caption, ''), uploaded_by_id, created_at`

func scanFile(row pgx.Row) (*StoredFile, error) {
	var f StoredFile
	err := row.Scan(&f.ID, &f.ProjectID, &f.Kind, &f.Key, &f.OriginalName, &f.ContentType,
		&f.SizeBytes, &f.Caption, &f.UploadedByID, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

// Create inserts a metadata row.
func (r *Repository) Create(ctx context.Context, f *StoredFile) (*StoredFile, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO files (project_id, kind, key, original_name, content_type, size_bytes, caption, uploaded_by_id)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, NULLIF($7, ''), $8)
		 RETURNING `+fileColumns,
		f.ProjectID, f.Kind, f.Key, f.OriginalName, f.ContentType, f.SizeBytes, f.Caption, f.UploadedByID)
	created, err := scanFile(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return nil, httpx.ErrDuplicate
			case "23503":
				return nil, httpx.ErrNotFound
			}
		}
		return nil, err
	}
	return created, nil
}

// FindByID fetches one metadata row.
func (r *Repository) FindByID(ctx context.Context, id int64) (*StoredFile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+fileColumns+` FROM files WHERE id = $1`, id)
	return scanFile(row)
}

// ListByProject returns a project's files of one kind, newest first.
func (r *Repository) ListByProject(ctx context.Context, projectID int64, kind Kind, params shared.ListParams) ([]StoredFile, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+fileColumns+` FROM files
		 WHERE project_id = $1 AND kind = $2
		 ORDER BY created_at DESC, id DESC
		 LIMIT $3 OFFSET $4`,
		projectID, kind, params.Limit, params.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StoredFile
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

// Delete removes a metadata row.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
