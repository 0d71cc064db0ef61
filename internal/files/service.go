package files

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/sitebridge/sitebridge/internal/authz"
	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/shared"
)

// RepositoryPort defines data access methods for file metadata.
type RepositoryPort interface {
	Create(ctx context.Context, f *StoredFile) (*StoredFile, error)
	FindByID(ctx context.Context, id int64) (*StoredFile, error)
	ListByProject(ctx context.Context, projectID int64, kind Kind, params shared.ListParams) ([]StoredFile, error)
	Delete(ctx context.Context, id int64) error
}

// BlobStore persists and serves the uploaded bytes.
type BlobStore interface {
	Save(key string, content io.Reader) (int64, error)
	Open(key string) (io.ReadCloser, error)
	Remove(key string) error
}

// Service handles upload, listing, and removal of project files.
type Service struct {
	repo  RepositoryPort
	store BlobStore
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, store BlobStore) *Service {
	return &Service{repo: repo, store: store}
}

// Upload stores the content and records its metadata. The storage key
// is derived from a fresh UUID so original names never collide.
func (s *Service) Upload(ctx context.Context, actor authz.Identity, f *StoredFile, content io.Reader) (*StoredFile, error) {
	if !f.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown file kind %q", httpx.ErrValidation, f.Kind)
	}
	if f.OriginalName == "" {
		return nil, fmt.Errorf("%w: file name is required", httpx.ErrValidation)
	}
	ext := strings.ToLower(filepath.Ext(f.OriginalName))
	f.Key = fmt.Sprintf("%s/%s%s", f.Kind, uuid.NewString(), ext)
	f.UploadedByID = actor.UserID

	size, err := s.store.Save(f.Key, content)
	if err != nil {
		return nil, err
	}
	f.SizeBytes = size

	created, err := s.repo.Create(ctx, f)
	if err != nil {
		s.store.Remove(f.Key)
		return nil, err
	}
	return created, nil
}

// Get fetches one metadata row.
func (s *Service) Get(ctx context.Context, id int64) (*StoredFile, error) {
	return s.repo.FindByID(ctx, id)
}

// Open returns the stored bytes for streaming to a client.
func (s *Service) Open(ctx context.Context, id int64) (*StoredFile, io.ReadCloser, error) {
	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Open(f.Key)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: stored object missing", httpx.ErrNotFound)
	}
	return f, rc, nil
}

// ListByProject returns a project's files of one kind.
func (s *Service) ListByProject(ctx context.Context, projectID int64, kind Kind, params shared.ListParams) ([]StoredFile, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown file kind %q", httpx.ErrValidation, kind)
	}
	return s.repo.ListByProject(ctx, projectID, kind, params)
}

// Delete removes the metadata row and the stored bytes.
func (s *Service) Delete(ctx context.Context, id int64) error {
	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	return s.store.Remove(f.Key)
}
