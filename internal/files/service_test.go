package files

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitebridge/sitebridge/internal/authz"
	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/shared"
)

type stubRepo struct {
	files  map[int64]*StoredFile
	nextID int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{files: map[int64]*StoredFile{}, nextID: 1}
}

func (s *stubRepo) Create(_ context.Context, f *StoredFile) (*StoredFile, error) {
	copied := *f
	copied.ID = s.nextID
	s.nextID++
	s.files[copied.ID] = &copied
	out := copied
	return &out, nil
}

func (s *stubRepo) FindByID(_ context.Context, id int64) (*StoredFile, error) {
	f, ok := s.files[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *f
	return &copied, nil
}

func (s *stubRepo) ListByProject(_ context.Context, projectID int64, kind Kind, _ shared.ListParams) ([]StoredFile, error) {
	var out []StoredFile
	for _, f := range s.files {
		if f.ProjectID == projectID && f.Kind == kind {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (s *stubRepo) Delete(_ context.Context, id int64) error {
	if _, ok := s.files[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(s.files, id)
	return nil
}

var uploader = authz.Identity{UserID: 5, Role: authz.RoleForeman}

func newService(t *testing.T) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	return NewService(newStubRepo(), NewStore(dir)), dir
}

func TestUploadWritesBytesUnderFreshKey(t *testing.T) {
	svc, dir := newService(t)

	first, err := svc.Upload(context.Background(), uploader, &StoredFile{
		ProjectID:    3,
		Kind:         KindPhoto,
		OriginalName: "slab-pour.JPG",
		ContentType:  "image/jpeg",
	}, strings.NewReader("fake jpeg bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.Key, "photo/"))
	assert.True(t, strings.HasSuffix(first.Key, ".jpg"))
	assert.Equal(t, int64(len("fake jpeg bytes")), first.SizeBytes)
	assert.Equal(t, uploader.UserID, first.UploadedByID)

	second, err := svc.Upload(context.Background(), uploader, &StoredFile{
		ProjectID:    3,
		Kind:         KindPhoto,
		OriginalName: "slab-pour.JPG",
	}, strings.NewReader("other bytes"))
	require.NoError(t, err)
	assert.NotEqual(t, first.Key, second.Key)

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(first.Key)))
	require.NoError(t, err)
	assert.Equal(t, "fake jpeg bytes", string(data))
}

func TestUploadRejectsUnknownKind(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Upload(context.Background(), uploader, &StoredFile{
		ProjectID:    3,
		Kind:         "blueprint",
		OriginalName: "a.pdf",
	}, strings.NewReader("x"))
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Upload(context.Background(), uploader, &StoredFile{
		ProjectID: 3,
		Kind:      KindDocument,
	}, strings.NewReader("x"))
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestOpenStreamsStoredBytes(t *testing.T) {
	svc, _ := newService(t)

	f, err := svc.Upload(context.Background(), uploader, &StoredFile{
		ProjectID:    3,
		Kind:         KindDocument,
		OriginalName: "submittal.pdf",
	}, strings.NewReader("pdf bytes"))
	require.NoError(t, err)

	stored, rc, err := svc.Open(context.Background(), f.ID)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes", string(data))
	assert.Equal(t, f.Key, stored.Key)
}

func TestDeleteRemovesMetadataAndBytes(t *testing.T) {
	svc, dir := newService(t)

	f, err := svc.Upload(context.Background(), uploader, &StoredFile{
		ProjectID:    3,
		Kind:         KindPhoto,
		OriginalName: "rough-in.png",
	}, strings.NewReader("png bytes"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), f.ID))

	_, err = svc.Get(context.Background(), f.ID)
	require.ErrorIs(t, err, httpx.ErrNotFound)
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(f.Key)))
	assert.True(t, os.IsNotExist(err))
}
