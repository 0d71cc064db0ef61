package files

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sitebridge/sitebridge/internal/authz"
	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/shared"
)

// Uploads are buffered to disk above this size.
const maxUploadMemory = 16 << 20

// Handler manages project file endpoints. Photos and documents carry
// separate permissions, so each route resolves the file kind before
// gating.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   authz.Guard
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers file routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/projects/{projectID}", func(r chi.Router) {
		r.Get("/", h.listByProject)
		r.Post("/", h.upload)
	})
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Get("/content", h.content)
		r.Delete("/", h.delete)
	})
}

func viewPerm(kind Kind) authz.Permission {
	if kind == KindPhoto {
		return authz.PermPhotoView
	}
	return authz.PermDocumentView
}

func createPerm(kind Kind) authz.Permission {
	if kind == KindPhoto {
		return authz.PermPhotoCreate
	}
	return authz.PermDocumentCreate
}

func deletePerm(kind Kind) authz.Permission {
	if kind == KindPhoto {
		return authz.PermPhotoDelete
	}
	return authz.PermDocumentDelete
}

type fileResponse struct {
	ID           int64     `json:"id"`
	ProjectID    int64     `json:"project_id"`
	Kind         string    `json:"kind"`
	Key          string    `json:"key"`
	OriginalName string    `json:"original_name"`
	ContentType  string    `json:"content_type,omitempty"`
	SizeBytes    int64     `json:"size_bytes"`
	Caption      string    `json:"caption,omitempty"`
	UploadedByID int64     `json:"uploaded_by_id"`
	CreatedAt    time.Time `json:"created_at"`
}

func toResponse(f *StoredFile) fileResponse {
	return fileResponse{
		ID:           f.ID,
		ProjectID:    f.ProjectID,
		Kind:         string(f.Kind),
		Key:          f.Key,
		OriginalName: f.OriginalName,
		ContentType:  f.ContentType,
		SizeBytes:    f.SizeBytes,
		Caption:      f.Caption,
		UploadedByID: f.UploadedByID,
		CreatedAt:    f.CreatedAt,
	}
}

func (h *Handler) listByProject(w http.ResponseWriter, r *http.Request) {
	kind := Kind(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = KindPhoto
	}
	if !kind.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown file kind")
		return
	}
	_, projectID, ok := h.authorizeProject(w, r, viewPerm(kind))
	if !ok {
		return
	}
	params := shared.ParseListParams(r, 50, 200)
	list, err := h.service.ListByProject(r.Context(), projectID, kind, params)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]fileResponse, len(list))
	for i := range list {
		out[i] = toResponse(&list[i])
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid multipart body")
		return
	}
	kind := Kind(r.FormValue("kind"))
	if kind == "" {
		kind = KindPhoto
	}
	if !kind.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown file kind")
		return
	}
	ident, projectID, ok := h.authorizeProject(w, r, createPerm(kind))
	if !ok {
		return
	}
	part, header, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "file part is required")
		return
	}
	defer part.Close()

	created, err := h.service.Upload(r.Context(), ident, &StoredFile{
		ProjectID:    projectID,
		Kind:         kind,
		OriginalName: header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		Caption:      r.FormValue("caption"),
	}, part)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	_, f, ok := h.loadAuthorized(w, r, viewPerm)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(f))
}

func (h *Handler) content(w http.ResponseWriter, r *http.Request) {
	_, f, ok := h.loadAuthorized(w, r, viewPerm)
	if !ok {
		return
	}
	f2, rc, err := h.service.Open(r.Context(), f.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	defer rc.Close()
	if f2.ContentType != "" {
		w.Header().Set("Content-Type", f2.ContentType)
	}
	w.Header().Set("Content-Length", strconv.FormatInt(f2.SizeBytes, 10))
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("file stream aborted", "file_id", f2.ID, "error", err)
	}
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	_, f, ok := h.loadAuthorized(w, r, deletePerm)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), f.ID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) authorizeProject(w http.ResponseWriter, r *http.Request, perm authz.Permission) (authz.Identity, int64, bool) {
	ident, ok := authz.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return authz.Identity{}, 0, false
	}
	projectID, err := strconv.ParseInt(chi.URLParam(r, "projectID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid project id")
		return ident, 0, false
	}
	if err := h.guard.VerifyProjectAccess(r.Context(), ident, projectID, perm); err != nil {
		httpx.RespondError(w, err)
		return ident, projectID, false
	}
	return ident, projectID, true
}

func (h *Handler) loadAuthorized(w http.ResponseWriter, r *http.Request, permFor func(Kind) authz.Permission) (authz.Identity, *StoredFile, bool) {
	ident, ok := authz.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return authz.Identity{}, nil, false
	}
	// The exact permission depends on the stored kind, so the pre-fetch
	// check accepts either kind's permission and the kind-exact check
	// follows the load.
	if err := h.guard.CheckPermission(ident, permFor(KindPhoto), permFor(KindDocument)); err != nil {
		httpx.RespondError(w, err)
		return ident, nil, false
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid file id")
		return ident, nil, false
	}
	f, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return ident, nil, false
	}
	if err := h.guard.VerifyProjectAccess(r.Context(), ident, f.ProjectID, permFor(f.Kind)); err != nil {
		httpx.RespondError(w, err)
		return ident, f, false
	}
	return ident, f, true
}
