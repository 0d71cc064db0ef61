package feedback

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sitebridge/sitebridge/internal/authz"
	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/shared"
)

// Handler manages the submitter-facing feedback endpoints. Review lives on
// the admin surface.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers feedback routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.submit)
	r.Get("/my", h.listMine)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Delete("/", h.delete)
	})
}

type submitRequest struct {
	Type        string `json:"type" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low medium high"`
	AppVersion  string `json:"app_version"`
}

type feedbackResponse struct {
	ID          int64      `json:"id"`
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	AppVersion  string     `json:"app_version,omitempty"`
	DevResponse string     `json:"dev_response,omitempty"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toResponse(f *Feedback) feedbackResponse {
	return feedbackResponse{
		ID:          f.ID,
		Type:        string(f.Type),
		Title:       f.Title,
		Description: f.Description,
		Priority:    f.Priority,
		Status:      string(f.Status),
		AppVersion:  f.AppVersion,
		DevResponse: f.DevResponse,
		RespondedAt: f.RespondedAt,
		CreatedAt:   f.CreatedAt,
	}
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	ident, ok := authz.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	var req submitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.Submit(r.Context(), ident, &Feedback{
		Type:        Type(req.Type),
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		AppVersion:  req.AppVersion,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	ident, ok := authz.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	params := shared.ParseListParams(r, 50, 200)
	list, err := h.service.ListMine(r.Context(), ident, params)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]feedbackResponse, len(list))
	for i := range list {
		out[i] = toResponse(&list[i])
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ident, id, ok := h.identifiedPath(w, r)
	if !ok {
		return
	}
	f, err := h.service.GetOwn(r.Context(), ident, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(f))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	ident, id, ok := h.identifiedPath(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteOwn(r.Context(), ident, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) identifiedPath(w http.ResponseWriter, r *http.Request) (authz.Identity, int64, bool) {
	ident, ok := authz.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return authz.Identity{}, 0, false
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid feedback id")
		return ident, 0, false
	}
	return ident, id, true
}
