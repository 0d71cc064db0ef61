package tasks

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

// Handler manages task endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     authz.Guard
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, validator: validator.New()}
}

// MountRoutes registers task routes. Project-scoped listing and creation
// live under the project subtree; single-task operations resolve the
// project from the stored row.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.RequirePermission(authz.PermTaskView)).Get("/mine", h.listMine)
	r.Route("/projects/{projectID}", func(r chi.Router) {
		r.Get("/", h.listByProject)
		r.Post("/", h.create)
	})
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Put("/", h.update)
		r.Delete("/", h.delete)
		r.Post("/acknowledge", h.acknowledge)
		r.Post("/complete", h.complete)
	})
}

type taskRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	AssigneeID  int64      `json:"assignee_id" validate:"required,gt=0"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

type taskResponse struct {
	ID             int64      `json:"id"`
	ProjectID      int64      `json:"project_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	AssigneeID     int64      `json:"assignee_id"`
	CreatedByID    int64      `json:"created_by_id"`
	Status         string     `json:"status"`
	Priority       string     `json:"priority"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func toResponse(t *Task) taskResponse {
	return taskResponse{
		ID:             t.ID,
		ProjectID:      t.ProjectID,
		Title:          t.Title,
		Description:    t.Description,
		AssigneeID:     t.AssigneeID,
		CreatedByID:    t.CreatedByID,
		Status:         string(t.Status),
		Priority:       string(t.Priority),
		DueDate:        t.DueDate,
		AcknowledgedAt: t.AcknowledgedAt,
		CompletedAt:    t.CompletedAt,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
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
	httpx.JSON(w, http.StatusOK, toResponses(list))
}

func (h *Handler) listByProject(w http.ResponseWriter, r *http.Request) {
	_, projectID, ok := h.authorizeProject(w, r, authz.PermTaskView)
	if !ok {
		return
	}
	params := shared.ParseListParams(r, 50, 200)
	filter := Filter{
		Status:   Status(r.URL.Query().Get("status")),
		Priority: Priority(r.URL.Query().Get("priority")),
	}
	if raw := r.URL.Query().Get("assignee_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid assignee id")
			return
		}
		filter.AssigneeID = id
	}
	list, err := h.service.ListByProject(r.Context(), projectID, filter, params)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponses(list))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ident, projectID, ok := h.authorizeProject(w, r, authz.PermTaskCreate)
	if !ok {
		return
	}
	var req taskRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), ident, &Task{
		ProjectID:   projectID,
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		Status:      Status(req.Status),
		Priority:    Priority(req.Priority),
		DueDate:     req.DueDate,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	_, task, ok := h.loadAuthorized(w, r, authz.PermTaskView)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(task))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	ident, task, ok := h.loadAuthorized(w, r, authz.PermTaskUpdate)
	if !ok {
		return
	}
	var req taskRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if req.Status == "" {
		req.Status = string(task.Status)
	}
	if req.Priority == "" {
		req.Priority = string(task.Priority)
	}
	updated, err := h.service.Update(r.Context(), ident, &Task{
		ID:          task.ID,
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		Status:      Status(req.Status),
		Priority:    Priority(req.Priority),
		DueDate:     req.DueDate,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	ident, task, ok := h.loadAuthorized(w, r, authz.PermTaskDelete)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), ident, task.ID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) acknowledge(w http.ResponseWriter, r *http.Request) {
	ident, task, ok := h.loadAuthorized(w, r, authz.PermTaskAcknowledge)
	if !ok {
		return
	}
	updated, err := h.service.Acknowledge(r.Context(), ident, task.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	ident, task, ok := h.loadAuthorized(w, r, authz.PermTaskComplete)
	if !ok {
		return
	}
	updated, err := h.service.Complete(r.Context(), ident, task.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(updated))
}

func toResponses(list []Task) []taskResponse {
	out := make([]taskResponse, len(list))
	for i := range list {
		out[i] = toResponse(&list[i])
	}
	return out
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

// loadAuthorized checks the role permission, fetches the task, then
// verifies membership against the task's project. The permission check
// runs before the fetch so denial never reveals whether the id exists.
func (h *Handler) loadAuthorized(w http.ResponseWriter, r *http.Request, perm authz.Permission) (authz.Identity, *Task, bool) {
	ident, ok := authz.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return authz.Identity{}, nil, false
	}
	if err := h.guard.CheckPermission(ident, perm); err != nil {
		httpx.RespondError(w, err)
		return ident, nil, false
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid task id")
		return ident, nil, false
	}
	task, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return ident, nil, false
	}
	if err := h.guard.VerifyProjectAccess(r.Context(), ident, task.ProjectID, ""); err != nil {
		httpx.RespondError(w, err)
		return ident, task, false
	}
	return ident, task, true
}
