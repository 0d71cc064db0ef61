package servicecalls

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

// Handler manages service dispatch endpoints. Calls are not project
// scoped, so the routes gate on service permissions alone.
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

// MountRoutes registers service call routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.RequirePermission(authz.PermServiceView)).Get("/", h.list)
	r.With(h.guard.RequirePermission(authz.PermServiceCreate)).Post("/", h.create)
	r.Route("/{id}", func(r chi.Router) {
		r.With(h.guard.RequirePermission(authz.PermServiceView)).Get("/", h.get)
		r.With(h.guard.RequirePermission(authz.PermServiceUpdate)).Patch("/", h.update)
		r.With(h.guard.RequirePermission(authz.PermServiceComplete)).Post("/complete", h.complete)
	})
}

type callRequest struct {
	ProjectID        int64      `json:"project_id"`
	CustomerName     string     `json:"customer_name"`
	CustomerPhone    string     `json:"customer_phone"`
	CustomerAddress  string     `json:"customer_address"`
	IssueDescription string     `json:"issue_description" validate:"required"`
	Priority         string     `json:"priority"`
	AssignedToID     int64      `json:"assigned_to_id"`
	ScheduledAt      *time.Time `json:"scheduled_at"`
}

type completeRequest struct {
	ResolutionNotes string `json:"resolution_notes"`
}

type callResponse struct {
	ID               int64      `json:"id"`
	ProjectID        int64      `json:"project_id,omitempty"`
	CallNumber       string     `json:"call_number"`
	CustomerName     string     `json:"customer_name,omitempty"`
	CustomerPhone    string     `json:"customer_phone,omitempty"`
	CustomerAddress  string     `json:"customer_address,omitempty"`
	IssueDescription string     `json:"issue_description"`
	Priority         string     `json:"priority"`
	AssignedToID     int64      `json:"assigned_to_id,omitempty"`
	ScheduledAt      *time.Time `json:"scheduled_at,omitempty"`
	IsCompleted      bool       `json:"is_completed"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	ResolutionNotes  string     `json:"resolution_notes,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func toResponse(c *ServiceCall) callResponse {
	return callResponse{
		ID:               c.ID,
		ProjectID:        c.ProjectID,
		CallNumber:       c.CallNumber,
		CustomerName:     c.CustomerName,
		CustomerPhone:    c.CustomerPhone,
		CustomerAddress:  c.CustomerAddress,
		IssueDescription: c.IssueDescription,
		Priority:         string(c.Priority),
		AssignedToID:     c.AssignedToID,
		ScheduledAt:      c.ScheduledAt,
		IsCompleted:      c.IsCompleted,
		CompletedAt:      c.CompletedAt,
		ResolutionNotes:  c.ResolutionNotes,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	params := shared.ParseListParams(r, 50, 100)
	filter := Filter{}
	if raw := r.URL.Query().Get("assigned_to_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid assignee id")
			return
		}
		filter.AssignedToID = id
	}
	if raw := r.URL.Query().Get("is_completed"); raw != "" {
		completed := raw == "true"
		filter.Completed = &completed
	}
	list, err := h.service.List(r.Context(), filter, params)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]callResponse, len(list))
	for i := range list {
		out[i] = toResponse(&list[i])
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req callRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), fromRequest(0, req))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(c))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req callRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	updated, err := h.service.Update(r.Context(), fromRequest(id, req))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req completeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	completed, err := h.service.Complete(r.Context(), id, req.ResolutionNotes)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(completed))
}

func fromRequest(id int64, req callRequest) *ServiceCall {
	return &ServiceCall{
		ID:               id,
		ProjectID:        req.ProjectID,
		CustomerName:     req.CustomerName,
		CustomerPhone:    req.CustomerPhone,
		CustomerAddress:  req.CustomerAddress,
		IssueDescription: req.IssueDescription,
		Priority:         Priority(req.Priority),
		AssignedToID:     req.AssignedToID,
		ScheduledAt:      req.ScheduledAt,
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid service call id")
		return 0, false
	}
	return id, true
}
