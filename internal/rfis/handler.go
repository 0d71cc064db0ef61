package rfis

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

// Handler manages RFI endpoints.
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

// MountRoutes registers RFI routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/projects/{projectID}", func(r chi.Router) {
		r.Get("/", h.listByProject)
		r.Post("/", h.create)
	})
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Put("/", h.update)
		r.Delete("/", h.delete)
		r.Post("/answer", h.answer)
	})
}

type rfiRequest struct {
	Question            string     `json:"question" validate:"required"`
	Location            string     `json:"location"`
	WhatNeededToProceed string     `json:"what_needed_to_proceed"`
	Status              string     `json:"status"`
	RoutedTo            string     `json:"routed_to"`
	CostImpact          float64    `json:"cost_impact"`
	ScheduleImpactDays  int        `json:"schedule_impact_days"`
	DueDate             *time.Time `json:"due_date"`
}

type rfiResponse struct {
	ID                  int64      `json:"id"`
	ProjectID           int64      `json:"project_id"`
	RFINumber           int        `json:"rfi_number"`
	Question            string     `json:"question"`
	Location            string     `json:"location,omitempty"`
	WhatNeededToProceed string     `json:"what_needed_to_proceed,omitempty"`
	Status              string     `json:"status"`
	RoutedTo            string     `json:"routed_to,omitempty"`
	Answer              string     `json:"answer,omitempty"`
	AnsweredByID        int64      `json:"answered_by_id,omitempty"`
	AnsweredAt          *time.Time `json:"answered_at,omitempty"`
	SubmittedByID       int64      `json:"submitted_by_id"`
	CostImpact          float64    `json:"cost_impact,omitempty"`
	ScheduleImpactDays  int        `json:"schedule_impact_days,omitempty"`
	DueDate             *time.Time `json:"due_date,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func toResponse(f *RFI) rfiResponse {
	return rfiResponse{
		ID:                  f.ID,
		ProjectID:           f.ProjectID,
		RFINumber:           f.RFINumber,
		Question:            f.Question,
		Location:            f.Location,
		WhatNeededToProceed: f.WhatNeededToProceed,
		Status:              string(f.Status),
		RoutedTo:            f.RoutedTo,
		Answer:              f.Answer,
		AnsweredByID:        f.AnsweredByID,
		AnsweredAt:          f.AnsweredAt,
		SubmittedByID:       f.SubmittedByID,
		CostImpact:          f.CostImpact,
		ScheduleImpactDays:  f.ScheduleImpactDays,
		DueDate:             f.DueDate,
		CreatedAt:           f.CreatedAt,
		UpdatedAt:           f.UpdatedAt,
	}
}

func (h *Handler) listByProject(w http.ResponseWriter, r *http.Request) {
	_, projectID, ok := h.authorizeProject(w, r, authz.PermRFIView)
	if !ok {
		return
	}
	params := shared.ParseListParams(r, 50, 200)
	list, err := h.service.ListByProject(r.Context(), projectID, params)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]rfiResponse, len(list))
	for i := range list {
		out[i] = toResponse(&list[i])
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ident, projectID, ok := h.authorizeProject(w, r, authz.PermRFICreate)
	if !ok {
		return
	}
	var req rfiRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), ident, &RFI{
		ProjectID:           projectID,
		Question:            req.Question,
		Location:            req.Location,
		WhatNeededToProceed: req.WhatNeededToProceed,
		Status:              Status(req.Status),
		RoutedTo:            req.RoutedTo,
		CostImpact:          req.CostImpact,
		ScheduleImpactDays:  req.ScheduleImpactDays,
		DueDate:             req.DueDate,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	_, rfi, ok := h.loadAuthorized(w, r, authz.PermRFIView)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(rfi))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	_, rfi, ok := h.loadAuthorized(w, r, authz.PermRFIUpdate)
	if !ok {
		return
	}
	var req rfiRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if req.Status == "" {
		req.Status = string(rfi.Status)
	}
	updated, err := h.service.Update(r.Context(), &RFI{
		ID:                  rfi.ID,
		Question:            req.Question,
		Location:            req.Location,
		WhatNeededToProceed: req.WhatNeededToProceed,
		Status:              Status(req.Status),
		RoutedTo:            req.RoutedTo,
		CostImpact:          req.CostImpact,
		ScheduleImpactDays:  req.ScheduleImpactDays,
		DueDate:             req.DueDate,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(updated))
}

type answerRequest struct {
	Answer string `json:"answer" validate:"required"`
}

func (h *Handler) answer(w http.ResponseWriter, r *http.Request) {
	ident, rfi, ok := h.loadAuthorized(w, r, authz.PermRFIAnswer)
	if !ok {
		return
	}
	var req answerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	answered, err := h.service.Answer(r.Context(), ident, rfi.ID, req.Answer)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(answered))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	_, rfi, ok := h.loadAuthorized(w, r, authz.PermRFIDelete)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), rfi.ID); err != nil {
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

func (h *Handler) loadAuthorized(w http.ResponseWriter, r *http.Request, perm authz.Permission) (authz.Identity, *RFI, bool) {
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
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid rfi id")
		return ident, nil, false
	}
	rfi, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return ident, nil, false
	}
	if err := h.guard.VerifyProjectAccess(r.Context(), ident, rfi.ProjectID, ""); err != nil {
		httpx.RespondError(w, err)
		return ident, rfi, false
	}
	return ident, rfi, true
}
