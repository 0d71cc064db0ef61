package changes

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

// Handler manages change order endpoints.
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

// MountRoutes registers change order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/projects/{projectID}", func(r chi.Router) {
		r.Get("/", h.listByProject)
		r.Post("/", h.create)
	})
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Put("/", h.update)
		r.Delete("/", h.delete)
		r.Post("/price", h.price)
		r.Post("/approve", h.approve)
	})
}

type changeRequest struct {
	WhatChanged        string `json:"what_changed" validate:"required"`
	WhyChanged         string `json:"why_changed" validate:"required"`
	Location           string `json:"location"`
	TimeMaterialImpact string `json:"time_material_impact"`
	Status             string `json:"status"`
}

type changeResponse struct {
	ID                      int64      `json:"id"`
	ProjectID               int64      `json:"project_id"`
	ChangeNumber            int        `json:"change_number"`
	WhatChanged             string     `json:"what_changed"`
	WhyChanged              string     `json:"why_changed"`
	Location                string     `json:"location,omitempty"`
	TimeMaterialImpact      string     `json:"time_material_impact,omitempty"`
	Status                  string     `json:"status"`
	PricedAmount            float64    `json:"priced_amount,omitempty"`
	ScheduleImpactDays      int        `json:"schedule_impact_days,omitempty"`
	ScheduleImpactStatement string     `json:"schedule_impact_statement,omitempty"`
	ApprovedAmount          float64    `json:"approved_amount,omitempty"`
	ApprovedAt              *time.Time `json:"approved_at,omitempty"`
	SubmittedByID           int64      `json:"submitted_by_id"`
	PricedByID              int64      `json:"priced_by_id,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

func toResponse(c *ChangeOrder) changeResponse {
	return changeResponse{
		ID:                      c.ID,
		ProjectID:               c.ProjectID,
		ChangeNumber:            c.ChangeNumber,
		WhatChanged:             c.WhatChanged,
		WhyChanged:              c.WhyChanged,
		Location:                c.Location,
		TimeMaterialImpact:      c.TimeMaterialImpact,
		Status:                  string(c.Status),
		PricedAmount:            c.PricedAmount,
		ScheduleImpactDays:      c.ScheduleImpactDays,
		ScheduleImpactStatement: c.ScheduleImpactStatement,
		ApprovedAmount:          c.ApprovedAmount,
		ApprovedAt:              c.ApprovedAt,
		SubmittedByID:           c.SubmittedByID,
		PricedByID:              c.PricedByID,
		CreatedAt:               c.CreatedAt,
		UpdatedAt:               c.UpdatedAt,
	}
}

func (h *Handler) listByProject(w http.ResponseWriter, r *http.Request) {
	_, projectID, ok := h.authorizeProject(w, r, authz.PermChangeView)
	if !ok {
		return
	}
	params := shared.ParseListParams(r, 50, 200)
	list, err := h.service.ListByProject(r.Context(), projectID, params)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]changeResponse, len(list))
	for i := range list {
		out[i] = toResponse(&list[i])
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ident, projectID, ok := h.authorizeProject(w, r, authz.PermChangeCreate)
	if !ok {
		return
	}
	var req changeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), ident, &ChangeOrder{
		ProjectID:          projectID,
		WhatChanged:        req.WhatChanged,
		WhyChanged:         req.WhyChanged,
		Location:           req.Location,
		TimeMaterialImpact: req.TimeMaterialImpact,
		Status:             Status(req.Status),
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	_, change, ok := h.loadAuthorized(w, r, authz.PermChangeView)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(change))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	_, change, ok := h.loadAuthorized(w, r, authz.PermChangeCreate)
	if !ok {
		return
	}
	var req changeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if req.Status == "" {
		req.Status = string(change.Status)
	}
	updated, err := h.service.Update(r.Context(), &ChangeOrder{
		ID:                 change.ID,
		WhatChanged:        req.WhatChanged,
		WhyChanged:         req.WhyChanged,
		Location:           req.Location,
		TimeMaterialImpact: req.TimeMaterialImpact,
		Status:             Status(req.Status),
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(updated))
}

type priceRequest struct {
	Amount                  float64 `json:"amount" validate:"required,gt=0"`
	ScheduleImpactDays      int     `json:"schedule_impact_days"`
	ScheduleImpactStatement string  `json:"schedule_impact_statement"`
}

func (h *Handler) price(w http.ResponseWriter, r *http.Request) {
	ident, change, ok := h.loadAuthorized(w, r, authz.PermChangePrice)
	if !ok {
		return
	}
	var req priceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	priced, err := h.service.Price(r.Context(), ident, change.ID, req.Amount, req.ScheduleImpactDays, req.ScheduleImpactStatement)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(priced))
}

type approveRequest struct {
	Amount float64 `json:"amount"`
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	_, change, ok := h.loadAuthorized(w, r, authz.PermChangeApprove)
	if !ok {
		return
	}
	var req approveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	approved, err := h.service.Approve(r.Context(), change.ID, req.Amount)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(approved))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	_, change, ok := h.loadAuthorized(w, r, authz.PermChangeDelete)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), change.ID); err != nil {
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

func (h *Handler) loadAuthorized(w http.ResponseWriter, r *http.Request, perm authz.Permission) (authz.Identity, *ChangeOrder, bool) {
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
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid change order id")
		return ident, nil, false
	}
	change, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return ident, nil, false
	}
	if err := h.guard.VerifyProjectAccess(r.Context(), ident, change.ProjectID, ""); err != nil {
		httpx.RespondError(w, err)
		return ident, change, false
	}
	return ident, change, true
}
