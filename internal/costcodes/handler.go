package costcodes

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

// Handler manages cost code endpoints.
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

// MountRoutes registers cost code routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/projects/{projectID}", func(r chi.Router) {
		r.Get("/", h.listByProject)
		r.Post("/", h.create)
	})
	r.Route("/{id}", func(r chi.Router) {
		r.Put("/", h.update)
		r.Delete("/", h.deactivate)
	})
}

type costCodeRequest struct {
	Code           string  `json:"code" validate:"required"`
	Description    string  `json:"description" validate:"required"`
	BudgetedHours  float64 `json:"budgeted_hours" validate:"gte=0"`
	BudgetedAmount float64 `json:"budgeted_amount" validate:"gte=0"`
}

type costCodeResponse struct {
	ID             int64     `json:"id"`
	ProjectID      int64     `json:"project_id"`
	Code           string    `json:"code"`
	Description    string    `json:"description"`
	BudgetedHours  float64   `json:"budgeted_hours,omitempty"`
	BudgetedAmount float64   `json:"budgeted_amount,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toResponse(c *CostCode) costCodeResponse {
	return costCodeResponse{
		ID:             c.ID,
		ProjectID:      c.ProjectID,
		Code:           c.Code,
		Description:    c.Description,
		BudgetedHours:  c.BudgetedHours,
		BudgetedAmount: c.BudgetedAmount,
		IsActive:       c.IsActive,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func (h *Handler) listByProject(w http.ResponseWriter, r *http.Request) {
	_, projectID, ok := h.authorizeProject(w, r, authz.PermCostCodeView)
	if !ok {
		return
	}
	params := shared.ParseListParams(r, 50, 200)
	includeInactive := r.URL.Query().Get("include_inactive") == "true"
	list, err := h.service.ListByProject(r.Context(), projectID, includeInactive, params)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]costCodeResponse, len(list))
	for i := range list {
		out[i] = toResponse(&list[i])
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	_, projectID, ok := h.authorizeProject(w, r, authz.PermCostCodeCreate)
	if !ok {
		return
	}
	var req costCodeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), &CostCode{
		ProjectID:      projectID,
		Code:           req.Code,
		Description:    req.Description,
		BudgetedHours:  req.BudgetedHours,
		BudgetedAmount: req.BudgetedAmount,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	_, code, ok := h.loadAuthorized(w, r, authz.PermCostCodeUpdate)
	if !ok {
		return
	}
	var req costCodeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	updated, err := h.service.Update(r.Context(), &CostCode{
		ID:             code.ID,
		Code:           req.Code,
		Description:    req.Description,
		BudgetedHours:  req.BudgetedHours,
		BudgetedAmount: req.BudgetedAmount,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	_, code, ok := h.loadAuthorized(w, r, authz.PermCostCodeDelete)
	if !ok {
		return
	}
	if err := h.service.Deactivate(r.Context(), code.ID); err != nil {
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

// loadAuthorized checks the role permission, fetches the cost code, then
// verifies membership against its project. The permission check runs
// before the fetch so denial never reveals whether the id exists.
func (h *Handler) loadAuthorized(w http.ResponseWriter, r *http.Request, perm authz.Permission) (authz.Identity, *CostCode, bool) {
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
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid cost code id")
		return ident, nil, false
	}
	code, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return ident, nil, false
	}
	if err := h.guard.VerifyProjectAccess(r.Context(), ident, code.ProjectID, ""); err != nil {
		httpx.RespondError(w, err)
		return ident, code, false
	}
	return ident, code, true
}
