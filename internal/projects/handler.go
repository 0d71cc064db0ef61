package projects

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

// Handler manages project endpoints.
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

// MountRoutes registers project routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.RequirePermission(authz.PermProjectView)).Get("/", h.list)
	r.With(h.guard.RequirePermission(authz.PermProjectCreate)).Post("/", h.create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Put("/", h.update)
		r.Delete("/", h.delete)
		r.Get("/members", h.listMembers)
		r.Post("/members", h.addMember)
		r.Delete("/members/{userID}", h.removeMember)
	})
}

type projectRequest struct {
	Name             string     `json:"name" validate:"required"`
	Number           string     `json:"number"`
	Description      string     `json:"description"`
	Status           string     `json:"status"`
	Address          string     `json:"address"`
	City             string     `json:"city"`
	State            string     `json:"state"`
	ClientName       string     `json:"client_name"`
	ContractValue    float64    `json:"contract_value"`
	StartDate        *time.Time `json:"start_date"`
	TargetCompletion *time.Time `json:"target_completion"`
}

type projectResponse struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	Number           string     `json:"number,omitempty"`
	Description      string     `json:"description,omitempty"`
	Status           string     `json:"status"`
	Address          string     `json:"address,omitempty"`
	City             string     `json:"city,omitempty"`
	State            string     `json:"state,omitempty"`
	ClientName       string     `json:"client_name,omitempty"`
	ContractValue    float64    `json:"contract_value,omitempty"`
	StartDate        *time.Time `json:"start_date,omitempty"`
	TargetCompletion *time.Time `json:"target_completion,omitempty"`
	CreatedBy        int64      `json:"created_by"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func toResponse(p *Project) projectResponse {
	return projectResponse{
		ID:               p.ID,
		Name:             p.Name,
		Number:           p.Number,
		Description:      p.Description,
		Status:           string(p.Status),
		Address:          p.Address,
		City:             p.City,
		State:            p.State,
		ClientName:       p.ClientName,
		ContractValue:    p.ContractValue,
		StartDate:        p.StartDate,
		TargetCompletion: p.TargetCompletion,
		CreatedBy:        p.CreatedBy,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

type memberResponse struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	AddedAt   time.Time `json:"added_at"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ident, _ := authz.IdentityFromContext(r.Context())
	params := shared.ParseListParams(r, 50, 200)
	list, err := h.service.ListFor(r.Context(), ident, params)
	if err != nil {
		h.logger.Error("list projects failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]projectResponse, len(list))
	for i := range list {
		out[i] = toResponse(&list[i])
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ident, _ := authz.IdentityFromContext(r.Context())
	var req projectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), ident, &Project{
		Name:             req.Name,
		Number:           req.Number,
		Description:      req.Description,
		Status:           Status(req.Status),
		Address:          req.Address,
		City:             req.City,
		State:            req.State,
		ClientName:       req.ClientName,
		ContractValue:    req.ContractValue,
		StartDate:        req.StartDate,
		TargetCompletion: req.TargetCompletion,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	_, projectID, ok := h.authorize(w, r, authz.PermProjectView)
	if !ok {
		return
	}
	project, err := h.service.Get(r.Context(), projectID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(project))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	ident, projectID, ok := h.authorize(w, r, authz.PermProjectUpdate)
	if !ok {
		return
	}
	var req projectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if req.Status == "" {
		req.Status = string(StatusPlanning)
	}
	updated, err := h.service.Update(r.Context(), ident, &Project{
		ID:               projectID,
		Name:             req.Name,
		Description:      req.Description,
		Status:           Status(req.Status),
		Address:          req.Address,
		City:             req.City,
		State:            req.State,
		ClientName:       req.ClientName,
		ContractValue:    req.ContractValue,
		StartDate:        req.StartDate,
		TargetCompletion: req.TargetCompletion,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	ident, projectID, ok := h.authorize(w, r, authz.PermProjectDelete)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), ident, projectID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	_, projectID, ok := h.authorize(w, r, authz.PermProjectView)
	if !ok {
		return
	}
	members, err := h.service.Members(r.Context(), projectID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]memberResponse, len(members))
	for i, m := range members {
		out[i] = memberResponse(m)
	}
	httpx.JSON(w, http.StatusOK, out)
}

type addMemberRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

func (h *Handler) addMember(w http.ResponseWriter, r *http.Request) {
	ident, projectID, ok := h.authorize(w, r, authz.PermProjectManageMembers)
	if !ok {
		return
	}
	var req addMemberRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.AddMember(r.Context(), ident, projectID, req.UserID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"project_id": projectID, "user_id": req.UserID})
}

func (h *Handler) removeMember(w http.ResponseWriter, r *http.Request) {
	ident, projectID, ok := h.authorize(w, r, authz.PermProjectManageMembers)
	if !ok {
		return
	}
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return
	}
	if err := h.service.RemoveMember(r.Context(), ident, projectID, userID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

// authorize resolves the caller and project id, then runs the permission
// and membership checks in that order.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, perm authz.Permission) (authz.Identity, int64, bool) {
	ident, ok := authz.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return authz.Identity{}, 0, false
	}
	projectID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
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
