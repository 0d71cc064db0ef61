package admin

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sitebridge/sitebridge/internal/authz"
	"github.com/sitebridge/sitebridge/internal/feedback"
	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/shared"
)

// Handler exposes the operator surface. Every route requires the admin
// role, not just a permission set.
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

// MountRoutes registers operator routes behind the admin role gate.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.guard.RequireRole(authz.RoleAdmin))

	r.Get("/dashboard", h.dashboard)
	r.Get("/users", h.listUsers)
	r.Delete("/users/{id}", h.deleteUser)
	r.Get("/companies", h.listCompanies)
	r.Get("/feedback", h.listFeedback)
	r.Put("/feedback/{id}", h.respondFeedback)
	r.Get("/audit-logs", h.listAuditLogs)
}

type dashboardResponse struct {
	TotalUsers       int64 `json:"total_users"`
	TotalCompanies   int64 `json:"total_companies"`
	TotalProjects    int64 `json:"total_projects"`
	ActiveUsersToday int64 `json:"active_users_today"`
	ActiveUsersWeek  int64 `json:"active_users_week"`
	TotalFeedback    int64 `json:"total_feedback"`
	PendingFeedback  int64 `json:"pending_feedback"`
}

type userOverviewResponse struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Role        string     `json:"role"`
	CompanyName string     `json:"company_name,omitempty"`
	IsActive    bool       `json:"is_active"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type companyOverviewResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	MemberCount int64     `json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
}

type respondRequest struct {
	Status      string `json:"status" validate:"required"`
	DevNotes    string `json:"dev_notes"`
	DevResponse string `json:"dev_response"`
}

type reviewedFeedbackResponse struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	CompanyID   int64      `json:"company_id,omitempty"`
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	AppVersion  string     `json:"app_version,omitempty"`
	DevNotes    string     `json:"dev_notes,omitempty"`
	DevResponse string     `json:"dev_response,omitempty"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type auditEntryResponse struct {
	ID         int64     `json:"id"`
	ActorID    int64     `json:"actor_id"`
	Action     string    `json:"action"`
	Entity     string    `json:"entity"`
	EntityID   string    `json:"entity_id"`
	ProjectID  int64     `json:"project_id,omitempty"`
	Meta       any       `json:"meta,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func toReviewedResponse(f *feedback.Feedback) reviewedFeedbackResponse {
	return reviewedFeedbackResponse{
		ID:          f.ID,
		UserID:      f.UserID,
		CompanyID:   f.CompanyID,
		Type:        string(f.Type),
		Title:       f.Title,
		Description: f.Description,
		Priority:    f.Priority,
		Status:      string(f.Status),
		AppVersion:  f.AppVersion,
		DevNotes:    f.DevNotes,
		DevResponse: f.DevResponse,
		RespondedAt: f.RespondedAt,
		CreatedAt:   f.CreatedAt,
	}
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Dashboard(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dashboardResponse{
		TotalUsers:       stats.TotalUsers,
		TotalCompanies:   stats.TotalCompanies,
		TotalProjects:    stats.TotalProjects,
		ActiveUsersToday: stats.ActiveUsersToday,
		ActiveUsersWeek:  stats.ActiveUsersWeek,
		TotalFeedback:    stats.TotalFeedback,
		PendingFeedback:  stats.PendingFeedback,
	})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	params := shared.ParseListParams(r, 50, 200)
	list, err := h.service.ListUsers(r.Context(), params)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]userOverviewResponse, len(list))
	for i, u := range list {
		out[i] = userOverviewResponse{
			ID:          u.ID,
			Email:       u.Email,
			FirstName:   u.FirstName,
			LastName:    u.LastName,
			Role:        u.Role.String(),
			CompanyName: u.CompanyName,
			IsActive:    u.IsActive,
			LastLogin:   u.LastLogin,
			CreatedAt:   u.CreatedAt,
		}
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	ident, ok := authz.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return
	}
	if err := h.service.DeleteUser(r.Context(), ident, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) listCompanies(w http.ResponseWriter, r *http.Request) {
	params := shared.ParseListParams(r, 50, 200)
	list, err := h.service.ListCompanies(r.Context(), params)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]companyOverviewResponse, len(list))
	for i, c := range list {
		out[i] = companyOverviewResponse{
			ID:          c.ID,
			Name:        c.Name,
			Code:        c.Code,
			MemberCount: c.MemberCount,
			CreatedAt:   c.CreatedAt,
		}
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) listFeedback(w http.ResponseWriter, r *http.Request) {
	params := shared.ParseListParams(r, 50, 200)
	filter := feedback.Filter{
		Status: feedback.Status(r.URL.Query().Get("status")),
		Type:   feedback.Type(r.URL.Query().Get("type")),
	}
	list, err := h.service.ListFeedback(r.Context(), filter, params)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]reviewedFeedbackResponse, len(list))
	for i := range list {
		out[i] = toReviewedResponse(&list[i])
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) respondFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid feedback id")
		return
	}
	var req respondRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	updated, err := h.service.RespondFeedback(r.Context(), id, feedback.Status(req.Status), req.DevNotes, req.DevResponse)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toReviewedResponse(updated))
}

func (h *Handler) listAuditLogs(w http.ResponseWriter, r *http.Request) {
	params := shared.ParseListParams(r, 50, 200)
	filter := AuditFilter{Entity: r.URL.Query().Get("entity")}
	if raw := r.URL.Query().Get("actor_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid actor id")
			return
		}
		filter.ActorID = id
	}
	list, err := h.service.ListAuditLogs(r.Context(), filter, params)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]auditEntryResponse, len(list))
	for i, e := range list {
		out[i] = auditEntryResponse{
			ID:         e.ID,
			ActorID:    e.ActorID,
			Action:     e.Action,
			Entity:     e.Entity,
			EntityID:   e.EntityID,
			ProjectID:  e.ProjectID,
			Meta:       e.Meta,
			OccurredAt: e.OccurredAt,
		}
	}
	httpx.JSON(w, http.StatusOK, out)
}
