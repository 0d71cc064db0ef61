package reports

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

// Handler manages daily report endpoints.
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

// MountRoutes registers daily report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/projects/{projectID}", func(r chi.Router) {
		r.Get("/", h.listByProject)
		r.Post("/", h.create)
	})
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Put("/", h.update)
		r.Delete("/", h.delete)
	})
}

type reportRequest struct {
	ReportDate        time.Time `json:"report_date" validate:"required"`
	CrewCount         int       `json:"crew_count"`
	WorkCompleted     string    `json:"work_completed"`
	DelaysConstraints string    `json:"delays_constraints"`
	SafetyIncidents   string    `json:"safety_incidents"`
	WeatherConditions string    `json:"weather_conditions"`
	Notes             string    `json:"notes"`
}

type reportResponse struct {
	ID                int64     `json:"id"`
	ProjectID         int64     `json:"project_id"`
	ReportNumber      int       `json:"report_number"`
	SubmittedByID     int64     `json:"submitted_by_id"`
	ReportDate        time.Time `json:"report_date"`
	CrewCount         int       `json:"crew_count,omitempty"`
	WorkCompleted     string    `json:"work_completed,omitempty"`
	DelaysConstraints string    `json:"delays_constraints,omitempty"`
	SafetyIncidents   string    `json:"safety_incidents,omitempty"`
	WeatherConditions string    `json:"weather_conditions,omitempty"`
	Notes             string    `json:"notes,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toResponse(d *DailyReport) reportResponse {
	return reportResponse{
		ID:                d.ID,
		ProjectID:         d.ProjectID,
		ReportNumber:      d.ReportNumber,
		SubmittedByID:     d.SubmittedByID,
		ReportDate:        d.ReportDate,
		CrewCount:         d.CrewCount,
		WorkCompleted:     d.WorkCompleted,
		DelaysConstraints: d.DelaysConstraints,
		SafetyIncidents:   d.SafetyIncidents,
		WeatherConditions: d.WeatherConditions,
		Notes:             d.Notes,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

func (h *Handler) listByProject(w http.ResponseWriter, r *http.Request) {
	_, projectID, ok := h.authorizeProject(w, r, authz.PermDailyReportView)
	if !ok {
		return
	}
	params := shared.ParseListParams(r, 50, 200)
	list, err := h.service.ListByProject(r.Context(), projectID, params)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]reportResponse, len(list))
	for i := range list {
		out[i] = toResponse(&list[i])
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ident, projectID, ok := h.authorizeProject(w, r, authz.PermDailyReportCreate)
	if !ok {
		return
	}
	var req reportRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), ident, &DailyReport{
		ProjectID:         projectID,
		ReportDate:        req.ReportDate,
		CrewCount:         req.CrewCount,
		WorkCompleted:     req.WorkCompleted,
		DelaysConstraints: req.DelaysConstraints,
		SafetyIncidents:   req.SafetyIncidents,
		WeatherConditions: req.WeatherConditions,
		Notes:             req.Notes,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	_, report, ok := h.loadAuthorized(w, r, authz.PermDailyReportView)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(report))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	ident, report, ok := h.loadAuthorized(w, r, authz.PermDailyReportView)
	if !ok {
		return
	}
	var req reportRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	updated, err := h.service.Update(r.Context(), ident, &DailyReport{
		ID:                report.ID,
		ReportDate:        req.ReportDate,
		CrewCount:         req.CrewCount,
		WorkCompleted:     req.WorkCompleted,
		DelaysConstraints: req.DelaysConstraints,
		SafetyIncidents:   req.SafetyIncidents,
		WeatherConditions: req.WeatherConditions,
		Notes:             req.Notes,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	ident, report, ok := h.loadAuthorized(w, r, authz.PermDailyReportView)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), ident, report.ID); err != nil {
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

func (h *Handler) loadAuthorized(w http.ResponseWriter, r *http.Request, perm authz.Permission) (authz.Identity, *DailyReport, bool) {
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
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid report id")
		return ident, nil, false
	}
	report, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return ident, nil, false
	}
	if err := h.guard.VerifyProjectAccess(r.Context(), ident, report.ProjectID, ""); err != nil {
		httpx.RespondError(w, err)
		return ident, report, false
	}
	return ident, report, true
}
