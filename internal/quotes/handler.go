package quotes

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

// Handler manages quote request endpoints. Submission and reads are open
// to any authenticated user so crews can file requests from the field.
// Review actions carry service permissions.
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

// MountRoutes registers quote routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.With(h.guard.RequirePermission(authz.PermServiceView)).Get("/queue-stats", h.queueStats)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.With(h.guard.RequirePermission(authz.PermServiceUpdate)).Patch("/", h.review)
		r.With(h.guard.RequirePermission(authz.PermServiceAssign)).Post("/assign", h.assign)
		r.With(h.guard.RequirePermission(authz.PermProjectCreate)).Post("/convert-to-project", h.convert)
	})
}

type quoteRequest struct {
	Title             string `json:"title" validate:"required"`
	Description       string `json:"description" validate:"required"`
	Address           string `json:"address"`
	City              string `json:"city"`
	State             string `json:"state"`
	CustomerName      string `json:"customer_name"`
	CustomerPhone     string `json:"customer_phone"`
	CustomerEmail     string `json:"customer_email" validate:"omitempty,email"`
	ScopeNotes        string `json:"scope_notes"`
	Urgency           string `json:"urgency"`
	PreferredSchedule string `json:"preferred_schedule"`
}

type reviewRequest struct {
	Status          string     `json:"status"`
	AssignedToID    int64      `json:"assigned_to_id"`
	QuotedAmount    float64    `json:"quoted_amount" validate:"gte=0"`
	QuoteNotes      string     `json:"quote_notes"`
	QuoteValidUntil *time.Time `json:"quote_valid_until"`
}

type quoteResponse struct {
	ID                 int64      `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Address            string     `json:"address,omitempty"`
	City               string     `json:"city,omitempty"`
	State              string     `json:"state,omitempty"`
	CustomerName       string     `json:"customer_name,omitempty"`
	CustomerPhone      string     `json:"customer_phone,omitempty"`
	CustomerEmail      string     `json:"customer_email,omitempty"`
	ScopeNotes         string     `json:"scope_notes,omitempty"`
	Urgency            string     `json:"urgency"`
	Status             string     `json:"status"`
	SubmittedByID      int64      `json:"submitted_by_id"`
	AssignedToID       int64      `json:"assigned_to_id,omitempty"`
	QuotedAmount       float64    `json:"quoted_amount,omitempty"`
	QuoteNotes         string     `json:"quote_notes,omitempty"`
	QuotedAt           *time.Time `json:"quoted_at,omitempty"`
	QuoteValidUntil    *time.Time `json:"quote_valid_until,omitempty"`
	ConvertedProjectID int64      `json:"converted_project_id,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func toResponse(q *QuoteRequest) quoteResponse {
	return quoteResponse{
		ID:                 q.ID,
		Title:              q.Title,
		Description:        q.Description,
		Address:            q.Address,
		City:               q.City,
		State:              q.State,
		CustomerName:       q.CustomerName,
		CustomerPhone:      q.CustomerPhone,
		CustomerEmail:      q.CustomerEmail,
		ScopeNotes:         q.ScopeNotes,
		Urgency:            q.Urgency,
		Status:             string(q.Status),
		SubmittedByID:      q.SubmittedByID,
		AssignedToID:       q.AssignedToID,
		QuotedAmount:       q.QuotedAmount,
		QuoteNotes:         q.QuoteNotes,
		QuotedAt:           q.QuotedAt,
		QuoteValidUntil:    q.QuoteValidUntil,
		ConvertedProjectID: q.ConvertedProjectID,
		CreatedAt:          q.CreatedAt,
		UpdatedAt:          q.UpdatedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ident, ok := authz.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	query := r.URL.Query()
	filter := Filter{
		Status:  Status(query.Get("status")),
		Urgency: query.Get("urgency"),
	}
	if query.Get("assigned_to_me") == "true" {
		filter.AssignedToID = ident.UserID
	}
	if query.Get("submitted_by_me") == "true" {
		filter.SubmittedByID = ident.UserID
	}
	params := shared.ParseListParams(r, 50, 200)
	list, err := h.service.List(r.Context(), filter, params)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]quoteResponse, len(list))
	for i := range list {
		out[i] = toResponse(&list[i])
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ident, ok := authz.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	var req quoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	scopeNotes := req.ScopeNotes
	if req.PreferredSchedule != "" {
		if scopeNotes != "" {
			scopeNotes += "\n"
		}
		scopeNotes += "Preferred schedule: " + req.PreferredSchedule
	}
	created, err := h.service.Create(r.Context(), ident, &QuoteRequest{
		Title:         req.Title,
		Description:   req.Description,
		Address:       req.Address,
		City:          req.City,
		State:         req.State,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		ScopeNotes:    scopeNotes,
		Urgency:       req.Urgency,
	})
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
	q, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(q))
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req reviewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	updated, err := h.service.Review(r.Context(), &QuoteRequest{
		ID:              id,
		Status:          Status(req.Status),
		AssignedToID:    req.AssignedToID,
		QuotedAmount:    req.QuotedAmount,
		QuoteNotes:      req.QuoteNotes,
		QuoteValidUntil: req.QuoteValidUntil,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(updated))
}

type assignRequest struct {
	AssigneeID int64 `json:"assignee_id" validate:"required,gt=0"`
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req assignRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	assigned, err := h.service.Assign(r.Context(), id, req.AssigneeID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(assigned))
}

func (h *Handler) convert(w http.ResponseWriter, r *http.Request) {
	ident, ok := authz.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	converted, err := h.service.Convert(r.Context(), ident, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(converted))
}

func (h *Handler) queueStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.QueueStats(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid quote id")
		return 0, false
	}
	return id, true
}
