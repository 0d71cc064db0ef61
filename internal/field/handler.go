package field

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

// Handler manages the field record endpoints.
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

// MountRoutes registers the field record routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/punch", func(r chi.Router) {
		r.Get("/projects/{projectID}", h.listPunch)
		r.Post("/projects/{projectID}", h.createPunch)
		r.Put("/{id}", h.updatePunch)
		r.Post("/{id}/verify", h.verifyPunch)
	})
	r.Route("/deliveries", func(r chi.Router) {
		r.Get("/projects/{projectID}", h.listDeliveries)
		r.Post("/projects/{projectID}", h.createDelivery)
		r.Put("/{id}", h.updateDelivery)
		r.Post("/{id}/confirm", h.confirmDelivery)
	})
	r.Route("/constraints", func(r chi.Router) {
		r.Get("/projects/{projectID}", h.listConstraints)
		r.Post("/projects/{projectID}", h.createConstraint)
		r.Put("/{id}", h.updateConstraint)
		r.Post("/{id}/resolve", h.resolveConstraint)
	})
	r.Route("/decisions", func(r chi.Router) {
		r.Get("/projects/{projectID}", h.listDecisions)
		r.Post("/projects/{projectID}", h.createDecision)
	})
}

type punchRequest struct {
	Description      string     `json:"description" validate:"required"`
	Location         string     `json:"location"`
	ResponsibleParty string     `json:"responsible_party"`
	AssignedToID     int64      `json:"assigned_to_id"`
	Status           string     `json:"status"`
	DueDate          *time.Time `json:"due_date"`
}

func (h *Handler) listPunch(w http.ResponseWriter, r *http.Request) {
	_, projectID, ok := h.authorizeProject(w, r, authz.PermPunchView)
	if !ok {
		return
	}
	list, err := h.service.ListPunch(r.Context(), projectID, shared.ParseListParams(r, 50, 200))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) createPunch(w http.ResponseWriter, r *http.Request) {
	_, projectID, ok := h.authorizeProject(w, r, authz.PermPunchCreate)
	if !ok {
		return
	}
	var req punchRequest
	if !h.decode(w, r, &req) {
		return
	}
	created, err := h.service.CreatePunch(r.Context(), &PunchItem{
		ProjectID:        projectID,
		Description:      req.Description,
		Location:         req.Location,
		ResponsibleParty: req.ResponsibleParty,
		AssignedToID:     req.AssignedToID,
		Status:           PunchStatus(req.Status),
		DueDate:          req.DueDate,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) updatePunch(w http.ResponseWriter, r *http.Request) {
	_, id, ok := h.authorizeItem(w, r, authz.PermPunchUpdate, func(ctx *http.Request, itemID int64) (int64, error) {
		p, err := h.service.GetPunch(ctx.Context(), itemID)
		if err != nil {
			return 0, err
		}
		return p.ProjectID, nil
	})
	if !ok {
		return
	}
	var req punchRequest
	if !h.decode(w, r, &req) {
		return
	}
	stored, err := h.service.GetPunch(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if req.Status == "" {
		req.Status = string(stored.Status)
	}
	updated, err := h.service.UpdatePunch(r.Context(), &PunchItem{
		ID:               id,
		Description:      req.Description,
		Location:         req.Location,
		ResponsibleParty: req.ResponsibleParty,
		AssignedToID:     req.AssignedToID,
		Status:           PunchStatus(req.Status),
		DueDate:          req.DueDate,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) verifyPunch(w http.ResponseWriter, r *http.Request) {
	ident, id, ok := h.authorizeItem(w, r, authz.PermPunchVerify, func(ctx *http.Request, itemID int64) (int64, error) {
		p, err := h.service.GetPunch(ctx.Context(), itemID)
		if err != nil {
			return 0, err
		}
		return p.ProjectID, nil
	})
	if !ok {
		return
	}
	verified, err := h.service.VerifyPunch(r.Context(), ident, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, verified)
}

type deliveryRequest struct {
	PONumber        string     `json:"po_number"`
	Vendor          string     `json:"vendor"`
	Description     string     `json:"description"`
	ExpectedDate    *time.Time `json:"expected_date"`
	StagingLocation string     `json:"staging_location"`
}

func (h *Handler) listDeliveries(w http.ResponseWriter, r *http.Request) {
	_, projectID, ok := h.authorizeProject(w, r, authz.PermDeliveryView)
	if !ok {
		return
	}
	list, err := h.service.ListDeliveries(r.Context(), projectID, shared.ParseListParams(r, 50, 200))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) createDelivery(w http.ResponseWriter, r *http.Request) {
	_, projectID, ok := h.authorizeProject(w, r, authz.PermDeliveryCreate)
	if !ok {
		return
	}
	var req deliveryRequest
	if !h.decode(w, r, &req) {
		return
	}
	created, err := h.service.CreateDelivery(r.Context(), &Delivery{
		ProjectID:       projectID,
		PONumber:        req.PONumber,
		Vendor:          req.Vendor,
		Description:     req.Description,
		ExpectedDate:    req.ExpectedDate,
		StagingLocation: req.StagingLocation,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) updateDelivery(w http.ResponseWriter, r *http.Request) {
	_, id, ok := h.authorizeItem(w, r, authz.PermDeliveryUpdate, func(ctx *http.Request, itemID int64) (int64, error) {
		d, err := h.service.GetDelivery(ctx.Context(), itemID)
		if err != nil {
			return 0, err
		}
		return d.ProjectID, nil
	})
	if !ok {
		return
	}
	var req deliveryRequest
	if !h.decode(w, r, &req) {
		return
	}
	updated, err := h.service.UpdateDelivery(r.Context(), &Delivery{
		ID:              id,
		PONumber:        req.PONumber,
		Vendor:          req.Vendor,
		Description:     req.Description,
		ExpectedDate:    req.ExpectedDate,
		StagingLocation: req.StagingLocation,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

type confirmDeliveryRequest struct {
	HasDamage   bool   `json:"has_damage"`
	HasShortage bool   `json:"has_shortage"`
	IssueNotes  string `json:"issue_notes"`
}

func (h *Handler) confirmDelivery(w http.ResponseWriter, r *http.Request) {
	ident, id, ok := h.authorizeItem(w, r, authz.PermDeliveryConfirm, func(ctx *http.Request, itemID int64) (int64, error) {
		d, err := h.service.GetDelivery(ctx.Context(), itemID)
		if err != nil {
			return 0, err
		}
		return d.ProjectID, nil
	})
	if !ok {
		return
	}
	var req confirmDeliveryRequest
	if !h.decode(w, r, &req) {
		return
	}
	confirmed, err := h.service.ConfirmDelivery(r.Context(), ident, id, req.HasDamage, req.HasShortage, req.IssueNotes)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, confirmed)
}

type constraintRequest struct {
	Description    string     `json:"description" validate:"required"`
	ConstraintType string     `json:"constraint_type"`
	Area           string     `json:"area"`
	OwnerName      string     `json:"owner_name"`
	DueDate        *time.Time `json:"due_date"`
}

func (h *Handler) listConstraints(w http.ResponseWriter, r *http.Request) {
	_, projectID, ok := h.authorizeProject(w, r, authz.PermConstraintView)
	if !ok {
		return
	}
	list, err := h.service.ListConstraints(r.Context(), projectID, shared.ParseListParams(r, 50, 200))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) createConstraint(w http.ResponseWriter, r *http.Request) {
	_, projectID, ok := h.authorizeProject(w, r, authz.PermConstraintCreate)
	if !ok {
		return
	}
	var req constraintRequest
	if !h.decode(w, r, &req) {
		return
	}
	created, err := h.service.CreateConstraint(r.Context(), &Constraint{
		ProjectID:      projectID,
		Description:    req.Description,
		ConstraintType: req.ConstraintType,
		Area:           req.Area,
		OwnerName:      req.OwnerName,
		DueDate:        req.DueDate,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) updateConstraint(w http.ResponseWriter, r *http.Request) {
	_, id, ok := h.authorizeItem(w, r, authz.PermConstraintUpdate, func(ctx *http.Request, itemID int64) (int64, error) {
		c, err := h.service.GetConstraint(ctx.Context(), itemID)
		if err != nil {
			return 0, err
		}
		return c.ProjectID, nil
	})
	if !ok {
		return
	}
	var req constraintRequest
	if !h.decode(w, r, &req) {
		return
	}
	updated, err := h.service.UpdateConstraint(r.Context(), &Constraint{
		ID:             id,
		Description:    req.Description,
		ConstraintType: req.ConstraintType,
		Area:           req.Area,
		OwnerName:      req.OwnerName,
		DueDate:        req.DueDate,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

type resolveConstraintRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) resolveConstraint(w http.ResponseWriter, r *http.Request) {
	_, id, ok := h.authorizeItem(w, r, authz.PermConstraintResolve, func(ctx *http.Request, itemID int64) (int64, error) {
		c, err := h.service.GetConstraint(ctx.Context(), itemID)
		if err != nil {
			return 0, err
		}
		return c.ProjectID, nil
	})
	if !ok {
		return
	}
	var req resolveConstraintRequest
	if !h.decode(w, r, &req) {
		return
	}
	resolved, err := h.service.ResolveConstraint(r.Context(), id, req.Notes)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resolved)
}

type decisionRequest struct {
	DecisionDate    *time.Time `json:"decision_date"`
	Decision        string     `json:"decision" validate:"required"`
	ApprovedBy      string     `json:"approved_by" validate:"required"`
	AffectsCost     bool       `json:"affects_cost"`
	AffectsSchedule bool       `json:"affects_schedule"`
	ImpactDetails   string     `json:"impact_details"`
}

func (h *Handler) listDecisions(w http.ResponseWriter, r *http.Request) {
	_, projectID, ok := h.authorizeProject(w, r, authz.PermDecisionView)
	if !ok {
		return
	}
	list, err := h.service.ListDecisions(r.Context(), projectID, shared.ParseListParams(r, 50, 200))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) createDecision(w http.ResponseWriter, r *http.Request) {
	ident, projectID, ok := h.authorizeProject(w, r, authz.PermDecisionCreate)
	if !ok {
		return
	}
	var req decisionRequest
	if !h.decode(w, r, &req) {
		return
	}
	decision := &Decision{
		ProjectID:       projectID,
		Decision:        req.Decision,
		ApprovedBy:      req.ApprovedBy,
		AffectsCost:     req.AffectsCost,
		AffectsSchedule: req.AffectsSchedule,
		ImpactDetails:   req.ImpactDetails,
	}
	if req.DecisionDate != nil {
		decision.DecisionDate = *req.DecisionDate
	}
	created, err := h.service.CreateDecision(r.Context(), ident, decision)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
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

// authorizeItem resolves the item's project through lookup, then applies
// the permission and membership checks.
func (h *Handler) authorizeItem(w http.ResponseWriter, r *http.Request, perm authz.Permission, lookup func(*http.Request, int64) (int64, error)) (authz.Identity, int64, bool) {
	ident, ok := authz.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return authz.Identity{}, 0, false
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return ident, 0, false
	}
	projectID, err := lookup(r, id)
	if err != nil {
		httpx.RespondError(w, err)
		return ident, id, false
	}
	if err := h.guard.VerifyProjectAccess(r.Context(), ident, projectID, perm); err != nil {
		httpx.RespondError(w, err)
		return ident, id, false
	}
	return ident, id, true
}
