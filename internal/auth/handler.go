package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"

	"github.com/sitebridge/sitebridge/internal/authn"
	"github.com/sitebridge/sitebridge/internal/authz"
	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/jobs"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	issuer    *authn.TokenIssuer
	queue     *asynq.Client
	validator *validator.Validate
}

// NewHandler constructs a Handler instance. The queue client is optional;
// when nil the last-login stamp is simply skipped.
func NewHandler(logger *slog.Logger, service *Service, issuer *authn.TokenIssuer, queue *asynq.Client) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		issuer:    issuer,
		queue:     queue,
		validator: validator.New(),
	}
}

// MountRoutes registers the public auth routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
}

// MountProtectedRoutes registers routes that require an authenticated caller.
func (h *Handler) MountProtectedRoutes(r chi.Router) {
	r.Post("/refresh", h.handleRefresh)
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Phone     string `json:"phone"`
	Role      string `json:"role" validate:"required"`
	CompanyID int64  `json:"company_id"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        userResponse `json:"user"`
}

type userResponse struct {
	ID        int64      `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Phone     string     `json:"phone,omitempty"`
	Role      string     `json:"role"`
	CompanyID int64      `json:"company_id,omitempty"`
	IsActive  bool       `json:"is_active"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func toUserResponse(u *User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		Role:      u.Role.String(),
		CompanyID: u.CompanyID,
		IsActive:  u.IsActive,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
	}
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	user, err := h.service.Register(r.Context(), req.Email, req.Password, req.FirstName, req.LastName, req.Phone, authz.Role(req.Role), req.CompanyID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	h.enqueueLastLogin(user.ID)
	h.respondToken(w, user)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ident, ok := authz.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	user, err := h.service.UserByID(r.Context(), ident.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.respondToken(w, user)
}

func (h *Handler) respondToken(w http.ResponseWriter, user *User) {
	token, err := h.issuer.Issue(authz.Identity{UserID: user.ID, Role: user.Role, CompanyID: user.CompanyID})
	if err != nil {
		if h.logger != nil {
			h.logger.Error("issue token", slog.Any("error", err))
		}
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(h.issuer.TTL() / time.Second),
		User:        toUserResponse(user),
	})
}

func (h *Handler) enqueueLastLogin(userID int64) {
	if h.queue == nil {
		return
	}
	task, err := jobs.NewLastLoginTask(jobs.LastLoginPayload{UserID: userID, At: time.Now().UTC()})
	if err != nil {
		return
	}
	if _, err := h.queue.Enqueue(task, asynq.Queue(jobs.QueueDefault)); err != nil && h.logger != nil {
		h.logger.Warn("enqueue last login", slog.Any("error", err))
	}
}
