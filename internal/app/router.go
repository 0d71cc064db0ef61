package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sitebridge/sitebridge/internal/admin"
	"github.com/sitebridge/sitebridge/internal/auth"
	"github.com/sitebridge/sitebridge/internal/authn"
	"github.com/sitebridge/sitebridge/internal/changes"
	"github.com/sitebridge/sitebridge/internal/companies"
	"github.com/sitebridge/sitebridge/internal/contacts"
	"github.com/sitebridge/sitebridge/internal/costcodes"
	"github.com/sitebridge/sitebridge/internal/feedback"
	"github.com/sitebridge/sitebridge/internal/field"
	"github.com/sitebridge/sitebridge/internal/files"
	"github.com/sitebridge/sitebridge/internal/observability"
	"github.com/sitebridge/sitebridge/internal/projects"
	"github.com/sitebridge/sitebridge/internal/quotes"
	"github.com/sitebridge/sitebridge/internal/reports"
	"github.com/sitebridge/sitebridge/internal/rfis"
	"github.com/sitebridge/sitebridge/internal/servicecalls"
	"github.com/sitebridge/sitebridge/internal/tasks"
	"github.com/sitebridge/sitebridge/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config
	Issuer *authn.TokenIssuer

	AuthHandler         *auth.Handler
	UsersHandler        *users.Handler
	ProjectsHandler     *projects.Handler
	TasksHandler        *tasks.Handler
	ReportsHandler      *reports.Handler
	RFIsHandler         *rfis.Handler
	ChangesHandler      *changes.Handler
	FieldHandler        *field.Handler
	ContactsHandler     *contacts.Handler
	QuotesHandler       *quotes.Handler
	FilesHandler        *files.Handler
	CompaniesHandler    *companies.Handler
	FeedbackHandler     *feedback.Handler
	CostCodesHandler    *costcodes.Handler
	ServiceCallsHandler *servicecalls.Handler
	AdminHandler        *admin.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with Sitebridge defaults. Auth
// endpoints stay public; everything else sits behind bearer token
// verification.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			params.AuthHandler.MountRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(authn.Middleware(params.Issuer))
				params.AuthHandler.MountProtectedRoutes(r)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(authn.Middleware(params.Issuer))

			r.Route("/users", params.UsersHandler.MountRoutes)
			r.Route("/projects", params.ProjectsHandler.MountRoutes)
			r.Route("/tasks", params.TasksHandler.MountRoutes)
			r.Route("/daily-reports", params.ReportsHandler.MountRoutes)
			r.Route("/rfis", params.RFIsHandler.MountRoutes)
			r.Route("/change-orders", params.ChangesHandler.MountRoutes)
			r.Route("/field", params.FieldHandler.MountRoutes)
			r.Route("/contacts", params.ContactsHandler.MountRoutes)
			r.Route("/quotes", params.QuotesHandler.MountRoutes)
			r.Route("/files", params.FilesHandler.MountRoutes)
			r.Route("/companies", params.CompaniesHandler.MountRoutes)
			r.Route("/feedback", params.FeedbackHandler.MountRoutes)
			r.Route("/cost-codes", params.CostCodesHandler.MountRoutes)
			r.Route("/service-calls", params.ServiceCallsHandler.MountRoutes)
			r.Route("/dev", params.AdminHandler.MountRoutes)
		})
	})

	return r
}
