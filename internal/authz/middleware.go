package authz

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sitebridge/sitebridge/internal/platform/httpx"
)

// Authorization failures. Both surface to the caller as 403; the detail
// string carries which check failed. Permission names are not secrets.
var (
	ErrPermissionDenied    = fmt.Errorf("%w: permission denied", httpx.ErrForbidden)
	ErrProjectAccessDenied = fmt.Errorf("%w: no access to this project", httpx.ErrForbidden)
)

// Guard wires the permission table and membership resolver into per-request
// authorization checks. It is stateless: every decision is a pure function
// of the request identity and the membership state visible at check time.
type Guard struct {
	table    *Table
	resolver *Resolver
	logger   *slog.Logger
}

// NewGuard constructs a Guard.
func NewGuard(table *Table, resolver *Resolver, logger *slog.Logger) Guard {
	return Guard{table: table, resolver: resolver, logger: logger}
}

// Table exposes the underlying permission table.
func (g Guard) Table() *Table { return g.table }

// RequirePermission ensures the caller's role holds at least one of the
// given permissions before the handler runs. Deny happens before the
// handler body, so no partial execution is possible.
func (g Guard) RequirePermission(perms ...Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, ok := IdentityFromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			if !g.table.HasAny(ident.Role, perms...) {
				if g.logger != nil {
					g.logger.Warn("permission denied",
						slog.Int64("user_id", ident.UserID),
						slog.String("role", ident.Role.String()),
						slog.String("required", permissionNames(perms)))
				}
				httpx.Problem(w, http.StatusForbidden, "Forbidden",
					fmt.Sprintf("permission denied, required one of [%s]", permissionNames(perms)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole ensures the caller's role is literally one of the listed
// roles. Used for the narrow admin/developer surface that bypasses the
// permission table.
func (g Guard) RequireRole(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, ok := IdentityFromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			for _, role := range roles {
				if ident.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpx.Problem(w, http.StatusForbidden, "Forbidden",
				fmt.Sprintf("access denied, required role one of [%s]", roleNames(roles)))
		})
	}
}

// CheckPermission is the non-middleware form of RequirePermission: any one
// of the listed permissions suffices. Handlers call it before loading a
// record so a denied caller cannot distinguish existing ids from missing
// ones.
func (g Guard) CheckPermission(ident Identity, perms ...Permission) error {
	if g.table.HasAny(ident.Role, perms...) {
		return nil
	}
	if g.logger != nil {
		g.logger.Warn("permission denied",
			slog.Int64("user_id", ident.UserID),
			slog.String("role", ident.Role.String()),
			slog.String("required", permissionNames(perms)))
	}
	return fmt.Errorf("%w: required one of [%s]", ErrPermissionDenied, permissionNames(perms))
}

// VerifyProjectAccess checks a required permission and then project
// membership, in that order. The ordering is deliberate: a caller lacking
// the base permission must not learn anything about the target project.
// Pass the zero Permission to skip the permission check.
func (g Guard) VerifyProjectAccess(ctx context.Context, ident Identity, projectID int64, perm Permission) error {
	if perm != "" && !g.table.HasPermission(ident.Role, perm) {
		return fmt.Errorf("%w: required %s", ErrPermissionDenied, perm)
	}
	ok, err := g.resolver.HasAccess(ctx, ident.UserID, projectID, ident.Role)
	if err != nil {
		return err
	}
	if !ok {
		return ErrProjectAccessDenied
	}
	return nil
}

func permissionNames(perms []Permission) string {
	names := make([]string, len(perms))
	for i, p := range perms {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

func roleNames(roles []Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}
