// Package rbac gates mutating endpoints on the role claim of the
// pre-authenticated principal. Authentication itself happens upstream; this
// package only consumes the X-User-ID / X-User-Role facts it is handed.
package rbac

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/warung-erp/warung-erp/internal/platform/httpx"
	"github.com/warung-erp/warung-erp/internal/shared"
)

// Role enumerates the access levels known to the application.
type Role string

const (
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleStaff:
		return true
	}
	return false
}

// ParseRole normalises a role string.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Middleware builds role-gating middleware.
type Middleware struct{}

// Principal extracts the upstream identity headers into the request context.
// Requests without a valid principal are rejected before reaching handlers.
func (Middleware) Principal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
		if err != nil || userID <= 0 {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing principal")
			return
		}
		role, ok := ParseRole(r.Header.Get("X-User-Role"))
		if !ok {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "unknown role")
			return
		}
		ctx := shared.ContextWithPrincipal(r.Context(), shared.Principal{UserID: userID, Role: string(role)})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAny allows the request through when the principal holds one of the
// given roles.
func (Middleware) RequireAny(roles ...Role) func(http.Handler) http.Handler {
	allowed := make(map[Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := shared.PrincipalFromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing principal")
				return
			}
			if _, ok := allowed[Role(p.Role)]; !ok {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "role not permitted")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
