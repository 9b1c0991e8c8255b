package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/warung-erp/warung-erp/internal/shared"
)

func okHandler(captured *shared.Principal) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, ok := shared.PrincipalFromContext(r.Context()); ok && captured != nil {
			*captured = p
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestPrincipalMiddleware(t *testing.T) {
	var got shared.Principal
	handler := Middleware{}.Principal(okHandler(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-ID", "42")
	req.Header.Set("X-User-Role", "Admin")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(42), got.UserID)
	require.Equal(t, "admin", got.Role)
}

func TestPrincipalMiddlewareRejectsMissingHeaders(t *testing.T) {
	handler := Middleware{}.Principal(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-ID", "42")
	req.Header.Set("X-User-Role", "superuser")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAny(t *testing.T) {
	mw := Middleware{}
	protected := mw.Principal(mw.RequireAny(RoleOwner, RoleAdmin)(okHandler(nil)))

	cases := []struct {
		role string
		want int
	}{
		{"owner", http.StatusOK},
		{"admin", http.StatusOK},
		{"staff", http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("X-User-ID", "1")
		req.Header.Set("X-User-Role", tc.role)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		require.Equal(t, tc.want, rec.Code, "role %s", tc.role)
	}
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" Owner ")
	require.True(t, ok)
	require.Equal(t, RoleOwner, r)

	_, ok = ParseRole("manager")
	require.False(t, ok)
}
