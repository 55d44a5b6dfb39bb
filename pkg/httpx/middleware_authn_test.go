package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/opsportal/portal/pkg/httpx"
	"github.com/opsportal/portal/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func newGuardTokens(t *testing.T) *jwtx.Tokens {
	t.Helper()
	tokens, err := jwtx.New([]byte("guard-access"), []byte("guard-refresh"), "portal-test")
	require.NoError(t, err)
	return tokens
}

func okHandler(t *testing.T, want jwtx.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, ok := httpx.IdentityFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, want, ident)
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthenticate(t *testing.T) {
	tokens := newGuardTokens(t)
	user := jwtx.Identity{ID: "u1", Email: "u@example.com", Name: "User One", Role: "USER"}

	handler := httpx.Chain(okHandler(t, user), httpx.Authenticate(tokens))

	t.Run("valid cookie", func(t *testing.T) {
		access, _, err := tokens.Issue(user)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.AddCookie(&http.Cookie{Name: httpx.AccessTokenCookie, Value: access})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("missing cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		access, _, err := tokens.IssueAt(user, time.Now().Add(-time.Hour))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.AddCookie(&http.Cookie{Name: httpx.AccessTokenCookie, Value: access})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("tampered token", func(t *testing.T) {
		access, _, err := tokens.Issue(user)
		require.NoError(t, err)
		mutated := []byte(access)
		mutated[len(mutated)-1] ^= 0x01

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.AddCookie(&http.Cookie{Name: httpx.AccessTokenCookie, Value: string(mutated)})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	tokens := newGuardTokens(t)
	admin := jwtx.Identity{ID: "a1", Email: "a@example.com", Name: "Admin", Role: "ADMIN"}
	user := jwtx.Identity{ID: "u1", Email: "u@example.com", Name: "User", Role: "USER"}

	serve := func(ident jwtx.Identity) *httptest.ResponseRecorder {
		handler := httpx.Chain(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			}),
			httpx.Authenticate(tokens),
			httpx.RequireRole("ADMIN"),
		)
		access, _, err := tokens.Issue(ident)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.AddCookie(&http.Cookie{Name: httpx.AccessTokenCookie, Value: access})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("admin passes", func(t *testing.T) {
		require.Equal(t, http.StatusNoContent, serve(admin).Code)
	})

	t.Run("user forbidden", func(t *testing.T) {
		require.Equal(t, http.StatusForbidden, serve(user).Code)
	})

	t.Run("unauthenticated fails closed", func(t *testing.T) {
		handler := httpx.Chain(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not run")
			}),
			httpx.RequireRole("ADMIN"),
		)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
