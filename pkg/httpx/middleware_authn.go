package httpx

import (
	"context"
	"net/http"

	"github.com/opsportal/portal/pkg/jwtx"
	"github.com/opsportal/portal/pkg/slogx"
)

type ctxKey int

const ctxKeyIdentity ctxKey = iota

// Authenticate resolves the request identity from the access-token cookie.
// Any verification failure collapses to 401; whether the client reacts by
// refreshing or re-authenticating is its own decision. No store lookup
// happens here: authority is carried entirely in the signed token.
func Authenticate(tokens *jwtx.Tokens) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accessToken, _ := TokensFromRequest(r)
			if accessToken == "" {
				WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ident, err := tokens.VerifyAccess(accessToken)
			if err != nil {
				slogx.FromContext(r.Context()).Debug("access token rejected", "err", err)
				WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyIdentity, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole enforces a role on an already-authenticated request. Must be
// chained after Authenticate; an absent identity fails closed as 401.
func RequireRole(role string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, ok := IdentityFromContext(r.Context())
			if !ok {
				WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			if ident.Role != role {
				WriteError(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IdentityFromContext returns the identity injected by Authenticate.
func IdentityFromContext(ctx context.Context) (jwtx.Identity, bool) {
	ident, ok := ctx.Value(ctxKeyIdentity).(jwtx.Identity)
	return ident, ok
}

// ContextWithIdentity is exposed for handler tests that need to simulate
// an authenticated request without running the middleware.
func ContextWithIdentity(ctx context.Context, ident jwtx.Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, ident)
}
