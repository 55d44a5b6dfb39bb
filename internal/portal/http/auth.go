package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/opsportal/portal/internal/portal/service"
	"github.com/opsportal/portal/pkg/httpx"
	"github.com/opsportal/portal/pkg/jwtx"
)

// AuthHandler serves the session lifecycle: login, refresh, logout and
// identity introspection. Tokens ride in httpOnly cookies only; response
// bodies never carry them.
type AuthHandler struct {
	Sessions *service.SessionService
	Cookies  httpx.CookieTransport
	Logger   *slog.Logger
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type identityResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func toIdentityResponse(ident jwtx.Identity) identityResponse {
	return identityResponse{ID: ident.ID, Email: ident.Email, Name: ident.Name, Role: ident.Role}
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	ident, pair, err := h.Sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.Cookies.SetAuthCookies(w, pair.AccessToken, pair.RefreshToken)
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"user": toIdentityResponse(ident)})
}

// HandleRefresh rotates the pair from the refresh cookie. The new access
// token reflects the user's current store row, so a role change since
// login lands here without a fresh sign-in.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	_, refreshToken := httpx.TokensFromRequest(r)
	if refreshToken == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ident, pair, err := h.Sessions.Refresh(r.Context(), refreshToken)
	if err != nil {
		// A dead refresh token means the session is over; clear the
		// cookies so the browser stops retrying.
		h.Cookies.ClearAuthCookies(w)
		writeServiceError(w, err)
		return
	}

	h.Cookies.SetAuthCookies(w, pair.AccessToken, pair.RefreshToken)
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"user": toIdentityResponse(ident)})
}

// HandleLogout clears both cookies. Idempotent and requires nothing:
// logging out an expired session still succeeds.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.Cookies.ClearAuthCookies(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"message": "logged out"})
}

func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ident, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.Sessions.Me(r.Context(), ident.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"user": toUserResponse(user)})
}
