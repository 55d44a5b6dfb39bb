package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/opsportal/portal/internal/portal/domain"
	"github.com/opsportal/portal/internal/portal/service"
	"github.com/opsportal/portal/internal/portal/store"
	"github.com/opsportal/portal/pkg/httpx"
	"github.com/opsportal/portal/pkg/jwtx"
	"github.com/opsportal/portal/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	tokens       *jwtx.Tokens
	cookies      httpx.CookieTransport
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store    store.Store
	Sessions *service.SessionService
	Users    *service.UserService
	Projects *service.ProjectService
	Inbox    *service.InboxService
	Ledger   *service.ActivityLedger
}

func NewRouter(
	tokens *jwtx.Tokens,
	cookies httpx.CookieTransport,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		tokens:       tokens,
		cookies:      cookies,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUsers()
	r.registerProjects()
	r.registerNotifications()
	r.registerActivities()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware
// chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// authenticated wraps h with cookie authentication and a per-user
// lenient rate limit.
func (r *Router) authenticated(h http.Handler) http.Handler {
	return httpx.Chain(h,
		httpx.Authenticate(r.tokens),
		httpx.RateLimit(httpx.LenientLimit, httpx.UserKey),
	)
}

// adminOnly additionally enforces the ADMIN role.
func (r *Router) adminOnly(h http.Handler) http.Handler {
	return httpx.Chain(h,
		httpx.Authenticate(r.tokens),
		httpx.RequireRole(domain.RoleAdmin),
		httpx.RateLimit(httpx.LenientLimit, httpx.UserKey),
	)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{Sessions: r.Sessions, Cookies: r.cookies, Logger: r.logger}

	// Credential submission gets the strict per-IP limit to slow brute
	// force; refresh is limited per IP as well since it runs without an
	// authenticated identity.
	r.Mux.Handle("POST /api/v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimit(httpx.StrictLimit, httpx.IPKey),
		),
	)
	r.Mux.Handle("POST /api/v1/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimit(httpx.LenientLimit, httpx.IPKey),
		),
	)
	r.Mux.Handle("POST /api/v1/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimit(httpx.LenientLimit, httpx.IPKey),
		),
	)
	r.Mux.Handle("GET /api/v1/auth/me", r.authenticated(http.HandlerFunc(h.HandleMe)))
}

func (r *Router) registerUsers() {
	h := &UsersHandler{Users: r.Users}

	r.Mux.Handle("POST /api/v1/users", r.adminOnly(http.HandlerFunc(h.HandleCreate)))
	r.Mux.Handle("GET /api/v1/users", r.adminOnly(http.HandlerFunc(h.HandleList)))
	r.Mux.Handle("GET /api/v1/users/{id}", r.adminOnly(http.HandlerFunc(h.HandleGet)))
	r.Mux.Handle("PATCH /api/v1/users/{id}", r.adminOnly(http.HandlerFunc(h.HandleUpdate)))
	r.Mux.Handle("PATCH /api/v1/users/{id}/status", r.adminOnly(http.HandlerFunc(h.HandleSetStatus)))
	r.Mux.Handle("PATCH /api/v1/users/{id}/password", r.adminOnly(http.HandlerFunc(h.HandleChangePassword)))
	r.Mux.Handle("DELETE /api/v1/users/{id}", r.adminOnly(http.HandlerFunc(h.HandleDelete)))
}

func (r *Router) registerProjects() {
	h := &ProjectsHandler{Projects: r.Projects}

	r.Mux.Handle("POST /api/v1/projects", r.authenticated(http.HandlerFunc(h.HandleCreate)))
	r.Mux.Handle("GET /api/v1/projects", r.authenticated(http.HandlerFunc(h.HandleList)))
	r.Mux.Handle("GET /api/v1/projects/{id}", r.authenticated(http.HandlerFunc(h.HandleGet)))
	r.Mux.Handle("PATCH /api/v1/projects/{id}", r.authenticated(http.HandlerFunc(h.HandleUpdate)))
	r.Mux.Handle("DELETE /api/v1/projects/{id}", r.authenticated(http.HandlerFunc(h.HandleDelete)))
}

func (r *Router) registerNotifications() {
	h := &NotificationsHandler{Inbox: r.Inbox}

	r.Mux.Handle("GET /api/v1/notifications", r.authenticated(http.HandlerFunc(h.HandleList)))
	r.Mux.Handle("GET /api/v1/notifications/unread-count", r.authenticated(http.HandlerFunc(h.HandleUnreadCount)))
	r.Mux.Handle("PATCH /api/v1/notifications/read", r.authenticated(http.HandlerFunc(h.HandleMarkRead)))
	r.Mux.Handle("PATCH /api/v1/notifications/read-all", r.authenticated(http.HandlerFunc(h.HandleMarkAllRead)))
	r.Mux.Handle("DELETE /api/v1/notifications/{id}", r.authenticated(http.HandlerFunc(h.HandleDelete)))
}

func (r *Router) registerActivities() {
	h := &ActivitiesHandler{Ledger: r.Ledger}

	r.Mux.Handle("GET /api/v1/activities", r.authenticated(http.HandlerFunc(h.HandleList)))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimit(httpx.LenientLimit, httpx.IPKey),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimit(httpx.LenientLimit, httpx.IPKey),
		),
	)
}
