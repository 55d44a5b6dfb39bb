package http

import (
	"net/http"

	"github.com/opsportal/portal/internal/portal/domain"
	"github.com/opsportal/portal/internal/portal/service"
	"github.com/opsportal/portal/internal/portal/store"
	"github.com/opsportal/portal/pkg/httpx"
)

// ActivitiesHandler serves the audit feed. Admins see everything; other
// users see only their own actions.
type ActivitiesHandler struct {
	Ledger *service.ActivityLedger
}

func (h *ActivitiesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ident, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	q := r.URL.Query()
	filter := store.ActivityFilter{
		ProjectID: q.Get("projectId"),
		Page:      intParam(q.Get("page")),
		Limit:     intParam(q.Get("limit")),
	}
	if ident.Role != domain.RoleAdmin {
		filter.UserID = ident.ID
	}

	activities, total, err := h.Ledger.Feed(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]activityResponse, 0, len(activities))
	for _, a := range activities {
		out = append(out, toActivityResponse(a))
	}

	page, limit := filter.Page, filter.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"activities": out,
		"pagination": pageMeta{Page: page, Limit: limit, Total: total},
	})
}
