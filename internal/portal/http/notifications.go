package http

import (
	"encoding/json"
	"net/http"

	"github.com/opsportal/portal/internal/portal/domain"
	"github.com/opsportal/portal/internal/portal/service"
	"github.com/opsportal/portal/internal/portal/store"
	"github.com/opsportal/portal/pkg/httpx"
)

// NotificationsHandler serves the caller's inbox. The user id always
// comes from the authenticated identity, never from the request.
type NotificationsHandler struct {
	Inbox *service.InboxService
}

type markReadRequest struct {
	IDs []string `json:"ids"`
}

func (h *NotificationsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ident, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	q := r.URL.Query()
	page, err := h.Inbox.List(r.Context(), store.NotificationFilter{
		UserID:     ident.ID,
		UnreadOnly: q.Get("unreadOnly") == "true",
		Kind:       domain.NotificationKind(q.Get("type")),
		Page:       intParam(q.Get("page")),
		Limit:      intParam(q.Get("limit")),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]notificationResponse, 0, len(page.Notifications))
	for _, n := range page.Notifications {
		out = append(out, toNotificationResponse(n))
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"notifications": out,
		"unreadCount":   page.UnreadCount,
		"pagination":    pageMeta{Page: page.Page, Limit: page.Limit, Total: page.Total},
	})
}

func (h *NotificationsHandler) HandleUnreadCount(w http.ResponseWriter, r *http.Request) {
	ident, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	count, err := h.Inbox.UnreadCount(r.Context(), ident.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"unreadCount": count})
}

func (h *NotificationsHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	ident, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req markReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.Inbox.MarkRead(r.Context(), ident.ID, req.IDs)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"updated": updated})
}

func (h *NotificationsHandler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	ident, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.Inbox.MarkAllRead(r.Context(), ident.ID); err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"message": "all notifications marked read"})
}

func (h *NotificationsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ident, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.Inbox.Delete(r.Context(), ident.ID, r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"message": "notification deleted"})
}
