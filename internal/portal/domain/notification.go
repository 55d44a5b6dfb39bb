package domain

import "time"

// NotificationKind enumerates the event kinds a notification can carry.
type NotificationKind string

const (
	NotifyUserCreated       NotificationKind = "USER_CREATED"
	NotifyUserUpdated       NotificationKind = "USER_UPDATED"
	NotifyUserStatusChanged NotificationKind = "USER_STATUS_CHANGED"
	NotifyUserDeleted       NotificationKind = "USER_DELETED"

	NotifyProjectCreated   NotificationKind = "PROJECT_CREATED"
	NotifyProjectUpdated   NotificationKind = "PROJECT_UPDATED"
	NotifyProjectDeleted   NotificationKind = "PROJECT_DELETED"
	NotifyProjectAssigned  NotificationKind = "PROJECT_ASSIGNED"
	NotifyProjectCompleted NotificationKind = "PROJECT_COMPLETED"
	NotifyStatusChanged    NotificationKind = "STATUS_CHANGED"
)

// Notification is one user-targeted inbox item. UserID is immutable after
// creation; the only permitted mutation is the unread→read transition.
type Notification struct {
	ID        string
	UserID    string
	Kind      NotificationKind
	Title     string
	Message   string
	Data      map[string]any // arbitrary structured payload
	IsRead    bool
	ReadAt    *time.Time
	CreatedAt time.Time
}
