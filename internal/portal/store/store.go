package store

import (
	"context"
	"errors"

	"github.com/opsportal/portal/internal/portal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. Sub-repositories keep concerns tidy and let a Tx expose
// the exact same surface.
type Store interface {
	Users() Users
	Projects() Projects
	Notifications() Notifications
	Activities() Activities

	ApplyMigrations() error

	// Tx starts a read/write transaction scoped to the same interface.
	// The caller MUST Commit or Rollback.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn inside a transaction, committing on nil and rolling
	// back otherwise. Preferred over Tx for multi-step mutations such as
	// "write the project and its activity record atomically".
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is alive (readiness checks).
	Ping(ctx context.Context) error
}

// Tx is a transactional Store with commit/rollback control.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	CreateUser(ctx context.Context, u domain.User) error
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)

	// ListActiveAdminIDs returns the administrator roster used for
	// stakeholder resolution: ids of active users with the ADMIN role.
	ListActiveAdminIDs(ctx context.Context) ([]string, error)

	// UpdateUser rewrites email, name, role and updated_at.
	UpdateUser(ctx context.Context, u domain.User) error

	SetUserActive(ctx context.Context, id string, active bool) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error

	// DeleteUser cascades to the user's notifications and activities.
	DeleteUser(ctx context.Context, id string) error
}

// ProjectFilter narrows and pages project listings. A non-empty ViewerID
// restricts results to projects the viewer created or is assigned to.
type ProjectFilter struct {
	ViewerID string
	Status   string
	Priority string
	Page     int
	Limit    int
}

type Projects interface {
	CreateProject(ctx context.Context, p domain.Project) error
	GetProjectByID(ctx context.Context, id string) (domain.Project, error)
	ListProjects(ctx context.Context, f ProjectFilter) ([]domain.Project, int, error)

	// UpdateProject rewrites the mutable fields, updated_at included.
	UpdateProject(ctx context.Context, p domain.Project) error

	// DeleteProject cascades to the project's activities.
	DeleteProject(ctx context.Context, id string) error
}

// NotificationFilter pages one user's inbox.
type NotificationFilter struct {
	UserID     string
	UnreadOnly bool
	Kind       domain.NotificationKind
	Page       int
	Limit      int
}

type Notifications interface {
	CreateNotification(ctx context.Context, n domain.Notification) error

	// ListNotifications returns one page, newest first, plus the total
	// count matching the filter.
	ListNotifications(ctx context.Context, f NotificationFilter) ([]domain.Notification, int, error)

	CountUnread(ctx context.Context, userID string) (int, error)

	// MarkRead flips isRead and stamps readAt for the given ids, scoped
	// to the owning user. Returns how many rows changed.
	MarkRead(ctx context.Context, userID string, ids []string) (int, error)

	MarkAllRead(ctx context.Context, userID string) error

	// DeleteNotification removes one notification owned by userID.
	DeleteNotification(ctx context.Context, userID, id string) error
}

// ActivityFilter pages the audit trail, optionally scoped to an actor or
// a project.
type ActivityFilter struct {
	UserID    string
	ProjectID string
	Page      int
	Limit     int
}

type Activities interface {
	// CreateActivity appends one immutable audit record.
	CreateActivity(ctx context.Context, a domain.Activity) error

	ListActivities(ctx context.Context, f ActivityFilter) ([]domain.Activity, int, error)
}
