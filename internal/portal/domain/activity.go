package domain

import "time"

// Activity actions recorded in the audit ledger.
const (
	ActionCreate   = "CREATE"
	ActionUpdate   = "UPDATE"
	ActionDelete   = "DELETE"
	ActionComplete = "COMPLETE"
)

// Activity is one append-only audit record for a domain mutation. Never
// mutated after creation; removed only by cascade when its actor or
// subject project is deleted.
type Activity struct {
	ID        string
	Action    string
	Details   string
	UserID    string  // actor
	ProjectID *string // nil for user-management mutations
	CreatedAt time.Time
}
