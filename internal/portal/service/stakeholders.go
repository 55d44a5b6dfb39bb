package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/opsportal/portal/internal/portal/domain"
	"github.com/opsportal/portal/internal/portal/store"
)

// StakeholderResolver computes the recipient set for an event: the users
// with a stake in the affected entity, minus anyone explicitly excluded
// (normally the actor, who does not need to hear about their own change).
type StakeholderResolver struct {
	store store.Store
}

func NewStakeholderResolver(st store.Store) *StakeholderResolver {
	return &StakeholderResolver{store: st}
}

// ForProjectEvent resolves the stakeholders of one project: its creator, its
// assignee when set, and every active admin. Duplicates collapse; each
// exclude id is removed after the union.
func (r *StakeholderResolver) ForProjectEvent(ctx context.Context, project domain.Project, exclude ...string) ([]string, error) {
	admins, err := r.store.Users().ListActiveAdminIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}

	set := make(map[string]struct{}, len(admins)+2)
	set[project.CreatedByID] = struct{}{}
	if project.AssignedToID != nil && *project.AssignedToID != "" {
		set[*project.AssignedToID] = struct{}{}
	}
	for _, id := range admins {
		set[id] = struct{}{}
	}

	return finish(set, exclude), nil
}

// ForUserEvent resolves who should hear about a user-management change:
// every active admin plus the affected user, minus the excluded ids.
// Pass an empty affectedID when the subject can no longer receive rows,
// such as after a deletion.
func (r *StakeholderResolver) ForUserEvent(ctx context.Context, affectedID string, exclude ...string) ([]string, error) {
	admins, err := r.store.Users().ListActiveAdminIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}

	set := make(map[string]struct{}, len(admins)+1)
	for _, id := range admins {
		set[id] = struct{}{}
	}
	if affectedID != "" {
		set[affectedID] = struct{}{}
	}

	return finish(set, exclude), nil
}

func finish(set map[string]struct{}, exclude []string) []string {
	for _, id := range exclude {
		delete(set, id)
	}

	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	// Deterministic order keeps logs and tests stable.
	sort.Strings(out)
	return out
}
