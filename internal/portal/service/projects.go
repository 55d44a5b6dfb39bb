package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/opsportal/portal/internal/portal/domain"
	"github.com/opsportal/portal/internal/portal/store"
	"github.com/opsportal/portal/pkg/idx"
	"github.com/opsportal/portal/pkg/jwtx"
)

// ProjectService owns project CRUD. Every mutation writes the project
// row and its audit record in one transaction, then broadcasts to the
// project's stakeholders best-effort after commit.
type ProjectService struct {
	store    store.Store
	resolver *StakeholderResolver
	fanout   *Fanout
	ledger   *ActivityLedger
	log      *slog.Logger
}

func NewProjectService(st store.Store, resolver *StakeholderResolver, fanout *Fanout, ledger *ActivityLedger, log *slog.Logger) *ProjectService {
	return &ProjectService{
		store:    st,
		resolver: resolver,
		fanout:   fanout,
		ledger:   ledger,
		log:      log.With("service", "projects"),
	}
}

type CreateProjectInput struct {
	Name         string
	Description  string
	Status       string
	Priority     string
	DueDate      *time.Time
	AssignedToID *string
}

// UpdateProjectInput carries partial updates. Nil pointers leave a field
// untouched; AssignedToSet/DueDateSet distinguish "clear" from "keep".
type UpdateProjectInput struct {
	Name          *string
	Description   *string
	Status        *string
	Priority      *string
	DueDate       *time.Time
	DueDateSet    bool
	AssignedToID  *string
	AssignedToSet bool
}

var validStatuses = map[string]bool{
	domain.ProjectPlanning:   true,
	domain.ProjectInProgress: true,
	domain.ProjectOnHold:     true,
	domain.ProjectCompleted:  true,
	domain.ProjectCancelled:  true,
}

var validPriorities = map[string]bool{
	domain.PriorityLow:    true,
	domain.PriorityMedium: true,
	domain.PriorityHigh:   true,
	domain.PriorityUrgent: true,
}

func (s *ProjectService) Create(ctx context.Context, actor jwtx.Identity, in CreateProjectInput) (domain.Project, error) {
	if in.Name == "" {
		return domain.Project{}, fmt.Errorf("%w: project name is required", ErrValidation)
	}
	if in.Status == "" {
		in.Status = domain.ProjectPlanning
	}
	if in.Priority == "" {
		in.Priority = domain.PriorityMedium
	}
	if !validStatuses[in.Status] {
		return domain.Project{}, fmt.Errorf("%w: unknown status %q", ErrValidation, in.Status)
	}
	if !validPriorities[in.Priority] {
		return domain.Project{}, fmt.Errorf("%w: unknown priority %q", ErrValidation, in.Priority)
	}

	now := time.Now().UTC()
	p := domain.Project{
		ID:           idx.New().String(),
		Name:         in.Name,
		Description:  in.Description,
		Status:       in.Status,
		Priority:     in.Priority,
		DueDate:      in.DueDate,
		CreatedByID:  actor.ID,
		AssignedToID: in.AssignedToID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Projects().CreateProject(ctx, p); err != nil {
			return fmt.Errorf("create project: %w", err)
		}
		details := fmt.Sprintf("Created project %q", p.Name)
		_, err := s.ledger.Record(ctx, tx, domain.ActionCreate, details, actor.ID, &p.ID)
		return err
	})
	if err != nil {
		return domain.Project{}, err
	}

	s.notifyProject(ctx, p, actor, domain.NotifyProjectCreated,
		"New Project Created",
		fmt.Sprintf("%s created project %q", actor.Name, p.Name),
	)
	if p.AssignedToID != nil && *p.AssignedToID != actor.ID {
		s.notifyAssignee(ctx, p, actor)
	}

	return p, nil
}

func (s *ProjectService) Get(ctx context.Context, actor jwtx.Identity, id string) (domain.Project, error) {
	p, err := s.store.Projects().GetProjectByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Project{}, ErrNotFound
		}
		return domain.Project{}, fmt.Errorf("get project: %w", err)
	}
	if !canView(actor, p) {
		return domain.Project{}, ErrForbidden
	}
	return p, nil
}

// List pages projects. Admins see everything; everyone else sees only
// projects they created or are assigned to.
func (s *ProjectService) List(ctx context.Context, actor jwtx.Identity, f store.ProjectFilter) ([]domain.Project, int, error) {
	if actor.Role != domain.RoleAdmin {
		f.ViewerID = actor.ID
	}
	return s.store.Projects().ListProjects(ctx, f)
}

func (s *ProjectService) Update(ctx context.Context, actor jwtx.Identity, id string, in UpdateProjectInput) (domain.Project, error) {
	prev, err := s.store.Projects().GetProjectByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Project{}, ErrNotFound
		}
		return domain.Project{}, fmt.Errorf("get project: %w", err)
	}
	if !canEdit(actor, prev) {
		return domain.Project{}, ErrForbidden
	}

	next := prev
	if in.Name != nil {
		if *in.Name == "" {
			return domain.Project{}, fmt.Errorf("%w: project name is required", ErrValidation)
		}
		next.Name = *in.Name
	}
	if in.Description != nil {
		next.Description = *in.Description
	}
	if in.Status != nil {
		if !validStatuses[*in.Status] {
			return domain.Project{}, fmt.Errorf("%w: unknown status %q", ErrValidation, *in.Status)
		}
		next.Status = *in.Status
	}
	if in.Priority != nil {
		if !validPriorities[*in.Priority] {
			return domain.Project{}, fmt.Errorf("%w: unknown priority %q", ErrValidation, *in.Priority)
		}
		next.Priority = *in.Priority
	}
	if in.DueDateSet {
		next.DueDate = in.DueDate
	}
	if in.AssignedToSet {
		next.AssignedToID = in.AssignedToID
	}
	next.UpdatedAt = time.Now().UTC()

	completed := next.Status == domain.ProjectCompleted && prev.Status != domain.ProjectCompleted
	statusChanged := next.Status != prev.Status
	reassigned := in.AssignedToSet && !sameAssignee(prev.AssignedToID, next.AssignedToID)

	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Projects().UpdateProject(ctx, next); err != nil {
			// The row can vanish between the read above and this write.
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("update project: %w", err)
		}
		action := domain.ActionUpdate
		details := fmt.Sprintf("Updated project %q", next.Name)
		if completed {
			action = domain.ActionComplete
			details = fmt.Sprintf("Completed project %q", next.Name)
		}
		_, err := s.ledger.Record(ctx, tx, action, details, actor.ID, &next.ID)
		return err
	})
	if err != nil {
		return domain.Project{}, err
	}

	switch {
	case completed:
		s.notifyProject(ctx, next, actor, domain.NotifyProjectCompleted,
			"Project Completed",
			fmt.Sprintf("%s marked project %q as completed", actor.Name, next.Name),
		)
	case statusChanged:
		s.notifyProject(ctx, next, actor, domain.NotifyStatusChanged,
			"Project Status Changed",
			fmt.Sprintf("%s moved project %q from %s to %s", actor.Name, next.Name, prev.Status, next.Status),
		)
	default:
		s.notifyProject(ctx, next, actor, domain.NotifyProjectUpdated,
			"Project Updated",
			fmt.Sprintf("%s updated project %q", actor.Name, next.Name),
		)
	}
	if reassigned && next.AssignedToID != nil && *next.AssignedToID != actor.ID {
		s.notifyAssignee(ctx, next, actor)
	}

	return next, nil
}

func (s *ProjectService) Delete(ctx context.Context, actor jwtx.Identity, id string) error {
	p, err := s.store.Projects().GetProjectByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("get project: %w", err)
	}
	if actor.Role != domain.RoleAdmin && p.CreatedByID != actor.ID {
		return ErrForbidden
	}

	// Resolve stakeholders before the row disappears.
	recipients, err := s.resolver.ForProjectEvent(ctx, p, actor.ID)
	if err != nil {
		s.log.ErrorContext(ctx, "resolve stakeholders failed", "project_id", p.ID, "error", err)
		recipients = nil
	}

	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Projects().DeleteProject(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("delete project: %w", err)
		}
		// The project row is gone; the audit record outlives it with no
		// project reference.
		details := fmt.Sprintf("Deleted project %q", p.Name)
		_, err := s.ledger.Record(ctx, tx, domain.ActionDelete, details, actor.ID, nil)
		return err
	})
	if err != nil {
		return err
	}

	s.fanout.Dispatch(ctx, Event{
		Kind:    domain.NotifyProjectDeleted,
		Title:   "Project Deleted",
		Message: fmt.Sprintf("%s deleted project %q", actor.Name, p.Name),
		Data:    projectData(p, actor),
	}, recipients)

	return nil
}

// notifyProject resolves stakeholders (actor excluded) and fans the
// event out. Failures are logged, never surfaced to the caller.
func (s *ProjectService) notifyProject(ctx context.Context, p domain.Project, actor jwtx.Identity, kind domain.NotificationKind, title, message string) {
	recipients, err := s.resolver.ForProjectEvent(ctx, p, actor.ID)
	if err != nil {
		s.log.ErrorContext(ctx, "resolve stakeholders failed", "project_id", p.ID, "error", err)
		return
	}
	s.fanout.Dispatch(ctx, Event{
		Kind:    kind,
		Title:   title,
		Message: message,
		Data:    projectData(p, actor),
	}, recipients)
}

// notifyAssignee sends the targeted assignment notice to the new
// assignee only.
func (s *ProjectService) notifyAssignee(ctx context.Context, p domain.Project, actor jwtx.Identity) {
	s.fanout.Dispatch(ctx, Event{
		Kind:    domain.NotifyProjectAssigned,
		Title:   "Project Assigned to You",
		Message: fmt.Sprintf("%s assigned you to project %q", actor.Name, p.Name),
		Data:    projectData(p, actor),
	}, []string{*p.AssignedToID})
}

func projectData(p domain.Project, actor jwtx.Identity) map[string]any {
	return map[string]any{
		"projectId":   p.ID,
		"projectName": p.Name,
		"actorId":     actor.ID,
		"actorName":   actor.Name,
	}
}

func canView(actor jwtx.Identity, p domain.Project) bool {
	if actor.Role == domain.RoleAdmin || p.CreatedByID == actor.ID {
		return true
	}
	return p.AssignedToID != nil && *p.AssignedToID == actor.ID
}

func canEdit(actor jwtx.Identity, p domain.Project) bool {
	return canView(actor, p)
}

func sameAssignee(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
