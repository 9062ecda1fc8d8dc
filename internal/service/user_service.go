package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/permission"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/pkg/errorutil"
)

// UserService covers account management beyond authentication.
type UserService struct {
	users repository.UserRepository
	perms *permission.Evaluator
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, perms *permission.Evaluator) *UserService {
	return &UserService{users: users, perms: perms}
}

// GetUser fetches a user by id.
func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewNotFound("user", map[string]any{"user_id": id})
		}
		return nil, errorutil.MapError(err)
	}
	return user, nil
}

// ChangeRole sets a user's role. Only administrators may change roles,
// and never their own. The self check is a validation failure, not a
// permission failure, so it surfaces as 400.
func (s *UserService) ChangeRole(ctx context.Context, actor *domain.User, targetID string, newRole domain.Role) (*domain.User, error) {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return nil, errorutil.NewPermissionDenied("administrator role required")
	}
	if actor.ID == targetID {
		return nil, errorutil.NewValidationError("cannot change your own role", nil)
	}
	if !domain.ValidRole(newRole) {
		return nil, errorutil.NewValidationError("invalid role", map[string]any{"role": newRole})
	}

	target, err := s.GetUser(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !s.perms.CanChangeRole(actor, target) {
		return nil, errorutil.NewPermissionDenied("not allowed to change role")
	}

	updated, err := s.users.UpdateRole(ctx, targetID, newRole)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	return updated, nil
}

// ListSupportStaff returns all assignment-eligible users.
func (s *UserService) ListSupportStaff(ctx context.Context) ([]domain.User, error) {
	staff, err := s.users.ListByRoles(ctx, domain.RoleSupport, domain.RoleAdmin)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	return staff, nil
}

// ListWithTicketCounts returns every account with its created-ticket
// count, for the admin panel.
func (s *UserService) ListWithTicketCounts(ctx context.Context) ([]repository.UserWithTicketCount, error) {
	entries, err := s.users.ListWithTicketCounts(ctx)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	return entries, nil
}
