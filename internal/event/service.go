// AngelaMos | 2026
// service.go

package event

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/solution-ledger/internal/access"
	"github.com/carterperez-dev/solution-ledger/internal/core"
	"github.com/carterperez-dev/solution-ledger/internal/user"
)

// UserDirectory resolves grant targets and share candidates.
type UserDirectory interface {
	GetUsers(ctx context.Context, ids []string) (map[string]user.User, error)
	ListExcept(ctx context.Context, excludeIDs []string) ([]user.UserSummary, error)
}

type Service struct {
	repo  Repository
	users UserDirectory
	now   func() time.Time
}

func NewService(repo Repository, users UserDirectory) *Service {
	return &Service{
		repo:  repo,
		users: users,
		now:   time.Now,
	}
}

func (s *Service) Create(
	ctx context.Context,
	callerID string,
	req CreateEventRequest,
) (*Event, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, core.InvalidInputError("name is required")
	}
	if req.Year == 0 {
		return nil, core.InvalidInputError("year is required")
	}

	event := &Event{
		ID:          uuid.New().String(),
		Name:        name,
		Year:        req.Year,
		Description: strings.TrimSpace(req.Description),
		OwnerID:     callerID,
		SharedWith:  Grants{},
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}

	return event, nil
}

// ListAccessible returns the caller's owned and shared events with grant
// names and emails refreshed from the user directory.
func (s *Service) ListAccessible(
	ctx context.Context,
	callerID string,
) ([]Event, error) {
	events, err := s.repo.ListAccessible(ctx, callerID)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, e := range events {
		ids = append(ids, e.SharedWith.UserIDs()...)
	}
	if len(ids) == 0 {
		return events, nil
	}

	users, err := s.users.GetUsers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve grantees: %w", err)
	}

	for i := range events {
		for j, g := range events[i].SharedWith {
			if u, ok := users[g.UserID]; ok {
				events[i].SharedWith[j].Name = u.Name
				events[i].SharedWith[j].Email = u.Email
			}
		}
	}

	return events, nil
}

func (s *Service) ListDeleted(
	ctx context.Context,
	globalRole string,
) ([]Event, error) {
	if globalRole != user.RoleSuperAdmin {
		return nil, core.ForbiddenError("only super admins can list deleted events")
	}

	return s.repo.ListDeleted(ctx)
}

// Get returns an active event and the caller's role on it.
func (s *Service) Get(
	ctx context.Context,
	callerID, id string,
) (*Event, access.Role, error) {
	event, role, err := s.Authorize(ctx, id, callerID)
	if err != nil {
		return nil, access.RoleNone, err
	}
	if !role.CanRead() {
		return nil, access.RoleNone, core.ForbiddenError("you do not have access to this event")
	}

	return event, role, nil
}

// Authorize loads an active event and resolves userID's role on it. A
// RoleNone result is not an error; callers apply their own gate.
func (s *Service) Authorize(
	ctx context.Context,
	eventID, userID string,
) (*Event, access.Role, error) {
	if _, err := uuid.Parse(eventID); err != nil {
		return nil, access.RoleNone, core.NotFoundError("event")
	}

	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return nil, access.RoleNone, err
	}
	if event.IsDeleted {
		return nil, access.RoleNone, core.NotFoundError("event")
	}

	return event, event.RoleOf(userID), nil
}

// Access is Authorize without the event.
func (s *Service) Access(
	ctx context.Context,
	eventID, userID string,
) (access.Role, error) {
	_, role, err := s.Authorize(ctx, eventID, userID)
	return role, err
}

func (s *Service) Update(
	ctx context.Context,
	callerID, id string,
	req UpdateEventRequest,
) (*Event, error) {
	event, err := s.ownedActive(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, core.InvalidInputError("name cannot be empty")
		}
		event.Name = name
	}
	if req.Year != nil {
		event.Year = *req.Year
	}
	if req.Description != nil {
		event.Description = strings.TrimSpace(*req.Description)
	}
	if req.SharedWith != nil {
		grants, err := s.buildGrants(ctx, event.OwnerID, *req.SharedWith)
		if err != nil {
			return nil, err
		}
		event.SharedWith = grants
	}

	event.UpdatedBy = &callerID
	if err := s.repo.Update(ctx, event); err != nil {
		return nil, err
	}

	return event, nil
}

// Share replaces the shared-access list with the given grants, each
// enriched with the target user's current name and email.
func (s *Service) Share(
	ctx context.Context,
	callerID, id string,
	req ShareRequest,
) (*Event, error) {
	event, err := s.ownedActive(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	grants, err := s.buildGrants(ctx, event.OwnerID, req.SharedWith)
	if err != nil {
		return nil, err
	}

	event.SharedWith = grants
	event.UpdatedBy = &callerID
	if err := s.repo.Update(ctx, event); err != nil {
		return nil, err
	}

	return event, nil
}

func (s *Service) SoftDelete(
	ctx context.Context,
	callerID, globalRole, id string,
) error {
	event, role, err := s.Authorize(ctx, id, callerID)
	if err != nil {
		return err
	}

	isAdmin := globalRole == user.RoleAdmin || globalRole == user.RoleSuperAdmin
	if !role.IsOwner() && !isAdmin {
		return core.ForbiddenError("only the owner or an admin can delete this event")
	}

	now := s.now().UTC()
	return s.repo.SetDeleted(ctx, event.ID, &now, callerID)
}

func (s *Service) Restore(
	ctx context.Context,
	callerID, id string,
) (*Event, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, core.NotFoundError("event")
	}

	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.OwnerID != callerID {
		return nil, core.ForbiddenError("only the owner can restore this event")
	}
	if !event.IsDeleted {
		return nil, core.InvalidInputError("event is not deleted")
	}

	if err := s.repo.SetDeleted(ctx, event.ID, nil, callerID); err != nil {
		return nil, err
	}

	event.IsDeleted = false
	event.DeletedAt = nil
	return event, nil
}

// AvailableToShare lists every user who is neither the owner nor already
// a grantee of the event.
func (s *Service) AvailableToShare(
	ctx context.Context,
	callerID, eventID string,
) ([]user.UserSummary, error) {
	event, err := s.ownedActive(ctx, callerID, eventID)
	if err != nil {
		return nil, err
	}

	exclude := append([]string{event.OwnerID}, event.SharedWith.UserIDs()...)
	return s.users.ListExcept(ctx, exclude)
}

func (s *Service) ownedActive(
	ctx context.Context,
	callerID, id string,
) (*Event, error) {
	event, role, err := s.Authorize(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	if !role.IsOwner() {
		return nil, core.ForbiddenError("only the owner can modify this event")
	}

	return event, nil
}

func (s *Service) buildGrants(
	ctx context.Context,
	ownerID string,
	inputs []GrantInput,
) (Grants, error) {
	seen := make(map[string]struct{}, len(inputs))
	ids := make([]string, 0, len(inputs))

	for _, in := range inputs {
		if _, err := uuid.Parse(in.UserID); err != nil {
			return nil, core.InvalidInputError("each grant needs a valid user_id")
		}
		if !access.Role(in.Role).Grantable() {
			return nil, core.InvalidInputError(
				fmt.Sprintf("role %q is not grantable, use editor or viewer", in.Role),
			)
		}
		if in.UserID == ownerID {
			return nil, core.InvalidInputError("the owner cannot be granted access")
		}
		if _, dup := seen[in.UserID]; dup {
			return nil, core.InvalidInputError("a user can only be granted once")
		}
		seen[in.UserID] = struct{}{}
		ids = append(ids, in.UserID)
	}

	if len(ids) == 0 {
		return Grants{}, nil
	}

	users, err := s.users.GetUsers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve grantees: %w", err)
	}

	grants := make(Grants, 0, len(inputs))
	for _, in := range inputs {
		u, ok := users[in.UserID]
		if !ok {
			return nil, core.NotFoundError("user " + in.UserID)
		}
		grants = append(grants, access.Grant{
			UserID: u.ID,
			Name:   u.Name,
			Email:  u.Email,
			Role:   access.Role(in.Role),
		})
	}

	return grants, nil
}
