// AngelaMos | 2026
// service.go

package cash

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

type EventAccess interface {
	Access(ctx context.Context, eventID, userID string) (access.Role, error)
}

type UserLookup interface {
	GetUsers(ctx context.Context, ids []string) (map[string]user.User, error)
}

// Service records cash collected for an event. Writes need owner or
// editor on the event and reads need any role.
type Service struct {
	repo   Repository
	events EventAccess
	users  UserLookup
	now    func() time.Time
}

func NewService(repo Repository, events EventAccess, users UserLookup) *Service {
	return &Service{
		repo:   repo,
		events: events,
		users:  users,
		now:    time.Now,
	}
}

func (s *Service) Create(
	ctx context.Context,
	callerID, eventID string,
	req CreateCollectionRequest,
) (*Collection, error) {
	name := strings.TrimSpace(req.Name)
	switch {
	case eventID == "":
		return nil, core.InvalidInputError("event_id is required")
	case name == "":
		return nil, core.InvalidInputError("name is required")
	case !req.Amount.IsPositive():
		return nil, core.InvalidInputError("amount must be greater than 0")
	}
	if err := core.CheckCents("amount", req.Amount); err != nil {
		return nil, err
	}

	if err := s.require(ctx, eventID, callerID, access.Role.CanWrite); err != nil {
		return nil, err
	}

	collectedAt := s.now().UTC()
	if req.CollectedAt != nil {
		collectedAt = req.CollectedAt.UTC()
	}

	c := &Collection{
		ID:          uuid.New().String(),
		EventID:     eventID,
		Name:        name,
		Amount:      req.Amount,
		RecordedBy:  callerID,
		CollectedAt: collectedAt,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) ListByEvent(
	ctx context.Context,
	callerID, eventID string,
) ([]Collection, error) {
	if err := s.require(ctx, eventID, callerID, access.Role.CanRead); err != nil {
		return nil, err
	}

	return s.repo.ListByEvent(ctx, eventID)
}

// Update replaces the contributor name and amount. The caller becomes the
// recorder.
func (s *Service) Update(
	ctx context.Context,
	callerID, id string,
	req UpdateCollectionRequest,
) (*Collection, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, core.InvalidInputError("name is required")
	}
	if !req.Amount.IsPositive() {
		return nil, core.InvalidInputError("amount must be greater than 0")
	}
	if err := core.CheckCents("amount", req.Amount); err != nil {
		return nil, err
	}

	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.require(ctx, c.EventID, callerID, access.Role.CanWrite); err != nil {
		return nil, err
	}

	c.Name = name
	c.Amount = req.Amount
	c.RecordedBy = callerID
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) Delete(ctx context.Context, callerID, id string) error {
	c, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.require(ctx, c.EventID, callerID, access.Role.CanWrite); err != nil {
		return err
	}

	return s.repo.Delete(ctx, c.ID)
}

// RecorderNames maps recorder ids to display names.
func (s *Service) RecorderNames(
	ctx context.Context,
	collections []Collection,
) (map[string]string, error) {
	ids := make([]string, 0, len(collections))
	for _, c := range collections {
		ids = append(ids, c.RecordedBy)
	}
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	users, err := s.users.GetUsers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve recorders: %w", err)
	}

	names := make(map[string]string, len(users))
	for id, u := range users {
		names[id] = u.Name
	}
	return names, nil
}

func (s *Service) load(ctx context.Context, id string) (*Collection, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, core.NotFoundError("collected cash entry")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) require(
	ctx context.Context,
	eventID, callerID string,
	allowed func(access.Role) bool,
) error {
	role, err := s.events.Access(ctx, eventID, callerID)
	if err != nil {
		return err
	}
	if !allowed(role) {
		return core.ForbiddenError("your role on this event does not allow this")
	}
	return nil
}
