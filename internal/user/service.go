// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/solution-ledger/internal/auth"
	"github.com/carterperez-dev/solution-ledger/internal/core"
	"github.com/carterperez-dev/solution-ledger/internal/mail"
)

type Service struct {
	repo            Repository
	mailer          mail.Sender
	frontendBaseURL string
	now             func() time.Time
}

func NewService(repo Repository, mailer mail.Sender, frontendBaseURL string) *Service {
	return &Service{
		repo:            repo,
		mailer:          mailer,
		frontendBaseURL: frontendBaseURL,
		now:             time.Now,
	}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) Create(
	ctx context.Context,
	nu auth.NewUser,
) (*auth.UserInfo, error) {
	user := &User{
		ID:                    uuid.New().String(),
		Email:                 strings.ToLower(nu.Email),
		PasswordHash:          nu.PasswordHash,
		Name:                  nu.Name,
		Role:                  nu.Role,
		PasswordChanged:       nu.TempPasswordExpiresAt == nil,
		TempPasswordExpiresAt: nu.TempPasswordExpiresAt,
		CreatedBy:             nu.CreatedBy,
	}
	if user.Role == "" {
		user.Role = RoleUser
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) IncrementTokenVersion(
	ctx context.Context,
	userID string,
) error {
	return s.repo.IncrementTokenVersion(ctx, userID)
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

func (s *Service) SetTemporaryPassword(
	ctx context.Context,
	userID, passwordHash string,
	expiresAt time.Time,
) error {
	return s.repo.SetTemporaryPassword(ctx, userID, passwordHash, expiresAt)
}

func (s *Service) CompletePasswordChange(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.CompletePasswordChange(ctx, userID, passwordHash)
}

// Provision creates an account on behalf of an admin with a temporary
// password and mails it. When delivery fails the account is kept and an
// upstream error is returned alongside it.
func (s *Service) Provision(
	ctx context.Context,
	callerID, callerRole string,
	req ProvisionUserRequest,
) (*User, error) {
	if !ValidRole(req.Role) {
		return nil, core.InvalidInputError("role must be one of user, admin, super_admin")
	}

	if req.Role == RoleSuperAdmin && callerRole != RoleSuperAdmin {
		return nil, core.ForbiddenError("only a super admin can create super admins")
	}

	tempPassword, err := core.GenerateTempPassword()
	if err != nil {
		return nil, err
	}

	hash, err := core.HashPassword(tempPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	expiresAt := s.now().Add(auth.TempPasswordTTL)
	creator := callerID

	user := &User{
		ID:                    uuid.New().String(),
		Email:                 strings.ToLower(req.Email),
		PasswordHash:          hash,
		Name:                  req.Name,
		Role:                  req.Role,
		PasswordChanged:       false,
		TempPasswordExpiresAt: &expiresAt,
		CreatedBy:             &creator,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, core.DuplicateError("email")
		}
		return nil, err
	}

	subject, body := mail.TempPasswordMessage(
		s.frontendBaseURL,
		user.Name,
		user.Email,
		tempPassword,
		false,
	)
	if err := s.mailer.Send(ctx, user.Email, subject, body); err != nil {
		return user, core.UpstreamError("user created but the welcome email could not be sent", err)
	}

	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetUsers returns the requested users keyed by id. Unknown ids are
// simply absent from the map.
func (s *Service) GetUsers(
	ctx context.Context,
	ids []string,
) (map[string]User, error) {
	users, err := s.repo.GetByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}

	byID := make(map[string]User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID, nil
}

func (s *Service) ListExcept(
	ctx context.Context,
	excludeIDs []string,
) ([]UserSummary, error) {
	return s.repo.ListSummariesExcept(ctx, excludeIDs)
}

func (s *Service) UpdateUserRole(
	ctx context.Context,
	id, role string,
) (*User, error) {
	if !ValidRole(role) {
		return nil, fmt.Errorf(
			"update role: invalid role %q: %w",
			role,
			core.ErrInvalidInput,
		)
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Role = role

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// ListUsers lists every account except the caller, ordered by name.
func (s *Service) ListUsers(
	ctx context.Context,
	callerID string,
	params ListUsersParams,
) ([]User, int, error) {
	params.ExcludeID = callerID
	params.Normalize()
	return s.repo.List(ctx, params)
}

func (s *Service) ListCreatedBy(
	ctx context.Context,
	creatorID string,
) ([]User, error) {
	return s.repo.ListCreatedBy(ctx, creatorID)
}

func (s *Service) GetMe(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}

	return s.repo.GetByID(ctx, userID)
}

func (s *Service) UpdateMe(
	ctx context.Context,
	userID string,
	req UpdateUserRequest,
) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("update me: %w", core.ErrUnauthorized)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:                    u.ID,
		Email:                 u.Email,
		Name:                  u.Name,
		PasswordHash:          u.PasswordHash,
		Role:                  u.Role,
		TokenVersion:          u.TokenVersion,
		PasswordChanged:       u.PasswordChanged,
		TempPasswordExpiresAt: u.TempPasswordExpiresAt,
		CreatedAt:             u.CreatedAt,
	}
}

var _ auth.UserProvider = (*Service)(nil)
