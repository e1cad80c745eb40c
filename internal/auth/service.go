// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/solution-ledger/internal/core"
	"github.com/carterperez-dev/solution-ledger/internal/mail"
	"github.com/carterperez-dev/solution-ledger/internal/middleware"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrTokenReuse          = errors.New("token reuse detected")
	ErrEmailExists         = errors.New("email already exists")
	ErrTempPasswordExpired = errors.New("temporary password expired")
)

// TempPasswordTTL matches the window given to provisioned accounts.
const TempPasswordTTL = 48 * time.Hour

const tempPasswordGenericMessage = "If your email is registered, you'll receive instructions shortly."

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	Create(ctx context.Context, u NewUser) (*UserInfo, error)
	IncrementTokenVersion(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	SetTemporaryPassword(
		ctx context.Context,
		userID, passwordHash string,
		expiresAt time.Time,
	) error
	CompletePasswordChange(ctx context.Context, userID, passwordHash string) error
}

type ServiceConfig struct {
	Repo            Repository
	JWT             *JWTManager
	Users           UserProvider
	Denylist        Denylist
	Mailer          mail.Sender
	FrontendBaseURL string
	Logger          *slog.Logger
}

type Service struct {
	repo            Repository
	jwt             *JWTManager
	users           UserProvider
	denylist        Denylist
	mailer          mail.Sender
	frontendBaseURL string
	logger          *slog.Logger
	now             func() time.Time
}

func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		repo:            cfg.Repo,
		jwt:             cfg.JWT,
		users:           cfg.Users,
		denylist:        cfg.Denylist,
		mailer:          cfg.Mailer,
		frontendBaseURL: cfg.FrontendBaseURL,
		logger:          logger,
		now:             time.Now,
	}
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	if user.TempPasswordExpired(s.now()) {
		return nil, ErrTempPasswordExpired
	}

	return s.startSession(ctx, user, userAgent, ipAddress)
}

func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, NewUser{
		Email:        req.Email,
		PasswordHash: passwordHash,
		Name:         req.Name,
		Role:         middleware.RoleUser,
	})
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.startSession(ctx, user, userAgent, ipAddress)
}

// Refresh rotates a refresh token. The successor is stored and the old
// token retired atomically, so of two concurrent rotations only one
// succeeds; the loser is treated as reuse and the whole family is revoked.
func (s *Service) Refresh(
	ctx context.Context,
	refreshToken, userAgent, ipAddress string,
) (*AuthResponse, error) {
	stored, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	if stored.IsRevoked() {
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
	}

	if stored.IsUsed {
		s.revokeFamily(ctx, stored.FamilyID)
		return nil, ErrTokenReuse
	}

	if stored.IsExpiredAt(s.now()) {
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenExpired)
	}

	user, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	resp, next, err := s.issueTokens(user, userAgent, ipAddress, stored.FamilyID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Rotate(ctx, stored.ID, next); err != nil {
		if errors.Is(err, core.ErrConflict) {
			s.revokeFamily(ctx, stored.FamilyID)
			return nil, ErrTokenReuse
		}
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}

	return resp, nil
}

// Logout revokes the presented refresh token, if any, and denylists the
// access token used for the call until it would have expired.
func (s *Service) Logout(
	ctx context.Context,
	claims *middleware.AccessTokenClaims,
	refreshToken string,
) error {
	if refreshToken != "" {
		stored, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
		switch {
		case errors.Is(err, core.ErrNotFound):
		case err != nil:
			return fmt.Errorf("find token: %w", err)
		case stored.UserID != claims.UserID:
			return fmt.Errorf("logout: %w", core.ErrForbidden)
		default:
			if err := s.repo.RevokeByID(ctx, stored.ID); err != nil &&
				!errors.Is(err, core.ErrNotFound) {
				return fmt.Errorf("revoke token: %w", err)
			}
		}
	}

	return s.denylistAccessToken(ctx, claims)
}

func (s *Service) LogoutAll(
	ctx context.Context,
	claims *middleware.AccessTokenClaims,
) error {
	if err := s.repo.RevokeAllForUser(ctx, claims.UserID); err != nil {
		return fmt.Errorf("revoke all tokens: %w", err)
	}

	if err := s.users.IncrementTokenVersion(ctx, claims.UserID); err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	return s.denylistAccessToken(ctx, claims)
}

// ChangePassword replaces the password of the account identified by email
// after checking the old one. Accounts still on a temporary password must
// do so before it expires. Every session is ended on success.
func (s *Service) ChangePassword(
	ctx context.Context,
	req ChangePasswordRequest,
) error {
	user, err := s.authenticate(ctx, req.Email, req.OldPassword)
	if err != nil {
		return err
	}

	if user.TempPasswordExpired(s.now()) {
		return ErrTempPasswordExpired
	}

	newHash, err := core.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.CompletePasswordChange(ctx, user.ID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.repo.RevokeAllForUser(ctx, user.ID); err != nil {
		return fmt.Errorf("revoke all tokens: %w", err)
	}

	return nil
}

// RequestTempPassword always reports the same message so callers cannot
// probe which emails are registered.
func (s *Service) RequestTempPassword(
	ctx context.Context,
	email string,
) (*MessageResponse, error) {
	generic := &MessageResponse{Message: tempPasswordGenericMessage}

	user, err := s.users.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return generic, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	tempPassword, err := core.GenerateTempPassword()
	if err != nil {
		return nil, err
	}

	hash, err := core.HashPassword(tempPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	expiresAt := s.now().Add(TempPasswordTTL)
	if err := s.users.SetTemporaryPassword(ctx, user.ID, hash, expiresAt); err != nil {
		return nil, fmt.Errorf("set temporary password: %w", err)
	}

	subject, body := mail.TempPasswordMessage(
		s.frontendBaseURL,
		user.Name,
		user.Email,
		tempPassword,
		true,
	)
	if err := s.mailer.Send(ctx, user.Email, subject, body); err != nil {
		s.logger.Warn("temp password mail failed",
			"user_id", user.ID,
			"error", err,
		)
	}

	return generic, nil
}

// VerifyAccessToken checks the signature, the denylist and the account's
// token version. The role is taken from the account so role changes apply
// without waiting for token expiry.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := s.jwt.VerifyAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}

	denied, err := s.denylist.Contains(ctx, claims.JTI)
	if err != nil {
		s.logger.Warn("denylist unavailable, skipping check", "error", err)
	}
	if denied {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("verify token: %w", err)
	}

	if claims.TokenVersion < user.TokenVersion {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	claims.Role = user.Role
	claims.TempPassword = !user.PasswordChanged
	return claims, nil
}

func (s *Service) GetCurrentUser(
	ctx context.Context,
	userID string,
) (*UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

func (s *Service) authenticate(
	ctx context.Context,
	email, password string,
) (*UserInfo, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // equalizes timing with the known-account path
			_, _, _ = core.MatchPassword(password, "")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := core.MatchPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return nil, ErrInvalidCredentials
	}

	if newHash != "" {
		//nolint:errcheck // best-effort rehash upgrade
		_ = s.users.UpdatePassword(ctx, user.ID, newHash)
	}

	return user, nil
}

func (s *Service) denylistAccessToken(
	ctx context.Context,
	claims *middleware.AccessTokenClaims,
) error {
	if claims.JTI == "" {
		return nil
	}

	if err := s.denylist.Add(ctx, claims.JTI, claims.ExpiresAt.Sub(s.now())); err != nil {
		return fmt.Errorf("denylist access token: %w", err)
	}

	return nil
}

func (s *Service) revokeFamily(ctx context.Context, familyID string) {
	if err := s.repo.RevokeByFamilyID(ctx, familyID); err != nil {
		s.logger.Error("revoke token family failed",
			"family_id", familyID,
			"error", err,
		)
	}
}

// startSession issues tokens in a new family and stores the refresh token.
func (s *Service) startSession(
	ctx context.Context,
	user *UserInfo,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	resp, record, err := s.issueTokens(user, userAgent, ipAddress, "")
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return resp, nil
}

// issueTokens mints an access and refresh token pair. The returned record
// is the refresh token's at-rest form; the caller persists it.
func (s *Service) issueTokens(
	user *UserInfo,
	userAgent, ipAddress, familyID string,
) (*AuthResponse, *RefreshToken, error) {
	accessToken, err := s.jwt.CreateAccessToken(AccessTokenClaims{
		UserID:       user.ID,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
		TempPassword: !user.PasswordChanged,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create access token: %w", err)
	}

	refreshData, err := s.jwt.CreateRefreshToken(familyID)
	if err != nil {
		return nil, nil, fmt.Errorf("create refresh token: %w", err)
	}

	record := &RefreshToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		TokenHash: refreshData.Hash,
		FamilyID:  refreshData.FamilyID,
		ExpiresAt: refreshData.ExpiresAt,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}

	ttl := s.jwt.AccessTokenTTL()

	return &AuthResponse{
		User: toUserResponse(user),
		Tokens: TokenResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshData.Token,
			TokenType:    "Bearer",
			ExpiresIn:    int(ttl / time.Second),
			ExpiresAt:    s.now().Add(ttl),
		},
	}, record, nil
}
