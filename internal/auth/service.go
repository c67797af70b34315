// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/carterperez-dev/templates/identity-service/internal/account"
	"github.com/carterperez-dev/templates/identity-service/internal/core"
	"github.com/carterperez-dev/templates/identity-service/internal/session"
)

type Service struct {
	userProvider UserProvider
	sessions     SessionManager
	logger       *slog.Logger
}

func NewService(
	userProvider UserProvider,
	sessions SessionManager,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		userProvider: userProvider,
		sessions:     sessions,
		logger:       logger,
	}
}

// Login checks the password before the account status so a caller without
// the password learns nothing about the account.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*session.Session, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.userProvider.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.CheckCredentialTimingSafe(req.Password, nil)
			return nil, fmt.Errorf("login: %w", core.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !core.CheckCredentialTimingSafe(req.Password, &user.PasswordHash) {
		return nil, fmt.Errorf("login: %w", core.ErrInvalidCredentials)
	}

	if err := account.CheckLogin(user.Status); err != nil {
		return nil, err
	}

	sess, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return sess, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Invalidate(ctx, token); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if err := s.sessions.InvalidateAll(ctx, userID); err != nil {
		return fmt.Errorf("logout all: %w", err)
	}
	return nil
}

func (s *Service) ChangePassword(
	ctx context.Context,
	userID, currentPassword, newPassword string,
) error {
	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	if !core.CheckStoredCredential(currentPassword, user.PasswordHash) {
		return fmt.Errorf("change password: %w", core.ErrInvalidCredentials)
	}

	if currentPassword == newPassword {
		return fmt.Errorf("change password: %w", core.ErrDuplicatePassword)
	}

	newHash, err := core.EncodeCredential(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.userProvider.UpdatePassword(ctx, userID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.sessions.InvalidateAll(ctx, userID); err != nil {
		s.logger.ErrorContext(ctx, "failed to invalidate sessions after password change",
			"user_id", userID,
			"error", err,
		)
	}

	return nil
}
