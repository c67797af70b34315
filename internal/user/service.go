// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/templates/identity-service/internal/access"
	"github.com/carterperez-dev/templates/identity-service/internal/account"
	"github.com/carterperez-dev/templates/identity-service/internal/auth"
	"github.com/carterperez-dev/templates/identity-service/internal/config"
	"github.com/carterperez-dev/templates/identity-service/internal/core"
	"github.com/carterperez-dev/templates/identity-service/internal/mail"
	"github.com/carterperez-dev/templates/identity-service/internal/rbac"
)

const temporaryPasswordLength = 16

type Authority interface {
	LevelOf(ctx context.Context, userID string) (int, error)
	HasPermission(ctx context.Context, userID, name string) (bool, error)
	CheckOperation(ctx context.Context, operatorID, targetID string, op rbac.Operation) error
}

type Sessions interface {
	InvalidateAll(ctx context.Context, userID string) error
	CreateVerification(ctx context.Context, userID string) (string, error)
	ConsumeVerification(ctx context.Context, token string) (string, error)
}

type Options struct {
	EnableRegistration bool
	MailEnabled        bool
}

type Service struct {
	db        *sqlx.DB
	repo      Repository
	authority Authority
	sessions  Sessions
	mailer    mail.Sender
	opts      Options
	logger    *slog.Logger
}

func NewService(
	db *sqlx.DB,
	authority Authority,
	sessions Sessions,
	mailer mail.Sender,
	opts Options,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if mailer == nil {
		opts.MailEnabled = false
	}
	return &Service{
		db:        db,
		repo:      NewRepository(db),
		authority: authority,
		sessions:  sessions,
		mailer:    mailer,
		opts:      opts,
		logger:    logger,
	}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if !s.opts.EnableRegistration {
		return nil, fmt.Errorf("register: %w", core.ErrRegistrationClosed)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, core.EmailExistsError()
	}

	exists, err = s.repo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, core.UserExistsError()
	}

	hash, err := core.EncodeCredential(req.Password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	nickname := strings.TrimSpace(req.Nickname)
	if nickname == "" {
		nickname = defaultNickname(email)
	}

	u := &User{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     req.Username,
		Nickname:     nickname,
		PasswordHash: hash,
		Status:       account.InitialStatus(s.opts.MailEnabled),
		Profile:      account.DefaultProfile(),
	}

	err = core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return NewRepository(tx).Create(ctx, u, rbac.RoleUser)
	})
	if errors.Is(err, core.ErrDuplicateKey) {
		return nil, core.UserExistsError()
	}
	if err != nil {
		return nil, err
	}

	if s.opts.MailEnabled {
		s.sendVerification(ctx, u)
	}

	return u, nil
}

// sendVerification does not fail registration; the account stays inactive
// until an operator activates it.
func (s *Service) sendVerification(ctx context.Context, u *User) {
	token, err := s.sessions.CreateVerification(ctx, u.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create verification token",
			"user_id", u.ID,
			"error", err,
		)
		return
	}

	if err := s.mailer.SendVerification(ctx, u.Email, token); err != nil {
		s.logger.ErrorContext(ctx, "failed to send verification mail",
			"user_id", u.ID,
			"error", err,
		)
	}
}

func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	userID, err := s.sessions.ConsumeVerification(ctx, token)
	if err != nil {
		return err
	}

	if err := s.repo.TransitionStatus(
		ctx, userID, account.StatusInactive, account.StatusActive,
	); err != nil {
		return fmt.Errorf("verify email: %w", err)
	}

	return nil
}

// Me returns the caller's own record with its level.
func (s *Service) Me(ctx context.Context, userID string) (*User, int, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, 0, core.UserNotFoundError()
	}
	if err != nil {
		return nil, 0, err
	}

	level, err := s.authority.LevelOf(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	return u, level, nil
}

// Info hides accounts that are not active from viewers without
// user:read:all.
func (s *Service) Info(ctx context.Context, viewerID, targetID string) (*User, error) {
	u, err := s.repo.GetByID(ctx, targetID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.UserNotFoundError()
	}
	if err != nil {
		return nil, err
	}

	if u.Status == account.StatusActive {
		return u, nil
	}

	elevated, err := s.authority.HasPermission(ctx, viewerID, rbac.PermUserReadAll)
	if err != nil {
		return nil, err
	}
	if !account.VisibleTo(u.Status, elevated) {
		return nil, core.UserNotFoundError()
	}

	return u, nil
}

func (s *Service) UpdateSelf(
	ctx context.Context,
	userID string,
	req UpdateProfileRequest,
) (*User, error) {
	return s.updateProfile(ctx, userID, req)
}

func (s *Service) UpdateByID(
	ctx context.Context,
	operatorID, targetID string,
	req UpdateProfileRequest,
) (*User, error) {
	if err := s.checkTarget(ctx, operatorID, targetID, rbac.OpUpdate); err != nil {
		return nil, err
	}
	return s.updateProfile(ctx, targetID, req)
}

func (s *Service) updateProfile(
	ctx context.Context,
	userID string,
	req UpdateProfileRequest,
) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.UserNotFoundError()
	}
	if err != nil {
		return nil, err
	}
	if u.IsDeleted() {
		return nil, core.UserNotFoundError()
	}

	if req.Nickname != nil {
		u.Nickname = *req.Nickname
	}
	if req.Avatar != nil {
		u.Avatar = *req.Avatar
	}
	if req.Description != nil {
		u.Description = *req.Description
	}
	if req.State != nil {
		u.State = *req.State
	}
	if req.Gender != nil {
		g, err := account.ParseGender(*req.Gender)
		if err != nil {
			return nil, core.ParamError(err.Error())
		}
		u.Gender = g
	}

	err = core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return NewRepository(tx).UpdateProfile(ctx, u)
	})
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.UserNotFoundError()
	}
	if err != nil {
		return nil, err
	}

	return u, nil
}

// DeleteSelf requires the current password. Holders of user:undeletable
// cannot delete themselves.
func (s *Service) DeleteSelf(ctx context.Context, userID, password string) error {
	u, err := s.repo.GetByID(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		return core.UserNotFoundError()
	}
	if err != nil {
		return err
	}

	if !core.CheckStoredCredential(password, u.PasswordHash) {
		return fmt.Errorf("delete self: %w", core.ErrInvalidCredentials)
	}

	protected, err := s.authority.HasPermission(ctx, userID, rbac.PermUserUndeletable)
	if err != nil {
		return err
	}
	if protected {
		return core.ForbiddenError("account cannot be deleted")
	}

	return s.markDeleted(ctx, userID)
}

func (s *Service) DeleteByID(ctx context.Context, operatorID, targetID string) error {
	if err := s.checkTarget(ctx, operatorID, targetID, rbac.OpDelete); err != nil {
		return err
	}
	return s.markDeleted(ctx, targetID)
}

func (s *Service) markDeleted(ctx context.Context, userID string) error {
	if err := s.repo.MarkDeleted(ctx, userID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.UserNotFoundError()
		}
		return err
	}

	s.revokeSessions(ctx, userID)
	return nil
}

// ChangeStatus applies a lifecycle transition as a compare-and-set on the
// status read here. Moving to Deleted is held to the same rules as
// DeleteByID.
func (s *Service) ChangeStatus(
	ctx context.Context,
	operatorID, targetID string,
	to account.Status,
) (*User, error) {
	op := rbac.OpUpdate
	if to == account.StatusDeleted {
		allowed, err := s.authority.HasPermission(ctx, operatorID, rbac.PermUserDeleteAll)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, core.ForbiddenError("deleting an account requires " + rbac.PermUserDeleteAll)
		}
		op = rbac.OpDelete
	}

	if err := s.checkTarget(ctx, operatorID, targetID, op); err != nil {
		return nil, err
	}

	u, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if _, err := account.Transition(u.Status, to); err != nil {
		return nil, err
	}

	if err := s.repo.TransitionStatus(ctx, targetID, u.Status, to); err != nil {
		return nil, err
	}

	if to == account.StatusDeleted {
		s.revokeSessions(ctx, targetID)
	}

	u.Status = to
	return u, nil
}

// ResetPassword replaces the target's password with a random temporary
// one and ends all of its sessions.
func (s *Service) ResetPassword(ctx context.Context, operatorID, targetID string) (string, error) {
	if err := s.checkTarget(ctx, operatorID, targetID, rbac.OpUpdate); err != nil {
		return "", err
	}

	u, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return "", err
	}

	temp, err := core.RandomString(temporaryPasswordLength)
	if err != nil {
		return "", fmt.Errorf("reset password: %w", err)
	}

	hash, err := core.EncodeCredential(temp)
	if err != nil {
		return "", fmt.Errorf("reset password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, targetID, hash); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", core.UserNotFoundError()
		}
		return "", err
	}

	s.revokeSessions(ctx, targetID)

	if s.opts.MailEnabled {
		if err := s.mailer.SendTemporaryPassword(ctx, u.Email, temp); err != nil {
			s.logger.ErrorContext(ctx, "failed to send temporary password",
				"user_id", targetID,
				"error", err,
			)
		}
	}

	return temp, nil
}

func (s *Service) List(ctx context.Context, params ListUsersParams) ([]User, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) CountByStatus(ctx context.Context) (map[account.Status]int, error) {
	return s.repo.CountByStatus(ctx)
}

// checkTarget resolves the target first so unknown ids report
// UserNotFound instead of a level failure.
func (s *Service) checkTarget(
	ctx context.Context,
	operatorID, targetID string,
	op rbac.Operation,
) error {
	if operatorID == targetID {
		return core.ForbiddenError("use the self-service endpoint")
	}

	if _, err := s.repo.GetByID(ctx, targetID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.UserNotFoundError()
		}
		return err
	}

	return s.authority.CheckOperation(ctx, operatorID, targetID, op)
}

// revokeSessions logs failures; the database change already committed and
// every gate stage loads the account and rejects deleted ones.
func (s *Service) revokeSessions(ctx context.Context, userID string) {
	if err := s.sessions.InvalidateAll(ctx, userID); err != nil {
		s.logger.ErrorContext(ctx, "failed to invalidate sessions",
			"user_id", userID,
			"error", err,
		)
	}
}

// EnsureSuperAdmin creates the configured super admin when no live account
// holds the super_admin role. The generated password is logged once.
func (s *Service) EnsureSuperAdmin(ctx context.Context, cfg config.SeedConfig) error {
	n, err := s.repo.CountWithRole(ctx, rbac.RoleSuperAdmin)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	password, err := core.RandomString(temporaryPasswordLength)
	if err != nil {
		return fmt.Errorf("seed super admin: %w", err)
	}

	hash, err := core.EncodeCredential(password)
	if err != nil {
		return fmt.Errorf("seed super admin: %w", err)
	}

	email := strings.ToLower(cfg.SuperAdminEmail)
	u := &User{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     cfg.SuperAdminUsername,
		Nickname:     cfg.SuperAdminUsername,
		PasswordHash: hash,
		Status:       account.StatusActive,
		Profile:      account.DefaultProfile(),
	}

	err = core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return NewRepository(tx).Create(ctx, u, rbac.RoleSuperAdmin)
	})
	if err != nil {
		return fmt.Errorf("seed super admin: %w", err)
	}

	s.logger.WarnContext(ctx, "created super admin account",
		"username", u.Username,
		"email", u.Email,
		"password", password,
	)

	return nil
}

func (s *Service) LoadAccount(ctx context.Context, id string) (*access.Account, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.ToAccount(), nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*auth.UserInfo, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	return toUserInfo(u), nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*auth.UserInfo, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserInfo(u), nil
}

func (s *Service) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Status:       u.Status,
	}
}

var (
	_ auth.UserProvider    = (*Service)(nil)
	_ access.AccountLoader = (*Service)(nil)
)
