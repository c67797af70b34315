// AngelaMos | 2026
// entity.go

package auth

import (
	"context"

	"github.com/carterperez-dev/templates/identity-service/internal/account"
	"github.com/carterperez-dev/templates/identity-service/internal/session"
)

type UserInfo struct {
	ID           string
	Email        string
	PasswordHash string
	Status       account.Status
}

// UserProvider returns core.ErrNotFound for unknown users.
type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

type SessionManager interface {
	Create(ctx context.Context, userID string) (*session.Session, error)
	Invalidate(ctx context.Context, token string) error
	InvalidateAll(ctx context.Context, userID string) error
}
