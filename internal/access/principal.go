// AngelaMos | 2026
// principal.go

package access

import (
	"context"

	"github.com/carterperez-dev/templates/identity-service/internal/account"
	"github.com/carterperez-dev/templates/identity-service/internal/session"
)

type Account struct {
	ID       string
	Email    string
	Username string
	Nickname string
	Status   account.Status
	Profile  account.Profile
}

// Principal is what earlier stages learned about the caller. Account is
// nil when only a permission stage ran.
type Principal struct {
	Session *session.Session
	Account *Account
	Level   int
}

func (p *Principal) UserID() string {
	if p == nil || p.Session == nil {
		return ""
	}
	return p.Session.UserID
}

func (p *Principal) Token() string {
	if p == nil || p.Session == nil {
		return ""
	}
	return p.Session.Token
}

type contextKey string

const principalKey contextKey = "access_principal"

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func GetPrincipal(ctx context.Context) *Principal {
	if p, ok := ctx.Value(principalKey).(*Principal); ok {
		return p
	}
	return nil
}

func GetUserID(ctx context.Context) string {
	return GetPrincipal(ctx).UserID()
}
