// AngelaMos | 2026
// entity.go

package user

import (
	"strings"
	"time"

	"github.com/carterperez-dev/templates/identity-service/internal/access"
	"github.com/carterperez-dev/templates/identity-service/internal/account"
)

type User struct {
	ID           string         `db:"id"`
	Email        string         `db:"email"`
	Username     string         `db:"username"`
	Nickname     string         `db:"nickname"`
	PasswordHash string         `db:"password_hash"`
	Status       account.Status `db:"status"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`

	account.Profile
}

func (u *User) IsDeleted() bool {
	return u.Status == account.StatusDeleted
}

func (u *User) ToAccount() *access.Account {
	return &access.Account{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
		Nickname: u.Nickname,
		Status:   u.Status,
		Profile:  u.Profile,
	}
}

// defaultNickname is the local part of the email address.
func defaultNickname(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found || local == "" {
		return email
	}
	return local
}
