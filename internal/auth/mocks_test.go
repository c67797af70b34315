// AngelaMos | 2026
// mocks_test.go

package auth

import (
	"context"
	"time"

	"github.com/carterperez-dev/templates/identity-service/internal/core"
	"github.com/carterperez-dev/templates/identity-service/internal/session"
)

type fakeUsers struct {
	byID map[string]*UserInfo
	err  error
}

func newFakeUsers(users ...*UserInfo) *fakeUsers {
	f := &fakeUsers{byID: make(map[string]*UserInfo)}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*UserInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byID {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*UserInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	u, ok := f.byID[userID]
	if !ok {
		return core.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

type fakeSessions struct {
	created        []string
	invalidated    []string
	invalidatedAll []string
	err            error
}

func (f *fakeSessions) Create(_ context.Context, userID string) (*session.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, userID)
	return &session.Session{
		Token:     "token-" + userID,
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func (f *fakeSessions) Invalidate(_ context.Context, token string) error {
	if f.err != nil {
		return f.err
	}
	f.invalidated = append(f.invalidated, token)
	return nil
}

func (f *fakeSessions) InvalidateAll(_ context.Context, userID string) error {
	if f.err != nil {
		return f.err
	}
	f.invalidatedAll = append(f.invalidatedAll, userID)
	return nil
}
