// AngelaMos | 2026
// mocks_test.go

package access

import (
	"context"
	"time"

	"github.com/carterperez-dev/templates/identity-service/internal/core"
	"github.com/carterperez-dev/templates/identity-service/internal/session"
)

type fakeSessions struct {
	sessions map[string]string
	err      error
	calls    int
}

func (f *fakeSessions) Resolve(_ context.Context, token string) (*session.Session, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	uid, ok := f.sessions[token]
	if !ok {
		return nil, session.ErrNoSession
	}
	return &session.Session{
		Token:     token,
		UserID:    uid,
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

type fakeAccounts struct {
	accounts map[string]*Account
	err      error
}

func (f *fakeAccounts) LoadAccount(_ context.Context, id string) (*Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	acct, ok := f.accounts[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *acct
	return &copied, nil
}

type fakePerms struct {
	levels map[string]int
	perms  map[string][]string
	err    error
}

func (f *fakePerms) LevelOf(_ context.Context, uid string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.levels[uid], nil
}

func (f *fakePerms) holds(uid, name string) bool {
	for _, p := range f.perms[uid] {
		if p == name {
			return true
		}
	}
	return false
}

func (f *fakePerms) HasAllPermissions(_ context.Context, uid string, names []string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, n := range names {
		if !f.holds(uid, n) {
			return false, nil
		}
	}
	return true, nil
}

func (f *fakePerms) HasAnyPermission(_ context.Context, uid string, names []string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, n := range names {
		if f.holds(uid, n) {
			return true, nil
		}
	}
	return false, nil
}
