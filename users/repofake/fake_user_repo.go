package fakeuserrepo

import (
	"context"
	"sync"

	"github.com/hvella/go-session-server/users"
)

var _ users.Repo = (*FakeUserRepo)(nil)

// FakeUserRepo is an in-memory users.Repo for tests and local development.
// Returned records are copies, matching a real store's read-then-write
// semantics: mutating a returned *User never writes through.
type FakeUserRepo struct {
	users map[string]users.User // keyed by email
	lock  sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users: make(map[string]users.User),
	}
}

func (ur *FakeUserRepo) Create(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	ur.users[user.Email] = *user
	return nil
}

func (ur *FakeUserRepo) Upsert(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	ur.users[user.Email] = *user
	return nil
}

func (ur *FakeUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	user, ok := ur.users[email]
	if !ok {
		return nil, users.ErrNotFound
	}
	return &user, nil
}

func (ur *FakeUserRepo) SetRefreshToken(_ context.Context, email, refreshToken string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[email]
	if !ok {
		return users.ErrNotFound
	}
	user.RefreshToken = refreshToken
	ur.users[email] = user
	return nil
}

func (ur *FakeUserRepo) FindFederated(_ context.Context, name, email, googleID string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	for _, match := range []func(users.User) bool{
		func(u users.User) bool { return name != "" && u.Name == name },
		func(u users.User) bool { return email != "" && u.Email == email },
		func(u users.User) bool { return googleID != "" && u.GoogleID == googleID },
	} {
		for _, u := range ur.users {
			if match(u) {
				user := u
				return &user, nil
			}
		}
	}
	return nil, users.ErrNotFound
}
