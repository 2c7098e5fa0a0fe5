package repofake

import (
	"context"
	"sync"
	"time"

	"github.com/lumen-media/lumen-server/users"
)

var _ users.Repo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users map[string]*users.User
	lock  sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users: make(map[string]*users.User),
	}
}

func (ur *FakeUserRepo) Create(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()
	copied := *user
	ur.users[user.ID] = &copied
	return nil
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	user, ok := ur.users[id]
	if !ok || user.DeletedAt != nil {
		return nil, users.UserNotFoundErr
	}
	copied := *user
	return &copied, nil
}

func (ur *FakeUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	for _, user := range ur.users {
		if user.Email == email && user.DeletedAt == nil {
			copied := *user
			return &copied, nil
		}
	}
	return nil, users.UserNotFoundErr
}

func (ur *FakeUserRepo) GetAdmin(_ context.Context) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	for _, user := range ur.users {
		if user.IsAdmin && user.DeletedAt == nil {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (ur *FakeUserRepo) List(_ context.Context) ([]*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	list := make([]*users.User, 0, len(ur.users))
	for _, user := range ur.users {
		if user.DeletedAt != nil {
			continue
		}
		copied := *user
		list = append(list, &copied)
	}
	return list, nil
}

func (ur *FakeUserRepo) Update(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, ok := ur.users[user.ID]; !ok {
		return users.UserNotFoundErr
	}
	copied := *user
	ur.users[user.ID] = &copied
	return nil
}

func (ur *FakeUserRepo) Delete(_ context.Context, id string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return users.UserNotFoundErr
	}
	now := time.Now()
	user.DeletedAt = &now
	user.Status = users.StatusDeleted
	return nil
}
