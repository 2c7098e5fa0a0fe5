package repofake

import (
	"context"
	"sync"

	"github.com/lumen-media/lumen-server/apikeys"
	"github.com/lumen-media/lumen-server/users"
)

var _ apikeys.Repo = (*FakeAPIKeyRepo)(nil)

type FakeAPIKeyRepo struct {
	keys   map[string]*apikeys.APIKey
	owners map[string]users.User // key ID -> owning user
	users  users.Repo
	lock   sync.RWMutex
}

func NewFakeAPIKeyRepo() *FakeAPIKeyRepo {
	return &FakeAPIKeyRepo{
		keys:   make(map[string]*apikeys.APIKey),
		owners: make(map[string]users.User),
	}
}

// ResolveOwnersWith makes fingerprint lookups resolve the owning user of keys
// installed via Create from the given user repo, matching the production
// join. Keys installed via Seed keep their seeded owner.
func (kr *FakeAPIKeyRepo) ResolveOwnersWith(userRepo users.Repo) {
	kr.lock.Lock()
	defer kr.lock.Unlock()
	kr.users = userRepo
}

// Seed stores a key together with its owning user, bypassing Create so tests
// can install arbitrary records.
func (kr *FakeAPIKeyRepo) Seed(key apikeys.APIKey, owner users.User) {
	kr.lock.Lock()
	defer kr.lock.Unlock()
	copied := key
	kr.keys[key.ID] = &copied
	kr.owners[key.ID] = owner
}

func (kr *FakeAPIKeyRepo) Create(_ context.Context, key *apikeys.APIKey) error {
	kr.lock.Lock()
	defer kr.lock.Unlock()
	copied := *key
	kr.keys[key.ID] = &copied
	return nil
}

func (kr *FakeAPIKeyRepo) GetByKeyFingerprint(ctx context.Context, fingerprint string) (*apikeys.KeyWithUser, error) {
	kr.lock.RLock()
	defer kr.lock.RUnlock()

	for _, key := range kr.keys {
		if key.KeyFingerprint != fingerprint {
			continue
		}
		owner, err := kr.resolveOwner(ctx, key)
		if err != nil {
			return nil, err
		}
		return &apikeys.KeyWithUser{APIKey: *key, User: owner}, nil
	}
	return nil, apikeys.KeyNotFoundErr
}

// resolveOwner mirrors the production store's key-user join: a key always
// resolves together with its owning user. Callers must hold the read lock.
func (kr *FakeAPIKeyRepo) resolveOwner(ctx context.Context, key *apikeys.APIKey) (users.User, error) {
	if owner, ok := kr.owners[key.ID]; ok {
		return owner, nil
	}
	if kr.users != nil {
		owner, err := kr.users.GetByID(ctx, key.UserID)
		if err != nil {
			return users.User{}, apikeys.KeyNotFoundErr
		}
		return *owner, nil
	}
	return users.User{ID: key.UserID}, nil
}

func (kr *FakeAPIKeyRepo) ListByUser(_ context.Context, userID string) ([]*apikeys.APIKey, error) {
	kr.lock.RLock()
	defer kr.lock.RUnlock()

	list := make([]*apikeys.APIKey, 0)
	for _, key := range kr.keys {
		if key.UserID == userID {
			copied := *key
			list = append(list, &copied)
		}
	}
	return list, nil
}

func (kr *FakeAPIKeyRepo) Delete(_ context.Context, id string) error {
	kr.lock.Lock()
	defer kr.lock.Unlock()

	if _, ok := kr.keys[id]; !ok {
		return apikeys.KeyNotFoundErr
	}
	delete(kr.keys, id)
	delete(kr.owners, id)
	return nil
}
