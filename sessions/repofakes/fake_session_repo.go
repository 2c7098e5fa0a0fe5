package repofakes

import (
	"context"
	"sync"

	"github.com/lumen-media/lumen-server/sessions"
	"github.com/lumen-media/lumen-server/users"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

// FakeSessionRepo is an in-memory sessions.Repo. It records call counts and
// arguments for the lookup and update paths so tests can assert on exactly
// which bookkeeping writes the authentication engine issued.
type FakeSessionRepo struct {
	sessions map[string]*sessions.Session
	owners   map[string]users.User // session ID -> owning user
	users    users.Repo
	lock     sync.RWMutex

	getByTokenFingerprintCalls []string
	updateCalls                []updateCall
	updateErr                  error
}

type updateCall struct {
	id     string
	update sessions.Update
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{
		sessions: make(map[string]*sessions.Session),
		owners:   make(map[string]users.User),
	}
}

// Seed stores a session together with its owning user, bypassing Create so
// tests can install arbitrary records.
func (sr *FakeSessionRepo) Seed(session sessions.Session, owner users.User) {
	sr.lock.Lock()
	defer sr.lock.Unlock()
	copied := session
	sr.sessions[session.ID] = &copied
	sr.owners[session.ID] = owner
}

// ResolveOwnersWith makes fingerprint lookups resolve the owning user of
// sessions installed via Create from the given user repo, matching the
// production join. Sessions installed via Seed keep their seeded owner.
func (sr *FakeSessionRepo) ResolveOwnersWith(userRepo users.Repo) {
	sr.lock.Lock()
	defer sr.lock.Unlock()
	sr.users = userRepo
}

// UpdateReturns makes every subsequent Update call fail with err.
func (sr *FakeSessionRepo) UpdateReturns(err error) {
	sr.lock.Lock()
	defer sr.lock.Unlock()
	sr.updateErr = err
}

func (sr *FakeSessionRepo) GetByTokenFingerprintCallCount() int {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	return len(sr.getByTokenFingerprintCalls)
}

func (sr *FakeSessionRepo) UpdateCallCount() int {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	return len(sr.updateCalls)
}

func (sr *FakeSessionRepo) UpdateArgsForCall(i int) (string, sessions.Update) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	call := sr.updateCalls[i]
	return call.id, call.update
}

func (sr *FakeSessionRepo) Create(_ context.Context, session *sessions.Session) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()
	copied := *session
	sr.sessions[session.ID] = &copied
	return nil
}

func (sr *FakeSessionRepo) GetByTokenFingerprint(ctx context.Context, fingerprint string) (*sessions.SessionWithUser, error) {
	sr.lock.Lock()
	sr.getByTokenFingerprintCalls = append(sr.getByTokenFingerprintCalls, fingerprint)
	sr.lock.Unlock()

	sr.lock.RLock()
	defer sr.lock.RUnlock()
	for _, session := range sr.sessions {
		if session.TokenFingerprint != fingerprint {
			continue
		}
		owner, err := sr.resolveOwner(ctx, session)
		if err != nil {
			return nil, err
		}
		return &sessions.SessionWithUser{Session: *session, User: owner}, nil
	}
	return nil, sessions.SessionNotFoundErr
}

// resolveOwner mirrors the production store's session-user join: a session
// must always resolve together with its owning user. Callers must hold the
// read lock.
func (sr *FakeSessionRepo) resolveOwner(ctx context.Context, session *sessions.Session) (users.User, error) {
	if owner, ok := sr.owners[session.ID]; ok {
		return owner, nil
	}
	if sr.users != nil {
		owner, err := sr.users.GetByID(ctx, session.UserID)
		if err != nil {
			return users.User{}, sessions.SessionNotFoundErr
		}
		return *owner, nil
	}
	return users.User{ID: session.UserID}, nil
}

func (sr *FakeSessionRepo) Update(_ context.Context, id string, update sessions.Update) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	sr.updateCalls = append(sr.updateCalls, updateCall{id: id, update: update})
	if sr.updateErr != nil {
		return sr.updateErr
	}

	session, ok := sr.sessions[id]
	if !ok {
		return sessions.SessionNotFoundErr
	}
	if update.UpdatedAt != nil {
		session.UpdatedAt = *update.UpdatedAt
	}
	if update.PinExpiresAt != nil {
		pin := *update.PinExpiresAt
		session.PinExpiresAt = &pin
	}
	return nil
}

func (sr *FakeSessionRepo) Delete(_ context.Context, id string) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	if _, ok := sr.sessions[id]; !ok {
		return sessions.SessionNotFoundErr
	}
	delete(sr.sessions, id)
	delete(sr.owners, id)
	return nil
}

func (sr *FakeSessionRepo) ListByUser(_ context.Context, userID string) ([]*sessions.Session, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	list := make([]*sessions.Session, 0)
	for _, session := range sr.sessions {
		if session.UserID == userID {
			copied := *session
			list = append(list, &copied)
		}
	}
	return list, nil
}

func (sr *FakeSessionRepo) DeleteByUser(_ context.Context, userID string, exceptID string) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	for id, session := range sr.sessions {
		if session.UserID == userID && id != exceptID {
			delete(sr.sessions, id)
			delete(sr.owners, id)
		}
	}
	return nil
}
