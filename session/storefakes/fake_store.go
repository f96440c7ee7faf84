package storefakes

import (
	"sync"
	"time"

	"github.com/AsheeSoftworks/Authentication-Frontend-Boilerplate-Auth-Flow/session"
)

var _ session.Store = (*FakeStore)(nil)

// FakeStore is an in-memory session.Store. Error fields, when set, are
// returned by the corresponding method so tests can exercise store faults.
type FakeStore struct {
	lock sync.Mutex

	persisted      *session.PersistedSession
	token          string
	tokenExpiresAt time.Time

	LoadSessionErr   error
	SaveSessionErr   error
	DeleteSessionErr error
	SaveTokenErr     error
	DeleteTokenErr   error

	saveSessionCalls int
}

func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

func (f *FakeStore) LoadSession() (*session.PersistedSession, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.LoadSessionErr != nil {
		return nil, f.LoadSessionErr
	}
	if f.persisted == nil {
		return nil, nil
	}
	copied := *f.persisted
	return &copied, nil
}

func (f *FakeStore) SaveSession(persisted *session.PersistedSession) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.saveSessionCalls++
	if f.SaveSessionErr != nil {
		return f.SaveSessionErr
	}
	copied := *persisted
	f.persisted = &copied
	return nil
}

func (f *FakeStore) DeleteSession() error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.DeleteSessionErr != nil {
		return f.DeleteSessionErr
	}
	f.persisted = nil
	return nil
}

func (f *FakeStore) SaveToken(token string, expiresAt time.Time) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.SaveTokenErr != nil {
		return f.SaveTokenErr
	}
	f.token = token
	f.tokenExpiresAt = expiresAt
	return nil
}

func (f *FakeStore) DeleteToken() error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.DeleteTokenErr != nil {
		return f.DeleteTokenErr
	}
	f.token = ""
	f.tokenExpiresAt = time.Time{}
	return nil
}

// Persisted returns the stored projection, or nil.
func (f *FakeStore) Persisted() *session.PersistedSession {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.persisted == nil {
		return nil
	}
	copied := *f.persisted
	return &copied
}

// Token returns the stored credential record.
func (f *FakeStore) Token() (string, time.Time) {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.token, f.tokenExpiresAt
}

// SaveSessionCallCount returns how many times SaveSession ran.
func (f *FakeStore) SaveSessionCallCount() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.saveSessionCalls
}
