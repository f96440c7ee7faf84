// Package storage holds the durable session projection on disk. It is the
// only state shared outside the session manager's process: the route guard
// reads the credential record from here before the manager exists. Only the
// manager writes, and every write replaces the whole file, so a concurrent
// reader never sees a torn record.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/AsheeSoftworks/Authentication-Frontend-Boilerplate-Auth-Flow/session"
	"github.com/pkg/errors"
)

const (
	sessionFile = "session.json"
	tokenFile   = "auth-token.json"

	tokenPath     = "/"
	tokenSameSite = "lax"
)

// tokenRecord is the cookie-like credential entry the route guard reads.
type tokenRecord struct {
	Token     string    `json:"token"`
	Path      string    `json:"path"`
	SameSite  string    `json:"sameSite"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// FileStore persists the session projection and credential record under a
// state directory.
type FileStore struct {
	dir     string
	nowTime func() time.Time
	lock    sync.Mutex
}

var _ session.Store = (*FileStore)(nil)

// Option defines a function type to modify the FileStore instance.
type Option func(*FileStore)

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *FileStore) {
		s.nowTime = nowFunc
	}
}

// NewFileStore creates the state directory if needed and returns a store
// rooted there.
func NewFileStore(dir string, options ...Option) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "[NewFileStore] creating state directory")
	}
	store := &FileStore{dir: dir, nowTime: time.Now}
	for _, opt := range options {
		opt(store)
	}
	return store, nil
}

// LoadSession reads the persisted projection, or nil when absent.
func (s *FileStore) LoadSession() (*session.PersistedSession, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	data, err := os.ReadFile(filepath.Join(s.dir, sessionFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[FileStore.LoadSession] reading session file")
	}

	var persisted session.PersistedSession
	if err := json.Unmarshal(data, &persisted); err != nil {
		return nil, errors.Wrap(err, "[FileStore.LoadSession] decoding session file")
	}
	return &persisted, nil
}

// SaveSession replaces the persisted projection.
func (s *FileStore) SaveSession(persisted *session.PersistedSession) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.writeFile(sessionFile, persisted)
}

// DeleteSession removes the persisted projection. Absence is not an error.
func (s *FileStore) DeleteSession() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.removeFile(sessionFile)
}

// SaveToken replaces the credential record with the given expiry.
func (s *FileStore) SaveToken(token string, expiresAt time.Time) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.writeFile(tokenFile, tokenRecord{
		Token:     token,
		Path:      tokenPath,
		SameSite:  tokenSameSite,
		ExpiresAt: expiresAt,
	})
}

// DeleteToken removes the credential record. Absence is not an error.
func (s *FileStore) DeleteToken() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.removeFile(tokenFile)
}

// LoadToken returns the persisted credential, or "" when the record is
// absent or past its expiry. The route guard reads session state through
// this method alone.
func (s *FileStore) LoadToken() (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	data, err := os.ReadFile(filepath.Join(s.dir, tokenFile))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "[FileStore.LoadToken] reading token file")
	}

	var record tokenRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return "", errors.Wrap(err, "[FileStore.LoadToken] decoding token file")
	}
	if !record.ExpiresAt.IsZero() && record.ExpiresAt.Before(s.nowTime()) {
		return "", nil
	}
	return record.Token, nil
}

// writeFile replaces name atomically: encode to a temp file in the same
// directory, then rename over the target.
func (s *FileStore) writeFile(name string, value any) error {
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "[FileStore.writeFile] encoding %s", name)
	}

	target := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "[FileStore.writeFile] creating temp file for %s", name)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(encoded); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "[FileStore.writeFile] writing %s", name)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "[FileStore.writeFile] closing %s", name)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "[FileStore.writeFile] restricting %s", name)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "[FileStore.writeFile] replacing %s", name)
	}
	return nil
}

func (s *FileStore) removeFile(name string) error {
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "[FileStore.removeFile] removing %s", name)
	}
	return nil
}
