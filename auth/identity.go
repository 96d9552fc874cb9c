package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/adeilh/go-empdir/cache"
)

var ErrIdentityInvalidKey = errors.New("auth: invalid identity key")

const defaultIdentityPrefix = "identity"

// IdentityStore is the secondary identity channel: a persisted mapping from
// an opaque per-browser key to the current access token. It parallels the
// stateless token so browser clients keep continuity without managing the
// Authorization header themselves. Entries live exactly as long as the token
// they carry.
type IdentityStore struct {
	store  cache.Store
	prefix string
}

// IdentityStoreOptions configures the IdentityStore.
type IdentityStoreOptions struct {
	Prefix string
}

// NewIdentityStore wraps a cache.Store as the identity channel.
func NewIdentityStore(store cache.Store, opts IdentityStoreOptions) *IdentityStore {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = defaultIdentityPrefix
	}
	return &IdentityStore{store: store, prefix: prefix}
}

// NewKey generates a fresh opaque identity key for a new login.
func (s *IdentityStore) NewKey() string {
	return uuid.NewString()
}

// Save records the current token under the given key for ttl.
func (s *IdentityStore) Save(ctx context.Context, key, token string, ttl time.Duration) error {
	if key == "" {
		return ErrIdentityInvalidKey
	}
	return s.store.Set(ctx, s.key(key), []byte(token), ttl)
}

// Load returns the token recorded under key; cache.ErrNotFound when there is
// no live entry.
func (s *IdentityStore) Load(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrIdentityInvalidKey
	}
	payload, err := s.store.Get(ctx, s.key(key))
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

// Drop removes the entry for key; absent entries are not an error.
func (s *IdentityStore) Drop(ctx context.Context, key string) error {
	if key == "" {
		return ErrIdentityInvalidKey
	}
	if err := s.store.Delete(ctx, s.key(key)); err != nil && !errors.Is(err, cache.ErrNotFound) {
		return err
	}
	return nil
}

func (s *IdentityStore) key(id string) string {
	return s.prefix + ":" + id
}
