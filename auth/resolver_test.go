package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeIdentity struct {
	users   map[int64]int64 // external id -> user id
	touched map[int64]string
	fail    bool
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{users: make(map[int64]int64), touched: make(map[int64]string)}
}

func (f *fakeIdentity) LookupUserID(_ context.Context, externalID int64) (int64, bool, error) {
	if f.fail {
		return 0, false, errors.New("db down")
	}
	id, ok := f.users[externalID]
	return id, ok, nil
}

func (f *fakeIdentity) TouchCredential(_ context.Context, userID int64, fingerprint string) error {
	if f.fail {
		return errors.New("db down")
	}
	f.touched[userID] = fingerprint
	return nil
}

func newTestResolver(identity IdentityStore) (*Resolver, *MemoryCache) {
	cache := NewMemoryCache()
	r := NewResolver(cache, identity, time.Hour)
	return r, cache
}

func TestResolveUnknownUser(t *testing.T) {
	identity := newFakeIdentity()
	r, cache := newTestResolver(identity)

	sig := r.Resolve(context.Background(), 100)
	require.Equal(t, NotRegistered, sig)

	entry, err := cache.Get(context.Background(), 100)
	require.NoError(t, err)
	require.Nil(t, entry, "no cache entry may be created for unknown users")
}

func TestResolveBootstrapNeverAuthenticates(t *testing.T) {
	identity := newFakeIdentity()
	identity.users[100] = 1
	r, cache := newTestResolver(identity)

	sig := r.Resolve(context.Background(), 100)
	require.Equal(t, NotAuthenticated, sig)

	entry, err := cache.Get(context.Background(), 100)
	require.NoError(t, err)
	require.NotNil(t, entry, "bootstrap must repair the cache")
	require.NotEmpty(t, entry.Fingerprint)
	require.Zero(t, entry.LastSeen, "bootstrap entries are born stale")
	require.Equal(t, entry.Fingerprint, identity.touched[1])

	// Resolving again without a login must not self-upgrade.
	sig = r.Resolve(context.Background(), 100)
	require.Equal(t, NotAuthenticated, sig)
}

func TestResolveFreshnessWindow(t *testing.T) {
	identity := newFakeIdentity()
	identity.users[100] = 1
	r, cache := newTestResolver(identity)

	now := time.Unix(1_700_000_000, 0)
	r.now = func() time.Time { return now }

	require.NoError(t, cache.Put(context.Background(), 100, CacheEntry{
		Fingerprint: "fp",
		LastSeen:    now.Unix() - 30,
	}))
	require.Equal(t, Authenticated, r.Resolve(context.Background(), 100))

	// Outside the window: NotAuthenticated, entry left untouched.
	stale := CacheEntry{Fingerprint: "fp", LastSeen: now.Add(-2 * time.Hour).Unix()}
	require.NoError(t, cache.Put(context.Background(), 100, stale))
	require.Equal(t, NotAuthenticated, r.Resolve(context.Background(), 100))

	entry, err := cache.Get(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, stale, *entry, "stale entries are superseded only by explicit login")
}

func TestResolveMarkAuthenticated(t *testing.T) {
	identity := newFakeIdentity()
	identity.users[100] = 1
	r, _ := newTestResolver(identity)

	require.Equal(t, NotAuthenticated, r.Resolve(context.Background(), 100))
	require.NoError(t, r.MarkAuthenticated(context.Background(), 100, SynthesizeFingerprint()))
	require.Equal(t, Authenticated, r.Resolve(context.Background(), 100))
}

func TestResolveStoreFailure(t *testing.T) {
	identity := newFakeIdentity()
	identity.fail = true
	r, cache := newTestResolver(identity)

	require.Equal(t, TransientError, r.Resolve(context.Background(), 100))

	entry, err := cache.Get(context.Background(), 100)
	require.NoError(t, err)
	require.Nil(t, entry)
}

func TestSynthesizeFingerprintUnique(t *testing.T) {
	a := SynthesizeFingerprint()
	b := SynthesizeFingerprint()
	require.Len(t, a, 64)
	require.NotEqual(t, a, b)
}
