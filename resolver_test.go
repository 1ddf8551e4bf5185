package confhall_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/confhall/confhall"
)

func seedUser(t *testing.T, store *memoryStore, crypto *confhall.Cryptographer, email, token string, expiration time.Time) *confhall.User {
	t.Helper()
	user := &confhall.User{
		Login:           confhall.LoginForEmail(email),
		Email:           crypto.Encrypt(email),
		EmailHash:       crypto.EmailHash(email),
		Role:            confhall.RoleUser,
		Token:           token,
		TokenExpiration: expiration,
	}
	saved, err := store.Save(context.Background(), user)
	require.NoError(t, err)
	return saved
}

func TestResolveAnonymousWhenSessionEmpty(t *testing.T) {
	crypto := newTestCrypto(t)
	resolver := confhall.NewSessionResolver(newMemoryStore(crypto),
		confhall.WithResolverLogger(noLogger{}))

	for _, state := range []confhall.SessionState{
		{},
		{Email: "jo@example.org"},
		{Token: "sometoken"},
	} {
		user, err := resolver.Resolve(context.Background(), state)
		require.NoError(t, err)
		assert.Nil(t, user)
	}
}

func TestResolveAnonymousWhenUserUnknown(t *testing.T) {
	crypto := newTestCrypto(t)
	resolver := confhall.NewSessionResolver(newMemoryStore(crypto),
		confhall.WithResolverLogger(noLogger{}))

	user, err := resolver.Resolve(context.Background(), confhall.SessionState{
		Email: "nobody@example.org",
		Token: "sometoken",
	})
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestResolveAnonymousOnTokenMismatch(t *testing.T) {
	crypto := newTestCrypto(t)
	store := newMemoryStore(crypto)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedUser(t, store, crypto, "jo@example.org", "aaaaaaaaaaaaaaaaaaaa", now.Add(time.Hour))

	resolver := confhall.NewSessionResolver(store,
		confhall.WithResolverClock(fixedClock(now)),
		confhall.WithResolverLogger(noLogger{}))

	// Comparison is exact, including case.
	for _, token := range []string{"bbbbbbbbbbbbbbbbbbbb", "AAAAAAAAAAAAAAAAAAAA", ""} {
		user, err := resolver.Resolve(context.Background(), confhall.SessionState{
			Email: "jo@example.org",
			Token: token,
		})
		require.NoError(t, err)
		assert.Nil(t, user, "token %q", token)
	}
}

func TestResolveAnonymousAtExpiration(t *testing.T) {
	crypto := newTestCrypto(t)
	store := newMemoryStore(crypto)
	expiration := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedUser(t, store, crypto, "jo@example.org", "aaaaaaaaaaaaaaaaaaaa", expiration)

	state := confhall.SessionState{Email: "jo@example.org", Token: "aaaaaaaaaaaaaaaaaaaa"}

	resolver := confhall.NewSessionResolver(store,
		confhall.WithResolverClock(fixedClock(expiration)),
		confhall.WithResolverLogger(noLogger{}))
	user, err := resolver.Resolve(context.Background(), state)
	require.NoError(t, err)
	assert.Nil(t, user)

	resolver = confhall.NewSessionResolver(store,
		confhall.WithResolverClock(fixedClock(expiration.Add(-time.Second))),
		confhall.WithResolverLogger(noLogger{}))
	user, err = resolver.Resolve(context.Background(), state)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "jo", user.Login)
}

func TestResolveReturnsVerifiedUser(t *testing.T) {
	crypto := newTestCrypto(t)
	store := newMemoryStore(crypto)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedUser(t, store, crypto, "jo@example.org", "aaaaaaaaaaaaaaaaaaaa", now.Add(48*time.Hour))

	resolver := confhall.NewSessionResolver(store,
		confhall.WithResolverClock(fixedClock(now)),
		confhall.WithResolverLogger(noLogger{}))

	user, err := resolver.Resolve(context.Background(), confhall.SessionState{
		Email: "jo@example.org",
		Token: "aaaaaaaaaaaaaaaaaaaa",
	})
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "jo", user.Login)
	assert.Equal(t, confhall.RoleUser, user.Role)
}

func TestResolvePropagatesStoreFailure(t *testing.T) {
	store := &MockUserStore{}
	store.On("FindByEmail", mock.Anything, "jo@example.org").Return(nil, assert.AnError)

	resolver := confhall.NewSessionResolver(store,
		confhall.WithResolverLogger(noLogger{}))

	_, err := resolver.Resolve(context.Background(), confhall.SessionState{
		Email: "jo@example.org",
		Token: "sometoken",
	})
	require.Error(t, err)
}
