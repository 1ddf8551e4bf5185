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

func TestIssueGeneratesAndPersistsToken(t *testing.T) {
	crypto := newTestCrypto(t)
	store := newMemoryStore(crypto)
	notifier := &MockNotifier{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	notifier.On("Send", mock.Anything, "email-token", "Your sign-in code", mock.Anything, "en").
		Return(nil)

	issuer := confhall.NewTokenIssuer(store, notifier, crypto,
		confhall.WithIssuerClock(fixedClock(now)),
		confhall.WithIssuerLogger(noLogger{}),
	)

	user := &confhall.User{Login: "jo", FirstName: "Jo", Role: confhall.RoleUser}
	saved, err := issuer.Issue(context.Background(), "Jo@Example.org", user, "en")
	require.NoError(t, err)

	assert.Len(t, saved.Token, 20)
	assert.Equal(t, now.Add(48*time.Hour), saved.TokenExpiration)

	// The stored address is re-encrypted and findable through its hash.
	stored := store.mustGet("jo@example.org")
	assert.Equal(t, saved.Token, stored.Token)
	email, err := crypto.Decrypt(stored.Email)
	require.NoError(t, err)
	assert.Equal(t, "jo@example.org", email)

	// The caller's record is untouched.
	assert.Empty(t, user.Token)

	notifier.AssertExpectations(t)
}

func TestIssueSupersedesPreviousToken(t *testing.T) {
	crypto := newTestCrypto(t)
	store := newMemoryStore(crypto)
	notifier := &MockNotifier{}
	notifier.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil)

	tokens := []string{"aaaaaaaaaaaaaaaaaaaa", "bbbbbbbbbbbbbbbbbbbb"}
	next := 0
	issuer := confhall.NewTokenIssuer(store, notifier, crypto,
		confhall.WithIssuerLogger(noLogger{}),
		confhall.WithTokenGenerator(func() string {
			tok := tokens[next]
			next++
			return tok
		}),
	)

	user := &confhall.User{Login: "jo"}
	_, err := issuer.Issue(context.Background(), "jo@example.org", user, "en")
	require.NoError(t, err)
	_, err = issuer.Issue(context.Background(), "jo@example.org", user, "en")
	require.NoError(t, err)

	// Last writer wins: only the second token remains valid.
	stored := store.mustGet("jo@example.org")
	assert.Equal(t, "bbbbbbbbbbbbbbbbbbbb", stored.Token)
}

func TestIssueReturnsSendFailureAfterPersisting(t *testing.T) {
	crypto := newTestCrypto(t)
	store := newMemoryStore(crypto)
	notifier := &MockNotifier{}
	notifier.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(assert.AnError)

	issuer := confhall.NewTokenIssuer(store, notifier, crypto,
		confhall.WithIssuerLogger(noLogger{}),
	)

	_, err := issuer.Issue(context.Background(), "jo@example.org", &confhall.User{Login: "jo"}, "en")
	require.ErrorIs(t, err, confhall.ErrTokenSend)

	// The token was written before the dispatch attempt.
	stored := store.mustGet("jo@example.org")
	assert.NotEmpty(t, stored.Token)
}

func TestIssueReturnsStoreFailure(t *testing.T) {
	crypto := newTestCrypto(t)
	store := &MockUserStore{}
	store.On("Save", mock.Anything, mock.Anything).Return(nil, assert.AnError)
	notifier := &MockNotifier{}

	issuer := confhall.NewTokenIssuer(store, notifier, crypto,
		confhall.WithIssuerLogger(noLogger{}),
	)

	_, err := issuer.Issue(context.Background(), "jo@example.org", &confhall.User{Login: "jo"}, "en")
	require.Error(t, err)
	notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIssueUsesFrenchSubjectForFrenchLocale(t *testing.T) {
	crypto := newTestCrypto(t)
	store := newMemoryStore(crypto)
	notifier := &MockNotifier{}
	notifier.On("Send", mock.Anything, "email-token", "Votre code de connexion", mock.Anything, "fr").
		Return(nil)

	issuer := confhall.NewTokenIssuer(store, notifier, crypto,
		confhall.WithIssuerLogger(noLogger{}),
	)

	_, err := issuer.Issue(context.Background(), "jo@example.org", &confhall.User{Login: "jo"}, "fr")
	require.NoError(t, err)
	notifier.AssertExpectations(t)
}

func TestIssueHonorsCustomTTL(t *testing.T) {
	crypto := newTestCrypto(t)
	store := newMemoryStore(crypto)
	notifier := &MockNotifier{}
	notifier.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	issuer := confhall.NewTokenIssuer(store, notifier, crypto,
		confhall.WithTokenTTL(time.Hour),
		confhall.WithIssuerClock(fixedClock(now)),
		confhall.WithIssuerLogger(noLogger{}),
	)

	saved, err := issuer.Issue(context.Background(), "jo@example.org", &confhall.User{Login: "jo"}, "en")
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), saved.TokenExpiration)
}

func TestNewTokenIssuerPanicsOnMissingDeps(t *testing.T) {
	crypto := newTestCrypto(t)
	store := newMemoryStore(crypto)
	notifier := &MockNotifier{}

	assert.Panics(t, func() { confhall.NewTokenIssuer(nil, notifier, crypto) })
	assert.Panics(t, func() { confhall.NewTokenIssuer(store, nil, crypto) })
	assert.Panics(t, func() { confhall.NewTokenIssuer(store, notifier, nil) })
}
