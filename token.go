package confhall

import (
	"context"
	"strings"
	"time"

	errors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// DefaultTokenTTL is how long an entry token remains valid.
const DefaultTokenTTL = 48 * time.Hour

// tokenLength in hex characters; 20 gives 80 bits of entropy.
const tokenLength = 20

// TokenIssuer generates entry tokens, persists them on the user record
// and dispatches them through the Notifier. Issuing always supersedes
// any previous token; the store's last-writer-wins semantics make the
// most recently persisted token the only valid one.
type TokenIssuer struct {
	store    UserStore
	notifier Notifier
	crypto   *Cryptographer
	logger   Logger
	ttl      time.Duration
	now      func() time.Time
	generate func() string
}

// TokenIssuerOption customizes the issuer.
type TokenIssuerOption func(*TokenIssuer)

// WithTokenTTL overrides the default 48 hour expiration.
func WithTokenTTL(ttl time.Duration) TokenIssuerOption {
	return func(ti *TokenIssuer) {
		if ttl > 0 {
			ti.ttl = ttl
		}
	}
}

// WithIssuerClock injects a clock (useful for tests).
func WithIssuerClock(clock func() time.Time) TokenIssuerOption {
	return func(ti *TokenIssuer) {
		if clock != nil {
			ti.now = clock
		}
	}
}

// WithIssuerLogger overrides the fallback logger.
func WithIssuerLogger(logger Logger) TokenIssuerOption {
	return func(ti *TokenIssuer) {
		if logger != nil {
			ti.logger = logger
		}
	}
}

// WithTokenGenerator overrides token generation (useful for tests).
func WithTokenGenerator(generate func() string) TokenIssuerOption {
	return func(ti *TokenIssuer) {
		if generate != nil {
			ti.generate = generate
		}
	}
}

// NewTokenIssuer panics if store, notifier or crypto are nil.
func NewTokenIssuer(store UserStore, notifier Notifier, crypto *Cryptographer, opts ...TokenIssuerOption) *TokenIssuer {
	if store == nil {
		panic("store must be provided")
	}
	if notifier == nil {
		panic("notifier must be provided")
	}
	if crypto == nil {
		panic("crypto must be provided")
	}

	ti := &TokenIssuer{
		store:    store,
		notifier: notifier,
		crypto:   crypto,
		logger:   defLogger{},
		ttl:      DefaultTokenTTL,
		now:      time.Now,
		generate: generateToken,
	}

	for _, opt := range opts {
		opt(ti)
	}

	return ti
}

// Issue writes a fresh token and expiration on the user, re-encrypts the
// address for storage, persists the record, then emails the token.
// A notification failure is returned as ErrTokenSend; the record is
// already updated at that point, so the caller must report failure to
// the end user rather than a partial success.
func (ti *TokenIssuer) Issue(ctx context.Context, email string, user *User, locale string) (*User, error) {
	email = NormalizeEmail(email)

	updated := *user
	updated.Token = ti.generate()
	updated.TokenExpiration = ti.now().Add(ti.ttl)
	updated.Email = ti.crypto.Encrypt(email)
	updated.EmailHash = ti.crypto.EmailHash(email)

	saved, err := ti.store.Save(ctx, &updated)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "unable to persist entry token")
	}

	ti.logger.Info("entry token issued", "login", saved.Login, "expires", saved.TokenExpiration)

	subject := tokenEmailSubject(locale)
	if err := ti.notifier.Send(ctx, "email-token", subject, saved, locale); err != nil {
		ti.logger.Error("token email dispatch failed", "subject", subject, "recipient", email, "error", err)
		return nil, ErrTokenSend
	}

	return saved, nil
}

func generateToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:tokenLength]
}

func tokenEmailSubject(locale string) string {
	if strings.HasPrefix(locale, "fr") {
		return "Votre code de connexion"
	}
	return "Your sign-in code"
}
