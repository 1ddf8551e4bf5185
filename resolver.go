package confhall

import (
	"context"
	"time"

	errors "github.com/goliatone/go-errors"
)

// SessionResolver turns a session snapshot into a verified identity.
// It is re-run on every request; there is no trust-on-first-use cache.
type SessionResolver struct {
	store  UserStore
	logger Logger
	now    func() time.Time
}

// SessionResolverOption customizes the resolver.
type SessionResolverOption func(*SessionResolver)

// WithResolverClock injects a clock (useful for tests).
func WithResolverClock(clock func() time.Time) SessionResolverOption {
	return func(r *SessionResolver) {
		if clock != nil {
			r.now = clock
		}
	}
}

// WithResolverLogger overrides the fallback logger.
func WithResolverLogger(logger Logger) SessionResolverOption {
	return func(r *SessionResolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewSessionResolver panics if store is nil.
func NewSessionResolver(store UserStore, opts ...SessionResolverOption) *SessionResolver {
	if store == nil {
		panic("store must be provided")
	}

	r := &SessionResolver{
		store:  store,
		logger: defLogger{},
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve returns the verified user for the session, or nil for an
// anonymous request. A verified identity requires the session to carry
// both email and token, the persisted record to exist, the stored token
// to match exactly and its expiration to be strictly in the future.
// Any mismatch yields anonymous, never a partial identity.
func (r *SessionResolver) Resolve(ctx context.Context, state SessionState) (*User, error) {
	if state.Email == "" || state.Token == "" {
		return nil, nil
	}

	user, err := r.store.FindByEmail(ctx, state.Email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "unable to load session user")
	}

	if user.Token != state.Token || !user.HasValidToken(r.now()) {
		return nil, nil
	}

	return user, nil
}
