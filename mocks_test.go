package confhall_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/mock"

	"github.com/confhall/confhall"
)

// MockUserStore implements confhall.UserStore
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) FindByEmail(ctx context.Context, email string) (*confhall.User, error) {
	args := m.Called(ctx, email)
	var user *confhall.User
	if u := args.Get(0); u != nil {
		user = u.(*confhall.User)
	}
	return user, args.Error(1)
}

func (m *MockUserStore) Save(ctx context.Context, user *confhall.User) (*confhall.User, error) {
	args := m.Called(ctx, user)
	var saved *confhall.User
	if u := args.Get(0); u != nil {
		saved = u.(*confhall.User)
	}
	return saved, args.Error(1)
}

// MockNotifier implements confhall.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, templateName, subject string, user *confhall.User, locale string) error {
	args := m.Called(ctx, templateName, subject, user, locale)
	return args.Error(0)
}

// memoryStore is an in-memory UserStore keyed the way the mongo
// repository is: lookups by email hash, writes by login.
type memoryStore struct {
	mu     sync.Mutex
	crypto *confhall.Cryptographer
	byHash map[string]*confhall.User
}

func newMemoryStore(crypto *confhall.Cryptographer) *memoryStore {
	return &memoryStore{
		crypto: crypto,
		byHash: map[string]*confhall.User{},
	}
}

func (s *memoryStore) FindByEmail(_ context.Context, email string) (*confhall.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byHash[s.crypto.EmailHash(email)]
	if !ok {
		return nil, confhall.ErrUserNotFound
	}

	clone := *user
	return &clone, nil
}

func (s *memoryStore) Save(_ context.Context, user *confhall.User) (*confhall.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *user
	s.byHash[user.EmailHash] = &clone
	return user, nil
}

func (s *memoryStore) mustGet(email string) *confhall.User {
	user, err := s.FindByEmail(context.Background(), email)
	if err != nil {
		panic("memoryStore: no user for " + email)
	}
	return user
}

// stubViews records every render so handler tests can assert on the
// view name and bound data without template files.
type stubViews struct {
	mu       sync.Mutex
	rendered []renderedView
}

type renderedView struct {
	name string
	data fiber.Map
}

func (v *stubViews) Load() error { return nil }

func (v *stubViews) Render(w io.Writer, name string, bind interface{}, _ ...string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	data, _ := bind.(fiber.Map)
	v.rendered = append(v.rendered, renderedView{name: name, data: data})

	_, err := io.WriteString(w, name)
	return err
}

func (v *stubViews) last() renderedView {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(v.rendered) == 0 {
		return renderedView{}
	}
	return v.rendered[len(v.rendered)-1]
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

// noLogger keeps test output quiet.
type noLogger struct{}

func (noLogger) Debug(string, ...any) {}
func (noLogger) Info(string, ...any)  {}
func (noLogger) Error(string, ...any) {}
