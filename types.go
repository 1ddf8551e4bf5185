package confhall

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// UserStore is the persistence collaborator. Implementations provide
// single-document atomicity per Save; nothing more is assumed.
type UserStore interface {
	// FindByEmail returns the user whose encrypted email matches the
	// given plaintext address, or ErrUserNotFound.
	FindByEmail(ctx context.Context, email string) (*User, error)
	// Save persists the user record, overwriting any previous version.
	Save(ctx context.Context, user *User) (*User, error)
}

// Notifier delivers the entry token out of band. Failures are reported
// to the caller, never retried internally.
type Notifier interface {
	Send(ctx context.Context, templateName, subject string, user *User, locale string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] CONFHALL "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] CONFHALL "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] CONFHALL "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
