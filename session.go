package confhall

import (
	"github.com/gofiber/fiber/v2/middleware/session"
)

// Session attribute keys. Values are the advisory cache of the last
// successful sign-in; authority stays with the persisted user record.
const (
	SessionKeyEmail = "email"
	SessionKeyLogin = "login"
	SessionKeyToken = "token"
	SessionKeyRole  = "role"

	// SessionKeyLocaleRedirect is the one-shot flag marking that the
	// localized-root redirect has already been offered this session.
	SessionKeyLocaleRedirect = "redirectDone"
)

// SessionState is an immutable snapshot of the auth-related session
// attributes taken at the start of a request.
type SessionState struct {
	Email            string
	Login            string
	Token            string
	Role             Role
	LocaleRedirected bool
}

// SnapshotSession reads the auth attributes out of a fiber session.
func SnapshotSession(sess *session.Session) SessionState {
	state := SessionState{}
	if sess == nil {
		return state
	}

	state.Email, _ = sess.Get(SessionKeyEmail).(string)
	state.Login, _ = sess.Get(SessionKeyLogin).(string)
	state.Token, _ = sess.Get(SessionKeyToken).(string)
	state.Role, _ = sess.Get(SessionKeyRole).(string)
	state.LocaleRedirected, _ = sess.Get(SessionKeyLocaleRedirect).(bool)

	return state
}

// ClearSession removes every auth attribute; logging out an anonymous
// session is a no-op.
func ClearSession(sess *session.Session) {
	if sess == nil {
		return
	}
	sess.Delete(SessionKeyEmail)
	sess.Delete(SessionKeyLogin)
	sess.Delete(SessionKeyToken)
	sess.Delete(SessionKeyRole)
}
