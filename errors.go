package confhall

import (
	errors "github.com/goliatone/go-errors"
)

// Text codes are the resource keys resolved to user-facing copy by the
// message bundles; handlers render them, they never reach logs as such.
const (
	TextCodeEmailRequired  = "login.error.text"
	TextCodeEmailInvalid   = "login.error.creation.mail"
	TextCodeFieldRequired  = "login.error.field.text"
	TextCodeSignInRequired = "login.error.required.text"
	TextCodeEmailTaken     = "login.error.uniqueemail.text"
	TextCodeCreationFailed = "login.error.creation.text"
	TextCodeUnknownEmail   = "login.error.bademail.text"
	TextCodeBadToken       = "login.error.badtoken.text"
	TextCodeExpiredToken   = "login.error.token.text"
	TextCodeSendFailed     = "login.error.sendtoken.text"
)

// ErrEmailRequired is returned when the login form carries no email.
var ErrEmailRequired = errors.New("email is required", errors.CategoryValidation).
	WithTextCode(TextCodeEmailRequired).
	WithCode(errors.CodeBadRequest)

// ErrEmailInvalid is returned for a syntactically invalid address.
var ErrEmailInvalid = errors.New("email is not a valid address", errors.CategoryValidation).
	WithTextCode(TextCodeEmailInvalid).
	WithCode(errors.CodeBadRequest)

// ErrFieldRequired is returned when sign-up misses one of its fields.
var ErrFieldRequired = errors.New("email, first name and last name are required", errors.CategoryValidation).
	WithTextCode(TextCodeFieldRequired).
	WithCode(errors.CodeBadRequest)

// ErrSignInRequired is returned when sign-in misses email or token.
var ErrSignInRequired = errors.New("email and token are required", errors.CategoryValidation).
	WithTextCode(TextCodeSignInRequired).
	WithCode(errors.CodeBadRequest)

// ErrEmailTaken is returned when sign-up reuses a registered address.
var ErrEmailTaken = errors.New("email already used", errors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(errors.CodeConflict)

// ErrUserCreation is returned when the new account cannot be persisted.
var ErrUserCreation = errors.New("unable to create account", errors.CategoryInternal).
	WithTextCode(TextCodeCreationFailed).
	WithCode(errors.CodeInternal)

// ErrUserNotFound is returned when no account matches the address.
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUnknownEmail).
	WithCode(errors.CodeNotFound)

// ErrBadToken is returned when the submitted token does not match the
// persisted one.
var ErrBadToken = errors.New("token mismatch", errors.CategoryAuth).
	WithTextCode(TextCodeBadToken).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned when the token matches but has lapsed.
var ErrTokenExpired = errors.New("token expired", errors.CategoryAuth).
	WithTextCode(TextCodeExpiredToken).
	WithCode(errors.CodeUnauthorized)

// ErrTokenSend is returned when the token email could not be dispatched.
// The token is already persisted at that point; the outcome is still
// reported as a failure to the user.
var ErrTokenSend = errors.New("unable to send the entry token", errors.CategoryOperation).
	WithTextCode(TextCodeSendFailed).
	WithCode(errors.CodeInternal)

// ErrDecode is returned for malformed ciphertext or URL encoding.
// Callers treat it as "identity not resolvable", never as a fault.
var ErrDecode = errors.New("unable to decode credential", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest)

// TextCodeOf extracts the resource key carried by an error, if any.
func TextCodeOf(err error) string {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode
	}
	return ""
}
