package confhall

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Role is the user's role
type Role = string

const (
	// RoleUser is a regular attendee or speaker account
	RoleUser Role = "USER"
	// RoleStaff is an organizer account, allowed on admin pages
	RoleStaff Role = "STAFF"
)

// IsValidRole checks if the role is one of the predefined valid roles
func IsValidRole(r Role) bool {
	switch r {
	case RoleUser, RoleStaff:
		return true
	default:
		return false
	}
}

// Link is an external profile link shown on the user's page.
type Link struct {
	Name string `bson:"name" json:"name"`
	URL  string `bson:"url" json:"url"`
}

// User is the persisted identity record. The email is stored encrypted
// and never in plaintext; EmailHash is the stable lookup key derived
// from the lowercased address.
type User struct {
	Login       string `bson:"_id" json:"login"`
	FirstName   string `bson:"firstname" json:"firstname"`
	LastName    string `bson:"lastname" json:"lastname"`
	Email       string `bson:"email" json:"-"`
	EmailHash   string `bson:"emailHash" json:"email_hash,omitempty"`
	Company     string `bson:"company,omitempty" json:"company,omitempty"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	PhotoURL    string `bson:"photoUrl,omitempty" json:"photo_url,omitempty"`
	Links       []Link `bson:"links,omitempty" json:"links,omitempty"`
	Role        Role   `bson:"role" json:"role"`

	// Token is the current entry token. It is meaningful only together
	// with TokenExpiration; an expired token is treated as absent.
	Token           string    `bson:"token,omitempty" json:"-"`
	TokenExpiration time.Time `bson:"tokenExpiration,omitempty" json:"-"`
}

// HasValidToken tells if the user carries a live token at the given instant.
// The expiration bound is exclusive: a token is rejected at exactly its
// expiration time.
func (u *User) HasValidToken(now time.Time) bool {
	return u.Token != "" && u.TokenExpiration.After(now)
}

// DefaultPhotoURL is assigned to accounts created through sign-up.
const DefaultPhotoURL = "/images/png/default-avatar.png"

var titleCaser = cases.Title(language.Und)

// NormalizeName lowercases then capitalizes a person name ("jOHN" -> "John").
func NormalizeName(name string) string {
	return titleCaser.String(strings.ToLower(strings.TrimSpace(name)))
}

// NormalizeEmail trims and lowercases an address before lookup or storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// LoginForEmail derives the login handle from the address local part.
func LoginForEmail(email string) string {
	return strings.SplitN(NormalizeEmail(email), "@", 2)[0]
}
