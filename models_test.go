package confhall_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/confhall/confhall"
)

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "Jo", confhall.NormalizeName("jO"))
	assert.Equal(t, "Do", confhall.NormalizeName("DO"))
	assert.Equal(t, "Jean Claude", confhall.NormalizeName("  jEAN cLAUDE "))
	assert.Equal(t, "", confhall.NormalizeName("   "))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@x.com", confhall.NormalizeEmail("  A@X.Com "))
}

func TestLoginForEmail(t *testing.T) {
	assert.Equal(t, "a", confhall.LoginForEmail("A@x.com"))
	assert.Equal(t, "guillaume.smith", confhall.LoginForEmail("Guillaume.Smith@example.org"))
}

func TestHasValidTokenBoundary(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	user := &confhall.User{Token: "tok", TokenExpiration: now.Add(48 * time.Hour)}

	assert.True(t, user.HasValidToken(now))
	assert.True(t, user.HasValidToken(now.Add(48*time.Hour-time.Second)))
	// The bound is exclusive: rejected at exactly the expiration time.
	assert.False(t, user.HasValidToken(now.Add(48*time.Hour)))
	assert.False(t, user.HasValidToken(now.Add(49*time.Hour)))
}

func TestHasValidTokenRequiresToken(t *testing.T) {
	now := time.Now()
	user := &confhall.User{TokenExpiration: now.Add(time.Hour)}
	assert.False(t, user.HasValidToken(now))
}

func TestIsValidRole(t *testing.T) {
	assert.True(t, confhall.IsValidRole(confhall.RoleUser))
	assert.True(t, confhall.IsValidRole(confhall.RoleStaff))
	assert.False(t, confhall.IsValidRole("ADMIN"))
	assert.False(t, confhall.IsValidRole(""))
}
