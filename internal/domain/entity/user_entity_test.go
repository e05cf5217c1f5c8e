package entity_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-identity-docstore/internal/domain"
	"github.com/oksasatya/go-identity-docstore/internal/domain/entity"
	"github.com/oksasatya/go-identity-docstore/internal/domain/repository"
)

func newUser(t *testing.T) *entity.User {
	t.Helper()
	u, err := entity.NewUser("ana")
	require.NoError(t, err)
	return u
}

func TestNewUser_RequiresUserName(t *testing.T) {
	_, err := entity.NewUser("")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	u := newUser(t)
	assert.Equal(t, "ana", u.UserName)
	assert.Empty(t, u.ID())
	assert.NotNil(t, u.Logins)
	assert.NotNil(t, u.Claims)
}

func TestUser_AddLogin_RejectsDuplicatePair(t *testing.T) {
	u := newUser(t)
	require.NoError(t, u.AddLogin(entity.NewLogin("google", "123", "Google")))

	err := u.AddLogin(entity.NewLogin("google", "123", "other display"))
	assert.ErrorIs(t, err, domain.ErrDuplicateLogin)
	assert.Len(t, u.Logins, 1)

	// same key at another provider is a different login
	require.NoError(t, u.AddLogin(entity.NewLogin("github", "123", "")))
	assert.Len(t, u.Logins, 2)
}

func TestUser_AddLogin_RejectsUnsetLogin(t *testing.T) {
	u := newUser(t)
	assert.ErrorIs(t, u.AddLogin(entity.Login{LoginProvider: "google"}), domain.ErrInvalidArgument)
	assert.ErrorIs(t, u.AddLogin(entity.Login{}), domain.ErrInvalidArgument)
	assert.Empty(t, u.Logins)
}

func TestUser_RejectsAmbiguousTermParts(t *testing.T) {
	u := newUser(t)
	assert.ErrorIs(t, u.AddLogin(entity.NewLogin("x\x1fy", "z", "")), domain.ErrInvalidArgument)
	assert.ErrorIs(t, u.AddLogin(entity.NewLogin("x", "y\x1fz", "")), domain.ErrInvalidArgument)
	assert.ErrorIs(t, u.AddClaim(entity.NewClaim("p\x1fq", "r")), domain.ErrInvalidArgument)
	assert.ErrorIs(t, u.AddClaim(entity.NewClaim("p", "q\x1fr")), domain.ErrInvalidArgument)
	assert.Empty(t, u.Logins)
	assert.Empty(t, u.Claims)

	require.NoError(t, u.CheckTerms("op"))
	u.Claims = []entity.Claim{entity.NewClaim("p", "q\x1fr")}
	assert.ErrorIs(t, u.CheckTerms("op"), domain.ErrInvalidArgument)
}

func TestUser_RemoveLogin(t *testing.T) {
	u := newUser(t)
	require.NoError(t, u.AddLogin(entity.NewLogin("google", "1", "")))
	require.NoError(t, u.AddLogin(entity.NewLogin("google", "2", "")))

	u.RemoveLogin("google", "404")
	assert.Len(t, u.Logins, 2)

	u.RemoveLogin("google", "1")
	require.Len(t, u.Logins, 1)
	assert.Equal(t, "2", u.Logins[0].ProviderKey)

	_, ok := u.FindLogin("google", "1")
	assert.False(t, ok)
	l, ok := u.FindLogin("google", "2")
	assert.True(t, ok)
	assert.Equal(t, "google", l.LoginProvider)
}

func TestUser_Claims_AddAndRemoveFirstMatch(t *testing.T) {
	u := newUser(t)
	admin := entity.NewClaim("role", "admin")
	require.NoError(t, u.AddClaim(admin))
	require.NoError(t, u.AddClaim(entity.NewClaim("dept", "ops")))
	require.NoError(t, u.AddClaim(admin))

	u.RemoveClaim(admin)
	assert.Equal(t, []entity.Claim{entity.NewClaim("dept", "ops"), admin}, u.Claims)

	// round trip restores the original list
	require.NoError(t, u.AddClaim(entity.NewClaim("x", "y")))
	u.RemoveClaim(entity.NewClaim("x", "y"))
	assert.Equal(t, []entity.Claim{entity.NewClaim("dept", "ops"), admin}, u.Claims)

	assert.ErrorIs(t, u.AddClaim(entity.Claim{Value: "v"}), domain.ErrInvalidArgument)
}

func TestUser_Snapshots_AreCopies(t *testing.T) {
	u := newUser(t)
	require.NoError(t, u.AddLogin(entity.NewLogin("google", "1", "")))
	require.NoError(t, u.AddClaim(entity.NewClaim("role", "admin")))

	logins := u.LoginsSnapshot()
	logins[0].ProviderKey = "changed"
	claims := u.ClaimsSnapshot()
	claims[0].Value = "changed"

	assert.Equal(t, "1", u.Logins[0].ProviderKey)
	assert.Equal(t, "admin", u.Claims[0].Value)
}

func TestUser_Normalize_DropsDefaultValueObjects(t *testing.T) {
	u := newUser(t)
	u.Email = &entity.Email{}
	u.Phone = &entity.Phone{}
	u.Lockout = &entity.Lockout{}
	u.Normalize()
	assert.Nil(t, u.Email)
	assert.Nil(t, u.Phone)
	assert.Nil(t, u.Lockout)

	u.Lockout = &entity.Lockout{AccessFailedCount: 1}
	u.Email = entity.NewEmail("ana@x.com")
	u.Normalize()
	assert.NotNil(t, u.Lockout)
	assert.NotNil(t, u.Email)
}

func TestUser_AssignDocumentID_OnlyOnce(t *testing.T) {
	u := newUser(t)
	u.AssignDocumentID("users/1")
	u.AssignDocumentID("users/2")
	assert.Equal(t, "users/1", u.ID())
}

func TestUser_IndexTerms(t *testing.T) {
	u := newUser(t)
	u.NormalizedUserName = "ANA"
	u.Email = &entity.Email{Address: "ana@x.com", NormalizedAddress: "ANA@X.COM"}
	require.NoError(t, u.AddLogin(entity.NewLogin("google", "123", "")))
	require.NoError(t, u.AddClaim(entity.NewClaim("role", "admin")))

	assert.Equal(t, []string{
		"name:ANA",
		"email:ANA@X.COM",
		"login:google\x1f123",
		"claim:role\x1fadmin",
	}, keys(u))
}

func TestUser_JSONRoundTrip(t *testing.T) {
	confirmed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	u := newUser(t)
	u.AssignDocumentID("users/1")
	u.SetDocumentVersion(3)
	u.NormalizedUserName = "ANA"
	u.Email = &entity.Email{Address: "ana@x.com", NormalizedAddress: "ANA@X.COM", ConfirmationTime: &confirmed}
	require.NoError(t, u.AddLogin(entity.NewLogin("google", "123", "Google")))

	b, err := json.Marshal(u)
	require.NoError(t, err)

	var got entity.User
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "users/1", got.ID())
	assert.Equal(t, int64(3), got.DocumentVersion())
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, u.Logins, got.Logins)
	assert.NotNil(t, got.Claims)
	assert.True(t, got.Email.IsConfirmed())
}

func TestUser_UnmarshalJSON_EmptyCollections(t *testing.T) {
	var u entity.User
	require.NoError(t, json.Unmarshal([]byte(`{"id":"users/9","userName":"bo"}`), &u))
	assert.Equal(t, "users/9", u.ID())
	assert.Equal(t, []entity.Login{}, u.Logins)
	assert.Equal(t, []entity.Claim{}, u.Claims)
}

func keys(d repository.Document) []string {
	out := []string{}
	for _, t := range d.IndexTerms() {
		out = append(out, t.Key())
	}
	return out
}
