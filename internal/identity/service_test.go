package identity_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"medifinder/m/domain"
	"medifinder/m/internal/apperr"
	"medifinder/m/internal/dbtest"
	"medifinder/m/internal/identity"
)

func newService(t *testing.T) *identity.Service {
	return identity.NewService(dbtest.Open(t), identity.NewTokens("test-secret", time.Hour))
}

func TestSignupCreatesUser(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	res, err := svc.Signup(ctx, identity.SignupInput{Name: "Aline", Email: "aline@x.rw", Password: "secret1", Phone: " 0788 "})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.User.ID, "user-"))
	assert.Equal(t, domain.RoleUser, res.User.Role)
	assert.Empty(t, res.User.Password)
	assert.Equal(t, "0788", *res.User.Phone)
	assert.NotEmpty(t, res.User.CreatedAt)

	claims, err := svc.Tokens().Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, domain.RoleUser, claims.Role)
}

func TestSignupStoresBcryptHash(t *testing.T) {
	db := dbtest.Open(t)
	svc := identity.NewService(db, identity.NewTokens("k", time.Hour))

	res, err := svc.Signup(context.Background(), identity.SignupInput{Name: "A", Email: "a@x.rw", Password: "secret1"})
	require.NoError(t, err)

	var hash string
	require.NoError(t, db.Get(&hash, `SELECT password FROM users WHERE id = ?`, res.User.ID))
	assert.NotEqual(t, "secret1", hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("secret1")))
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, 10, cost)
}

func TestSignupValidation(t *testing.T) {
	svc := newService(t)

	cases := map[string]identity.SignupInput{
		"missing name":   {Email: "a@x.rw", Password: "secret1"},
		"missing email":  {Name: "A", Password: "secret1"},
		"short password": {Name: "A", Email: "a@x.rw", Password: "12345"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Signup(context.Background(), in)
			assert.True(t, apperr.Is(err, apperr.Validation), "got %v", err)
		})
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	in := identity.SignupInput{Name: "A", Email: "dup@x.rw", Password: "secret1"}

	_, err := svc.Signup(ctx, in)
	require.NoError(t, err)
	_, err = svc.Signup(ctx, in)
	assert.True(t, apperr.Is(err, apperr.Conflict))

	// matching is exact
	in.Email = "DUP@x.rw"
	_, err = svc.Signup(ctx, in)
	assert.NoError(t, err)
}

func TestCreateStaffLinksPharmacy(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.Pharmacy(t, db, domain.Pharmacy{ID: "ph-a", Name: "Alpha", Sector: "Kacyiru"})
	svc := identity.NewService(db, identity.NewTokens("test-secret", time.Hour))
	ctx := context.Background()

	staff, err := svc.CreateStaff(ctx, identity.SignupInput{Name: "Staff", Email: "s@ph.rw", Password: "secret1"}, "ph-a")
	require.NoError(t, err)
	assert.Equal(t, domain.RolePharmacy, staff.Role)
	require.NotNil(t, staff.PharmacyID)
	assert.Equal(t, "ph-a", *staff.PharmacyID)

	res, err := svc.Login(ctx, "s@ph.rw", "secret1")
	require.NoError(t, err)
	assert.Equal(t, domain.RolePharmacy, res.User.Role)

	_, err = svc.CreateStaff(ctx, identity.SignupInput{Name: "Other", Email: "o@ph.rw", Password: "secret1"}, "ph-missing")
	assert.True(t, apperr.Is(err, apperr.NotFound), "got %v", err)
	_, found, err := svc.UserByEmail(ctx, "o@ph.rw")
	require.NoError(t, err)
	assert.False(t, found)

	_, err = svc.CreateStaff(ctx, identity.SignupInput{Name: "Other", Email: "o@ph.rw", Password: "secret1"}, " ")
	assert.True(t, apperr.Is(err, apperr.Validation), "got %v", err)
}

func TestLogin(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	created, err := svc.Signup(ctx, identity.SignupInput{Name: "A", Email: "a@x.rw", Password: "secret1"})
	require.NoError(t, err)

	res, err := svc.Login(ctx, "a@x.rw", "secret1")
	require.NoError(t, err)
	assert.Equal(t, created.User.ID, res.User.ID)
	assert.Empty(t, res.User.Password)
	assert.NotEmpty(t, res.Token)

	_, wrongPassword := svc.Login(ctx, "a@x.rw", "nope")
	_, unknownEmail := svc.Login(ctx, "b@x.rw", "secret1")
	require.True(t, apperr.Is(wrongPassword, apperr.Authentication))
	require.True(t, apperr.Is(unknownEmail, apperr.Authentication))
	assert.Equal(t, apperr.MessageOf(wrongPassword, ""), apperr.MessageOf(unknownEmail, ""))
	assert.Equal(t, "Invalid email or password", apperr.MessageOf(unknownEmail, ""))

	_, err = svc.Login(ctx, "", "")
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestUserLookups(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	created, err := svc.Signup(ctx, identity.SignupInput{Name: "A", Email: "a@x.rw", Password: "secret1"})
	require.NoError(t, err)

	byID, found, err := svc.UserByID(ctx, created.User.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "a@x.rw", byID.Email)
	assert.Empty(t, byID.Password)

	byEmail, found, err := svc.UserByEmail(ctx, "a@x.rw")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, created.User.ID, byEmail.ID)
	assert.Empty(t, byEmail.Password)

	_, found, err = svc.UserByID(ctx, "user-missing")
	require.NoError(t, err)
	assert.False(t, found)
}
