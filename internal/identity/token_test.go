package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medifinder/m/domain"
	"medifinder/m/internal/apperr"
)

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens("s3cret", 0)
	u := domain.User{ID: "user-1", Email: "a@b.rw", Role: domain.RolePharmacy}

	signed, err := tokens.Issue(u)
	require.NoError(t, err)

	claims, err := tokens.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@b.rw", claims.Email)
	assert.Equal(t, domain.RolePharmacy, claims.Role)
	assert.WithinDuration(t, time.Now().Add(DefaultTokenTTL), claims.ExpiresAt.Time, time.Minute)
}

func TestTokensRejectForeignSecret(t *testing.T) {
	signed, err := NewTokens("one", time.Hour).Issue(domain.User{ID: "user-1"})
	require.NoError(t, err)

	_, err = NewTokens("two", time.Hour).Verify(signed)
	assert.True(t, apperr.Is(err, apperr.Authentication))
}

func TestTokensRejectExpired(t *testing.T) {
	tokens := NewTokens("s3cret", time.Hour)
	issuedAt := time.Now().Add(-2 * time.Hour)
	tokens.now = func() time.Time { return issuedAt }
	signed, err := tokens.Issue(domain.User{ID: "user-1"})
	require.NoError(t, err)

	tokens.now = time.Now
	_, err = tokens.Verify(signed)
	assert.True(t, apperr.Is(err, apperr.Authentication))
}

func TestTokensRejectOtherAlgorithms(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{UserID: "user-1"})
	signed, err := token.SignedString([]byte("s3cret"))
	require.NoError(t, err)

	_, err = NewTokens("s3cret", time.Hour).Verify(signed)
	assert.True(t, apperr.Is(err, apperr.Authentication))

	_, err = NewTokens("s3cret", time.Hour).Verify("not-a-token")
	assert.True(t, apperr.Is(err, apperr.Authentication))
}
