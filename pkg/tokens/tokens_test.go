package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIssuer() Issuer {
	return Issuer{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	}
}

func TestIssue_AccessClaimsCarryScope(t *testing.T) {
	t.Parallel()

	org, store := uint(3), uint(7)
	now := time.Now().UTC()
	pair, err := testIssuer().Issue(42, "STORE_MANAGER", &org, &store, now)
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(pair.AccessToken, []byte("access-secret"))
	require.NoError(t, err)

	uid, err := claims.UserID()
	require.NoError(t, err)
	assert.EqualValues(t, 42, uid)
	assert.Equal(t, "STORE_MANAGER", claims.Role)
	require.NotNil(t, claims.OrgID)
	require.NotNil(t, claims.StoreID)
	assert.EqualValues(t, 3, *claims.OrgID)
	assert.EqualValues(t, 7, *claims.StoreID)
	assert.WithinDuration(t, now.Add(15*time.Minute), claims.ExpiresAt.Time, time.Second)
}

func TestRefreshClaims_RejectsAccessToken(t *testing.T) {
	t.Parallel()

	iss := testIssuer()
	iss.RefreshSecret = iss.AccessSecret
	pair, err := iss.Issue(1, "CUSTOMER", nil, nil, time.Now())
	require.NoError(t, err)

	_, err = RefreshClaimsFromToken(pair.AccessToken, iss.RefreshSecret)
	require.Error(t, err)

	claims, err := RefreshClaimsFromToken(pair.RefreshToken, iss.RefreshSecret)
	require.NoError(t, err)
	assert.Equal(t, pair.RefreshJTI, claims.ID)
}

func TestAccessClaims_Expired(t *testing.T) {
	t.Parallel()

	pair, err := testIssuer().Issue(1, "CUSTOMER", nil, nil, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(pair.AccessToken, []byte("access-secret"))
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestAccessClaims_WrongSecret(t *testing.T) {
	t.Parallel()

	pair, err := testIssuer().Issue(1, "CUSTOMER", nil, nil, time.Now())
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(pair.AccessToken, []byte("other"))
	require.Error(t, err)
}
