package jwtutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePairRoundTrip(t *testing.T) {
	tenantID := uint(3)
	pair, err := GeneratePair("pm@example.com", 7, "PROJECT_MANAGER", &tenantID)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := ValidateAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "pm@example.com", claims.Email)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "PROJECT_MANAGER", claims.Role)
	require.NotNil(t, claims.TenantID)
	assert.Equal(t, uint(3), *claims.TenantID)

	refreshClaims, err := ValidateRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, uint(7), refreshClaims.UserID)
}

func TestTokenTypeIsEnforced(t *testing.T) {
	pair, err := GeneratePair("a@example.com", 1, "GUEST", nil)
	require.NoError(t, err)

	_, err = ValidateAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	_, err = ValidateRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestExpiredTokenRejected(t *testing.T) {
	prev := accessTTL
	accessTTL = -time.Minute
	defer func() { accessTTL = prev }()

	pair, err := GeneratePair("b@example.com", 2, "GUEST", nil)
	require.NoError(t, err)

	_, err = ValidateAccess(pair.AccessToken)
	assert.Error(t, err)
}

func TestTamperedTokenRejected(t *testing.T) {
	pair, err := GeneratePair("c@example.com", 3, "GUEST", nil)
	require.NoError(t, err)

	_, err = ValidateAccess(pair.AccessToken + "x")
	assert.Error(t, err)
}
