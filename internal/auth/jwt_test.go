package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rogerio-castellano/restock-analytics/internal/models"
)

func TestGenerateAndParseToken(t *testing.T) {
	Configure("test-secret", time.Minute)

	token, err := GenerateToken(models.User{ID: 42, Username: "ana", Role: models.RoleAdmin})
	require.NoError(t, err)

	claims, err := TokenClaims("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.UserID())
	assert.Equal(t, "ana", claims.Username)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	ctx := WithClaims(context.Background(), claims)
	got, ok := ClaimsFromContext(ctx)
	require.True(t, ok)
	assert.Same(t, claims, got)
}

func TestParseToken_WrongSecret(t *testing.T) {
	Configure("one", time.Minute)
	token, err := GenerateToken(models.User{ID: 1})
	require.NoError(t, err)

	Configure("two", time.Minute)
	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestTokenClaims_MissingBearer(t *testing.T) {
	_, err := TokenClaims("")
	assert.ErrorIs(t, err, ErrNoToken)

	_, err = TokenClaims("Basic abc")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
}
