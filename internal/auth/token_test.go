package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/booking-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)
	user := &domain.User{ID: "usr-001", Username: "alice", Role: domain.RoleUser}

	token, expiresAt, err := tm.GenerateToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.False(t, expiresAt.IsZero())

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "usr-001", claims.Subject)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, domain.RoleUser, claims.Role)
}

func TestTokenRejectedWithWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", 60)
	verifier := NewTokenManager("secret-b", 60)

	token, _, err := issuer.GenerateToken(&domain.User{ID: "usr-001", Username: "alice", Role: domain.RoleUser})
	require.NoError(t, err)

	_, err = verifier.ParseToken(token)
	assert.Error(t, err)
}

func TestTokenRejectedGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)
	_, err := tm.ParseToken("not-a-token")
	assert.Error(t, err)
}
