package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/mediatower/internal/models"
)

func TestTokenRoundTrip(t *testing.T) {
	userID := uuid.New()

	token, err := GenerateToken("secret", userID, models.RoleAdmin, time.Hour)
	require.NoError(t, err)

	parsedID, role, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, userID, parsedID)
	assert.Equal(t, models.RoleAdmin, role)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret", uuid.New(), models.RoleUser, time.Hour)
	require.NoError(t, err)

	_, _, err = ParseToken("other-secret", token)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken("secret", uuid.New(), models.RoleUser, -time.Minute)
	require.NoError(t, err)

	_, _, err = ParseToken("secret", token)
	assert.Error(t, err)
}
