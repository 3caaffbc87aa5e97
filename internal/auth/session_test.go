// internal/auth/session_test.go
package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndVerifyToken(t *testing.T) {
	Init()

	userID := uuid.New()
	token, err := CreateToken(userID, "alice")
	require.NoError(t, err)

	gotID, gotName, err := VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, gotID)
	assert.Equal(t, "alice", gotName)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	Init()

	_, _, err := VerifyToken("not.a.token")
	assert.Error(t, err)
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	Init()
	token, err := CreateToken(uuid.New(), "alice")
	require.NoError(t, err)

	// Rotating the key pair invalidates previously issued tokens.
	Init()
	_, _, err = VerifyToken(token)
	assert.Error(t, err)
}
