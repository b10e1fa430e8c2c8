package jwtauth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codec = New("test-signing-key", "testIssuer", time.Hour)
var playerID = uuid.NewString()

func Test_IssueAndVerify(t *testing.T) {
	token, err := codec.Issue(playerID, "alice", []string{"PLAYER"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, playerID, claims.Subject)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, []string{"PLAYER"}, claims.Authorities)
	assert.Equal(t, "testIssuer", claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func Test_Verify_Malformed(t *testing.T) {
	_, err := codec.Verify("not-a-token")
	require.ErrorIs(t, err, ErrMalformed)
}

func Test_Verify_WrongSigningKey(t *testing.T) {
	other := New("some-other-key", "testIssuer", time.Hour)
	token, err := other.Issue(playerID, "alice", []string{"PLAYER"})
	require.NoError(t, err)

	_, err = codec.Verify(token)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func Test_Verify_Expired(t *testing.T) {
	expired := New("test-signing-key", "testIssuer", -2*time.Second)
	token, err := expired.Issue(playerID, "alice", []string{"PLAYER"})
	require.NoError(t, err)

	_, err = codec.Verify(token)
	require.ErrorIs(t, err, ErrExpired)
}

func Test_Verify_ExpiredWithinClockSkew(t *testing.T) {
	// 500ms stale is inside the 1s leeway and must still verify.
	stale := New("test-signing-key", "testIssuer", -500*time.Millisecond)
	token, err := stale.Issue(playerID, "alice", []string{"PLAYER"})
	require.NoError(t, err)

	_, err = codec.Verify(token)
	require.NoError(t, err)
}

func Test_Verify_IssuerMismatch(t *testing.T) {
	for _, issuer := range []string{"otherIssuer", "testissuer", ""} {
		other := New("test-signing-key", issuer, time.Hour)
		token, err := other.Issue(playerID, "alice", []string{"PLAYER"})
		require.NoError(t, err)

		_, err = codec.Verify(token)
		require.ErrorIs(t, err, ErrIssuerMismatch, "issuer %q", issuer)
	}
}

func Test_Verify_MultipleRoles(t *testing.T) {
	token, err := codec.Issue(playerID, "root", []string{"ADMIN", "PLAYER"})
	require.NoError(t, err)

	claims, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", claims.Authorities[0])
}
