// internal/auth/token_test.go
package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeatTokenRoundTrip(t *testing.T) {
	require.NoError(t, Init())

	want := SeatClaims{RoomCode: "WXYZ", Seat: 3, SessionID: uuid.New()}
	token, err := CreateSeatToken(want)
	require.NoError(t, err)

	got, err := VerifySeatToken(token)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSeatTokenTamperRejected(t *testing.T) {
	require.NoError(t, Init())

	token, err := CreateSeatToken(SeatClaims{RoomCode: "WXYZ", Seat: 0, SessionID: uuid.New()})
	require.NoError(t, err)

	_, err = VerifySeatToken(token + "x")
	assert.Error(t, err)
	_, err = VerifySeatToken("not.a.token")
	assert.Error(t, err)
}

func TestSeatTokenDiesWithRotatedSession(t *testing.T) {
	require.NoError(t, Init())

	session := uuid.New()
	token, err := CreateSeatToken(SeatClaims{RoomCode: "ABCD", Seat: 1, SessionID: session})
	require.NoError(t, err)

	claims, err := VerifySeatToken(token)
	require.NoError(t, err)
	// The room compares sid against the seat's current session; a rotated
	// session makes this claim worthless even though the signature holds.
	assert.Equal(t, session, claims.SessionID)
}
