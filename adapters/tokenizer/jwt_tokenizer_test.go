package tokenizer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openaxm/walletgate/core"
)

func newTokenizer(t *testing.T, sessionTTL time.Duration) *JWTTokenizer {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return NewJWTTokenizer(key, sessionTTL).(*JWTTokenizer)
}

func testChallenge(now time.Time) *core.Challenge {
	return &core.Challenge{
		ID:             "ch-1",
		Address:        "axm1qqsyqcyq5rqwzqf",
		UserID:         "user-7",
		Code:           "ABCDEFGH23456789QRST",
		DepositAddress: "axm1depqqq",
		RequiredAmount: decimal.NewFromFloat(0.1),
		CreatedAt:      now,
		ExpiresAt:      now.Add(15 * time.Minute),
		Status:         core.StatusPending,
	}
}

func TestCorrelationTokenRoundTrip(t *testing.T) {
	tk := newTokenizer(t, time.Hour)
	ch := testChallenge(time.Now())

	token, err := tk.MintCorrelationToken(ch)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// The raw code must never travel inside the handle.
	assert.NotContains(t, token, ch.Code)

	id, err := tk.VerifyCorrelationToken(token, ch.Address)
	require.NoError(t, err)
	assert.Equal(t, ch.ID, id)
}

func TestCorrelationTokenFailsClosed(t *testing.T) {
	tk := newTokenizer(t, time.Hour)
	ch := testChallenge(time.Now())

	token, err := tk.MintCorrelationToken(ch)
	require.NoError(t, err)

	// Address mismatch: a token must not let clients probe other
	// addresses' challenges.
	_, err = tk.VerifyCorrelationToken(token, "axm1depqqq")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)

	// Garbage.
	_, err = tk.VerifyCorrelationToken("not-a-token", ch.Address)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)

	// Signed by a different key.
	other := newTokenizer(t, time.Hour)
	forged, err := other.MintCorrelationToken(ch)
	require.NoError(t, err)
	_, err = tk.VerifyCorrelationToken(forged, ch.Address)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)

	// Session tokens are not correlation tokens.
	session, err := tk.MintSessionToken(ch.Address, "")
	require.NoError(t, err)
	_, err = tk.VerifyCorrelationToken(session, ch.Address)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestSessionTokenRoundTrip(t *testing.T) {
	tk := newTokenizer(t, 7*24*time.Hour)

	token, err := tk.MintSessionToken("axm1qqsyqcyq5rqwzqf", "user-7")
	require.NoError(t, err)

	claims, err := tk.VerifySessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, "axm1qqsyqcyq5rqwzqf", claims.WalletAddress)
	assert.Equal(t, "user-7", claims.UserID)
	assert.True(t, claims.Verified)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), claims.ExpiresAt, time.Minute)
}

func TestSessionTokenExpiry(t *testing.T) {
	tk := newTokenizer(t, -time.Minute)

	token, err := tk.MintSessionToken("axm1qqsyqcyq5rqwzqf", "")
	require.NoError(t, err)

	_, err = tk.VerifySessionToken(token)
	assert.ErrorIs(t, err, core.ErrSessionInvalid)
}

func TestSessionTokenFailsClosed(t *testing.T) {
	tk := newTokenizer(t, time.Hour)

	_, err := tk.VerifySessionToken("garbage")
	assert.ErrorIs(t, err, core.ErrSessionInvalid)

	other := newTokenizer(t, time.Hour)
	forged, err := other.MintSessionToken("axm1qqsyqcyq5rqwzqf", "")
	require.NoError(t, err)
	_, err = tk.VerifySessionToken(forged)
	assert.ErrorIs(t, err, core.ErrSessionInvalid)

	// Correlation tokens must not pass as sessions.
	corr, err := tk.MintCorrelationToken(testChallenge(time.Now()))
	require.NoError(t, err)
	_, err = tk.VerifySessionToken(corr)
	assert.ErrorIs(t, err, core.ErrSessionInvalid)
}
