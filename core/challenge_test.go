package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchesMemo(t *testing.T) {
	ch := &Challenge{Code: "A1B2C3"}

	assert.True(t, ch.MatchesMemo("A1B2C3"))
	assert.True(t, ch.MatchesMemo(" a1b2c3 "))
	assert.True(t, ch.MatchesMemo("\ta1B2c3\n"))
	assert.False(t, ch.MatchesMemo("a1b2c4"))
	assert.False(t, ch.MatchesMemo(""))
	assert.False(t, ch.MatchesMemo("a1b2c3 extra"))
}

func TestExpired(t *testing.T) {
	now := time.Now()
	ch := &Challenge{ExpiresAt: now.Add(15 * time.Minute)}

	assert.False(t, ch.Expired(now))
	assert.False(t, ch.Expired(now.Add(15*time.Minute)))
	assert.True(t, ch.Expired(now.Add(15*time.Minute+time.Second)))
}

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := GenerateCode()
		require.Len(t, code, CodeLength)
		for _, r := range code {
			assert.Contains(t, codeAlphabet, string(r))
		}
		assert.False(t, seen[code], "duplicate code generated")
		seen[code] = true
	}
}

func TestValidAddress(t *testing.T) {
	assert.True(t, ValidAddress("axm1qqsyqcyq5rqwzqfpg9scrgwpugpzysn6j4npq2", "axm"))
	assert.True(t, ValidAddress("axm1depqqq", "axm"))

	assert.False(t, ValidAddress("", "axm"))
	assert.False(t, ValidAddress("axm1", "axm"))
	assert.False(t, ValidAddress("axm1qqqqq", "axm"), "data part too short")
	assert.False(t, ValidAddress("cosmos1qqqqqq", "axm"), "wrong prefix")
	assert.False(t, ValidAddress("axm1QQQQQQ", "axm"), "upper case")
	assert.False(t, ValidAddress("axm1abcdef", "axm"), "b is outside the bech32 charset")
	assert.False(t, ValidAddress("axm1qqqqq!", "axm"), "invalid charset")
}
