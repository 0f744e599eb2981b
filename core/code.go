package core

import (
	"crypto/rand"
	"fmt"
)

// codeAlphabet excludes 0/O and 1/I so codes survive hand transcription.
// 32 symbols at 20 characters gives 100 bits of entropy, far beyond what
// online guessing within a 15 minute TTL could cover.
const codeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// CodeLength is the fixed length of generated one-time codes.
const CodeLength = 20

// GenerateCode produces a one-time challenge code from a cryptographically
// secure random source. A failing RNG leaves nothing sensible to do, so it
// panics rather than returning an error.
func GenerateCode() string {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}

	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf)
}
