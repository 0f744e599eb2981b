package core

import "strings"

// bech32Charset is the data character set of bech32 addresses.
const bech32Charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

// ValidAddress reports whether addr looks like a bech32 address under the
// given human-readable prefix (e.g. "axm"). It is a shape check, not a
// checksum verification: a mistyped address fails the protocol anyway
// because its owner will never broadcast the proof transfer.
func ValidAddress(addr, hrp string) bool {
	if len(addr) > 90 {
		return false
	}
	if addr != strings.ToLower(addr) {
		return false
	}

	prefix := hrp + "1"
	if !strings.HasPrefix(addr, prefix) {
		return false
	}

	data := addr[len(prefix):]
	if len(data) < 6 {
		return false
	}
	for _, r := range data {
		if !strings.ContainsRune(bech32Charset, r) {
			return false
		}
	}
	return true
}
