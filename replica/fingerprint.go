package replica

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint computes sha256(Canonical(v)).
//
// Two values that are Equal and hold the same numeric kinds share a
// fingerprint, so a clone can be checked against its source without
// keeping the source around.
func Fingerprint(v *Value) [32]byte {
	return sha256.Sum256([]byte(Canonical(v)))
}

// FingerprintHex returns the fingerprint as a lowercase hex string.
func FingerprintHex(v *Value) string {
	h := Fingerprint(v)
	return hex.EncodeToString(h[:])
}

// ParseFingerprint parses a 64-character hex string to a fingerprint.
func ParseFingerprint(s string) ([32]byte, bool) {
	var h [32]byte
	if len(s) != 2*len(h) {
		return h, false
	}
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return h, false
	}
	return h, true
}
