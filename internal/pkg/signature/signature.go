// Package signature provides the HMAC primitives used by relay authentication.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign computes the hex-encoded HMAC-SHA256 digest of message.
func Sign(message, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether suppliedDigest is a valid HMAC-SHA256 digest of
// message. Comparison happens on the raw MAC bytes via hmac.Equal, never by
// string equality on hex.
func Verify(message, secret, suppliedDigest string) bool {
	supplied, err := hex.DecodeString(suppliedDigest)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hmac.Equal(mac.Sum(nil), supplied)
}
