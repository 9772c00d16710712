package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// TokenDigest returns the hex SHA-256 of a signed token. Sessions store the
// digest so a database read never yields a usable bearer token.
func TokenDigest(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// TokenDigestEqual reports, in constant time, whether token hashes to storedDigest.
func TokenDigestEqual(token, storedDigest string) bool {
	return subtle.ConstantTimeCompare([]byte(TokenDigest(token)), []byte(storedDigest)) == 1
}
