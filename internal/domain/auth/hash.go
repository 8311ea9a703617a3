package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"github.com/go-faster/errors"
)

// HashKey returns the hex HMAC-SHA256 of a raw API key under pepper. Only
// the hash is ever stored.
func HashKey(pepper []byte, raw string) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

// GenerateKey returns a new random raw API key.
func GenerateKey() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "read random")
	}
	return "wg_" + hex.EncodeToString(buf), nil
}
