package auth

import (
	"crypto/rand"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// TokenPrefix marks database-issued bearer tokens, distinguishing them from
// the legacy static secret.
const TokenPrefix = "clt_"

// GenerateToken returns a fresh bearer token and its bcrypt hash. The token
// is handed to the caller exactly once; only the hash is ever stored.
func GenerateToken() (token, hash string, err error) {
	raw := make([]byte, 32)
	if _, err = rand.Read(raw); err != nil {
		return "", "", err
	}
	token = TokenPrefix + hex.EncodeToString(raw)
	hashed, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", "", err
	}
	return token, string(hashed), nil
}

func VerifyToken(token, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil
}
