package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// TokenKeySize is the number of random bytes in an API token key.
const TokenKeySize = 20

// NewTokenKey returns a random hex key of 2*TokenKeySize characters.
func NewTokenKey() (string, error) {
	buf := make([]byte, TokenKeySize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
