package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashKey returns the hex encoded sha256 of arg.
// The result only contains characters valid in NATS subjects and bucket keys.
func HashKey(arg string) string {
	hasher := sha256.New()
	hasher.Write([]byte(arg))
	return hex.EncodeToString(hasher.Sum(nil))
}
