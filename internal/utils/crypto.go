// internal/utils/crypto.go
package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// ApprovalTokenBytes is the entropy of a raw approval token. 32 bytes gives
// 256 bits, hex-encoded to a 64 character string carried in the verify link.
const ApprovalTokenBytes = 32

// GenerateApprovalToken mints the single-use secret handed to an approver.
// The raw token is never persisted; only its hash is stored for lookup.
func GenerateApprovalToken() (string, error) {
	b := make([]byte, ApprovalTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HashToken is the deterministic one-way digest used both at creation (to
// store) and at verification (to look up by equality).
func HashToken(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:])
}
