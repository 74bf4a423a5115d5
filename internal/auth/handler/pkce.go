package handler

import (
	"crypto/sha256"
	"encoding/base64"

	"github.com/dablu757/fast-auth-guard/internal/utils"
)

// generatePKCE returns a fresh verifier and its S256 challenge. The
// verifier stays server-side in the login state; only the challenge
// travels to the provider.
func generatePKCE() (verifier string, challenge string) {
	verifier = utils.RandomString(32)

	hash := sha256.Sum256([]byte(verifier))
	challenge = base64.RawURLEncoding.EncodeToString(hash[:])

	return verifier, challenge
}
