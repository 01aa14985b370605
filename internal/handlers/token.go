package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// generateOpaqueToken produces a 20-byte random token, hex encoded. Both
// targeted invites and project share links draw from this space; uniqueness
// is enforced per column by the store.
func generateOpaqueToken() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// buildAcceptURL renders the shareable accept link for a token. The format
// is stable and carries no session state.
func buildAcceptURL(frontendOrigin, token string) string {
	return fmt.Sprintf("%s/invite/accept/%s", frontendOrigin, token)
}
