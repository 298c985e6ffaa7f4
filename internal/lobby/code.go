package lobby

import "math/rand"

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6

	// How many fresh codes to try before giving up on a pathologically
	// saturated code space.
	maxCodeAttempts = 10
)

// newCode returns a random invite code. Uniqueness among live lobbies is
// enforced by the database; callers retry on collision.
func newCode() string {
	buf := make([]byte, codeLength)
	for i := range buf {
		buf[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(buf)
}
