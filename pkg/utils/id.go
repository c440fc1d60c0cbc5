package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// 6 random bytes encode to an 8-character code, short enough to share in
// chat while keeping collisions negligible at our room counts.
const roomCodeBytes = 6

// GenShortID returns a URL-safe random code used to identify a room.
func GenShortID() string {
	b := make([]byte, roomCodeBytes)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
