package registry

import (
	"encoding/binary"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint hashes the normalized venue name. The full digest gates one
// venue credential per organizer per venue; the codec only gets the top two
// bytes.
func Fingerprint(venue string) [32]byte {
	normalized := strings.ToLower(strings.Join(strings.Fields(venue), " "))
	return blake2b.Sum256([]byte(normalized))
}

// ScopeOf truncates a venue fingerprint to the 16-bit identifier slot.
func ScopeOf(fingerprint [32]byte) uint16 {
	return binary.BigEndian.Uint16(fingerprint[:2])
}
