// Package idgen draws fresh, collision-free identifiers for players and
// games. Given a random source and a predicate reporting whether a
// candidate key is already taken, it repeatedly draws until it finds one
// that isn't — the same loop-until-free shape as the teacher's
// generateJoinCode in internal/multiplayer/coordinator.go, generalized
// from a 6-character base32 string to the raw int64/uint16 key spaces
// spec.md calls for.
package idgen

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// maxGameCodeAttempts bounds the search for a free 16-bit game code so
// CreateGame is provably terminating even if the code space were ever
// saturated; spec.md §4.1 permits this as an implementation choice.
const maxGameCodeAttempts = 1000

// PlayerID draws a fresh 64-bit signed player id. Player ids are never
// capped: spec.md notes the coordinator is expected to stay well below
// saturation for the 16-bit game code space, and the 64-bit player id
// space is large enough that an explicit attempt cap would never fire in
// practice.
func PlayerID(taken func(int64) bool) (int64, error) {
	for {
		var buf [8]byte
		if _, err := rand.Read(buf[:]); err != nil {
			return 0, fmt.Errorf("idgen: draw player id: %w", err)
		}
		candidate := int64(binary.BigEndian.Uint64(buf[:]))
		if !taken(candidate) {
			return candidate, nil
		}
	}
}

// GameCode draws a fresh 16-bit unsigned game code, bounded to
// maxGameCodeAttempts draws.
func GameCode(taken func(uint16) bool) (uint16, error) {
	for attempt := 0; attempt < maxGameCodeAttempts; attempt++ {
		var buf [2]byte
		if _, err := rand.Read(buf[:]); err != nil {
			return 0, fmt.Errorf("idgen: draw game code: %w", err)
		}
		candidate := binary.BigEndian.Uint16(buf[:])
		if !taken(candidate) {
			return candidate, nil
		}
	}
	return 0, fmt.Errorf("idgen: no free game code found in %d attempts", maxGameCodeAttempts)
}
