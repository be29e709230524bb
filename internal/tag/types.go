// Package tag implements the authoritative game coordinator: the single
// actor owning the player table, the game table, and the per-game
// scoring tick, exactly as spec.md §4.3 describes it. It is the
// generalization of the teacher's internal/multiplayer package (a
// channel-actor owning Lobby/OnlineMatch maps) to the tag game's single
// Game entity, whose state discriminant moves Waiting -> Playing ->
// Ended in place rather than promoting a lobby into a separate match
// object — see SPEC_FULL.md and DESIGN.md.
package tag

import (
	"time"

	"github.com/vovakirdan/tagserver/internal/geo"
	"github.com/vovakirdan/tagserver/internal/protocol"
	"github.com/vovakirdan/tagserver/internal/session"
)

// PlayerID and GameCode are re-exported from protocol so callers outside
// this package never need to import protocol just to name an id.
type (
	PlayerID = protocol.PlayerID
	GameCode = protocol.GameCode
)

// DefaultUpdateInterval is the scoring tick period spec.md §4.3 fixes;
// it is also internal/config's default, but the Coordinator takes its
// own interval explicitly rather than hardcoding this constant so a
// configured value can actually reach the tick goroutine.
const DefaultUpdateInterval = time.Second

// Player is one connected client: a display name, a delivery handle for
// server events, and an optional last-known position.
type Player struct {
	ID       PlayerID
	Name     string
	Endpoint session.Endpoint
	Position *geo.Point
}

// state discriminates a Game's lifecycle stage.
type state int

const (
	stateWaiting state = iota
	statePlaying
	stateEnded
)

// playing holds the fields that only exist while a Game is in the
// Playing state: who's It, when the round started, and the frozen score
// roster. The tick's stop channel is kept in Coordinator.ticks, not here.
type playing struct {
	seeker    PlayerID
	startedAt time.Time
	scores    map[PlayerID]float32
}

// ended holds the sole field that survives into the Ended state.
type ended struct {
	winner PlayerID
}

// Game is one lobby/match: a host, an ordered roster, a fixed origin
// point, a configured duration, and a state discriminant with
// state-specific payload (spec.md §3).
type Game struct {
	Code   GameCode
	Host   PlayerID
	Roster []PlayerID
	Origin geo.Point
	Length time.Duration

	state   state
	playing *playing
	ended   *ended
}

func removeFromRoster(roster []PlayerID, id PlayerID) []PlayerID {
	out := roster[:0:0]
	for _, p := range roster {
		if p != id {
			out = append(out, p)
		}
	}
	return out
}

func rosterContains(roster []PlayerID, id PlayerID) bool {
	for _, p := range roster {
		if p == id {
			return true
		}
	}
	return false
}

func argmaxScore(scores map[PlayerID]float32) (PlayerID, bool) {
	var winner PlayerID
	var best float32
	found := false
	for id, score := range scores {
		if !found || score > best {
			winner, best, found = id, score, true
		}
	}
	return winner, found
}
