package tag

import (
	"time"

	"github.com/vovakirdan/tagserver/internal/geo"
	"github.com/vovakirdan/tagserver/internal/protocol"
)

// proximityConstant and proximityOffset shape the per-tick score gain:
// closer to the origin scores faster, with the offset keeping the gain
// finite as distance approaches zero.
const (
	proximityConstant = 20.0
	proximityOffset   = 2.0
)

// startTick spawns the goroutine that feeds code into the coordinator's
// tickCh once every c.updateInterval until stopTick closes its stop channel. The tick
// itself is handled back on the coordinator's own goroutine (Run's
// select over tickCh), so scoring is serialised with every other
// mutation exactly like a handled message — no separate lock is needed.
func (c *Coordinator) startTick(code GameCode) {
	stop := make(chan struct{})
	c.ticks[code] = stop

	go func() {
		ticker := time.NewTicker(c.updateInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				select {
				case c.tickCh <- code:
				case <-stop:
					return
				case <-c.done:
					return
				}
			case <-stop:
				return
			case <-c.done:
				return
			}
		}
	}()
}

func (c *Coordinator) stopTick(code GameCode) {
	if stop, ok := c.ticks[code]; ok {
		close(stop)
		delete(c.ticks, code)
	}
}

// handleTick runs one scoring pass for a Playing game: every non-seeker
// with a known position gains score inversely proportional to their
// distance from the origin, then the remaining time is broadcast as a
// ScoreUpdate. The game ends once its configured duration has elapsed.
func (c *Coordinator) handleTick(code GameCode) {
	game, ok := c.games[code]
	if !ok || game.state != statePlaying {
		return
	}
	ps := game.playing

	for id, score := range ps.scores {
		if id == ps.seeker {
			continue
		}
		player, ok := c.players[id]
		if !ok || player.Position == nil {
			continue
		}
		distance := geo.Distance(*player.Position, game.Origin)
		gain := proximityConstant / (distance + proximityOffset)
		ps.scores[id] = score + float32(gain*c.updateInterval.Seconds())
	}

	elapsed := time.Since(ps.startedAt)
	lengthSeconds := uint64(game.Length.Seconds())
	elapsedSeconds := uint64(elapsed.Seconds())
	var secondsLeft uint64
	if lengthSeconds > elapsedSeconds {
		secondsLeft = lengthSeconds - elapsedSeconds
	}

	scores := make(map[PlayerID]float32, len(ps.scores))
	for id, score := range ps.scores {
		scores[id] = score
	}
	c.broadcast(code, protocol.ScoreUpdateEvent{Scores: scores, SecondsLeft: secondsLeft}, nil)

	if elapsed >= game.Length {
		c.endGame(code)
	}
}

// cancelGame discards a game outright: one whose roster just went empty
// while it was Waiting or Ended, or one endGame found no winner for.
func (c *Coordinator) cancelGame(code GameCode) {
	if _, ok := c.games[code]; !ok {
		return
	}
	c.stopTick(code)
	c.broadcast(code, protocol.LeftGameEvent{}, nil)
	delete(c.games, code)
}

// endGame transitions a Playing game to Ended, picking the highest
// score as the winner (ties keep whichever player was encountered
// first; see argmaxScore). A game with no scores at all falls back to
// cancelGame instead, since there is no winner to announce.
func (c *Coordinator) endGame(code GameCode) {
	game, ok := c.games[code]
	if !ok || game.playing == nil {
		return
	}
	c.stopTick(code)

	winner, found := argmaxScore(game.playing.scores)
	if !found {
		c.cancelGame(code)
		return
	}

	game.state = stateEnded
	game.playing = nil
	game.ended = &ended{winner: winner}

	c.broadcast(code, protocol.GameEndedEvent{Winner: winner}, nil)
}
