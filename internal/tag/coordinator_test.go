package tag

import (
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tagserver/internal/geo"
	"github.com/vovakirdan/tagserver/internal/protocol"
	"github.com/vovakirdan/tagserver/internal/session"
)

func newTestCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	c := NewCoordinator(log.New(io.Discard), DefaultUpdateInterval)
	go c.Run()
	t.Cleanup(c.Stop)
	return c
}

// newTickTestCoordinator builds a coordinator whose scoring tick fires
// every interval, as chosen by the calling test.
func newTickTestCoordinator(t *testing.T, interval time.Duration) *Coordinator {
	t.Helper()
	c := NewCoordinator(log.New(io.Discard), interval)
	go c.Run()
	t.Cleanup(c.Stop)
	return c
}

func connectPlayer(t *testing.T, c *Coordinator, name string) (PlayerID, *session.ChannelEndpoint) {
	t.Helper()
	ep := session.NewChannelEndpoint()
	id := c.Connect(name, ep)
	if id == 0 {
		t.Fatalf("Connect(%q) returned zero id", name)
	}
	return id, ep
}

// drain waits for the next event delivered to ep, failing the test if
// none arrives before the timeout.
func drain(t *testing.T, ep *session.ChannelEndpoint) protocol.ServerEvent {
	t.Helper()
	select {
	case event := <-ep.Outbox():
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a server event")
		return nil
	}
}

func drainNone(t *testing.T, ep *session.ChannelEndpoint) {
	t.Helper()
	select {
	case event := <-ep.Outbox():
		t.Fatalf("expected no event, got %#v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestConnectAssignsDistinctIDs(t *testing.T) {
	c := newTestCoordinator(t)
	a, _ := connectPlayer(t, c, "Alice")
	b, _ := connectPlayer(t, c, "Bob")
	if a == b {
		t.Fatalf("expected distinct ids, got %d and %d", a, b)
	}
}

func TestCreateGameThenJoinBroadcastsAndSnapshots(t *testing.T) {
	c := newTestCoordinator(t)
	host, hostEP := connectPlayer(t, c, "Host")
	joiner, joinerEP := connectPlayer(t, c, "Joiner")

	origin := geo.Point{Lat: 10, Lng: 20}
	created := c.CreateGame(host, origin, 5)
	joined, ok := created.(protocol.JoinedGameEvent)
	if !ok {
		t.Fatalf("CreateGame returned %#v, want JoinedGameEvent", created)
	}
	if joined.Host != host || len(joined.Players) != 0 {
		t.Fatalf("unexpected create reply: %#v", joined)
	}

	joinReply := c.JoinGame(joiner, joined.ID)
	joinedEvent, ok := joinReply.(protocol.JoinedGameEvent)
	if !ok {
		t.Fatalf("JoinGame returned %#v, want JoinedGameEvent", joinReply)
	}
	if len(joinedEvent.Players) != 1 || joinedEvent.Players[0].ID != host {
		t.Fatalf("join snapshot should list the host only, got %#v", joinedEvent.Players)
	}

	event := drain(t, hostEP)
	pj, ok := event.(protocol.PlayerJoinedEvent)
	if !ok || pj.ID != joiner {
		t.Fatalf("host should observe PlayerJoined for the joiner, got %#v", event)
	}
	drainNone(t, joinerEP)
}

func TestJoinGameRejectsUnknownCode(t *testing.T) {
	c := newTestCoordinator(t)
	player, _ := connectPlayer(t, c, "Solo")
	reply := c.JoinGame(player, GameCode(9999))
	errEvent, ok := reply.(protocol.ErrorEvent)
	if !ok || errEvent.Message != "Game does not exist" {
		t.Fatalf("got %#v, want Error{Game does not exist}", reply)
	}
}

func TestStartGameRequiresHostAndTwoPlayers(t *testing.T) {
	c := newTestCoordinator(t)
	host, _ := connectPlayer(t, c, "Host")
	outsider, _ := connectPlayer(t, c, "Outsider")

	created := c.CreateGame(host, geo.Point{}, 1).(protocol.JoinedGameEvent)

	if reply := c.StartGame(host); reply.(protocol.ErrorEvent).Message != "Not enough players to start the game" {
		t.Fatalf("expected not-enough-players error, got %#v", reply)
	}

	if reply := c.StartGame(outsider); reply.(protocol.ErrorEvent).Message != "Could not start game" {
		t.Fatalf("expected generic start error for a non-member, got %#v", reply)
	}

	joiner, _ := connectPlayer(t, c, "Joiner")
	c.JoinGame(joiner, created.ID)

	if reply := c.StartGame(joiner); reply.(protocol.ErrorEvent).Message != "Only the host can start the game" {
		t.Fatalf("expected host-only error, got %#v", reply)
	}

	if reply := c.StartGame(host); reply != nil {
		t.Fatalf("expected nil (success) reply, got %#v", reply)
	}
}

func TestTagPlayerOnlySeekerMayTag(t *testing.T) {
	c := newTestCoordinator(t)
	host, _ := connectPlayer(t, c, "Host")
	joiner, _ := connectPlayer(t, c, "Joiner")

	created := c.CreateGame(host, geo.Point{}, 1).(protocol.JoinedGameEvent)
	c.JoinGame(joiner, created.ID)

	reply := c.StartGame(host)
	if reply != nil {
		t.Fatalf("expected successful start, got %#v", reply)
	}

	notSeeker := host
	seeker := joiner
	// Figure out who was actually picked as seeker by attempting a tag
	// from host; if it fails with "Could not tag player" host isn't it.
	if errEvt, ok := c.TagPlayer(host, joiner, "").(protocol.ErrorEvent); ok && errEvt.Message == "Could not tag player" {
		seeker, notSeeker = joiner, host
	}

	if reply := c.TagPlayer(notSeeker, seeker, ""); reply.(protocol.ErrorEvent).Message != "Could not tag player" {
		t.Fatalf("non-seeker tag should fail, got %#v", reply)
	}
	if reply := c.TagPlayer(seeker, notSeeker, "photo"); reply != nil {
		t.Fatalf("seeker tag should succeed, got %#v", reply)
	}
}

func TestLeaveGameEndsMatchWhenRosterDropsBelowTwo(t *testing.T) {
	c := newTestCoordinator(t)
	host, hostEP := connectPlayer(t, c, "Host")
	joiner, _ := connectPlayer(t, c, "Joiner")

	created := c.CreateGame(host, geo.Point{}, 1).(protocol.JoinedGameEvent)
	c.JoinGame(joiner, created.ID)
	drain(t, hostEP) // PlayerJoined

	if reply := c.StartGame(host); reply != nil {
		t.Fatalf("expected successful start, got %#v", reply)
	}
	drain(t, hostEP) // GameStarted

	reply := c.LeaveGame(joiner)
	if _, ok := reply.(protocol.LeftGameEvent); !ok {
		t.Fatalf("LeaveGame should reply LeftGame, got %#v", reply)
	}

	event := drain(t, hostEP)
	if _, ok := event.(protocol.GameEndedEvent); !ok {
		// PlayerLeft may arrive before GameEnded in this path; accept either
		// order but require GameEnded to show up.
		if pl, ok := event.(protocol.PlayerLeftEvent); ok && pl.ID == joiner {
			event = drain(t, hostEP)
		}
		if _, ok := event.(protocol.GameEndedEvent); !ok {
			t.Fatalf("expected GameEnded once the roster drops below two, got %#v", event)
		}
	}
}

func TestLeaveGamePromotesNewHostWhileWaiting(t *testing.T) {
	c := newTestCoordinator(t)
	host, _ := connectPlayer(t, c, "Host")
	a, aEP := connectPlayer(t, c, "A")
	b, _ := connectPlayer(t, c, "B")

	created := c.CreateGame(host, geo.Point{}, 1).(protocol.JoinedGameEvent)
	c.JoinGame(a, created.ID)
	c.JoinGame(b, created.ID)
	drain(t, aEP) // PlayerJoined for B

	c.LeaveGame(host)
	event := drain(t, aEP)
	pl, ok := event.(protocol.PlayerLeftEvent)
	if !ok || pl.ID != host || pl.NewHost != a {
		t.Fatalf("expected PlayerLeft naming A as new host, got %#v", event)
	}

	if reply := c.StartGame(a); reply != nil {
		t.Fatalf("promoted host should be able to start the game, got %#v", reply)
	}
}

func TestScoreUpdateTickGrantsProximityScoreAndSecondsLeft(t *testing.T) {
	c := newTickTestCoordinator(t, DefaultUpdateInterval)
	host, hostEP := connectPlayer(t, c, "Host")
	joiner, _ := connectPlayer(t, c, "Joiner")

	origin := geo.Point{Lat: 0, Lng: 0}
	created := c.CreateGame(host, origin, 1).(protocol.JoinedGameEvent)
	c.JoinGame(joiner, created.ID)
	drain(t, hostEP) // PlayerJoined

	if reply := c.StartGame(host); reply != nil {
		t.Fatalf("expected successful start, got %#v", reply)
	}
	started := drain(t, hostEP).(protocol.GameStartedEvent)

	nonSeeker := host
	if started.Seeker == host {
		nonSeeker = joiner
	}

	// ~0.0001 degrees of latitude is ~11.1m from the origin, the figure
	// the spec's own scoring example relies on.
	c.UpdatePosition(nonSeeker, geo.Point{Lat: 0.0001, Lng: 0})

	var event protocol.ServerEvent
	select {
	case event = <-hostEP.Outbox():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the first ScoreUpdate")
	}

	update, ok := event.(protocol.ScoreUpdateEvent)
	if !ok {
		t.Fatalf("expected ScoreUpdate, got %#v", event)
	}
	if update.SecondsLeft != 59 {
		t.Fatalf("SecondsLeft = %d, want 59 (length=60s, elapsed~1s)", update.SecondsLeft)
	}
	gained := update.Scores[nonSeeker]
	if gained < 1.4 || gained > 1.6 {
		t.Fatalf("non-seeker score = %f, want ~1.524 (20/(11.1+2))", gained)
	}
	if seekerScore := update.Scores[started.Seeker]; seekerScore != 0 {
		t.Fatalf("seeker score = %f, want 0 (seeker never scores)", seekerScore)
	}
}

func TestDisconnectLeavesCurrentGame(t *testing.T) {
	c := newTestCoordinator(t)
	host, hostEP := connectPlayer(t, c, "Host")
	joiner, _ := connectPlayer(t, c, "Joiner")

	created := c.CreateGame(host, geo.Point{}, 1).(protocol.JoinedGameEvent)
	c.JoinGame(joiner, created.ID)
	drain(t, hostEP) // PlayerJoined

	c.Disconnect(joiner)
	event := drain(t, hostEP)
	pl, ok := event.(protocol.PlayerLeftEvent)
	if !ok || pl.ID != joiner {
		t.Fatalf("expected PlayerLeft for the disconnected player, got %#v", event)
	}

	// A second disconnect of an unknown player must be a harmless no-op.
	c.Disconnect(joiner)
	drainNone(t, hostEP)
}
