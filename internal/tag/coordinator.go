package tag

import (
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tagserver/internal/geo"
	"github.com/vovakirdan/tagserver/internal/idgen"
	"github.com/vovakirdan/tagserver/internal/protocol"
	"github.com/vovakirdan/tagserver/internal/session"
)

// inboxSize bounds how many in-flight requests the coordinator will
// queue before a caller's Send blocks; sized the same as the teacher's
// msgChan.
const inboxSize = 256

// Coordinator is the single actor owning every player and every game.
// All mutation happens inside its Run goroutine; every public method
// here is a request sent over a channel, never a direct field access,
// so the player table, the game table, and the scoring ticks never need
// a mutex (spec.md §5). Grounded on the teacher's Coordinator
// (processMessages/handleMessage, Start/Stop/Send) in
// internal/multiplayer/coordinator.go, generalised with reply channels
// where the protocol defines a direct response.
type Coordinator struct {
	logger *log.Logger

	players    map[PlayerID]*Player
	games      map[GameCode]*Game
	playerGame map[PlayerID]GameCode

	ticks          map[GameCode]chan struct{}
	updateInterval time.Duration

	inbox  chan coordinatorMessage
	tickCh chan GameCode
	done   chan struct{}
}

// NewCoordinator creates a Coordinator whose per-game scoring tick fires
// every updateInterval. Call Run (typically in its own goroutine) to
// start processing; call Stop to shut it down.
func NewCoordinator(logger *log.Logger, updateInterval time.Duration) *Coordinator {
	return &Coordinator{
		logger:         logger,
		players:        make(map[PlayerID]*Player),
		games:          make(map[GameCode]*Game),
		playerGame:     make(map[PlayerID]GameCode),
		ticks:          make(map[GameCode]chan struct{}),
		updateInterval: updateInterval,
		inbox:          make(chan coordinatorMessage, inboxSize),
		tickCh:         make(chan GameCode, 64),
		done:           make(chan struct{}),
	}
}

// Run processes the inbox and the scoring ticks until Stop is called.
// It owns every piece of mutable state and must run in exactly one
// goroutine for the lifetime of the coordinator.
func (c *Coordinator) Run() {
	for {
		select {
		case msg := <-c.inbox:
			c.handle(msg)
		case code := <-c.tickCh:
			c.handleTick(code)
		case <-c.done:
			return
		}
	}
}

// Stop ends Run and releases every per-game tick goroutine.
func (c *Coordinator) Stop() {
	close(c.done)
}

func (c *Coordinator) send(msg coordinatorMessage) {
	select {
	case c.inbox <- msg:
	case <-c.done:
	}
}

func (c *Coordinator) handle(msg coordinatorMessage) {
	switch m := msg.(type) {
	case connectMsg:
		c.handleConnect(m)
	case disconnectMsg:
		c.handleDisconnect(m)
	case createGameMsg:
		c.handleCreateGame(m)
	case joinGameMsg:
		c.handleJoinGame(m)
	case leaveGameMsg:
		m.reply <- c.leave(m.player)
	case startGameMsg:
		c.handleStartGame(m)
	case tagPlayerMsg:
		c.handleTagPlayer(m)
	case updatePositionMsg:
		c.handleUpdatePosition(m)
	case chatMsg:
		c.handleChat(m)
	default:
		c.logger.Warn("unhandled coordinator message", "type", m)
	}
}

// Connect registers a newly connected session under a fresh player id
// and the given display name, returning the id to hand back as
// Connected{id}.
func (c *Coordinator) Connect(name string, endpoint session.Endpoint) PlayerID {
	reply := make(chan PlayerID, 1)
	c.send(connectMsg{name: name, endpoint: endpoint, reply: reply})
	select {
	case id := <-reply:
		return id
	case <-c.done:
		return 0
	}
}

// Disconnect removes a player entirely: it leaves their current game
// (if any) exactly as LeaveGame would, then forgets the player.
func (c *Coordinator) Disconnect(player PlayerID) {
	c.send(disconnectMsg{player: player})
}

// CreateGame starts a new Waiting game hosted by player at origin,
// lasting minutes minutes once started.
func (c *Coordinator) CreateGame(player PlayerID, origin geo.Point, minutes uint64) protocol.ServerEvent {
	reply := make(chan protocol.ServerEvent, 1)
	c.send(createGameMsg{host: player, origin: origin, minutes: minutes, reply: reply})
	return c.await(reply)
}

// JoinGame adds player to the Waiting game identified by code.
func (c *Coordinator) JoinGame(player PlayerID, code GameCode) protocol.ServerEvent {
	reply := make(chan protocol.ServerEvent, 1)
	c.send(joinGameMsg{player: player, code: code, reply: reply})
	return c.await(reply)
}

// LeaveGame removes player from whatever game they are currently in.
func (c *Coordinator) LeaveGame(player PlayerID) protocol.ServerEvent {
	reply := make(chan protocol.ServerEvent, 1)
	c.send(leaveGameMsg{player: player, reply: reply})
	return c.await(reply)
}

// StartGame transitions the host's game from Waiting to Playing. A nil
// return means success (observed only via the GameStarted broadcast);
// a non-nil ErrorEvent is the direct reply to the caller alone.
func (c *Coordinator) StartGame(player PlayerID) protocol.ServerEvent {
	reply := make(chan protocol.ServerEvent, 1)
	c.send(startGameMsg{player: player, reply: reply})
	return c.await(reply)
}

// TagPlayer marks tagged as the new seeker if tagger is currently It.
func (c *Coordinator) TagPlayer(tagger, tagged PlayerID, photo string) protocol.ServerEvent {
	reply := make(chan protocol.ServerEvent, 1)
	c.send(tagPlayerMsg{tagger: tagger, tagged: tagged, photo: photo, reply: reply})
	return c.await(reply)
}

// UpdatePosition records player's last-known position for scoring. The
// call carries no synchronous value on success (nil), matching the
// protocol's "no reply" framing; it replies Error{"Player not found"}
// only in the abnormal case of an id the coordinator no longer knows
// about, which should not occur in normal operation (the session layer
// disconnects a player's socket the moment it forgets them).
func (c *Coordinator) UpdatePosition(player PlayerID, pos geo.Point) protocol.ServerEvent {
	reply := make(chan protocol.ServerEvent, 1)
	c.send(updatePositionMsg{player: player, pos: pos, reply: reply})
	return c.await(reply)
}

// Chat broadcasts message to every player in the sender's current game,
// including the sender.
func (c *Coordinator) Chat(player PlayerID, message string) {
	c.send(chatMsg{player: player, message: message})
}

func (c *Coordinator) await(reply chan protocol.ServerEvent) protocol.ServerEvent {
	select {
	case event := <-reply:
		return event
	case <-c.done:
		return nil
	}
}

func (c *Coordinator) handleConnect(m connectMsg) {
	id, err := idgen.PlayerID(func(candidate int64) bool {
		_, taken := c.players[PlayerID(candidate)]
		return taken
	})
	if err != nil {
		c.logger.Error("could not allocate player id", "error", err)
		close(m.reply)
		return
	}

	name := m.name
	if name == "" {
		name = "Anonymous"
	}
	c.players[PlayerID(id)] = &Player{ID: PlayerID(id), Name: name, Endpoint: m.endpoint}
	m.reply <- PlayerID(id)
}

func (c *Coordinator) handleDisconnect(m disconnectMsg) {
	if _, ok := c.players[m.player]; !ok {
		return
	}
	c.leave(m.player)
	delete(c.players, m.player)
}

func (c *Coordinator) handleCreateGame(m createGameMsg) {
	if _, inGame := c.playerGame[m.host]; inGame {
		m.reply <- protocol.Err("Already in a game")
		return
	}

	code, err := idgen.GameCode(func(candidate uint16) bool {
		_, taken := c.games[GameCode(candidate)]
		return taken
	})
	if err != nil {
		c.logger.Error("could not allocate game code", "error", err)
		m.reply <- protocol.Err("Could not create game")
		return
	}

	game := &Game{
		Code:   GameCode(code),
		Host:   m.host,
		Roster: []PlayerID{m.host},
		Origin: m.origin,
		Length: time.Duration(m.minutes) * time.Minute,
		state:  stateWaiting,
	}
	c.games[game.Code] = game
	c.playerGame[m.host] = game.Code

	m.reply <- protocol.JoinedGameEvent{
		ID:      game.Code,
		X:       game.Origin.Lat,
		Y:       game.Origin.Lng,
		Players: []protocol.RosterEntry{},
		Host:    game.Host,
	}
}

func (c *Coordinator) handleJoinGame(m joinGameMsg) {
	if _, inGame := c.playerGame[m.player]; inGame {
		m.reply <- protocol.Err("Already in a game")
		return
	}
	game, ok := c.games[m.code]
	if !ok {
		m.reply <- protocol.Err("Game does not exist")
		return
	}
	switch game.state {
	case statePlaying:
		m.reply <- protocol.Err("Game already started")
		return
	case stateEnded:
		m.reply <- protocol.Err("Game already ended")
		return
	}

	snapshot := make([]protocol.RosterEntry, 0, len(game.Roster))
	for _, id := range game.Roster {
		if p, ok := c.players[id]; ok {
			snapshot = append(snapshot, protocol.RosterEntry{ID: id, Name: p.Name})
		}
	}

	game.Roster = append(game.Roster, m.player)
	c.playerGame[m.player] = game.Code

	joiner := c.players[m.player]
	m.reply <- protocol.JoinedGameEvent{
		ID:      game.Code,
		X:       game.Origin.Lat,
		Y:       game.Origin.Lng,
		Players: snapshot,
		Host:    game.Host,
	}
	c.broadcast(game.Code, protocol.PlayerJoinedEvent{ID: m.player, Name: joiner.Name}, &m.player)
}

// leave is the shared tail of LeaveGame and Disconnect: remove player
// from their game's roster, resolve the resulting state, and broadcast
// PlayerLeft to whoever remains. Grounded on the original leave()
// procedure: host/seeker reassignment and end/cancel are only
// considered along the branch matching the game's state at the moment
// of departure, never both.
func (c *Coordinator) leave(player PlayerID) protocol.ServerEvent {
	code, ok := c.playerGame[player]
	if !ok {
		return protocol.Err("Could not leave game")
	}
	game := c.games[code]
	wasPlaying := game.state == statePlaying

	game.Roster = removeFromRoster(game.Roster, player)
	delete(c.playerGame, player)

	newHost := game.Host

	if wasPlaying {
		if len(game.Roster) < 2 {
			c.endGame(code)
		} else if game.playing.seeker == player {
			game.playing.seeker = game.Roster[rand.N(len(game.Roster))]
		}
	} else {
		if len(game.Roster) == 0 {
			c.cancelGame(code)
		} else if game.Host == player {
			game.Host = game.Roster[0]
			newHost = game.Host
		}
	}

	c.broadcast(code, protocol.PlayerLeftEvent{ID: player, NewHost: newHost}, &player)
	return protocol.LeftGameEvent{}
}

func (c *Coordinator) handleStartGame(m startGameMsg) {
	code, ok := c.playerGame[m.player]
	if !ok {
		m.reply <- protocol.Err("Could not start game")
		return
	}
	game := c.games[code]
	if game.Host != m.player {
		m.reply <- protocol.Err("Only the host can start the game")
		return
	}
	if len(game.Roster) < 2 {
		m.reply <- protocol.Err("Not enough players to start the game")
		return
	}
	if game.state != stateWaiting {
		m.reply <- protocol.Err("Could not start game")
		return
	}

	scores := make(map[PlayerID]float32, len(game.Roster))
	for _, id := range game.Roster {
		scores[id] = 0
	}
	seeker := game.Roster[rand.N(len(game.Roster))]

	game.state = statePlaying
	game.playing = &playing{seeker: seeker, startedAt: time.Now(), scores: scores}
	c.startTick(game.Code)

	m.reply <- nil
	c.broadcast(game.Code, protocol.GameStartedEvent{Seeker: seeker}, nil)
}

func (c *Coordinator) handleTagPlayer(m tagPlayerMsg) {
	code, ok := c.playerGame[m.tagger]
	if !ok {
		m.reply <- protocol.Err("Could not tag player")
		return
	}
	game := c.games[code]
	if game.state != statePlaying || game.playing.seeker != m.tagger {
		m.reply <- protocol.Err("Could not tag player")
		return
	}
	if !rosterContains(game.Roster, m.tagged) {
		m.reply <- protocol.Err("Could not tag player")
		return
	}

	game.playing.seeker = m.tagged
	m.reply <- nil
	c.broadcast(game.Code, protocol.PlayerTaggedEvent{Tagger: m.tagger, Tagged: m.tagged, Photo: m.photo}, nil)
}

func (c *Coordinator) handleUpdatePosition(m updatePositionMsg) {
	player, ok := c.players[m.player]
	if !ok {
		m.reply <- protocol.Err("Player not found")
		return
	}
	pos := m.pos
	player.Position = &pos
	m.reply <- nil
}

func (c *Coordinator) handleChat(m chatMsg) {
	code, ok := c.playerGame[m.player]
	if !ok {
		return
	}
	c.broadcast(code, protocol.ChatBroadcastEvent{Sender: m.player, Message: m.message}, nil)
}

// broadcast delivers event to every roster member of code except
// exclude (if non-nil), skipping any id no longer present in the
// player table (spec.md §4.4).
func (c *Coordinator) broadcast(code GameCode, event protocol.ServerEvent, exclude *PlayerID) {
	game, ok := c.games[code]
	if !ok {
		return
	}
	for _, id := range game.Roster {
		if exclude != nil && id == *exclude {
			continue
		}
		if player, ok := c.players[id]; ok {
			player.Endpoint.Send(event)
		}
	}
}
