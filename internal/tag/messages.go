package tag

import (
	"github.com/vovakirdan/tagserver/internal/geo"
	"github.com/vovakirdan/tagserver/internal/protocol"
	"github.com/vovakirdan/tagserver/internal/session"
)

// coordinatorMessage is the tagged union of requests fed into the
// coordinator's inbox. Every public method on Coordinator builds one of
// these and hands it over the channel, mirroring the teacher's
// Coordinator.Send(CoordinatorMessage) dispatch but generalised so a
// caller can wait for a direct reply where the protocol defines one.
type coordinatorMessage interface {
	coordinatorMessage()
}

type connectMsg struct {
	name     string
	endpoint session.Endpoint
	reply    chan PlayerID
}

type disconnectMsg struct {
	player PlayerID
}

type createGameMsg struct {
	host    PlayerID
	origin  geo.Point
	minutes uint64
	reply   chan protocol.ServerEvent
}

type joinGameMsg struct {
	player PlayerID
	code   GameCode
	reply  chan protocol.ServerEvent
}

type leaveGameMsg struct {
	player PlayerID
	reply  chan protocol.ServerEvent
}

type startGameMsg struct {
	player PlayerID
	reply  chan protocol.ServerEvent
}

type tagPlayerMsg struct {
	tagger PlayerID
	tagged PlayerID
	photo  string
	reply  chan protocol.ServerEvent
}

type updatePositionMsg struct {
	player PlayerID
	pos    geo.Point
	reply  chan protocol.ServerEvent
}

type chatMsg struct {
	player  PlayerID
	message string
}

func (connectMsg) coordinatorMessage()        {}
func (disconnectMsg) coordinatorMessage()     {}
func (createGameMsg) coordinatorMessage()     {}
func (joinGameMsg) coordinatorMessage()       {}
func (leaveGameMsg) coordinatorMessage()      {}
func (startGameMsg) coordinatorMessage()      {}
func (tagPlayerMsg) coordinatorMessage()      {}
func (updatePositionMsg) coordinatorMessage() {}
func (chatMsg) coordinatorMessage()           {}
