package wsserver

import (
	"context"
	"fmt"

	"github.com/coder/websocket"

	"github.com/vovakirdan/tagserver/internal/geo"
	"github.com/vovakirdan/tagserver/internal/protocol"
	"github.com/vovakirdan/tagserver/internal/session"
	"github.com/vovakirdan/tagserver/internal/tag"
)

// connHandler decodes inbound frames for one connection and dispatches
// each ClientEvent to the coordinator, translating replies back onto
// the session's own outbox. It is not safe for concurrent use — only
// the read pump goroutine touches it.
type connHandler struct {
	server *Server
	conn   *websocket.Conn
	ep     *session.ChannelEndpoint
	remote string

	connected bool
	playerID  tag.PlayerID
}

// readPump reads frames until the connection closes or ctx is
// cancelled (by the heartbeat timing out), decoding and dispatching
// each one in turn. Grounded on
// vedmedk0-ebiten-fullstack-template/internal/server/client.go's
// ReadPump loop, generalized from its single position-update message
// type to the full tagged-event union.
func (h *connHandler) readPump(ctx context.Context) {
	for {
		msgType, data, err := h.conn.Read(ctx)
		if err != nil {
			return
		}
		if msgType != websocket.MessageText {
			continue
		}

		event, err := protocol.DecodeClientEvent(data)
		if err != nil {
			h.ep.Send(protocol.Err(fmt.Sprintf("Invalid message: %v", err)))
			continue
		}

		h.dispatch(event)
	}
}

func (h *connHandler) dispatch(event protocol.ClientEvent) {
	if _, isConnect := event.(protocol.ConnectEvent); !isConnect && !h.connected {
		h.ep.Send(protocol.Err("Not connected"))
		return
	}

	switch e := event.(type) {
	case protocol.ConnectEvent:
		if h.connected {
			h.ep.Send(protocol.Err("Already connected"))
			return
		}
		id := h.server.coordinator.Connect(e.Name, h.ep)
		h.playerID = id
		h.connected = true
		h.ep.Send(protocol.ConnectedEvent{ID: id})

	case protocol.ChatEvent:
		h.server.coordinator.Chat(h.playerID, e.Message)

	case protocol.JoinGameEvent:
		h.reply(h.server.coordinator.JoinGame(h.playerID, e.Game))

	case protocol.LeaveGameEvent:
		h.reply(h.server.coordinator.LeaveGame(h.playerID))

	case protocol.CreateGameEvent:
		origin := geo.Point{Lat: e.X, Lng: e.Y}
		h.reply(h.server.coordinator.CreateGame(h.playerID, origin, e.Minutes))

	case protocol.StartGameEvent:
		h.reply(h.server.coordinator.StartGame(h.playerID))

	case protocol.UpdatePositionEvent:
		h.reply(h.server.coordinator.UpdatePosition(h.playerID, geo.Point{Lat: e.X, Lng: e.Y}))

	case protocol.TagPlayerEvent:
		h.reply(h.server.coordinator.TagPlayer(h.playerID, e.Player, e.Photo))

	default:
		h.ep.Send(protocol.Err(fmt.Sprintf("Invalid message: unhandled event %T", event)))
	}
}

// reply forwards a direct reply to the sender's own outbox, if the
// coordinator produced one (several operations reply only via
// broadcast and hand back nil).
func (h *connHandler) reply(event protocol.ServerEvent) {
	if event != nil {
		h.ep.Send(event)
	}
}
