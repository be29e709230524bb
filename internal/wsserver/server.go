// Package wsserver is the WebSocket entry point: it upgrades incoming
// HTTP requests on GET /ws, runs one read pump and one write pump per
// connection, and enforces the heartbeat that triggers Disconnect on a
// silent peer. Grounded on the teacher's SSHServer in
// internal/platform/tui/ssh_server.go for the server lifecycle
// (config struct -> constructor -> ListenAndServe -> signal-triggered
// graceful Shutdown) and on
// vedmedk0-ebiten-fullstack-template/internal/server/{server,client}.go
// for the concrete WebSocket read/write pump shape, adapted from its
// gorilla-style pong-handler-free loop to this protocol's tagged-event
// dispatch and the original session's ping/pong heartbeat contract
// (original_source/backend/src/session.rs).
package wsserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/websocket"

	"github.com/vovakirdan/tagserver/internal/geo"
	"github.com/vovakirdan/tagserver/internal/protocol"
	"github.com/vovakirdan/tagserver/internal/session"
	"github.com/vovakirdan/tagserver/internal/tag"
)

// Coordinator is the subset of *tag.Coordinator the server drives; kept
// as an interface so tests can substitute a fake.
type Coordinator interface {
	Connect(name string, endpoint session.Endpoint) tag.PlayerID
	Disconnect(player tag.PlayerID)
	CreateGame(player tag.PlayerID, origin geo.Point, minutes uint64) protocol.ServerEvent
	JoinGame(player tag.PlayerID, code tag.GameCode) protocol.ServerEvent
	LeaveGame(player tag.PlayerID) protocol.ServerEvent
	StartGame(player tag.PlayerID) protocol.ServerEvent
	TagPlayer(tagger, tagged tag.PlayerID, photo string) protocol.ServerEvent
	UpdatePosition(player tag.PlayerID, pos geo.Point) protocol.ServerEvent
	Chat(player tag.PlayerID, message string)
}

// Config controls the listener and the per-connection heartbeat.
type Config struct {
	Address            string
	HeartbeatInterval  time.Duration
	ClientTimeout      time.Duration
	InsecureSkipVerify bool
}

// DefaultConfig matches the constants spec.md §5 fixes.
func DefaultConfig() Config {
	return Config{
		Address:           ":8080",
		HeartbeatInterval: 5 * time.Second,
		ClientTimeout:     10 * time.Second,
	}
}

const maxMessageSize = 4096

// Server owns the HTTP listener and wires every accepted connection to
// the coordinator.
type Server struct {
	config      Config
	coordinator Coordinator
	logger      *log.Logger
	http        *http.Server
}

// New creates a Server that has not yet started listening.
func New(cfg Config, coordinator Coordinator, logger *log.Logger) *Server {
	return &Server{config: cfg, coordinator: coordinator, logger: logger}
}

// ListenAndServe blocks serving the WebSocket endpoint until Shutdown is
// called (or the listener fails outright).
func (s *Server) ListenAndServe() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)

	s.http = &http.Server{
		Addr:    s.config.Address,
		Handler: mux,
	}

	s.logger.Info("starting websocket server", "address", s.config.Address)
	err := s.http.ListenAndServe()
	if err != nil && errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops accepting new connections.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: s.config.InsecureSkipVerify,
	})
	if err != nil {
		s.logger.Error("websocket accept failed", "error", err)
		return
	}
	wsConn.SetReadLimit(maxMessageSize)

	remote := r.RemoteAddr
	if host, _, splitErr := net.SplitHostPort(remote); splitErr == nil {
		remote = host
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ep := session.NewChannelEndpoint()
	h := &connHandler{
		server: s,
		conn:   wsConn,
		ep:     ep,
		remote: remote,
	}

	go s.heartbeat(ctx, wsConn, cancel)
	go s.writePump(ctx, wsConn, ep)

	h.readPump(ctx)

	cancel()
	ep.Close()
	if h.connected {
		s.coordinator.Disconnect(h.playerID)
	}
	_ = wsConn.Close(websocket.StatusNormalClosure, "")
}

// heartbeat pings the peer every HeartbeatInterval and cancels ctx (which
// unblocks the read pump) if a pong isn't observed within ClientTimeout,
// mirroring HEARTBEAT_INTERVAL/CLIENT_TIMEOUT from
// original_source/backend/src/session.rs.
func (s *Server) heartbeat(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc) {
	ticker := time.NewTicker(s.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, pingCancel := context.WithTimeout(ctx, s.config.ClientTimeout)
			err := conn.Ping(pingCtx)
			pingCancel()
			if err != nil {
				s.logger.Debug("client heartbeat timed out", "error", err)
				cancel()
				return
			}
		}
	}
}

// writePump drains ep's outbox and writes each event as one text frame,
// preserving per-recipient delivery order (spec.md §5 ordering
// guarantee (a)).
func (s *Server) writePump(ctx context.Context, conn *websocket.Conn, ep *session.ChannelEndpoint) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-ep.Outbox():
			data, err := protocol.EncodeServerEvent(event)
			if err != nil {
				s.logger.Error("encode server event", "error", err)
				continue
			}
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				return
			}
		}
	}
}
