// Package session defines the transport-neutral handle the coordinator
// uses to deliver events to a connected client, and a channel-backed
// implementation of it. This is the "session endpoint" of spec.md §2:
// specified there only at its interface, but implemented fully here so
// the repository is a runnable server — see SPEC_FULL.md.
//
// Grounded on the teacher's SessionHandle/ChannelSession pair in
// internal/multiplayer/session.go: a non-blocking Send backed by a
// buffered channel, dropping the oldest queued event rather than
// blocking the coordinator when a slow or dead client falls behind.
package session

import (
	"sync"

	"github.com/vovakirdan/tagserver/internal/protocol"
)

// Endpoint is how the coordinator delivers a ServerEvent to one
// connected client without ever blocking on that client's socket.
// Implementations must make Send non-blocking.
type Endpoint interface {
	// Send enqueues an event for delivery. Must never block the caller.
	Send(event protocol.ServerEvent)
}

// outboxSize bounds how many not-yet-written events a slow client can
// accumulate before older ones are dropped.
const outboxSize = 64

// ChannelEndpoint is an Endpoint backed by a buffered Go channel; the
// WebSocket write pump drains Outbox() and writes each event to the
// socket in order, satisfying the ordering guarantee in spec.md §5.
type ChannelEndpoint struct {
	outbox   chan protocol.ServerEvent
	done     chan struct{}
	doneOnce sync.Once
}

// NewChannelEndpoint creates an Endpoint with a fixed-size outbox.
func NewChannelEndpoint() *ChannelEndpoint {
	return &ChannelEndpoint{
		outbox: make(chan protocol.ServerEvent, outboxSize),
		done:   make(chan struct{}),
	}
}

// Send enqueues an event, dropping the oldest queued event if the
// outbox is full rather than blocking the coordinator.
func (e *ChannelEndpoint) Send(event protocol.ServerEvent) {
	select {
	case <-e.done:
		return
	default:
	}

	select {
	case e.outbox <- event:
		return
	default:
	}

	select {
	case <-e.outbox:
	default:
	}

	select {
	case e.outbox <- event:
	default:
	}
}

// Outbox returns the channel the write pump reads queued events from.
func (e *ChannelEndpoint) Outbox() <-chan protocol.ServerEvent {
	return e.outbox
}

// Done returns a channel closed once the endpoint is shut down.
func (e *ChannelEndpoint) Done() <-chan struct{} {
	return e.done
}

// Close marks the endpoint as shut down. Safe to call more than once.
func (e *ChannelEndpoint) Close() {
	e.doneOnce.Do(func() {
		close(e.done)
	})
}
