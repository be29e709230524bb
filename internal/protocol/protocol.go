// Package protocol implements the wire codec for client<->server events:
// a tagged union serialised as a single-key object naming the variant
// (value object carrying its fields), or the bare tag string for
// variants with no fields. This is the representation serde_json
// produces for Rust enums by default, and is reproduced here
// byte-for-byte so existing clients of the original implementation
// (see original_source/) keep working against this Go port — it is part
// of the observable contract per spec.md §7.
//
// The sum-type-as-interface technique (a marker method tying each
// concrete event struct to its union) follows the teacher's
// SessionEvent/CoordinatorMessage pattern in
// internal/multiplayer/events.go; the externally-tagged envelope shape
// itself is adapted from the {"type", "data"} envelope in
// vedmedk0-ebiten-fullstack-template/internal/protocol/messages.go.
package protocol

import (
	"encoding/json"
	"fmt"
)

// PlayerID uniquely identifies a connected player for the lifetime of
// the process.
type PlayerID int64

// GameCode identifies a lobby/match; short enough to read aloud or type
// on a phone keyboard.
type GameCode uint16

// ClientEvent is the tagged union of events a session delivers to the
// coordinator on behalf of its connected player.
type ClientEvent interface {
	clientEvent()
}

type ConnectEvent struct {
	Name string
}

type ChatEvent struct {
	Message string
}

type JoinGameEvent struct {
	Game GameCode
}

type LeaveGameEvent struct{}

type CreateGameEvent struct {
	X       float64
	Y       float64
	Minutes uint64
}

type StartGameEvent struct{}

type UpdatePositionEvent struct {
	X float64
	Y float64
}

type TagPlayerEvent struct {
	Player PlayerID
	Photo  string
}

func (ConnectEvent) clientEvent()        {}
func (ChatEvent) clientEvent()           {}
func (JoinGameEvent) clientEvent()       {}
func (LeaveGameEvent) clientEvent()      {}
func (CreateGameEvent) clientEvent()     {}
func (StartGameEvent) clientEvent()      {}
func (UpdatePositionEvent) clientEvent() {}
func (TagPlayerEvent) clientEvent()      {}

// ServerEvent is the tagged union of events the coordinator emits,
// either as a direct reply to one session or as a broadcast to a game's
// roster.
type ServerEvent interface {
	serverEvent()
}

type ConnectedEvent struct {
	ID PlayerID
}

type ChatBroadcastEvent struct {
	Sender  PlayerID
	Message string
}

type ErrorEvent struct {
	Message string
}

// RosterEntry is one (id, name) pair in a JoinedGame snapshot. It
// serialises as a two-element JSON array, matching how serde_json
// encodes a Rust tuple.
type RosterEntry struct {
	ID   PlayerID
	Name string
}

type JoinedGameEvent struct {
	ID      GameCode
	X       float64
	Y       float64
	Players []RosterEntry
	Host    PlayerID
}

type PlayerJoinedEvent struct {
	ID   PlayerID
	Name string
}

type PlayerLeftEvent struct {
	ID      PlayerID
	NewHost PlayerID
}

type LeftGameEvent struct{}

type GameStartedEvent struct {
	Seeker PlayerID
}

type PlayerTaggedEvent struct {
	Tagger PlayerID
	Tagged PlayerID
	Photo  string
}

type ScoreUpdateEvent struct {
	Scores      map[PlayerID]float32
	SecondsLeft uint64
}

type GameEndedEvent struct {
	Winner PlayerID
}

func (ConnectedEvent) serverEvent()      {}
func (ChatBroadcastEvent) serverEvent()  {}
func (ErrorEvent) serverEvent()          {}
func (JoinedGameEvent) serverEvent()     {}
func (PlayerJoinedEvent) serverEvent()   {}
func (PlayerLeftEvent) serverEvent()     {}
func (LeftGameEvent) serverEvent()       {}
func (GameStartedEvent) serverEvent()    {}
func (PlayerTaggedEvent) serverEvent()   {}
func (ScoreUpdateEvent) serverEvent()    {}
func (GameEndedEvent) serverEvent()      {}

// Err builds an ErrorEvent, the shorthand the coordinator reaches for on
// every precondition failure.
func Err(message string) ErrorEvent {
	return ErrorEvent{Message: message}
}

// MarshalJSON implements the two-element tuple wire form for a roster
// entry: [id, name].
func (e RosterEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.ID, e.Name})
}

// UnmarshalJSON parses the two-element tuple wire form for a roster
// entry.
func (e *RosterEntry) UnmarshalJSON(data []byte) error {
	var tuple [2]json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("protocol: decode roster entry: %w", err)
	}
	if err := json.Unmarshal(tuple[0], &e.ID); err != nil {
		return fmt.Errorf("protocol: decode roster entry id: %w", err)
	}
	if err := json.Unmarshal(tuple[1], &e.Name); err != nil {
		return fmt.Errorf("protocol: decode roster entry name: %w", err)
	}
	return nil
}

// DecodeClientEvent decodes one inbound text frame into a ClientEvent.
// A malformed or unrecognised frame returns an error; callers (the
// session endpoint) turn that into an Error{"Invalid message: ..."}
// reply per spec.md §4.2 without touching coordinator state.
func DecodeClientEvent(data []byte) (ClientEvent, error) {
	var bareTag string
	if err := json.Unmarshal(data, &bareTag); err == nil {
		switch bareTag {
		case "LeaveGame":
			return LeaveGameEvent{}, nil
		case "StartGame":
			return StartGameEvent{}, nil
		default:
			return nil, fmt.Errorf("protocol: unknown variant %q", bareTag)
		}
	}

	var variant map[string]json.RawMessage
	if err := json.Unmarshal(data, &variant); err != nil {
		return nil, fmt.Errorf("protocol: malformed frame: %w", err)
	}
	if len(variant) != 1 {
		return nil, fmt.Errorf("protocol: expected exactly one variant key, got %d", len(variant))
	}

	for tag, fields := range variant {
		switch tag {
		case "Connect":
			var f struct {
				Name string `json:"name"`
			}
			if err := json.Unmarshal(fields, &f); err != nil {
				return nil, fmt.Errorf("protocol: decode Connect: %w", err)
			}
			return ConnectEvent{Name: f.Name}, nil

		case "Chat":
			var f struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(fields, &f); err != nil {
				return nil, fmt.Errorf("protocol: decode Chat: %w", err)
			}
			return ChatEvent{Message: f.Message}, nil

		case "JoinGame":
			var f struct {
				Game GameCode `json:"game"`
			}
			if err := json.Unmarshal(fields, &f); err != nil {
				return nil, fmt.Errorf("protocol: decode JoinGame: %w", err)
			}
			return JoinGameEvent{Game: f.Game}, nil

		case "CreateGame":
			var f struct {
				X       float64 `json:"x"`
				Y       float64 `json:"y"`
				Minutes uint64  `json:"minutes"`
			}
			if err := json.Unmarshal(fields, &f); err != nil {
				return nil, fmt.Errorf("protocol: decode CreateGame: %w", err)
			}
			return CreateGameEvent{X: f.X, Y: f.Y, Minutes: f.Minutes}, nil

		case "UpdatePosition":
			var f struct {
				X float64 `json:"x"`
				Y float64 `json:"y"`
			}
			if err := json.Unmarshal(fields, &f); err != nil {
				return nil, fmt.Errorf("protocol: decode UpdatePosition: %w", err)
			}
			return UpdatePositionEvent{X: f.X, Y: f.Y}, nil

		case "TagPlayer":
			var f struct {
				Player PlayerID `json:"player"`
				Photo  string   `json:"photo"`
			}
			if err := json.Unmarshal(fields, &f); err != nil {
				return nil, fmt.Errorf("protocol: decode TagPlayer: %w", err)
			}
			return TagPlayerEvent{Player: f.Player, Photo: f.Photo}, nil

		default:
			return nil, fmt.Errorf("protocol: unknown variant %q", tag)
		}
	}

	panic("unreachable")
}

// EncodeServerEvent encodes an outbound ServerEvent as one text frame.
func EncodeServerEvent(event ServerEvent) ([]byte, error) {
	switch e := event.(type) {
	case ConnectedEvent:
		return encodeVariant("Connected", struct {
			ID PlayerID `json:"id"`
		}{ID: e.ID})

	case ChatBroadcastEvent:
		return encodeVariant("Chat", struct {
			Sender  PlayerID `json:"sender"`
			Message string   `json:"message"`
		}{Sender: e.Sender, Message: e.Message})

	case ErrorEvent:
		return encodeVariant("Error", struct {
			Message string `json:"message"`
		}{Message: e.Message})

	case JoinedGameEvent:
		return encodeVariant("JoinedGame", struct {
			ID      GameCode      `json:"id"`
			X       float64       `json:"x"`
			Y       float64       `json:"y"`
			Players []RosterEntry `json:"players"`
			Host    PlayerID      `json:"host"`
		}{ID: e.ID, X: e.X, Y: e.Y, Players: e.Players, Host: e.Host})

	case PlayerJoinedEvent:
		return encodeVariant("PlayerJoined", struct {
			ID   PlayerID `json:"id"`
			Name string   `json:"name"`
		}{ID: e.ID, Name: e.Name})

	case PlayerLeftEvent:
		return encodeVariant("PlayerLeft", struct {
			ID      PlayerID `json:"id"`
			NewHost PlayerID `json:"new_host"`
		}{ID: e.ID, NewHost: e.NewHost})

	case LeftGameEvent:
		return json.Marshal("LeftGame")

	case GameStartedEvent:
		return encodeVariant("GameStarted", struct {
			Seeker PlayerID `json:"seeker"`
		}{Seeker: e.Seeker})

	case PlayerTaggedEvent:
		return encodeVariant("PlayerTagged", struct {
			Tagger PlayerID `json:"tagger"`
			Tagged PlayerID `json:"tagged"`
			Photo  string   `json:"photo"`
		}{Tagger: e.Tagger, Tagged: e.Tagged, Photo: e.Photo})

	case ScoreUpdateEvent:
		return encodeVariant("ScoreUpdate", struct {
			Scores      map[PlayerID]float32 `json:"scores"`
			SecondsLeft uint64                `json:"seconds_left"`
		}{Scores: e.Scores, SecondsLeft: e.SecondsLeft})

	case GameEndedEvent:
		return encodeVariant("GameEnded", struct {
			Winner PlayerID `json:"winner"`
		}{Winner: e.Winner})

	default:
		return nil, fmt.Errorf("protocol: unhandled server event type %T", event)
	}
}

func encodeVariant(tag string, fields any) ([]byte, error) {
	return json.Marshal(map[string]any{tag: fields})
}
