package protocol

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestDecodeClientEventVariants(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want ClientEvent
	}{
		{"connect", `{"Connect":{"name":"Alice"}}`, ConnectEvent{Name: "Alice"}},
		{"chat", `{"Chat":{"message":"hi"}}`, ChatEvent{Message: "hi"}},
		{"join", `{"JoinGame":{"game":42}}`, JoinGameEvent{Game: 42}},
		{"leave", `"LeaveGame"`, LeaveGameEvent{}},
		{"create", `{"CreateGame":{"x":1.5,"y":-2.5,"minutes":10}}`, CreateGameEvent{X: 1.5, Y: -2.5, Minutes: 10}},
		{"start", `"StartGame"`, StartGameEvent{}},
		{"position", `{"UpdatePosition":{"x":0.0001,"y":0}}`, UpdatePositionEvent{X: 0.0001, Y: 0}},
		{"tag", `{"TagPlayer":{"player":7,"photo":"x"}}`, TagPlayerEvent{Player: 7, Photo: "x"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeClientEvent([]byte(tc.in))
			if err != nil {
				t.Fatalf("DecodeClientEvent: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestDecodeClientEventInvalid(t *testing.T) {
	cases := []string{
		`not json`,
		`{}`,
		`{"Connect":{"name":"A"},"Chat":{"message":"b"}}`,
		`"Unknown"`,
		`{"Unknown":{}}`,
	}
	for _, in := range cases {
		if _, err := DecodeClientEvent([]byte(in)); err == nil {
			t.Fatalf("expected error decoding %q", in)
		}
	}
}

func TestEncodeServerEventVariants(t *testing.T) {
	cases := []struct {
		name string
		in   ServerEvent
		want string
	}{
		{"connected", ConnectedEvent{ID: 5}, `{"Connected":{"id":5}}`},
		{"error", Err("Already in a game"), `{"Error":{"message":"Already in a game"}}`},
		{"left", LeftGameEvent{}, `"LeftGame"`},
		{"started", GameStartedEvent{Seeker: 3}, `{"GameStarted":{"seeker":3}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := EncodeServerEvent(tc.in)
			if err != nil {
				t.Fatalf("EncodeServerEvent: %v", err)
			}
			if string(got) != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestJoinedGameEventEncodesRosterAsTuples(t *testing.T) {
	event := JoinedGameEvent{
		ID:      7,
		X:       1,
		Y:       2,
		Players: []RosterEntry{{ID: 1, Name: "Alice"}, {ID: 2, Name: "Bob"}},
		Host:    1,
	}
	data, err := EncodeServerEvent(event)
	if err != nil {
		t.Fatalf("EncodeServerEvent: %v", err)
	}

	want := `{"JoinedGame":{"id":7,"x":1,"y":2,"players":[[1,"Alice"],[2,"Bob"]],"host":1}}`
	if string(data) != want {
		t.Fatalf("got %s, want %s", data, want)
	}
}

func TestRosterEntryRoundTrip(t *testing.T) {
	entry := RosterEntry{ID: 9, Name: "Carol"}
	data, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded RosterEntry
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != entry {
		t.Fatalf("got %#v, want %#v", decoded, entry)
	}
}
