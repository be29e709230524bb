package idgen

import "testing"

func TestPlayerIDAvoidsTaken(t *testing.T) {
	taken := map[int64]bool{1: true, 2: true}
	takenFn := func(id int64) bool { return taken[id] }

	for i := 0; i < 100; i++ {
		id, err := PlayerID(takenFn)
		if err != nil {
			t.Fatalf("PlayerID: %v", err)
		}
		if taken[id] {
			t.Fatalf("PlayerID returned an id already marked taken: %d", id)
		}
		taken[id] = true
	}
}

func TestGameCodeAvoidsTaken(t *testing.T) {
	taken := map[uint16]bool{7: true}
	takenFn := func(code uint16) bool { return taken[code] }

	code, err := GameCode(takenFn)
	if err != nil {
		t.Fatalf("GameCode: %v", err)
	}
	if taken[code] {
		t.Fatalf("GameCode returned an id already marked taken: %d", code)
	}
}

func TestGameCodeExhausted(t *testing.T) {
	_, err := GameCode(func(uint16) bool { return true })
	if err == nil {
		t.Fatal("expected an error when every candidate is taken")
	}
}
