package internal

import (
	"sync"
	"testing"
)

func TestCreateDuplicateRoom(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Create("lobby", "pw"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	// a taken id fails no matter what password is supplied
	if err := reg.Create("lobby", "pw"); err != ErrRoomExists {
		t.Fatalf("expected ErrRoomExists, got %v", err)
	}
	if err := reg.Create("lobby", "other"); err != ErrRoomExists {
		t.Fatalf("expected ErrRoomExists for different password, got %v", err)
	}
}

func TestRoomAuthenticate(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Create("lobby", "pw"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	room, ok := reg.Get("lobby")
	if !ok {
		t.Fatalf("expected room to exist")
	}
	if !room.Authenticate("pw") {
		t.Fatalf("expected correct password to authenticate")
	}
	if room.Authenticate("wrongpw") {
		t.Fatalf("expected wrong password to fail")
	}
}

func TestMembersAndRetention(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Create("lobby", "pw"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	room, _ := reg.Get("lobby")
	room.AddMember("alice")
	room.AddMember("bob")
	room.AddMember("alice")
	members := room.Members()
	if len(members) != 2 || members[0] != "alice" || members[1] != "bob" {
		t.Fatalf("unexpected members: %v", members)
	}

	room.RemoveMember("alice")
	room.RemoveMember("bob")
	if room.Size() != 0 {
		t.Fatalf("expected empty room, got %d members", room.Size())
	}
	// an emptied room is retained for the life of the process
	if _, ok := reg.Get("lobby"); !ok {
		t.Fatalf("expected empty room to be retained")
	}
}

func TestAppendOrderAndIDs(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Create("lobby", "pw"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	room, _ := reg.Get("lobby")
	for i := 0; i < 50; i++ {
		room.Append("alice", "hello", nil)
	}
	history := room.History()
	if len(history) != 50 {
		t.Fatalf("expected 50 messages, got %d", len(history))
	}
	for i := 1; i < len(history); i++ {
		if history[i].ID <= history[i-1].ID {
			t.Fatalf("ids not strictly increasing at %d: %d then %d", i, history[i-1].ID, history[i].ID)
		}
	}
	if history[0].User != "alice" || history[0].Text != "hello" || history[0].Time == "" {
		t.Fatalf("unexpected message: %+v", history[0])
	}
}

func TestAppendDeliversStoredCopy(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Create("lobby", "pw"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	room, _ := reg.Get("lobby")
	var delivered Message
	stored := room.Append("bob", "hi", func(msg Message) {
		delivered = msg
	})
	if delivered != stored {
		t.Fatalf("delivered %+v, stored %+v", delivered, stored)
	}
	history := room.History()
	if len(history) != 1 || history[0] != stored {
		t.Fatalf("history does not contain the stored message: %+v", history)
	}
}

func TestConcurrentAppendsAcrossRooms(t *testing.T) {
	reg := NewRegistry()
	rooms := []string{"a", "b", "c"}
	for _, id := range rooms {
		if err := reg.Create(id, "pw"); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}
	const perRoom = 40
	var wg sync.WaitGroup
	for _, id := range rooms {
		room, _ := reg.Get(id)
		for w := 0; w < 2; w++ {
			wg.Add(1)
			go func(r *Room) {
				defer wg.Done()
				for i := 0; i < perRoom/2; i++ {
					r.Append("user", "msg", nil)
				}
			}(room)
		}
	}
	wg.Wait()

	seen := make(map[int64]bool)
	for _, id := range rooms {
		room, _ := reg.Get(id)
		history := room.History()
		if len(history) != perRoom {
			t.Fatalf("room %s: expected %d messages, got %d", id, perRoom, len(history))
		}
		for i, msg := range history {
			if seen[msg.ID] {
				t.Fatalf("duplicate message id %d", msg.ID)
			}
			seen[msg.ID] = true
			if i > 0 && msg.ID <= history[i-1].ID {
				t.Fatalf("room %s: ids out of order at %d", id, i)
			}
		}
	}
}

func TestRoomIDsSnapshot(t *testing.T) {
	reg := NewRegistry()
	if ids := reg.RoomIDs(); len(ids) != 0 {
		t.Fatalf("expected no rooms, got %v", ids)
	}
	for _, id := range []string{"zulu", "alpha", "mike"} {
		if err := reg.Create(id, "pw"); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}
	ids := reg.RoomIDs()
	if len(ids) != 3 || ids[0] != "alpha" || ids[1] != "mike" || ids[2] != "zulu" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}
