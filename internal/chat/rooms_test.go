package chat

import (
	"errors"
	"testing"
)

func testRooms() *Rooms {
	return NewRooms([]string{"devops", "cloud computing", "covid19", "sports", "nodeJS"})
}

func TestRooms_JoinUnknownRoom(t *testing.T) {
	r := testRooms()
	err := r.Join("c1", "narnia")
	if !errors.Is(err, ErrUnknownRoom) {
		t.Fatalf("Join(narnia) error = %v, want ErrUnknownRoom", err)
	}
	if _, ok := r.RoomOf("c1"); ok {
		t.Error("failed join must not create membership")
	}
}

func TestRooms_SingleRoomInvariant(t *testing.T) {
	r := testRooms()
	if err := r.Join("c1", "devops"); err != nil {
		t.Fatalf("Join(devops) error = %v", err)
	}
	if err := r.Join("c1", "sports"); err != nil {
		t.Fatalf("Join(sports) error = %v", err)
	}
	if room, _ := r.RoomOf("c1"); room != "sports" {
		t.Errorf("RoomOf(c1) = %q, want sports", room)
	}
	if got := r.MembersOf("devops"); len(got) != 0 {
		t.Errorf("MembersOf(devops) = %v, want empty after switch", got)
	}
	if got := r.MembersOf("sports"); len(got) != 1 {
		t.Errorf("MembersOf(sports) = %v, want 1 member", got)
	}
}

func TestRooms_LeaveIsIdempotent(t *testing.T) {
	r := testRooms()
	_ = r.Join("c1", "devops")
	r.Leave("c1")
	r.Leave("c1")
	r.Leave("never-joined")
	if _, ok := r.RoomOf("c1"); ok {
		t.Error("RoomOf(c1) still set after leave")
	}
	if r.Online("devops") != 0 {
		t.Errorf("Online(devops) = %d, want 0", r.Online("devops"))
	}
}

func TestRooms_MembersOfReturnsSnapshot(t *testing.T) {
	r := testRooms()
	_ = r.Join("c1", "devops")
	_ = r.Join("c2", "devops")
	snap := r.MembersOf("devops")
	r.Leave("c1")
	if len(snap) != 2 {
		t.Errorf("snapshot mutated by later leave: %v", snap)
	}
}

func TestRooms_NamesPreservesConfigOrder(t *testing.T) {
	r := testRooms()
	names := r.Names()
	want := []string{"devops", "cloud computing", "covid19", "sports", "nodeJS"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}
