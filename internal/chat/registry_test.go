package chat

import (
	"sync"
	"testing"
)

type fakeSender struct {
	mu     sync.Mutex
	frames [][]byte
}

func (f *fakeSender) Send(p []byte) bool {
	f.mu.Lock()
	f.frames = append(f.frames, p)
	f.mu.Unlock()
	return true
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func TestRegistry_RegisterAssignsUniqueIDs(t *testing.T) {
	reg := NewRegistry()
	a := reg.Register(&fakeSender{})
	b := reg.Register(&fakeSender{})
	if a == b {
		t.Fatalf("Register() assigned duplicate id %q", a)
	}
	if reg.Count() != 2 {
		t.Errorf("Count() = %d, want 2", reg.Count())
	}
}

func TestRegistry_UnregisterUnknownIsNoop(t *testing.T) {
	reg := NewRegistry()
	id := reg.Register(&fakeSender{})
	reg.Unregister("no-such-id")
	if reg.Count() != 1 {
		t.Errorf("Count() after unknown unregister = %d, want 1", reg.Count())
	}
	reg.Unregister(id)
	reg.Unregister(id) // second call must be harmless
	if reg.Count() != 0 {
		t.Errorf("Count() after double unregister = %d, want 0", reg.Count())
	}
}

func TestRegistry_EmitSkipsGoneConnections(t *testing.T) {
	reg := NewRegistry()
	alive := &fakeSender{}
	id1 := reg.Register(alive)
	id2 := reg.Register(&fakeSender{})
	reg.Unregister(id2)

	reg.Emit([]ConnID{id1, id2, "stale"}, []byte(`{"event":"x"}`))

	if alive.count() != 1 {
		t.Errorf("live connection received %d frames, want 1", alive.count())
	}
}

func TestRegistry_EmitConcurrentWithUnregister(t *testing.T) {
	reg := NewRegistry()
	ids := make([]ConnID, 0, 50)
	for i := 0; i < 50; i++ {
		ids = append(ids, reg.Register(&fakeSender{}))
	}
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			reg.Emit(ids, []byte("ping"))
		}
	}()
	go func() {
		defer wg.Done()
		for _, id := range ids {
			reg.Unregister(id)
		}
	}()
	wg.Wait()
	if reg.Count() != 0 {
		t.Errorf("Count() = %d, want 0", reg.Count())
	}
}
