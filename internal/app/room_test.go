package app

import (
	"strconv"
	"testing"

	"quiz-arena-service/internal/domain"
)

func TestRoomCodeRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		code := newRoomCode()
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("non-numeric code %q: %v", code, err)
		}
		if n < 1000 || n > 9999 {
			t.Fatalf("code %d out of range", n)
		}
	}
}

func TestRegistryLifecycle(t *testing.T) {
	reg := NewRegistry()
	room := newRoom("1234", "alice", domain.Settings{}, nil)

	if err := reg.Register(room); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, ok := reg.Lookup("1234"); !ok {
		t.Fatalf("expected room present")
	}

	dup := newRoom("1234", "bob", domain.Settings{}, nil)
	if err := reg.Register(dup); err != domain.ErrRoomCodeTaken {
		t.Fatalf("expected code collision error, got %v", err)
	}

	reg.Remove("1234")
	if _, ok := reg.Lookup("1234"); ok {
		t.Fatalf("expected room removed")
	}
	if reg.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", reg.Len())
	}
}

func TestCancelTimersIdempotent(t *testing.T) {
	room := newRoom("1234", "alice", domain.Settings{}, nil)

	// No timers armed yet; must not panic.
	room.cancelTimersLocked()
	room.cancelTimersLocked()
}
