package services

import (
	"sync"
	"testing"

	"github.com/vegcafe/cafe-voice-backend/internal/storage"
)

func TestGetOrCreateUserFirstNameWins(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewUserService(store)

	user, isNew, err := svc.GetOrCreateUser("9876543210", "Asha")
	if err != nil {
		t.Fatalf("GetOrCreateUser: %v", err)
	}
	if !isNew || user.Name != "Asha" {
		t.Errorf("first contact: isNew=%v name=%q", isNew, user.Name)
	}

	user, isNew, err = svc.GetOrCreateUser("9876543210", "A. Sharma")
	if err != nil {
		t.Fatalf("GetOrCreateUser second call: %v", err)
	}
	if isNew {
		t.Error("second contact should not be new")
	}
	if user.Name != "Asha" {
		t.Errorf("name should not be overwritten, got %q", user.Name)
	}
}

func TestGetActiveSessionCreatesThenReuses(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewUserService(store)

	first, err := svc.GetActiveSession("9876543210")
	if err != nil {
		t.Fatalf("GetActiveSession: %v", err)
	}
	second, err := svc.GetActiveSession("9876543210")
	if err != nil {
		t.Fatalf("GetActiveSession again: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected the same session, got %d then %d", first.ID, second.ID)
	}
}

func TestFlushSessionStartsFresh(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewUserService(store)

	first, _ := svc.GetActiveSession("9876543210")
	if err := svc.FlushSession("9876543210"); err != nil {
		t.Fatalf("FlushSession: %v", err)
	}

	next, err := svc.GetActiveSession("9876543210")
	if err != nil {
		t.Fatalf("GetActiveSession after flush: %v", err)
	}
	if next.ID == first.ID {
		t.Error("flush should force a fresh session")
	}
	if len(next.History) != 0 || len(next.CartItems) != 0 {
		t.Error("fresh session should start empty")
	}
}

// Concurrent first-contact turns for the same phone must agree on one session.
func TestConcurrentTurnsShareOneSession(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewUserService(store)

	const turns = 16
	ids := make([]uint, turns)
	var wg sync.WaitGroup
	wg.Add(turns)
	for i := 0; i < turns; i++ {
		go func(i int) {
			defer wg.Done()
			unlock := svc.LockPhone("9876543210")
			defer unlock()
			session, err := svc.GetActiveSession("9876543210")
			if err != nil {
				t.Errorf("turn %d: %v", i, err)
				return
			}
			ids[i] = session.ID
		}(i)
	}
	wg.Wait()

	for i := 1; i < turns; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("turn %d got session %d, turn 0 got %d", i, ids[i], ids[0])
		}
	}
}
