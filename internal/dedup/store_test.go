package dedup

import (
	"sync"
	"testing"
)

func TestStore_SeenAfterMark(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	if store.Seen(KindEmail, "e1") {
		t.Error("fresh store should not have seen e1")
	}

	store.MarkSeen(KindEmail, "e1")
	if !store.Seen(KindEmail, "e1") {
		t.Error("e1 should be seen after MarkSeen")
	}

	// Kinds are disjoint namespaces
	if store.Seen(KindEvent, "e1") {
		t.Error("event namespace should not see email id")
	}
}

func TestStore_MarkIfUnseen(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	if !store.MarkIfUnseen(KindEvent, "ev1") {
		t.Error("first claim should win")
	}
	if store.MarkIfUnseen(KindEvent, "ev1") {
		t.Error("second claim should lose")
	}
	if !store.Seen(KindEvent, "ev1") {
		t.Error("claimed item should be seen")
	}
}

func TestStore_ConcurrentClaims(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	const workers = 32
	var wg sync.WaitGroup
	wins := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if store.MarkIfUnseen(KindEmail, "contested") {
				wins <- true
			}
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	if count != 1 {
		t.Errorf("expected exactly 1 winning claim, got %d", count)
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	store.MarkSeen(KindEmail, "e1")
	store.MarkSeen(KindEvent, "ev1")
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	if !reopened.Seen(KindEmail, "e1") {
		t.Error("e1 should survive a restart")
	}
	if !reopened.Seen(KindEvent, "ev1") {
		t.Error("ev1 should survive a restart")
	}
	if reopened.Count(KindEmail) != 1 || reopened.Count(KindEvent) != 1 {
		t.Errorf("expected 1 item per kind, got %d/%d",
			reopened.Count(KindEmail), reopened.Count(KindEvent))
	}
}
