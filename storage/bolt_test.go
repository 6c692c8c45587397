package storage

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestBoltStoreSetGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reminder.db")
	store, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	defer store.Close()

	if err := store.Set("streak", "7"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := store.Get("streak")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "7" {
		t.Errorf("Expected value \"7\", got %q", got)
	}
}

func TestBoltStoreMissingKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reminder.db")
	store, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	defer store.Close()

	_, err = store.Get("lastTaken")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing key, got %v", err)
	}
}

func TestBoltStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reminder.db")

	store, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	if err := store.Set("lastTaken", "2026-08-30"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("OpenBolt after close: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get("lastTaken")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got != "2026-08-30" {
		t.Errorf("Expected value to survive reopen, got %q", got)
	}
}

func TestBoltStoreEmptyPath(t *testing.T) {
	if _, err := OpenBolt("  "); err == nil {
		t.Error("Expected error for empty storage path")
	}
}
