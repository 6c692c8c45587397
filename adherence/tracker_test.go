package adherence

import (
	"testing"
	"time"

	"github.com/HenryRohrback/reminder-pin/storage"
)

func date(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.Local)
}

func TestMarkTakenIdempotentSameDay(t *testing.T) {
	tracker := NewTracker(storage.NewMemStore())

	rec, err := tracker.MarkTaken(date(2026, time.March, 10, 9, 0))
	if err != nil {
		t.Fatalf("MarkTaken: %v", err)
	}
	if rec.Streak != 1 {
		t.Fatalf("Expected streak 1 after first mark, got %d", rec.Streak)
	}

	// Second trigger the same day must not double-count, even with a
	// different time of day.
	rec, err = tracker.MarkTaken(date(2026, time.March, 10, 21, 30))
	if err != nil {
		t.Fatalf("MarkTaken: %v", err)
	}
	if rec.Streak != 1 {
		t.Errorf("Expected streak to stay 1 for a same-day repeat, got %d", rec.Streak)
	}
	if !rec.TakenToday {
		t.Error("Expected TakenToday after marking")
	}
}

func TestMarkTakenConsecutiveDays(t *testing.T) {
	tracker := NewTracker(storage.NewMemStore())

	if _, err := tracker.MarkTaken(date(2026, time.March, 10, 12, 0)); err != nil {
		t.Fatalf("MarkTaken: %v", err)
	}
	rec, err := tracker.MarkTaken(date(2026, time.March, 11, 12, 0))
	if err != nil {
		t.Fatalf("MarkTaken: %v", err)
	}
	if rec.Streak != 2 {
		t.Errorf("Expected streak 2 after two consecutive days, got %d", rec.Streak)
	}
	if rec.LastTaken != "2026-03-11" {
		t.Errorf("Expected lastTaken 2026-03-11, got %q", rec.LastTaken)
	}
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	tracker := NewTracker(storage.NewMemStore())

	rec := tracker.Load(date(2026, time.March, 10, 8, 0))
	if rec.Streak != 0 {
		t.Errorf("Expected default streak 0, got %d", rec.Streak)
	}
	if rec.LastTaken != "" {
		t.Errorf("Expected absent lastTaken, got %q", rec.LastTaken)
	}
	if rec.TakenToday {
		t.Error("Expected TakenToday false with no history")
	}
}

func TestLoadDefaultsWhenUnparsable(t *testing.T) {
	kv := storage.NewMemStore()
	if err := kv.Set("streak", "not-a-number"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := kv.Set("lastTaken", "yesterday-ish"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	tracker := NewTracker(kv)

	rec := tracker.Load(date(2026, time.March, 10, 8, 0))
	if rec.Streak != 0 {
		t.Errorf("Expected garbage streak to read as 0, got %d", rec.Streak)
	}
	if rec.LastTaken != "" {
		t.Errorf("Expected garbage lastTaken to read as absent, got %q", rec.LastTaken)
	}
}

func TestLoadDerivesTakenToday(t *testing.T) {
	kv := storage.NewMemStore()
	tracker := NewTracker(kv)

	if _, err := tracker.MarkTaken(date(2026, time.March, 10, 12, 0)); err != nil {
		t.Fatalf("MarkTaken: %v", err)
	}

	rec := tracker.Load(date(2026, time.March, 10, 23, 0))
	if !rec.TakenToday {
		t.Error("Expected TakenToday on the same calendar date")
	}

	rec = tracker.Load(date(2026, time.March, 11, 0, 5))
	if rec.TakenToday {
		t.Error("Expected TakenToday to reset after the day rolls over")
	}
	if rec.Streak != 1 {
		t.Errorf("Expected streak 1 to survive the rollover, got %d", rec.Streak)
	}
}
