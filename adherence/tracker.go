package adherence

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/HenryRohrback/reminder-pin/storage"
)

// Persisted key-value entries.
const (
	streakKey    = "streak"
	lastTakenKey = "lastTaken"
	dateLayout   = "2006-01-02"
)

// Record is the persisted adherence state plus the derived
// taken-today flag.
type Record struct {
	Streak     int    `json:"streak"`
	LastTaken  string `json:"last_taken,omitempty"` // YYYY-MM-DD, empty when never taken
	TakenToday bool   `json:"taken_today"`
}

// Tracker owns the streak state machine and is the sole mutator of the
// persisted adherence keys. Read-modify-persist happens under one lock,
// so a device button press and the manual UI action cannot interleave.
type Tracker struct {
	mu sync.Mutex
	kv storage.KeyValueStore
}

func NewTracker(kv storage.KeyValueStore) *Tracker {
	return &Tracker{kv: kv}
}

// MarkTaken records a dose for the local calendar date of now. Repeat
// calls on the same date are no-ops: any number of triggers within one
// day has the same observable effect as one.
func (t *Tracker) MarkTaken(now time.Time) (Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	today := now.Format(dateLayout)
	rec := t.load(today)
	if rec.LastTaken == today {
		return rec, nil
	}

	rec.Streak++
	rec.LastTaken = today
	rec.TakenToday = true
	if err := t.kv.Set(lastTakenKey, today); err != nil {
		return rec, fmt.Errorf("persist last taken: %w", err)
	}
	if err := t.kv.Set(streakKey, strconv.Itoa(rec.Streak)); err != nil {
		return rec, fmt.Errorf("persist streak: %w", err)
	}
	return rec, nil
}

// Load reads the persisted record for a session start. Missing or
// unparsable values become defaults, never errors.
func (t *Tracker) Load(now time.Time) Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.load(now.Format(dateLayout))
}

func (t *Tracker) load(today string) Record {
	var rec Record
	if v, err := t.kv.Get(streakKey); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n >= 0 {
			rec.Streak = n
		}
	}
	if v, err := t.kv.Get(lastTakenKey); err == nil {
		if _, err := time.Parse(dateLayout, v); err == nil {
			rec.LastTaken = v
		}
	}
	rec.TakenToday = rec.LastTaken != "" && rec.LastTaken == today
	return rec
}
