package scheduler

import (
	"testing"
	"time"
)

type fakePort struct {
	granted bool
	fired   []string
}

func (p *fakePort) IsGranted() bool          { return p.granted }
func (p *fakePort) RequestPermission() error { return nil }
func (p *fakePort) Fire(title, body string) error {
	p.fired = append(p.fired, title)
	return nil
}

func at(hh, mm int) time.Time {
	return time.Date(2026, time.March, 10, hh, mm, 0, 0, time.Local)
}

func TestCountdownOneHourBefore(t *testing.T) {
	now := at(11, 0)
	next := NextDose(now, Schedule{Hour: 12, Minute: 0})

	diff, until := Countdown(now, next)
	if diff != 60 {
		t.Errorf("Expected 60 minutes, got %d", diff)
	}
	if until != "1h 0m" {
		t.Errorf("Expected \"1h 0m\", got %q", until)
	}
}

func TestCountdownRollsToNextDay(t *testing.T) {
	now := at(12, 1)
	next := NextDose(now, Schedule{Hour: 12, Minute: 0})

	if next.Day() != 11 {
		t.Fatalf("Expected next dose tomorrow, got %v", next)
	}
	_, until := Countdown(now, next)
	if until != "23h 59m" {
		t.Errorf("Expected \"23h 59m\", got %q", until)
	}
}

func TestNextDoseAtExactMinute(t *testing.T) {
	now := at(12, 0)
	next := NextDose(now, Schedule{Hour: 12, Minute: 0})

	if !next.Equal(now) {
		t.Errorf("Expected next dose to be now at the exact minute, got %v", next)
	}
}

func TestFiresOnceAtDoseMinute(t *testing.T) {
	port := &fakePort{granted: true}
	s := NewScheduler(port)

	s.evaluate(at(12, 0))
	// A doubled evaluation of the same tick must not fire twice.
	s.evaluate(at(12, 0))

	if len(port.fired) != 1 {
		t.Errorf("Expected exactly one alert, got %d", len(port.fired))
	}
	if len(port.fired) > 0 && port.fired[0] != "Time to take your pill!" {
		t.Errorf("Unexpected alert title %q", port.fired[0])
	}
}

func TestNoFireBeforeDoseMinute(t *testing.T) {
	port := &fakePort{granted: true}
	s := NewScheduler(port)

	s.evaluate(at(11, 59))
	if len(port.fired) != 0 {
		t.Errorf("Expected no alert before the dose minute, got %d", len(port.fired))
	}
}

func TestNoFireWithoutCapability(t *testing.T) {
	port := &fakePort{granted: false}
	s := NewScheduler(port)

	s.evaluate(at(12, 0))
	if len(port.fired) != 0 {
		t.Errorf("Expected silent degradation without the capability, got %d alerts", len(port.fired))
	}
	// The countdown itself keeps working.
	if until := s.TimeUntil(); until == "" {
		t.Error("Expected TimeUntil to be computed regardless of capability")
	}
}

func TestGateResetsOnSessionLoad(t *testing.T) {
	port := &fakePort{granted: true}
	s := NewScheduler(port)

	s.evaluate(at(12, 0))
	if len(port.fired) != 1 {
		t.Fatalf("Expected one alert, got %d", len(port.fired))
	}

	// A new session load models a new day's eligibility window.
	s.ResetGate()
	s.evaluate(at(12, 0))
	if len(port.fired) != 2 {
		t.Errorf("Expected a fresh session to fire again, got %d alerts", len(port.fired))
	}
}

func TestGateResetsOnDayRollover(t *testing.T) {
	port := &fakePort{granted: true}
	s := NewScheduler(port)

	s.evaluate(at(12, 0))
	s.evaluate(time.Date(2026, time.March, 11, 12, 0, 0, 0, time.Local))

	if len(port.fired) != 2 {
		t.Errorf("Expected one alert per day across a rollover, got %d", len(port.fired))
	}
}

func TestSetScheduleChangesCountdown(t *testing.T) {
	port := &fakePort{granted: true}
	s := NewScheduler(port)
	s.now = func() time.Time { return at(11, 0) }

	s.SetSchedule(11, 30)
	if until := s.TimeUntil(); until != "0h 30m" {
		t.Errorf("Expected \"0h 30m\" after schedule change, got %q", until)
	}
}
