package scheduler

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/HenryRohrback/reminder-pin/notify"
)

const (
	tickPeriod = 60 * time.Second
	dateLayout = "2006-01-02"

	alertTitle = "Time to take your pill!"
	alertBody  = "Tap to open the app and confirm."
)

// Schedule is the configured dose time of day.
type Schedule struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// DefaultSchedule is noon, matching a factory-fresh pin.
var DefaultSchedule = Schedule{Hour: 12, Minute: 0}

// NextDose returns the next occurrence of the scheduled time of day,
// rolled to tomorrow when today's slot has already passed.
func NextDose(now time.Time, sched Schedule) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), sched.Hour, sched.Minute, 0, 0, now.Location())
	if next.Before(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Countdown returns the whole minutes until next and the user-facing
// "<h>h <m>m" form.
func Countdown(now, next time.Time) (int, string) {
	diff := int(next.Sub(now) / time.Minute)
	return diff, fmt.Sprintf("%dh %dm", diff/60, diff%60)
}

// Scheduler evaluates the countdown to the next dose once a minute and
// fires at most one local alert per calendar day. Evaluation is
// periodic, so the alert lands within one tick period of the scheduled
// minute rather than on the exact second.
type Scheduler struct {
	mu            sync.Mutex
	port          notify.Port
	schedule      Schedule
	notifiedToday bool
	lastTickDate  string
	running       bool
	stopChan      chan struct{}

	now    func() time.Time
	onFire func()
}

func NewScheduler(port notify.Port) *Scheduler {
	return &Scheduler{
		port:     port,
		schedule: DefaultSchedule,
		now:      time.Now,
	}
}

// SetOnFire registers an observer invoked after each fired alert.
func (s *Scheduler) SetOnFire(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFire = fn
}

// Schedule returns the configured dose time.
func (s *Scheduler) Schedule() Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedule
}

// SetSchedule updates the dose time, cancels the outstanding timer and
// starts a fresh one with an immediate evaluation.
func (s *Scheduler) SetSchedule(hour, minute int) {
	s.mu.Lock()
	s.schedule = Schedule{Hour: hour, Minute: minute}
	wasRunning := s.running
	s.mu.Unlock()

	log.Printf("SCHED: reminder time set to %02d:%02d", hour, minute)
	if wasRunning {
		s.Stop()
		s.Start()
	}
}

// TimeUntil formats the time remaining until the next dose.
func (s *Scheduler) TimeUntil() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	_, until := Countdown(now, NextDose(now, s.schedule))
	return until
}

// ResetGate clears the once-per-day notification gate. Called on
// session load so a new day starts a fresh eligibility window.
func (s *Scheduler) ResetGate() {
	s.mu.Lock()
	s.notifiedToday = false
	s.mu.Unlock()
}

// Start begins periodic evaluation, with one immediate pass.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopChan = make(chan struct{})
	stop := s.stopChan
	s.mu.Unlock()

	s.evaluate(s.now())
	go s.run(stop)
}

// Stop cancels the repeating timer. Idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.stopChan)
	s.stopChan = nil
	s.running = false
}

func (s *Scheduler) run(stop chan struct{}) {
	ticker := time.NewTicker(tickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.evaluate(s.now())
		}
	}
}

// evaluate is one tick: recompute the countdown and fire the day's
// alert when the dose minute is reached. The gate is flipped under the
// lock before firing, so a doubled evaluation of the same tick still
// produces exactly one alert.
func (s *Scheduler) evaluate(now time.Time) {
	s.mu.Lock()

	today := now.Format(dateLayout)
	if s.lastTickDate != "" && s.lastTickDate != today {
		s.notifiedToday = false
	}
	s.lastTickDate = today

	next := NextDose(now, s.schedule)
	diffMinutes, _ := Countdown(now, next)

	fire := diffMinutes == 0 && !s.notifiedToday && s.port.IsGranted()
	if fire {
		s.notifiedToday = true
	}
	onFire := s.onFire
	s.mu.Unlock()

	if !fire {
		return
	}

	if err := s.port.Fire(alertTitle, alertBody); err != nil {
		log.Printf("SCHED: failed to fire dose alert: %v", err)
		return
	}
	log.Printf("SCHED: dose alert fired for %02d:%02d", s.Schedule().Hour, s.Schedule().Minute)
	if onFire != nil {
		onFire()
	}
}
