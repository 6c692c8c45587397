package reminder

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/HenryRohrback/reminder-pin/adherence"
	"github.com/HenryRohrback/reminder-pin/bluetooth"
	"github.com/HenryRohrback/reminder-pin/scheduler"
	"github.com/HenryRohrback/reminder-pin/utils"
)

const monitorInterval = 30 * time.Second

// Manager wires the device link, the adherence tracker and the dose
// scheduler together, and broadcasts state changes to web UI clients.
type Manager struct {
	mu       sync.Mutex
	link     bluetooth.Link
	timeSync *bluetooth.TimeSync
	tracker  *adherence.Tracker
	sched    *scheduler.Scheduler
	hub      *utils.Hub

	isRunning    bool
	stopChan     chan struct{}
	wasConnected bool
}

func NewManager(link bluetooth.Link, tracker *adherence.Tracker, sched *scheduler.Scheduler, hub *utils.Hub) *Manager {
	m := &Manager{
		link:     link,
		timeSync: bluetooth.NewTimeSync(link),
		tracker:  tracker,
		sched:    sched,
		hub:      hub,
	}
	sched.SetOnFire(func() {
		m.broadcast("notification/fired", map[string]interface{}{
			"timestamp": time.Now().Unix(),
		})
	})
	return m
}

// Start loads the persisted session state and begins scheduling.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isRunning {
		return fmt.Errorf("manager already running")
	}

	rec := m.tracker.Load(time.Now())
	log.Printf("MGR: loaded adherence state: streak=%d lastTaken=%q takenToday=%v",
		rec.Streak, rec.LastTaken, rec.TakenToday)

	// A fresh session starts a fresh notification eligibility window.
	m.sched.ResetGate()
	m.sched.Start()

	m.stopChan = make(chan struct{})
	go m.monitorConnection()

	m.isRunning = true
	return nil
}

// Stop tears down the scheduler and the device session.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isRunning {
		return
	}

	close(m.stopChan)
	m.sched.Stop()
	m.link.Disconnect()
	m.isRunning = false
	log.Println("MGR: stopped")
}

// Connect pairs with the pin and routes its notifications through the
// event decoder. Failures are surfaced once to the caller; recovery is
// user-initiated, never retried here.
func (m *Manager) Connect(ctx context.Context) error {
	m.link.OnNotify(m.handleNotification)
	if err := m.link.Connect(ctx); err != nil {
		log.Printf("MGR: connection failed: %v", err)
		return err
	}

	// Push the current schedule so the pin and the app agree after
	// pairing.
	sched := m.sched.Schedule()
	if err := m.timeSync.Sync(sched.Hour, sched.Minute); err != nil {
		log.Printf("MGR: time sync after connect failed: %v", err)
	}

	m.setConnected(true)
	m.broadcast("bluetooth/connected", map[string]interface{}{
		"timestamp": time.Now().Unix(),
	})
	return nil
}

// Disconnect tears down the device session.
func (m *Manager) Disconnect() {
	m.link.Disconnect()
	m.setConnected(false)
	m.broadcast("bluetooth/disconnected", map[string]interface{}{
		"timestamp": time.Now().Unix(),
	})
}

// MarkTakenNow records a manual "mark taken" action from the UI.
func (m *Manager) MarkTakenNow() adherence.Record {
	return m.markTaken(time.Now())
}

// SetReminderTime updates the schedule, restarts the dose timer and
// pushes the new time to the pin when connected.
func (m *Manager) SetReminderTime(hour, minute int) error {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("invalid reminder time %d:%d", hour, minute)
	}

	m.sched.SetSchedule(hour, minute)
	if err := m.timeSync.Sync(hour, minute); err != nil {
		log.Printf("MGR: time sync failed: %v", err)
	}

	m.broadcast("reminder/updated", map[string]interface{}{
		"hour":       hour,
		"minute":     minute,
		"time_until": m.sched.TimeUntil(),
	})
	return nil
}

// Adherence returns the current adherence record.
func (m *Manager) Adherence() adherence.Record {
	return m.tracker.Load(time.Now())
}

// Schedule returns the configured dose time.
func (m *Manager) Schedule() scheduler.Schedule {
	return m.sched.Schedule()
}

// TimeUntil formats the countdown to the next dose.
func (m *Manager) TimeUntil() string {
	return m.sched.TimeUntil()
}

// LinkState returns the device link state.
func (m *Manager) LinkState() bluetooth.State {
	return m.link.State()
}

func (m *Manager) handleNotification(data []byte) {
	text := bluetooth.DecodePayload(data)
	if !bluetooth.IsPillTakenEvent(text) {
		// Unrecognized payloads are a normal, silent case.
		return
	}
	log.Println("MGR: pill-taken event from pin")
	m.markTaken(time.Now())
}

func (m *Manager) markTaken(now time.Time) adherence.Record {
	rec, err := m.tracker.MarkTaken(now)
	if err != nil {
		log.Printf("MGR: failed to persist dose: %v", err)
	}
	m.broadcast("adherence/updated", rec)
	return rec
}

func (m *Manager) setConnected(connected bool) {
	m.mu.Lock()
	m.wasConnected = connected
	m.mu.Unlock()
}

// monitorConnection watches for the link dropping out from under us,
// e.g. the pin going out of range, and broadcasts the transition.
func (m *Manager) monitorConnection() {
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case <-ticker.C:
			m.checkConnectionStatus()
		}
	}
}

func (m *Manager) checkConnectionStatus() {
	connected := m.link.State() == bluetooth.StateConnected

	m.mu.Lock()
	was := m.wasConnected
	m.wasConnected = connected
	m.mu.Unlock()

	if connected == was {
		return
	}
	if connected {
		log.Println("MGR: pin connection established")
		m.broadcast("bluetooth/connected", map[string]interface{}{
			"timestamp": time.Now().Unix(),
		})
	} else {
		log.Println("MGR: pin connection lost")
		m.broadcast("bluetooth/disconnected", map[string]interface{}{
			"timestamp": time.Now().Unix(),
		})
	}
}

func (m *Manager) broadcast(eventType string, payload interface{}) {
	if m.hub != nil {
		m.hub.Broadcast(utils.Event{Type: eventType, Payload: payload})
	}
}
