package bluetooth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
)

// State is the device link lifecycle state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateDiscovering  State = "discovering"
	StateConnected    State = "connected"
	StateError        State = "error"
)

// ErrNotConnected is returned by Write outside the Connected state.
var ErrNotConnected = errors.New("device link is not connected")

// Link is the transport contract for the reminder pin. The concrete
// transport (BlueZ today) is swappable behind it.
type Link interface {
	Connect(ctx context.Context) error
	Write(data []byte) error
	OnNotify(fn func(data []byte))
	Disconnect()
	State() State
}

// BlueZLink talks to the reminder pin through BlueZ over the system
// D-Bus: one GATT write characteristic for time sync, one notify
// characteristic for button-press events.
type BlueZLink struct {
	conn *dbus.Conn

	mu         sync.RWMutex
	state      State
	devicePath dbus.ObjectPath
	writeChar  dbus.BusObject
	notifyChar dbus.BusObject
	notifyFn   func(data []byte)
	sigChan    chan *dbus.Signal
	stopChan   chan struct{}
}

// NewBlueZLink connects to the system bus. The pin itself is not
// contacted until Connect.
func NewBlueZLink() (*BlueZLink, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system D-Bus: %w", err)
	}
	return &BlueZLink{conn: conn, state: StateDisconnected}, nil
}

// State returns the current link state.
func (l *BlueZLink) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// OnNotify registers the listener invoked once per inbound notification
// payload while connected. Disconnect unregisters it.
func (l *BlueZLink) OnNotify(fn func(data []byte)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notifyFn = fn
}

// Connect scans for a pin whose advertised name starts with
// DeviceNamePrefix, connects, resolves the control service and its
// write/notify characteristics and subscribes to notifications. Any
// failure leaves the link in StateError and is surfaced once to the
// caller; there is no automatic retry.
func (l *BlueZLink) Connect(ctx context.Context) error {
	l.mu.Lock()
	if l.state == StateConnected {
		l.mu.Unlock()
		return nil
	}
	l.state = StateDiscovering
	l.mu.Unlock()

	log.Println("BT_LINK: scanning for reminder pin...")
	devicePath, err := l.findDevice(ctx)
	if err != nil {
		l.setError()
		return fmt.Errorf("find device: %w", err)
	}
	log.Printf("BT_LINK: found reminder pin: %s", devicePath)

	device := l.conn.Object(bluezBusName, devicePath)
	if err := device.Call(deviceInterface+".Connect", 0).Store(); err != nil {
		l.setError()
		return fmt.Errorf("connect to device: %w", err)
	}

	// Let BlueZ finish GATT service resolution before reading the
	// object tree.
	if err := sleepCtx(ctx, resolveSettle); err != nil {
		l.setError()
		return err
	}

	writeChar, notifyChar, err := l.resolveCharacteristics(devicePath)
	if err != nil {
		l.setError()
		return err
	}

	if err := notifyChar.Call(characteristicInterface+".StartNotify", 0).Store(); err != nil {
		l.setError()
		return fmt.Errorf("start notify: %w", err)
	}

	rule := "type='signal',interface='org.freedesktop.DBus.Properties',member='PropertiesChanged',arg0='" + characteristicInterface + "'"
	if call := l.conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, rule); call.Err != nil {
		l.setError()
		return fmt.Errorf("add match signal: %w", call.Err)
	}

	l.mu.Lock()
	l.devicePath = devicePath
	l.writeChar = writeChar
	l.notifyChar = notifyChar
	l.sigChan = make(chan *dbus.Signal, 10)
	l.stopChan = make(chan struct{})
	l.conn.Signal(l.sigChan)
	l.state = StateConnected
	sigChan, stopChan := l.sigChan, l.stopChan
	l.mu.Unlock()

	go l.handleNotifications(sigChan, stopChan)

	log.Println("BT_LINK: connected to reminder pin")
	return nil
}

// Write sends bytes on the write characteristic. Fire-and-forget: the
// pin sends no acknowledgment frame.
func (l *BlueZLink) Write(data []byte) error {
	l.mu.RLock()
	state, writeChar := l.state, l.writeChar
	l.mu.RUnlock()

	if state != StateConnected || writeChar == nil {
		return ErrNotConnected
	}
	if err := writeChar.Call(characteristicInterface+".WriteValue", 0, data, map[string]interface{}{}).Store(); err != nil {
		return fmt.Errorf("write value: %w", err)
	}
	return nil
}

// Disconnect tears down the session. Idempotent.
func (l *BlueZLink) Disconnect() {
	l.mu.Lock()
	if l.state != StateConnected && l.state != StateError {
		l.state = StateDisconnected
		l.mu.Unlock()
		return
	}

	if l.stopChan != nil {
		close(l.stopChan)
		l.stopChan = nil
	}
	if l.sigChan != nil {
		l.conn.RemoveSignal(l.sigChan)
		// Safe to close once unregistered; ends the notification
		// goroutine's receive loop.
		close(l.sigChan)
		l.sigChan = nil
	}

	notifyChar := l.notifyChar
	devicePath := l.devicePath
	l.writeChar = nil
	l.notifyChar = nil
	l.devicePath = ""
	l.notifyFn = nil
	l.state = StateDisconnected
	l.mu.Unlock()

	if notifyChar != nil {
		if err := notifyChar.Call(characteristicInterface+".StopNotify", 0).Store(); err != nil {
			log.Printf("BT_LINK: stop notify failed: %v", err)
		}
	}
	if devicePath != "" {
		device := l.conn.Object(bluezBusName, devicePath)
		if err := device.Call(deviceInterface+".Disconnect", 0).Store(); err != nil {
			log.Printf("BT_LINK: device disconnect failed: %v", err)
		}
	}
	log.Println("BT_LINK: disconnected from reminder pin")
}

func (l *BlueZLink) setError() {
	l.mu.Lock()
	l.state = StateError
	l.mu.Unlock()
}

func (l *BlueZLink) findDevice(ctx context.Context) (dbus.ObjectPath, error) {
	adapterPath, err := l.findAdapter()
	if err != nil {
		return "", err
	}

	adapter := l.conn.Object(bluezBusName, adapterPath)
	if err := adapter.Call(adapterInterface+".StartDiscovery", 0).Store(); err != nil {
		log.Printf("BT_LINK: could not start discovery: %v", err)
	}
	if err := sleepCtx(ctx, discoverySettle); err != nil {
		return "", err
	}

	managedObjects, err := l.getManagedObjects()
	if err != nil {
		return "", err
	}

	for path, object := range managedObjects {
		props, ok := object[deviceInterface]
		if !ok {
			continue
		}
		if adapter, ok := props["Adapter"].Value().(dbus.ObjectPath); !ok || adapter != adapterPath {
			continue
		}
		name, _ := props["Name"].Value().(string)
		if strings.HasPrefix(name, DeviceNamePrefix) {
			log.Printf("BT_LINK: matched device %q at %s", name, path)
			return path, nil
		}
	}

	return "", fmt.Errorf("no device with name prefix %q found", DeviceNamePrefix)
}

func (l *BlueZLink) findAdapter() (dbus.ObjectPath, error) {
	managedObjects, err := l.getManagedObjects()
	if err != nil {
		return "", err
	}

	for path, object := range managedObjects {
		if _, ok := object[adapterInterface]; ok {
			return path, nil
		}
	}

	return "", fmt.Errorf("bluetooth adapter not found")
}

// resolveCharacteristics walks the object tree for the control service
// under the connected device and picks its write and notify
// characteristics by UUID.
func (l *BlueZLink) resolveCharacteristics(devicePath dbus.ObjectPath) (writeChar, notifyChar dbus.BusObject, err error) {
	managedObjects, err := l.getManagedObjects()
	if err != nil {
		return nil, nil, err
	}

	var servicePath dbus.ObjectPath
	for path, object := range managedObjects {
		props, ok := object[serviceInterface]
		if !ok {
			continue
		}
		device, _ := props["Device"].Value().(dbus.ObjectPath)
		uuid, _ := props["UUID"].Value().(string)
		if device == devicePath && strings.EqualFold(uuid, PillServiceUUID) {
			servicePath = path
			break
		}
	}
	if servicePath == "" {
		return nil, nil, fmt.Errorf("control service %s not found", PillServiceUUID)
	}

	for path, object := range managedObjects {
		props, ok := object[characteristicInterface]
		if !ok {
			continue
		}
		if service, _ := props["Service"].Value().(dbus.ObjectPath); service != servicePath {
			continue
		}
		uuid, _ := props["UUID"].Value().(string)
		switch {
		case strings.EqualFold(uuid, TimeSyncCharUUID):
			writeChar = l.conn.Object(bluezBusName, path)
		case strings.EqualFold(uuid, PillEventCharUUID):
			notifyChar = l.conn.Object(bluezBusName, path)
		}
	}

	if writeChar == nil || notifyChar == nil {
		return nil, nil, fmt.Errorf("characteristic resolution failed (write:%v notify:%v)",
			writeChar != nil, notifyChar != nil)
	}
	return writeChar, notifyChar, nil
}

func (l *BlueZLink) handleNotifications(sigChan chan *dbus.Signal, stopChan chan struct{}) {
	for sig := range sigChan {
		select {
		case <-stopChan:
			return
		default:
		}

		if sig.Name != "org.freedesktop.DBus.Properties.PropertiesChanged" || len(sig.Body) < 2 {
			continue
		}
		if interfaceName, ok := sig.Body[0].(string); !ok || interfaceName != characteristicInterface {
			continue
		}

		l.mu.RLock()
		notifyChar, notifyFn := l.notifyChar, l.notifyFn
		l.mu.RUnlock()

		if notifyChar == nil || string(notifyChar.Path()) != string(sig.Path) {
			continue
		}

		changedProps, ok := sig.Body[1].(map[string]dbus.Variant)
		if !ok {
			continue
		}
		valueVariant, exists := changedProps["Value"]
		if !exists {
			continue
		}
		value, ok := valueVariant.Value().([]byte)
		if !ok {
			continue
		}

		log.Printf("BT_LINK: notification received (%d bytes)", len(value))
		if notifyFn != nil {
			notifyFn(value)
		}
	}
}

func (l *BlueZLink) getManagedObjects() (map[dbus.ObjectPath]map[string]map[string]dbus.Variant, error) {
	obj := l.conn.Object(bluezBusName, "/")
	var managedObjects map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	if err := obj.Call("org.freedesktop.DBus.ObjectManager.GetManagedObjects", 0).Store(&managedObjects); err != nil {
		return nil, fmt.Errorf("failed to get managed objects: %w", err)
	}
	return managedObjects, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
