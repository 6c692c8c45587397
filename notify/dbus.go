package notify

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	notifyBusName    = "org.freedesktop.Notifications"
	notifyObjectPath = "/org/freedesktop/Notifications"
	notifyMethod     = "org.freedesktop.Notifications.Notify"

	appName = "reminder-pin"
	appIcon = "appointment-soon"
)

// DBusNotifier fires desktop notifications over the session bus.
type DBusNotifier struct {
	conn *dbus.Conn
}

func NewDBusNotifier() (*DBusNotifier, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session D-Bus: %w", err)
	}
	return &DBusNotifier{conn: conn}, nil
}

// IsGranted reports whether a notification daemon owns the well-known
// name. A missing daemon is the capability-denied case: alerts degrade
// silently while the rest of the scheduler keeps working.
func (n *DBusNotifier) IsGranted() bool {
	var owner string
	err := n.conn.BusObject().Call("org.freedesktop.DBus.GetNameOwner", 0, notifyBusName).Store(&owner)
	return err == nil && owner != ""
}

// RequestPermission is a no-op on the desktop: the permission model is
// the presence of a notification daemon, not a user prompt.
func (n *DBusNotifier) RequestPermission() error { return nil }

func (n *DBusNotifier) Fire(title, body string) error {
	obj := n.conn.Object(notifyBusName, notifyObjectPath)
	call := obj.Call(notifyMethod, 0, appName, uint32(0), appIcon, title, body,
		[]string{}, map[string]dbus.Variant{}, int32(-1))
	if call.Err != nil {
		return fmt.Errorf("failed to send notification: %w", call.Err)
	}
	return nil
}
