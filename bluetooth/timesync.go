package bluetooth

import "fmt"

// EncodeSetTime encodes a reminder time of day into the pin's wire
// format: ASCII "SET:<hour>:<minute>" with unpadded decimal fields, so
// 9:05 encodes as "SET:9:5". The firmware parses exactly this form.
func EncodeSetTime(hour, minute int) []byte {
	return []byte(fmt.Sprintf("SET:%d:%d", hour, minute))
}

// TimeSync pushes the configured reminder time to the pin.
type TimeSync struct {
	link Link
}

func NewTimeSync(link Link) *TimeSync {
	return &TimeSync{link: link}
}

// Sync writes the encoded schedule when the link is connected. A
// disconnected link is a silent no-op: the schedule still applies
// locally and is pushed on the next sync, failed writes are not queued.
func (t *TimeSync) Sync(hour, minute int) error {
	if t.link.State() != StateConnected {
		return nil
	}
	if err := t.link.Write(EncodeSetTime(hour, minute)); err != nil {
		return fmt.Errorf("time sync write: %w", err)
	}
	return nil
}
