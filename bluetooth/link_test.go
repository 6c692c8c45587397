package bluetooth

import (
	"errors"
	"testing"
)

func TestWriteRequiresConnection(t *testing.T) {
	link := &BlueZLink{state: StateDisconnected}

	err := link.Write([]byte("SET:12:0"))
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}
}

func TestDisconnectIdempotentWhileDisconnected(t *testing.T) {
	link := &BlueZLink{state: StateDisconnected}

	// Must not panic or change state when there is no session to tear
	// down.
	link.Disconnect()
	link.Disconnect()

	if got := link.State(); got != StateDisconnected {
		t.Errorf("Expected state %q, got %q", StateDisconnected, got)
	}
}
