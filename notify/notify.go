package notify

// Port is the local-alert capability boundary. The platform
// notification stack lives behind it; the scheduler only asks whether
// alerts are possible and fires them.
type Port interface {
	IsGranted() bool
	RequestPermission() error
	Fire(title, body string) error
}

// NopPort swallows alerts. Used when no session bus is available, so
// the countdown keeps working without a notification surface.
type NopPort struct{}

func (NopPort) IsGranted() bool               { return false }
func (NopPort) RequestPermission() error      { return nil }
func (NopPort) Fire(title, body string) error { return nil }
