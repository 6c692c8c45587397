package utils

import (
	"log"
	"time"

	ping "github.com/prometheus-community/pro-bing"
)

const (
	pingHost      = "1.1.1.1"
	pingInterval  = 1 * time.Second
	failThreshold = 3
)

// RunNetworkChecker pings a well-known host and broadcasts online /
// offline transitions so the web UI can warn before the user trusts a
// stale view. Runs until stop is closed.
func RunNetworkChecker(hub *Hub, stop <-chan struct{}) {
	isOnline := false
	failCount := 0

	broadcast := func(status string) {
		hub.Broadcast(Event{
			Type:    "network_status",
			Payload: map[string]string{"status": status},
		})
	}

	for {
		select {
		case <-stop:
			return
		default:
		}

		reachable := false
		pinger, err := ping.NewPinger(pingHost)
		if err != nil {
			log.Printf("NET: failed to create pinger: %v", err)
		} else {
			pinger.Count = 1
			pinger.Timeout = 1 * time.Second
			pinger.Interval = 1 * time.Second
			pinger.SetPrivileged(true)
			if err := pinger.Run(); err == nil && pinger.Statistics().PacketsRecv > 0 {
				reachable = true
			}
		}

		if reachable {
			failCount = 0
			if !isOnline {
				isOnline = true
				broadcast("online")
			}
		} else {
			failCount++
			if failCount >= failThreshold && isOnline {
				isOnline = false
				broadcast("offline")
			}
		}

		select {
		case <-stop:
			return
		case <-time.After(pingInterval):
		}
	}
}
