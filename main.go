package main

import (
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/HenryRohrback/reminder-pin/adherence"
	"github.com/HenryRohrback/reminder-pin/bluetooth"
	"github.com/HenryRohrback/reminder-pin/notify"
	"github.com/HenryRohrback/reminder-pin/reminder"
	"github.com/HenryRohrback/reminder-pin/scheduler"
	"github.com/HenryRohrback/reminder-pin/server"
	"github.com/HenryRohrback/reminder-pin/storage"
	"github.com/HenryRohrback/reminder-pin/utils"
)

func main() {
	var (
		port    = flag.Int("port", 5000, "HTTP server port")
		dbPath  = flag.String("db", "/var/lib/reminderd/reminder.db", "Adherence database path (empty = in-memory)")
		logFile = flag.String("log", "", "Log file path (default: stderr only)")
		iface   = flag.String("iface", "wlan0", "Network interface reported by /network/status")
	)
	flag.Parse()

	if *logFile != "" {
		if err := os.MkdirAll(filepath.Dir(*logFile), 0755); err != nil {
			log.Printf("Warning: could not create log directory: %v", err)
		}
		file, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.Printf("Warning: could not open log file: %v", err)
		} else {
			log.SetOutput(io.MultiWriter(os.Stderr, file))
			defer file.Close()
			log.Printf("Logging to %s", *logFile)
		}
	}

	log.Println("Starting reminderd")

	var kv storage.KeyValueStore
	if *dbPath == "" {
		log.Println("No database path, adherence state will not survive restarts")
		kv = storage.NewMemStore()
	} else {
		if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
			log.Fatalf("Failed to create database directory: %v", err)
		}
		store, err := storage.OpenBolt(*dbPath)
		if err != nil {
			log.Fatalf("Failed to open adherence database: %v", err)
		}
		defer store.Close()
		kv = store
	}

	var alerts notify.Port
	if notifier, err := notify.NewDBusNotifier(); err != nil {
		log.Printf("Warning: no session bus, dose alerts disabled: %v", err)
		alerts = notify.NopPort{}
	} else {
		alerts = notifier
	}

	link, err := bluetooth.NewBlueZLink()
	if err != nil {
		log.Fatalf("Failed to initialize Bluetooth: %v", err)
	}

	hub := utils.NewHub()
	tracker := adherence.NewTracker(kv)
	sched := scheduler.NewScheduler(alerts)

	manager := reminder.NewManager(link, tracker, sched, hub)
	if err := manager.Start(); err != nil {
		log.Fatalf("Failed to start manager: %v", err)
	}

	netStop := make(chan struct{})
	go utils.RunNetworkChecker(hub, netStop)

	srv := server.New(manager, hub, *iface)
	go func() {
		if err := srv.Start(*port); err != nil {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	log.Printf("reminderd is running on :%d", *port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Printf("Received signal %v, shutting down", sig)

	close(netStop)
	if err := srv.Stop(); err != nil {
		log.Printf("Error stopping HTTP server: %v", err)
	}
	manager.Stop()

	log.Println("reminderd stopped")
}
