package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/HenryRohrback/reminder-pin/reminder"
	"github.com/HenryRohrback/reminder-pin/utils"
)

// Server holds the dependencies for the HTTP API consumed by the web
// UI.
type Server struct {
	manager *reminder.Manager
	hub     *utils.Hub
	iface   string
	router  *http.ServeMux
	httpSrv *http.Server
}

// New creates a new Server instance. iface is the network interface
// reported by /network/status.
func New(manager *reminder.Manager, hub *utils.Hub, iface string) *Server {
	s := &Server{
		manager: manager,
		hub:     hub,
		iface:   iface,
		router:  http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/info", corsMiddleware(s.handleInfo))
	s.router.HandleFunc("/bluetooth/connect", corsMiddleware(s.handleConnect))
	s.router.HandleFunc("/bluetooth/disconnect", corsMiddleware(s.handleDisconnect))
	s.router.HandleFunc("/bluetooth/status", corsMiddleware(s.handleBluetoothStatus))
	s.router.HandleFunc("/adherence", corsMiddleware(s.handleAdherence))
	s.router.HandleFunc("/adherence/taken", corsMiddleware(s.handleMarkTaken))
	s.router.HandleFunc("/reminder", corsMiddleware(s.handleReminder))
	s.router.HandleFunc("/network/status", corsMiddleware(s.handleNetworkStatus))
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// Start serves the API until Stop is called.
func (s *Server) Start(port int) error {
	s.httpSrv = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.router,
	}

	log.Printf("HTTP: serving on :%d", port)
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the server down, draining in-flight requests.
func (s *Server) Stop() error {
	if s.httpSrv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(ctx)
}
