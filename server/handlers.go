package server

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vishvananda/netlink"
)

const version = "1.2.0"

const connectTimeout = 30 * time.Second

type InfoResponse struct {
	Version string `json:"version"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type ReminderResponse struct {
	Hour      int    `json:"hour"`
	Minute    int    `json:"minute"`
	TimeUntil string `json:"time_until"`
}

type reminderRequest struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("HTTP: failed to upgrade connection: %v", err)
		return
	}
	s.hub.AddClient(conn)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Method not allowed"})
		return
	}

	json.NewEncoder(w).Encode(InfoResponse{Version: version})
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Method not allowed"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), connectTimeout)
	defer cancel()

	if err := s.manager.Connect(ctx); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to connect to reminder pin: " + err.Error()})
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"status": "connected"})
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Method not allowed"})
		return
	}

	s.manager.Disconnect()
	json.NewEncoder(w).Encode(map[string]string{"status": "disconnected"})
}

func (s *Server) handleBluetoothStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Method not allowed"})
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"state": string(s.manager.LinkState())})
}

func (s *Server) handleAdherence(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Method not allowed"})
		return
	}

	json.NewEncoder(w).Encode(s.manager.Adherence())
}

func (s *Server) handleMarkTaken(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Method not allowed"})
		return
	}

	json.NewEncoder(w).Encode(s.manager.MarkTakenNow())
}

func (s *Server) handleReminder(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		sched := s.manager.Schedule()
		json.NewEncoder(w).Encode(ReminderResponse{
			Hour:      sched.Hour,
			Minute:    sched.Minute,
			TimeUntil: s.manager.TimeUntil(),
		})
	case "POST":
		var req reminderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(ErrorResponse{Error: "Invalid request body"})
			return
		}
		if err := s.manager.SetReminderTime(req.Hour, req.Minute); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(ErrorResponse{Error: err.Error()})
			return
		}
		sched := s.manager.Schedule()
		json.NewEncoder(w).Encode(ReminderResponse{
			Hour:      sched.Hour,
			Minute:    sched.Minute,
			TimeUntil: s.manager.TimeUntil(),
		})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Method not allowed"})
	}
}

func (s *Server) handleNetworkStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Method not allowed"})
		return
	}

	link, err := netlink.LinkByName(s.iface)
	if err != nil || link.Attrs().Flags&net.FlagUp == 0 {
		json.NewEncoder(w).Encode(map[string]string{"status": "down"})
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"status": "up"})
}
