// Package ws is the thin HTTP/WebSocket transport over the chat core.
// REST carries joins, pings, sends, and history; the socket only pushes
// broadcast events downstream, the way the source system's SignalR hub did.
package ws

import (
	"chat-relay/contract"
	"chat-relay/services"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
)

type Server struct {
	log                  *slog.Logger
	chat                 services.IChatService
	presence             services.IPresenceService
	hub                  contract.IHub
	validate             *validator.Validate
	upgrader             websocket.Upgrader
	connectionBufferSize int
}

func NewServer(log *slog.Logger, chat services.IChatService,
	presence services.IPresenceService, hub contract.IHub,
	connectionBufferSize int) *Server {
	return &Server{
		log:      log,
		chat:     chat,
		presence: presence,
		hub:      hub,
		validate: validator.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connectionBufferSize: connectionBufferSize,
	}
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/users/join", s.handleJoin)
	mux.HandleFunc("GET /api/users/{id}", s.handleGetUser)
	mux.HandleFunc("POST /api/users/{id}/ping", s.handlePing)
	mux.HandleFunc("GET /api/chat/history", s.handleHistory)
	mux.HandleFunc("POST /api/chat/send", s.handleSend)
	mux.HandleFunc("GET /ws", s.handleSocket)
	return mux
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Warn("Failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}
