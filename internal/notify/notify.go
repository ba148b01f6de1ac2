// Package notify implements the §6.2 Observer surface over the wire:
// a small HTTP/WebSocket server that fans hierarchy/time-limits/
// selection notifications out to connected viewers, for when the
// in-process function-pointer Observer isn't enough because the
// viewer lives in a separate process (a web client instead of the Qt
// viewer the original ships with, out of scope here).
package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"fleetd.sh/internal/observability"
	"fleetd.sh/internal/simulator"
)

// Frame is one notification sent to every connected viewer.
type Frame struct {
	Type      string  `json:"type"` // hierarchy_changed, time_limits_changed, selection_changed
	RunID     string  `json:"run_id"`
	Timestamp float64 `json:"timestamp,omitempty"`
	StartTime float64 `json:"start_time,omitempty"`
	EndTime   float64 `json:"end_time,omitempty"`
}

// Server broadcasts Simulator Observer events to connected WebSocket
// clients behind a small HTTP API.
type Server struct {
	sim       *simulator.Simulator
	logger    *observability.Logger
	jwtSecret string

	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*websocket.Conn]bool

	httpServer *http.Server
}

// Config controls Server construction.
type Config struct {
	Addr        string
	JWTSecret   string // empty disables the bearer-token check
	CORSOrigins []string
}

// NewServer builds a notify Server observing sim, wiring itself as
// sim's Observer.
func NewServer(sim *simulator.Simulator, logger *observability.Logger, cfg Config) *Server {
	s := &Server{
		sim:       sim,
		logger:    logger,
		jwtSecret: cfg.JWTSecret,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]bool),
	}

	sim.SetObserver(simulator.Observer{
		HierarchyChanged: func() { s.broadcast(Frame{Type: "hierarchy_changed", RunID: sim.RunID()}) },
		TimeLimitsChanged: func() {
			s.broadcast(Frame{Type: "time_limits_changed", RunID: sim.RunID(), StartTime: sim.StartTime(), EndTime: sim.EndTime()})
		},
		SelectionChanged: func() {
			s.broadcast(Frame{Type: "selection_changed", RunID: sim.RunID(), StartTime: sim.SelectionStart(), EndTime: sim.SelectionEnd()})
		},
	})

	router := mux.NewRouter()
	router.HandleFunc("/ws", s.authenticated(s.handleWebSocket)).Methods(http.MethodGet)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	handler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet},
	}).Handler(router)

	s.httpServer = &http.Server{Addr: cfg.Addr, Handler: handler}
	return s
}

// ListenAndServe starts the HTTP server; it blocks until the server
// stops or errors.
func (s *Server) ListenAndServe() error {
	s.logger.Info("notify server listening", zap.String("addr", s.httpServer.Addr))
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the HTTP server and closes every open connection.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for conn := range s.clients {
		conn.Close()
	}
	s.clients = make(map[*websocket.Conn]bool)
	s.mu.Unlock()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	if s.jwtSecret == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		tokenStr := strings.TrimPrefix(auth, "Bearer ")
		if tokenStr == auth { // no "Bearer " prefix found
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		_, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			return []byte(s.jwtSecret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"run_id": s.sim.RunID(),
		"time":   time.Now().UTC(),
	})
}

func (s *Server) broadcast(f Frame) {
	s.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for c := range s.clients {
		conns = append(conns, c)
	}
	s.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(f); err != nil {
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			conn.Close()
		}
	}
}
