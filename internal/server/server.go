package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/brainsbets/internal/game"
	"github.com/lox/brainsbets/internal/scoring"
)

// GameSession is the part of a game session the server drives
type GameSession interface {
	ID() string
	Config() game.GameConfig
	Phase() game.Phase
	TimeRemaining() int
	RoundIndex() int
	TotalRounds() int
	Round() (game.RoundSnapshot, bool)
	Players() []game.Player
	TryAddPlayer(id, name string, origin game.Origin) error
	TrySubmitGuess(playerID string, value float64) error
	TrySubmitBets(playerID string, bets []scoring.Bet) error
	Subscribe(subscriber game.EventSubscriber)
	Unsubscribe(subscriber game.EventSubscriber)
}

const shutdownTimeout = 5 * time.Second

// Server represents the WebSocket server
type Server struct {
	addr        string
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	logger      *log.Logger
	mu          sync.RWMutex
	session     GameSession
}

// NewServer creates a WebSocket server for session and subscribes it to the
// session's events
func NewServer(addr string, session GameSession, logger *log.Logger) *Server {
	s := &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Players connect from overlay pages on other origins
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		logger:      logger.WithPrefix("server"),
		session:     session,
	}
	session.Subscribe(s)
	return s
}

// Handler returns the HTTP routes served by the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/state", s.handleState)
	return mux
}

// Serve listens on the configured address until ctx is cancelled
func (s *Server) Serve(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting WebSocket server", "addr", s.addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Stop()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down WebSocket server")
	s.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Stop closes every connection and detaches from the session
func (s *Server) Stop() {
	s.session.Unsubscribe(s)

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.connections {
		_ = conn.Close() // Ignore close errors during shutdown
		delete(s.connections, conn)
	}
}

// ConnectionCount returns the number of open connections
func (s *Server) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}

// OnEvent implements game.EventSubscriber by broadcasting every session
// event to all connected clients
func (s *Server) OnEvent(event game.Event) {
	msg, err := EventMessage(event)
	if err != nil {
		s.logger.Error("Failed to encode event", "type", event.EventType(), "error", err)
		return
	}
	s.Broadcast(msg)
}

// Broadcast sends a message to every connection
func (s *Server) Broadcast(msg *Message) {
	s.mu.RLock()
	conns := make([]*Connection, 0, len(s.connections))
	for conn := range s.connections {
		conns = append(conns, conn)
	}
	s.mu.RUnlock()

	for _, conn := range conns {
		_ = conn.SendMessage(msg) // Slow clients are dropped by SendMessage
	}
}

func (s *Server) register(conn *Connection) {
	s.mu.Lock()
	s.connections[conn] = true
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client connected", "total", total)
}

func (s *Server) unregister(conn *Connection) {
	s.mu.Lock()
	_, ok := s.connections[conn]
	delete(s.connections, conn)
	total := len(s.connections)
	s.mu.Unlock()
	if ok {
		s.logger.Info("Client disconnected", "player", conn.GetPlayer(), "total", total)
	}
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s.logger, s.session)
	s.register(client)
	client.Start()

	// Connection cleanup is handled by the connection itself
	go func() {
		<-client.Done()
		s.unregister(client)
	}()
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK") // Ignore write errors for health check
}

// handleState returns a JSON snapshot of the session
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshotState(s.session)); err != nil {
		s.logger.Error("Failed to encode state", "error", err)
	}
}

func snapshotState(session GameSession) StateData {
	state := StateData{
		SessionID:   session.ID(),
		Phase:       session.Phase().String(),
		Remaining:   session.TimeRemaining(),
		RoundIndex:  session.RoundIndex(),
		TotalRounds: session.TotalRounds(),
		Players:     playersFromGame(session.Players()),
	}
	if round, ok := session.Round(); ok {
		state.Round = RoundDataFromGame(round)
	}
	return state
}
