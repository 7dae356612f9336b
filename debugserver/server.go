// Package debugserver streams world snapshots to websocket viewers.
package debugserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/akmonengine/planar/snapshot"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait = time.Second
	// sendBuffer is the number of frames queued for a viewer before new ones
	// are skipped.
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Frame is one published snapshot.
type Frame struct {
	RunID    string            `json:"runId"`
	Step     uint64            `json:"step"`
	Digest   uint64            `json:"digest"`
	Snapshot snapshot.Snapshot `json:"snapshot"`
}

type viewer struct {
	conn *websocket.Conn
	send chan *Frame
}

// Server serves a websocket feed on /ws and the latest frame on /snapshot.
// Each viewer has its own writer, so a slow viewer never blocks Publish.
type Server struct {
	logger *zap.Logger
	runID  string
	mux    *http.ServeMux

	mu      sync.Mutex
	clients map[*viewer]struct{}
	last    *Frame
}

func New(logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		runID:   uuid.NewString(),
		clients: make(map[*viewer]struct{}),
		mux:     http.NewServeMux(),
	}
	s.logger = logger.With(zap.String("run", s.runID))
	s.mux.HandleFunc("/ws", s.handleWebSocket)
	s.mux.HandleFunc("/snapshot", s.handleSnapshot)
	return s
}

// RunID identifies the simulation run in every frame.
func (s *Server) RunID() string {
	return s.runID
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Publish queues the snapshot for every viewer. A viewer whose queue is full
// skips the frame.
func (s *Server) Publish(snap snapshot.Snapshot) {
	frame := &Frame{
		RunID:    s.runID,
		Step:     snap.Step,
		Digest:   snap.Digest(),
		Snapshot: snap,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = frame

	for v := range s.clients {
		select {
		case v.send <- frame:
		default:
			s.logger.Debug("viewer behind, frame skipped",
				zap.Stringer("addr", v.conn.RemoteAddr()), zap.Uint64("step", frame.Step))
		}
	}
}

// Close disconnects every viewer.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for v := range s.clients {
		delete(s.clients, v)
		close(v.send)
	}
}

// remove unregisters v and ends its writer. It reports false when v was
// already gone.
func (s *Server) remove(v *viewer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[v]; !ok {
		return false
	}
	delete(s.clients, v)
	close(v.send)
	return true
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	v := &viewer{conn: conn, send: make(chan *Frame, sendBuffer)}
	s.mu.Lock()
	s.clients[v] = struct{}{}
	s.mu.Unlock()
	s.logger.Info("viewer connected", zap.Stringer("addr", conn.RemoteAddr()))

	defer func() {
		conn.Close()
		s.logger.Info("viewer disconnected", zap.Stringer("addr", conn.RemoteAddr()))
	}()

	// Viewers never send anything, reading only detects the close.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.remove(v)
				return
			}
		}
	}()

	for frame := range v.send {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(frame); err != nil {
			s.logger.Debug("dropping viewer", zap.Stringer("addr", conn.RemoteAddr()), zap.Error(err))
			s.remove(v)
			return
		}
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	frame := s.last
	s.mu.Unlock()

	if frame == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(frame); err != nil {
		s.logger.Warn("encode snapshot", zap.Error(err))
	}
}
