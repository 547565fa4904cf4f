// Package monitor exposes the session's observable events to operators
// over a websocket. It is strictly an observability surface: the peer
// channel stays optical-only and never touches the network.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/satriadamar/lensa/pkg/errorsx"
	"github.com/satriadamar/lensa/pkg/metrics"
)

type Config struct {
	Addr string `mapstructure:"addr"`
	Path string `mapstructure:"path"`
	// ClientBuffer is the per-client outbound queue; a client that falls
	// this far behind is dropped rather than backpressuring the session.
	ClientBuffer int `mapstructure:"client_buffer"`
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = ":9190"
	}
	if c.Path == "" {
		c.Path = "/events"
	}
	if c.ClientBuffer <= 0 {
		c.ClientBuffer = 64
	}
	return c
}

// wireEvent is the JSON shape sent to operator clients.
type wireEvent struct {
	Name   string            `json:"name"`
	Time   time.Time         `json:"time"`
	Value  float64           `json:"value,omitempty"`
	Tags   map[string]string `json:"tags,omitempty"`
	Fields map[string]any    `json:"fields,omitempty"`
}

// Server broadcasts metrics events to connected websocket clients. It
// implements metrics.Observer so it can fan in from the session loop
// like any other sink.
type Server struct {
	cfg      Config
	log      *slog.Logger
	upgrader websocket.Upgrader
	srv      *http.Server

	mu      sync.Mutex
	clients map[string]chan []byte
	closed  bool
}

func NewServer(cfg Config, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		cfg: cfg.withDefaults(),
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[string]chan []byte),
	}
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Path, s.handleWS)
	s.srv = &http.Server{Addr: s.cfg.Addr, Handler: mux}
	return s
}

// Handler exposes the websocket endpoint, e.g. for tests or embedding
// into an existing server.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start serves until Shutdown. It returns a reasoned error when the
// listener fails, which the caller treats as fatal.
func (s *Server) Start() error {
	s.log.Info("monitor listening", "addr", s.cfg.Addr, "path", s.cfg.Path)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errorsx.Wrap(err, errorsx.ReasonMonitorServe)
	}
	return nil
}

// Shutdown stops the listener and disconnects every client.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	for id, ch := range s.clients {
		close(ch)
		delete(s.clients, id)
	}
	s.mu.Unlock()
	return s.srv.Shutdown(ctx)
}

// RecordEvent implements metrics.Observer: every event is broadcast to
// all connected clients aside from per-cycle noise.
func (s *Server) RecordEvent(ev metrics.MetricsEvent) {
	if ev.Name == metrics.EventCycle {
		return
	}
	payload, err := json.Marshal(wireEvent{
		Name:   ev.Name,
		Time:   ev.Time,
		Value:  ev.Value,
		Tags:   ev.Tags,
		Fields: ev.Fields,
	})
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.clients {
		select {
		case ch <- payload:
		default:
			// Slow consumer: drop it, the session must not wait.
			close(ch)
			delete(s.clients, id)
			s.log.Warn("monitor client dropped", "client_id", id)
		}
	}
}

// ClientCount reports connected operator clients.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("monitor upgrade failed", "err", err)
		return
	}
	id := uuid.NewString()
	ch := make(chan []byte, s.cfg.ClientBuffer)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.clients[id] = ch
	s.mu.Unlock()
	s.log.Info("monitor client connected", "client_id", id)

	// Reader: drain and discard, detecting disconnect.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.drop(id)
				return
			}
		}
	}()

	for payload := range ch {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			s.drop(id)
			break
		}
	}
	_ = conn.Close()
}

func (s *Server) drop(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.clients[id]; ok {
		close(ch)
		delete(s.clients, id)
	}
}

var _ metrics.Observer = (*Server)(nil)
