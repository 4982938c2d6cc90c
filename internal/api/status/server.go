// Package status exposes the device state over HTTP: a JSON snapshot at
// /status and a websocket push feed at /ws.
package status

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/handset/internal/app/coordinator"
)

// envelope is the wire format for websocket frames.
type envelope struct {
	Type string     `json:"type"`
	Ts   *time.Time `json:"ts,omitempty"`
	Data any        `json:"data,omitempty"`
}

// SnapshotSource provides the current device state.
type SnapshotSource interface {
	Snapshot() coordinator.Snapshot
}

// Server serves the status endpoints and fans state changes out to
// websocket subscribers.
type Server struct {
	source SnapshotSource
	hub    *hub
	server *http.Server
}

// New creates a status server listening on addr. Wire Publish to the
// coordinator's notifier to push state changes.
func New(addr string, source SnapshotSource) *Server {
	s := &Server{
		source: source,
		hub:    newHub(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /ws", s.handleWS)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Publish broadcasts a state change to all websocket subscribers.
// Safe to call from any goroutine; it never blocks.
func (s *Server) Publish(snap coordinator.Snapshot) {
	now := time.Now().UTC()
	msg, err := json.Marshal(envelope{Type: "state_changed", Ts: &now, Data: snap})
	if err != nil {
		zlog.Error().Err(err).Msg("status: failed to marshal state change")
		return
	}
	s.hub.send(msg)
}

// Run serves until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	go s.hub.run(ctx)

	errCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("status server listening on %s", s.server.Addr)
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// Handler returns the HTTP handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.source.Snapshot()); err != nil {
		zlog.Error().Err(err).Msg("status: failed to write snapshot")
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWS upgrades the connection, registers the client and sends the
// current state as the first frame.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zlog.Warn().Err(err).Msg("status: websocket upgrade failed")
		return
	}

	c := newClient(s.hub, conn)

	// Queue the init frame before the hub sees the client so a broadcast
	// cannot get ahead of it.
	now := time.Now().UTC()
	init, err := json.Marshal(envelope{Type: "state_init", Ts: &now, Data: s.source.Snapshot()})
	if err != nil {
		zlog.Error().Err(err).Msg("status: failed to marshal init frame")
		conn.Close()
		return
	}
	c.send <- init

	s.hub.register <- c

	// The pumps outlive the handler, so they must not use r.Context():
	// net/http cancels it as soon as this function returns.
	go c.writePump()
	go c.readPump()
}
