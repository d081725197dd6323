// Package transport is an out-of-core collaborator (spec §6): it
// streams onStep phase events to a connected UI over a WebSocket,
// never imported by internal/controller itself — only cmd/agent wires
// a Relay's Send method in as the controller's onStep callback.
package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StepEvent mirrors the controller's onStep(phase, message, action?)
// callback shape as a JSON-serialisable wire message.
type StepEvent struct {
	Phase     string `json:"phase"`
	Message   string `json:"message"`
	Action    string `json:"action,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Relay fans StepEvents out to every currently-connected WebSocket
// client for one session. Broadcasting is best-effort: a client that
// has disconnected, or cannot take a message within two seconds, is
// dropped, so each slow client holds up a broadcast for at most that
// long.
type Relay struct {
	logger zerolog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewRelay(logger zerolog.Logger) *Relay {
	return &Relay{logger: logger.With().Str("comp", "transport").Logger(), clients: make(map[*websocket.Conn]struct{})}
}

// HandleWS upgrades an incoming HTTP request to a WebSocket and
// registers the connection until a read from it fails (the client
// closed it or the connection dropped).
func (r *Relay) HandleWS(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	r.register(conn)
	defer r.unregister(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (r *Relay) register(conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[conn] = struct{}{}
}

func (r *Relay) unregister(conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, conn)
	_ = conn.Close()
}

// Send broadcasts one onStep event, given as its phase, message and
// action description, to every connected client. cmd/agent calls it
// from its controller.OnStep closure.
func (r *Relay) Send(_ context.Context, phase, message, action string) {
	event := StepEvent{Phase: phase, Message: message, Action: action, Timestamp: time.Now().UTC().Format(time.RFC3339)}
	payload, err := json.Marshal(event)
	if err != nil {
		r.logger.Warn().Err(err).Msg("marshal step event")
		return
	}

	r.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(r.clients))
	for c := range r.clients {
		conns = append(conns, c)
	}
	r.mu.Unlock()

	for _, c := range conns {
		_ = c.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			r.logger.Debug().Err(err).Msg("drop slow/disconnected client")
			r.unregister(c)
		}
	}
}
