package http

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/shelfside/bookrun/internal/domain"
)

const (
	streamWriteTimeout = 5 * time.Second
	streamSendBuffer   = 16
)

// StreamHub fans finished evaluations out to connected websocket clients.
// A slow client gets dropped rather than backpressuring the pipeline.
type StreamHub struct {
	mu      sync.Mutex
	clients map[*streamClient]struct{}
	metrics *MetricsRegistry

	upgrader websocket.Upgrader
}

type streamClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewStreamHub creates an empty hub.
func NewStreamHub(metrics *MetricsRegistry) *StreamHub {
	return &StreamHub{
		clients: make(map[*streamClient]struct{}),
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Read-only local service; same-origin policy adds nothing here.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the connection and streams evaluations until the
// client goes away.
func (h *StreamHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &streamClient{
		conn: conn,
		send: make(chan []byte, streamSendBuffer),
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.ActiveStreams.Set(float64(count))
	}
	log.Debug().Int("clients", count).Msg("stream client connected")

	go h.writePump(client)
	h.readPump(client)
}

// readPump discards inbound frames; the stream is one-way. Returning
// unregisters the client.
func (h *StreamHub) readPump(c *streamClient) {
	defer h.drop(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *StreamHub) writePump(c *streamClient) {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.drop(c)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *StreamHub) drop(c *streamClient) {
	h.mu.Lock()
	_, present := h.clients[c]
	if present {
		delete(h.clients, c)
		close(c.send)
	}
	count := len(h.clients)
	h.mu.Unlock()

	if !present {
		return
	}
	c.conn.Close()
	if h.metrics != nil {
		h.metrics.ActiveStreams.Set(float64(count))
	}
}

// Broadcast sends one evaluation to every connected client. Clients whose
// buffers are full are dropped.
func (h *StreamHub) Broadcast(result *domain.EvaluationResult) {
	msg, err := json.Marshal(result)
	if err != nil {
		log.Warn().Err(err).Msg("marshal evaluation for stream")
		return
	}

	h.mu.Lock()
	var stale []*streamClient
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			stale = append(stale, c)
		}
	}
	h.mu.Unlock()

	for _, c := range stale {
		log.Debug().Msg("dropping slow stream client")
		h.drop(c)
	}
}

// Close disconnects every client.
func (h *StreamHub) Close() {
	h.mu.Lock()
	clients := make([]*streamClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.drop(c)
	}
}
