package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ayusman/signspeak/internal/gesture"
	"github.com/ayusman/signspeak/internal/server/api"
	"github.com/ayusman/signspeak/internal/speech"
)

// Message types sent to WebSocket clients.
const (
	// MessageResult answers a frame the client sent.
	MessageResult = "result"
	// MessageCamera carries a result from the server's camera pipeline.
	MessageCamera = "camera"
	// MessageSpeech carries the announcer state after a change.
	MessageSpeech = "speech"
	// MessageError reports a frame that could not be read.
	MessageError = "error"
)

const (
	writeWait     = 2 * time.Second
	maxFrameBytes = 64 << 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Message is the envelope for everything written to a WebSocket client.
type Message struct {
	Type   string          `json:"type"`
	Result *gesture.Result `json:"result,omitempty"`
	State  *speech.State   `json:"state,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type client struct {
	id      string
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) send(msg Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}

// Hub serves the landmark WebSocket. Each connection sends landmark frames
// (the same body as POST /api/classify) and receives one result per frame,
// in order. Broadcast messages go to every connection.
type Hub struct {
	translator *gesture.Translator
	announcer  *speech.Announcer
	clients    map[string]*client
	mu         sync.RWMutex
}

// NewHub creates a Hub. The announcer may be nil.
func NewHub(t *gesture.Translator, a *speech.Announcer) *Hub {
	return &Hub{
		translator: t,
		announcer:  a,
		clients:    make(map[string]*client),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade error", "err", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameBytes)

	c := &client{id: uuid.New().String(), conn: conn}
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	logger.Debug("websocket connected", "client", c.id)

	defer func() {
		h.mu.Lock()
		delete(h.clients, c.id)
		h.mu.Unlock()
		logger.Debug("websocket disconnected", "client", c.id)
	}()

	if h.announcer != nil {
		st := h.announcer.State()
		if err := c.send(Message{Type: MessageSpeech, State: &st}); err != nil {
			return
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var req api.ClassifyRequest
		if err := json.Unmarshal(data, &req); err != nil {
			if err := c.send(Message{Type: MessageError, Error: "invalid frame"}); err != nil {
				return
			}
			continue
		}

		res := api.Classify(h.translator, h.announcer, req)
		if err := c.send(Message{Type: MessageResult, Result: &res}); err != nil {
			return
		}
	}
}

// Broadcast sends msg to every connected client. Clients that fail the
// write are dropped.
func (h *Hub) Broadcast(msg Message) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.send(msg); err != nil {
			c.conn.Close()
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		c.conn.Close()
	}
}
