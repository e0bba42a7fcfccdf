package web

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"rootedinspeech/internal/models"
	"rootedinspeech/internal/service"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 8
)

// sessionMessage is pushed to every open tab of a profile when its session changes.
type sessionMessage struct {
	Action string `json:"action"`
}

// Hub fans session changes out to the websocket connections of the affected profile.
type Hub struct {
	upgrader    websocket.Upgrader
	logger      *zerolog.Logger
	unsubscribe func()

	mu      sync.RWMutex
	clients map[string]map[*wsClient]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub(sessions *service.SessionService, logger *zerolog.Logger) *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		logger:   logger,
		clients:  make(map[string]map[*wsClient]struct{}),
	}
	h.unsubscribe = sessions.Subscribe(h.broadcast)
	return h
}

// ServeWS upgrades the request and holds the connection until the tab goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	profileID := ProfileID(r.Context())
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, sendBuffer)}
	h.add(profileID, c)
	go c.writePump()

	c.readPump()
	h.remove(profileID, c)
}

// Connections reports the open connections of a profile.
func (h *Hub) Connections(profileID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[profileID])
}

// Close stops listening for session changes and drops every connection.
func (h *Hub) Close() {
	if h.unsubscribe != nil {
		h.unsubscribe()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, set := range h.clients {
		for c := range set {
			_ = c.conn.Close()
		}
	}
}

func (h *Hub) broadcast(change models.SessionChange) {
	msg, err := json.Marshal(sessionMessage{Action: change.Action})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[change.ProfileID] {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn().Str("profile_id", change.ProfileID).Msg("dropping session message for slow tab")
		}
	}
}

func (h *Hub) add(profileID string, c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[profileID]
	if !ok {
		set = make(map[*wsClient]struct{})
		h.clients[profileID] = set
	}
	set[c] = struct{}{}
}

// remove unregisters c and closes its send channel; broadcast never sees it again.
func (h *Hub) remove(profileID string, c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[profileID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, profileID)
	}
	close(c.send)
}

func (c *wsClient) readPump() {
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
