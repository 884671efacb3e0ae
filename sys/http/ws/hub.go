// Package ws streams fulfillment events to the dashboards of company admins
// and staff. A connection only receives events of the company its user acts for.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"cleanbuddy-fulfillment/res/events"
	"cleanbuddy-fulfillment/sys/directory"
	"cleanbuddy-fulfillment/sys/http/middleware"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	sendBuffer = 32
)

type Config struct {
	Logger      *log.Logger
	Directory   directory.Directory
	Environment string
	FrontendURL string
}

type Hub struct {
	logger    *log.Logger
	directory directory.Directory
	upgrader  websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

type client struct {
	companyID string
	userID    string
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func NewHub(cfg Config) *Hub {
	h := &Hub{
		logger:    cfg.Logger,
		directory: cfg.Directory,
		clients:   map[*client]struct{}{},
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// In production, only allow connections from the trusted frontend domain
			if cfg.Environment == "production" {
				origin := r.Header.Get("Origin")
				return origin == cfg.FrontendURL ||
					(strings.HasPrefix(origin, "https://") && strings.HasSuffix(origin, "."+strings.TrimPrefix(cfg.FrontendURL, "https://")))
			}
			return true
		},
	}
	return h
}

// Publish delivers event to every connection of the event's company. Slow
// connections drop events rather than block the publisher.
func (h *Hub) Publish(_ context.Context, event events.Event) error {
	if event.CompanyID == "" {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.companyID != event.CompanyID {
			continue
		}
		select {
		case c.send <- payload:
		default:
			h.logger.Printf("Dropping %s event %s for slow websocket client of user %s", event.Type, event.ID, c.userID)
		}
	}
	return nil
}

// ServeHTTP upgrades an authenticated company-side request to a websocket
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetCurrentUser(r.Context())
	if user == nil {
		_ = middleware.EmitErrorResponse(w, http.StatusUnauthorized, middleware.ErrorBody{Code: "UNAUTHENTICATED", Message: "Authentication required"})
		return
	}

	actor, err := directory.Resolve(r.Context(), h.directory, user)
	if err != nil {
		h.logger.Printf("Error resolving company of user %s: %s", user.ID, err)
		_ = middleware.EmitErrorResponse(w, http.StatusInternalServerError, middleware.ErrorBody{Code: "INTERNAL", Message: "Internal server error"})
		return
	}
	if actor.CompanyID == "" {
		_ = middleware.EmitErrorResponse(w, http.StatusForbidden, middleware.ErrorBody{Code: "FORBIDDEN", Message: "Only company admins and staff can subscribe to events"})
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied
		h.logger.Printf("Error upgrading websocket for user %s: %s", user.ID, err)
		return
	}

	c := &client{
		companyID: actor.CompanyID,
		userID:    user.ID,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		done:      make(chan struct{}),
	}
	if !h.register(c) {
		_ = conn.Close()
		return
	}

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

// readPump only watches for the peer going away; clients never send anything we act on
func (h *Hub) readPump(c *client) {
	defer h.unregister(c)

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Printf("Websocket of user %s closed: %s", c.userID, err)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// Close disconnects every client and refuses new ones
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		c.close()
		delete(h.clients, c)
	}
}
