package socket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"scrollvite/internal/client"
	"scrollvite/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 64 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	InviteID  string
	SessionID string
	Token     string
	Send      chan []byte

	mu     sync.Mutex
	closed bool
}

// deliver queues msg unless the client is gone. A full buffer means the
// browser stopped reading; the connection is closed so the pumps wind down.
func (c *Client) deliver(msg []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- msg:
	default:
		logger.Sugar.Warnf("Editor %s send buffer is full, closing connection", c.SessionID)
		c.Conn.Close()
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// ServeWs opens (or joins) the editor room for inviteID and upgrades the
// connection. token is the backend bearer token of the ticket's session.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, sessionID, inviteID, token string) {
	if err := hub.Open(r.Context(), inviteID, token); err != nil {
		logger.Sugar.Warnf("Editor connection rejected for invite %s: %v", inviteID, err)
		switch {
		case errors.Is(err, client.ErrUnauthorized):
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		case errors.Is(err, client.ErrForbidden), errors.Is(err, client.ErrNotFound):
			http.Error(w, "Invite not found", http.StatusNotFound)
		default:
			http.Error(w, "Failed to load invite", http.StatusBadGateway)
		}
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Sugar.Error(err)
		return
	}

	c := &Client{
		Hub:       hub,
		Conn:      conn,
		InviteID:  inviteID,
		SessionID: sessionID,
		Token:     token,
		Send:      make(chan []byte, 64),
	}

	hub.Register <- c

	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Sugar.Errorf("error: %v", err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			logger.Sugar.Errorf("Error unmarshalling message: %v", err)
			continue
		}
		// The room is fixed by the ticket, not by what the browser claims.
		msg.InviteID = c.InviteID

		switch msg.Type {
		case SaveType:
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			c.Hub.SaveNow(ctx, c)
			cancel()
		default:
			c.Hub.Incoming <- Envelope{Client: c, Message: msg}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
