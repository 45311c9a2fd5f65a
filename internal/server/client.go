package server

import (
	"context"
	"encoding/json"
	"time"

	"doko3000/internal/protocol"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

// Dispatcher executes inbound messages.
type Dispatcher interface {
	Dispatch(ctx context.Context, playerID string, msg protocol.Message) error
}

// Client represents a single WebSocket connection of an authenticated player.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	PlayerID string
}

// ReadPump handles incoming messages from the WebSocket connection.
func (c *Client) ReadPump(ctx context.Context, d Dispatcher) {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warnf("Unexpected close error from %s: %v", c.PlayerID, err)
			}
			return
		}

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warnf("Error unmarshalling message from client %s: %v", c.PlayerID, err)
			c.reply(protocol.ErrorEvent, protocol.ErrorPayload{Message: "malformed message"})
			continue
		}
		if msg.Type == "ping" {
			c.reply("pong", nil)
			continue
		}

		log.Debugf("Received message type '%s' from client %s", msg.Type, c.PlayerID)
		if err := d.Dispatch(ctx, c.PlayerID, msg); err != nil {
			log.WithError(err).Debugf("Message %s from %s rejected.", msg.Type, c.PlayerID)
			c.reply(protocol.ErrorEvent, protocol.ErrorPayload{Type: msg.Type, Message: err.Error()})
		}
	}
}

// reply answers the connection directly, skipping the hub.
func (c *Client) reply(name string, payload any) {
	frame, err := protocol.NewMessage(name, payload)
	if err != nil {
		log.Errorf("Error creating %s message: %v", name, err)
		return
	}
	c.hub.reply(c, frame)
}

// WritePump handles outgoing messages to the WebSocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warnf("Write error to client %s: %v", c.PlayerID, err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
