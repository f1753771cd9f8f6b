package server

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 256
)

// Client is one websocket connection. Its identity is connection-scoped:
// the id doubles as the player id inside any match it joins.
type Client struct {
	id   string
	name string
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// Send marshals and queues an outbound message. A client that cannot keep
// up is dropped rather than allowed to stall the sender.
func (c *Client) Send(msg OutboundMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		c.hub.logger.Error("failed to marshal outbound message",
			zap.String("client_id", c.id),
			zap.String("type", msg.Type),
			zap.Error(err),
		)
		return
	}
	select {
	case c.send <- payload:
	default:
		// Send may run under a match lock; detach the slow client without
		// re-entering the hub from here.
		c.hub.logger.Warn("dropping slow client", zap.String("client_id", c.id))
		go c.hub.disconnect(c)
	}
}

// readPump consumes inbound intents until the connection closes.
func (c *Client) readPump() {
	defer func() {
		c.hub.disconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("websocket read error",
					zap.String("client_id", c.id),
					zap.Error(err),
				)
			}
			return
		}

		var msg InboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.Send(OutboundMessage{Type: msgRoomError, Data: ErrorData{Message: "malformed message"}})
			continue
		}
		c.hub.handleMessage(c, msg)
	}
}

// writePump flushes queued messages and keeps the connection alive.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
