package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 2048
	sendBuffer     = 32
)

// client is one websocket connection. room and token are set once the peer
// joins; until then the connection can only create rooms or collect errors.
type client struct {
	hub  *Hub
	conn *websocket.Conn

	room  string
	token string

	mu     sync.Mutex
	closed bool
	outCh  chan []byte
}

func newClient(h *Hub, conn *websocket.Conn) *client {
	return &client{
		hub:   h,
		conn:  conn,
		outCh: make(chan []byte, sendBuffer),
	}
}

// enqueue queues a prepared frame. The channel is guarded so an enqueue
// racing a close is a silent no-op rather than a panic. A peer too slow to
// drain its buffer is dropped; it can reconnect and resync from the next
// snapshot.
func (c *client) enqueue(data []byte) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	select {
	case c.outCh <- data:
		c.mu.Unlock()
	default:
		c.mu.Unlock()
		c.hub.log.Warn("send buffer full, dropping connection",
			zap.String("room", c.room), zap.String("token", c.token))
		c.close()
	}
}

func (c *client) send(frame outbound) {
	data, err := json.Marshal(frame)
	if err != nil {
		c.hub.log.Error("marshal frame failed", zap.Error(err))
		return
	}
	c.enqueue(data)
}

func (c *client) close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.outCh)
	}
	c.mu.Unlock()
}

func (c *client) readPump() {
	defer func() {
		c.hub.disconnected(c)
		c.close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("websocket read ended", zap.Error(err))
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.send(outbound{Type: "errorMsg", Data: ErrorPayload{Code: "VALIDATION", Message: "malformed event"}})
			continue
		}
		c.hub.dispatch(c, env)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.outCh:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
