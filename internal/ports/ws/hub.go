// Package ws is the websocket transport adapter. It resolves each inbound
// envelope to a room and durable identity, dispatches it into the app
// service, and fans resulting events out to live connections. Connections
// are weak handles: delivery to a gone peer is a silent no-op.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"ascent/internal/app"
)

// Envelope is the inbound client message. The token is supplied on every
// event; it is the durable identity, decoupled from this connection.
type Envelope struct {
	Type       string `json:"type"`
	Room       string `json:"room"`
	Token      string `json:"token"`
	Name       string `json:"name,omitempty"`
	MaxPlayers int    `json:"maxPlayers,omitempty"`
	Card       int    `json:"card,omitempty"`
	Pile       string `json:"pile,omitempty"`
	Kind       string `json:"kind,omitempty"`
	Pref       string `json:"pref,omitempty"`
}

// outbound is the wire frame for server events.
type outbound struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ErrorPayload is the data of an errorMsg frame. It never implies mutation.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub tracks live connections per room and token and routes app events to
// them. It implements app.Sink for asynchronous deliveries.
type Hub struct {
	svc *app.Service
	log *zap.Logger

	mu    sync.RWMutex
	rooms map[string]map[string]*client // room code -> token -> connection
}

// NewHub builds a hub over the app service.
func NewHub(svc *app.Service, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		svc:   svc,
		log:   log,
		rooms: make(map[string]map[string]*client),
	}
}

// ServeWS upgrades the request and runs the connection until it closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := newClient(h, conn)
	go c.writePump()
	c.readPump()
}

// Publish delivers events to the room's live connections. Part of app.Sink.
func (h *Hub) Publish(room string, events []app.Event) {
	h.mu.RLock()
	members := h.rooms[room]
	targets := make(map[string]*client, len(members))
	for token, c := range members {
		targets[token] = c
	}
	h.mu.RUnlock()

	for _, ev := range events {
		data, err := json.Marshal(outbound{Type: string(ev.Kind), Data: ev.Payload})
		if err != nil {
			h.log.Error("marshal event failed", zap.String("kind", string(ev.Kind)), zap.Error(err))
			continue
		}
		if len(ev.Recipients) == 0 {
			for _, c := range targets {
				c.enqueue(data)
			}
			continue
		}
		for _, token := range ev.Recipients {
			if c, ok := targets[token]; ok {
				c.enqueue(data)
			}
		}
	}
}

// bind registers the connection as the live handle for (room, token). A
// previous handle for the same identity is displaced and closed.
func (h *Hub) bind(c *client, room, token string) {
	h.mu.Lock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]*client)
		h.rooms[room] = members
	}
	old := members[token]
	members[token] = c
	h.mu.Unlock()

	c.room, c.token = room, token
	if old != nil && old != c {
		old.close()
	}
}

// unbind drops the connection's registration if it is still the live handle.
func (h *Hub) unbind(c *client) {
	if c.room == "" {
		return
	}
	h.mu.Lock()
	if members, ok := h.rooms[c.room]; ok && members[c.token] == c {
		delete(members, c.token)
		if len(members) == 0 {
			delete(h.rooms, c.room)
		}
	}
	h.mu.Unlock()
}

// dispatch routes one envelope into the app service and publishes the
// resulting events. Rejections go back to the sender only.
func (h *Hub) dispatch(c *client, env Envelope) {
	ctx := context.Background()

	switch env.Type {
	case "create":
		_, events, err := h.svc.Create(ctx, env.Room, env.MaxPlayers)
		if err != nil {
			h.sendError(c, err)
			return
		}
		// The requester is not seated yet; reply directly.
		for _, ev := range events {
			c.send(outbound{Type: string(ev.Kind), Data: ev.Payload})
		}
	case "join":
		events, err := h.svc.Join(ctx, env.Room, env.Token, env.Name)
		if err != nil {
			h.sendError(c, err)
			return
		}
		h.bind(c, env.Room, env.Token)
		h.Publish(env.Room, events)
	case "startPref":
		events, err := h.svc.StartPref(ctx, env.Room, env.Token, env.Pref)
		h.relay(c, env.Room, events, err)
	case "play":
		events, err := h.svc.Play(ctx, env.Room, env.Token, env.Card, env.Pile)
		h.relay(c, env.Room, events, err)
	case "endTurn":
		events, err := h.svc.EndTurn(ctx, env.Room, env.Token)
		h.relay(c, env.Room, events, err)
	case "pilePing":
		events, err := h.svc.PilePing(ctx, env.Room, env.Pile, env.Kind)
		h.relay(c, env.Room, events, err)
	case "rematch":
		events, err := h.svc.Rematch(ctx, env.Room)
		h.relay(c, env.Room, events, err)
	default:
		c.send(outbound{Type: "errorMsg", Data: ErrorPayload{Code: "VALIDATION", Message: "unknown event type"}})
	}
}

func (h *Hub) relay(c *client, room string, events []app.Event, err error) {
	if err != nil {
		h.sendError(c, err)
		return
	}
	h.Publish(room, events)
}

func (h *Hub) sendError(c *client, err error) {
	var rej *app.Reject
	if errors.As(err, &rej) {
		c.send(outbound{Type: "errorMsg", Data: ErrorPayload{Code: rej.Code, Message: rej.Message}})
		return
	}
	h.log.Error("event handling failed", zap.Error(err))
	c.send(outbound{Type: "errorMsg", Data: ErrorPayload{Code: "SERVER_ERROR", Message: "internal error"}})
}

// disconnected handles the implicit disconnect event when a bound
// connection's read loop ends.
func (h *Hub) disconnected(c *client) {
	h.unbind(c)
	if c.room == "" || c.token == "" {
		return
	}

	// Only report a disconnect if no newer handle took over the identity.
	h.mu.RLock()
	_, replaced := h.rooms[c.room][c.token]
	h.mu.RUnlock()
	if replaced {
		return
	}

	events, err := h.svc.Disconnect(context.Background(), c.room, c.token)
	if err != nil {
		h.log.Warn("disconnect handling failed", zap.String("room", c.room), zap.Error(err))
		return
	}
	h.Publish(c.room, events)
}
