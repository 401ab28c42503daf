package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/yourusername/cuescore/pkg/match"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // The server binds to localhost for a single scorer
	},
}

// WSMessage is a generic WebSocket message.
type WSMessage struct {
	Type    string          `json:"type"`    // "start", "points", "penalty", "toggle", "undo", "save", "view", "ping"
	ID      string          `json:"id"`      // Request ID for correlating responses
	Payload json.RawMessage `json:"payload"` // Type-specific payload
}

// WSResponse is a generic WebSocket response.
type WSResponse struct {
	Type    string      `json:"type"`              // Response type: "result", "frame", "error", "pong"
	ID      string      `json:"id,omitempty"`      // Request ID
	Payload interface{} `json:"payload,omitempty"` // Response data
	Error   string      `json:"error,omitempty"`   // Error message if any
}

// WSClient represents a connected WebSocket client. Besides answering its
// own commands it receives every live frame.
type WSClient struct {
	conn     *websocket.Conn
	handlers *Handlers
	sendChan chan WSResponse
	frames   <-chan Frame
	done     chan struct{}
}

// WebSocket handles WebSocket connections for driving the live scoreboard.
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	frames, unsubscribe := h.hub.Subscribe()
	defer unsubscribe()

	client := &WSClient{
		conn:     conn,
		handlers: h,
		sendChan: make(chan WSResponse, 256),
		frames:   frames,
		done:     make(chan struct{}),
	}
	go client.writePump()
	client.readPump(r.Context())
}

func (c *WSClient) writePump() {
	defer c.conn.Close()
	for {
		select {
		case msg := <-c.sendChan:
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case f, ok := <-c.frames:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(WSResponse{Type: "frame", Payload: f}); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *WSClient) readPump(ctx context.Context) {
	defer func() { close(c.done); c.conn.Close() }()
	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		c.handleMessage(ctx, msg)
	}
}

func (c *WSClient) reply(resp WSResponse) {
	select {
	case c.sendChan <- resp:
	case <-c.done:
	}
}

func (c *WSClient) fail(id, msg string) {
	c.reply(WSResponse{Type: "error", ID: id, Error: msg})
}

func (c *WSClient) handleMessage(ctx context.Context, msg WSMessage) {
	h := c.handlers
	switch msg.Type {
	case "start":
		c.handleStart(ctx, msg)
	case "points":
		var req PointsRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			c.fail(msg.ID, "invalid payload")
			return
		}
		c.handleAction(msg, "points", scorePoints(req))
	case "penalty":
		c.handleAction(msg, "penalty", (*match.Scoreboard).RecordPenalty)
	case "toggle":
		c.handleAction(msg, "toggle", (*match.Scoreboard).ToggleTurn)
	case "undo":
		var undone bool
		view, err := h.Apply("undo", func(b *match.Scoreboard) error {
			undone = b.Undo()
			return nil
		})
		if err != nil {
			c.fail(msg.ID, err.Error())
			return
		}
		c.reply(WSResponse{Type: "result", ID: msg.ID, Payload: UndoResponse{Undone: undone, View: view}})
	case "save":
		resp, err := h.Save(ctx)
		if err != nil {
			c.fail(msg.ID, err.Error())
			return
		}
		c.reply(WSResponse{Type: "result", ID: msg.ID, Payload: resp})
	case "view":
		s := h.current()
		if s == nil {
			c.fail(msg.ID, errNoMatch.Error())
			return
		}
		c.reply(WSResponse{Type: "result", ID: msg.ID, Payload: s.Response()})
	case "ping":
		c.reply(WSResponse{Type: "pong", ID: msg.ID})
	default:
		c.fail(msg.ID, "unknown message type")
	}
}

func (c *WSClient) handleStart(ctx context.Context, msg WSMessage) {
	var req StartRequest
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			c.fail(msg.ID, "invalid payload")
			return
		}
	}
	if req.Game == "" {
		req.Game = match.Snooker
	}
	if _, err := match.ParseGame(string(req.Game)); err != nil {
		c.fail(msg.ID, err.Error())
		return
	}
	ids, err := c.handlers.resolveNames(ctx, [2]string{req.J1, req.J2})
	if err != nil {
		c.fail(msg.ID, "storage error")
		return
	}
	s := c.handlers.Start(req.Game, req.First, ids)
	c.reply(WSResponse{Type: "result", ID: msg.ID, Payload: s.Response()})
}

func (c *WSClient) handleAction(msg WSMessage, action string, fn func(*match.Scoreboard) error) {
	view, err := c.handlers.Apply(action, fn)
	if err != nil {
		c.fail(msg.ID, err.Error())
		return
	}
	c.reply(WSResponse{Type: "result", ID: msg.ID, Payload: view})
}
