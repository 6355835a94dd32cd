// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package websocket

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/discovery"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/logging"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Inbound frames are pings and small trigger objects.
	maxMessageSize = 4 * 1024

	sendBuffer  = 256
	replyBuffer = 16
)

// Engine receives the triggers a UI sends over its connection.
// *discovery.Engine implements it.
type Engine interface {
	Discover(ctx context.Context) discovery.State
	Apply(ctx context.Context, action discovery.Action, id models.MovieID, undo bool) (bool, error)
}

var clientSeq atomic.Uint64

// Client is one UI connection. Broadcasts from the hub arrive on send,
// which the hub owns and closes. Answers to this client's own triggers go
// on replies, which is never closed, so a trigger finishing after the hub
// dropped the client cannot panic.
type Client struct {
	id      uint64
	hub     *Hub
	conn    *websocket.Conn
	engine  Engine
	send    chan Message
	replies chan Message
	logger  zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// discovering is set while a discover trigger from this client runs.
	discovering atomic.Bool
}

// NewClient wraps conn. A nil engine makes the connection receive-only:
// triggers are answered with an error message.
func NewClient(hub *Hub, conn *websocket.Conn, engine Engine) *Client {
	id := clientSeq.Add(1)
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		id:      id,
		hub:     hub,
		conn:    conn,
		engine:  engine,
		send:    make(chan Message, sendBuffer),
		replies: make(chan Message, replyBuffer),
		logger:  logging.WithComponent("websocket").With().Uint64("client_id", id).Logger(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// ID orders clients for broadcast.
func (c *Client) ID() uint64 {
	return c.id
}

// Start runs the read and write loops. The caller registers the client
// with the hub first so the replayed state is the first frame written.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// readPump decodes inbound frames until the connection fails, then
// cancels running triggers and leaves the hub.
func (c *Client) readPump() {
	defer func() {
		c.cancel()
		c.hub.Unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("unexpected websocket close")
			}
			return
		}
		var in inbound
		if err := json.Unmarshal(raw, &in); err != nil {
			c.reply(errorMessage("malformed message"))
			continue
		}
		c.handle(in)
	}
}

type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// handle routes one inbound frame. Triggers run off the read loop so
// pongs keep being read while a discovery is in flight.
func (c *Client) handle(in inbound) {
	switch in.Type {
	case MessageTypePing:
		c.reply(Message{Type: MessageTypePong})

	case MessageTypeDiscover:
		if c.engine == nil {
			c.reply(errorMessage("triggers are not accepted on this connection"))
			return
		}
		if !c.discovering.CompareAndSwap(false, true) {
			c.reply(errorMessage("a discovery is already running"))
			return
		}
		c.goTrigger(func(ctx context.Context) {
			defer c.discovering.Store(false)
			// The resulting state reaches every client through the hub.
			c.engine.Discover(ctx)
		})

	case MessageTypeAction:
		if c.engine == nil {
			c.reply(errorMessage("triggers are not accepted on this connection"))
			return
		}
		var req ActionData
		if err := json.Unmarshal(in.Data, &req); err != nil {
			c.reply(errorMessage("action data must be an object"))
			return
		}
		action, id, err := req.parse()
		if err != nil {
			c.reply(errorMessage(err.Error()))
			return
		}
		c.goTrigger(func(ctx context.Context) {
			changed, err := c.engine.Apply(ctx, action, id, req.Undo)
			if err != nil {
				c.logger.Error().Err(err).Stringer("movie_id", id).Msg("action from websocket not saved")
				c.reply(errorMessage("your choice could not be saved"))
				return
			}
			req.Changed = changed
			c.reply(Message{Type: MessageTypeActionResult, Data: req})
		})

	default:
		c.reply(errorMessage("unknown message type " + in.Type))
	}
}

func (c *Client) goTrigger(fn func(ctx context.Context)) {
	go fn(logging.ContextWithNewCorrelationID(c.ctx))
}

// reply queues msg for this client only. It never blocks.
func (c *Client) reply(msg Message) {
	select {
	case c.replies <- msg:
	default:
		c.logger.Warn().Str("message_type", msg.Type).Msg("reply buffer full, dropping message")
	}
}

// writePump writes hub broadcasts, replies and protocol pings. It exits
// when the hub closes send or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.writeClose()
				return
			}
			if !c.write(msg) {
				return
			}
		case msg := <-c.replies:
			if !c.write(msg) {
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// write reports false when the connection is no longer usable. A message
// that cannot be encoded is skipped.
func (c *Client) write(msg Message) bool {
	payload, err := MarshalMessage(msg)
	if err != nil {
		c.logger.Error().Err(err).Str("message_type", msg.Type).Msg("failed to encode message")
		return true
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return false
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.logger.Debug().Err(err).Msg("websocket write failed")
		return false
	}
	return true
}

func (c *Client) writeClose() {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// ActionData is the payload of an action trigger and of its result.
type ActionData struct {
	Action  string `json:"action"`
	MovieID int64  `json:"movie_id"`
	Undo    bool   `json:"undo"`
	Changed bool   `json:"changed"`
}

var errBadMovieID = errors.New("movie_id must be a positive integer")

func (a ActionData) parse() (discovery.Action, models.MovieID, error) {
	action, err := discovery.ParseAction(a.Action)
	if err != nil {
		return "", 0, err
	}
	if a.MovieID <= 0 {
		return "", 0, errBadMovieID
	}
	return action, models.MovieID(a.MovieID), nil
}

// ErrorData is the payload of an error message.
type ErrorData struct {
	Message string `json:"message"`
}

func errorMessage(text string) Message {
	return Message{Type: MessageTypeError, Data: ErrorData{Message: text}}
}
