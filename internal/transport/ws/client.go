package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/vedran77/vybe/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 16 * 1024
	sendBufSize    = 256
)

var (
	ErrConnectionClosed = errors.New("ws: connection closed")
	ErrSendBufferFull   = errors.New("ws: send buffer full")
)

// State is the lifecycle of a connection. DISCONNECTED is terminal.
type State int32

const (
	StateConnecting State = iota
	StateConnected
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	default:
		return "DISCONNECTED"
	}
}

// Client represents a single WebSocket connection. It satisfies presence.Connection.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	userID     domain.UserID
	dispatcher *Dispatcher
	log        *slog.Logger

	state       atomic.Int32
	closeStatus atomic.Int32
	closeOnce   sync.Once

	send chan []byte
	done chan struct{}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID domain.UserID, dispatcher *Dispatcher, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	c := &Client{
		hub:        hub,
		conn:       conn,
		userID:     userID,
		dispatcher: dispatcher,
		log:        log.With("user_id", userID),
		send:       make(chan []byte, sendBufSize),
		done:       make(chan struct{}),
	}
	c.closeStatus.Store(int32(websocket.StatusNormalClosure))
	return c
}

func (c *Client) UserID() domain.UserID {
	return c.userID
}

func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) markConnected() {
	c.state.CompareAndSwap(int32(StateConnecting), int32(StateConnected))
}

// Push queues data for the write pump without blocking. A client whose buffer is full is
// disconnected, matching a peer that stopped reading.
func (c *Client) Push(data []byte) error {
	if c.State() == StateDisconnected {
		return ErrConnectionClosed
	}
	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}
	select {
	case c.send <- data:
		return nil
	default:
		c.log.Warn("ws: send buffer full, disconnecting")
		c.Close(websocket.StatusPolicyViolation)
		return ErrSendBufferFull
	}
}

// Close moves the client to DISCONNECTED and stops its pumps. The socket itself is closed by
// the write pump. Safe to call from any goroutine and more than once.
func (c *Client) Close(status websocket.StatusCode) {
	c.closeOnce.Do(func() {
		c.closeStatus.Store(int32(status))
		c.state.Store(int32(StateDisconnected))
		close(c.done)
	})
}

// ReadPump reads actions from the WebSocket and dispatches them until the connection drops.
// It blocks; when it returns the client has been unregistered.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.Close(websocket.StatusNormalClosure)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	for {
		var event Event
		err := wsjson.Read(ctx, c.conn, &event)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				c.log.Info("ws: client disconnected", "status", websocket.CloseStatus(err))
			} else if c.State() != StateDisconnected {
				c.log.Debug("ws: read ended", "error", err)
			}
			return
		}
		c.handleEvent(ctx, &event)
	}
}

// WritePump writes queued events and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Close(websocket.StatusNormalClosure)
		c.conn.Close(websocket.StatusCode(c.closeStatus.Load()), "")
	}()

	for {
		select {
		case message := <-c.send:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				c.log.Warn("ws: write error", "error", err)
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				c.log.Warn("ws: ping error", "error", err)
				return
			}

		case <-c.done:
			return
		}
	}
}

func (c *Client) handleEvent(ctx context.Context, event *Event) {
	reply := c.dispatcher.Dispatch(ctx, c.userID, event)
	data, err := json.Marshal(reply)
	if err != nil {
		c.log.Error("ws: marshal reply", "type", reply.Type, "error", err)
		return
	}
	if err := c.Push(data); err != nil {
		c.log.Warn("ws: reply dropped", "type", reply.Type, "error", err)
	}
}
