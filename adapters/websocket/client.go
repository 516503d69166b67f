package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/satriahrh/dsa-assistant/utils/log"
)

// FrameHandler turns one inbound text frame into the reply frame to send
// back. A nil reply sends nothing.
type FrameHandler func(ctx context.Context, frame []byte) []byte

type Client struct {
	conn     *websocket.Conn
	send     chan []byte
	inflight chan struct{}
	handle   FrameHandler
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.RWMutex
	closed   bool
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 512 * 1024 // a windowed transcript plus question fits comfortably

	// maxInflight bounds concurrent upstream calls per connection.
	maxInflight = 4
)

// NewClient wraps an upgraded connection. ctx carries the request and
// session ids used for logging and is cancelled when the client closes.
func NewClient(ctx context.Context, conn *websocket.Conn, handle FrameHandler) *Client {
	ctx, cancel := context.WithCancel(ctx)
	return &Client{
		conn:     conn,
		send:     make(chan []byte, 256),
		inflight: make(chan struct{}, maxInflight),
		handle:   handle,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (c *Client) Run() {
	c.setupHandlers()

	go c.readPump()
	go c.writePump()
}

func (c *Client) setupHandlers() {
	c.conn.SetCloseHandler(func(code int, text string) error {
		log.WithCtx(c.ctx).Debug("WebSocket connection closed", zap.Int("code", code), zap.String("text", text))
		c.Close()
		return nil
	})

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// Close gracefully closes the client connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.cancel()

	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	c.conn.Close()
}

func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *Client) Context() context.Context {
	return c.ctx
}

// readPump reads frames and hands each to the frame handler on its own
// goroutine, at most maxInflight at a time. Replies may therefore arrive
// out of order; clients match them by id.
func (c *Client) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.WithCtx(c.ctx).Error("WebSocket error", zap.Error(err))
			}
			return
		}
		if msgType != websocket.TextMessage {
			log.WithCtx(c.ctx).Debug("Ignoring non-text frame", zap.Int("type", msgType))
			continue
		}

		select {
		case c.inflight <- struct{}{}:
		case <-c.ctx.Done():
			return
		}
		go func(frame []byte) {
			defer func() { <-c.inflight }()
			if reply := c.handle(c.ctx, frame); reply != nil {
				if err := c.SendMessage(reply); err != nil {
					log.WithCtx(c.ctx).Debug("Dropping reply", zap.Error(err))
				}
			}
		}(message)
	}
}

// writePump is the only writer of data frames. It also keeps the
// connection alive with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.WithCtx(c.ctx).Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.WithCtx(c.ctx).Debug("Failed to send ping", zap.Error(err))
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// SendMessage queues a frame for the write pump. A client whose queue is
// full is too slow to keep and gets closed.
func (c *Client) SendMessage(message []byte) error {
	if c.IsClosed() {
		return websocket.ErrCloseSent
	}

	select {
	case c.send <- message:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.Close()
		return websocket.ErrCloseSent
	}
}
