package ws

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"warrantfeed/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 90 * time.Second
	pingPeriod     = 45 * time.Second
	maxMessageSize = 4096
)

// Client is one websocket connection with its own FIFO send queue and writer
// goroutine.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	closeOnce sync.Once
}

func newClient(id string, conn *websocket.Conn, buffer int) *Client {
	if buffer <= 0 {
		buffer = 16
	}
	return &Client{
		id:   id,
		conn: conn,
		send: make(chan []byte, buffer),
		done: make(chan struct{}),
	}
}

func (c *Client) ID() string { return c.id }

func (c *Client) Send(payload []byte) error {
	select {
	case <-c.done:
		return fmt.Errorf("%w: client %s closed", domain.ErrClientDeliveryFailed, c.id)
	default:
	}

	select {
	case c.send <- payload:
		return nil
	case <-c.done:
		return fmt.Errorf("%w: client %s closed", domain.ErrClientDeliveryFailed, c.id)
	default:
		return fmt.Errorf("%w: client %s send buffer full", domain.ErrClientDeliveryFailed, c.id)
	}
}

// Close is idempotent. It unblocks both pumps.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		err = c.conn.Close()
	})
	return err
}

func (c *Client) writePump() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ping.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames for liveness and returns when the
// connection ends.
func (c *Client) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
