package ws_party

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/humanbelnik/watchparty/internal/model"
	"golang.org/x/time/rate"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Conn is the part of *websocket.Conn the gateway uses.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

type Client struct {
	id      string
	conn    Conn
	send    chan []byte
	limiter *rate.Limiter

	sendMu sync.Mutex
	closed bool

	mu       sync.Mutex
	roomCode model.RoomCode
	user     model.User
}

func newClient(conn Conn, sendBuffer int, limiter *rate.Limiter) *Client {
	return &Client{
		id:      uuid.New().String(),
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		limiter: limiter,
	}
}

func (c *Client) bind(code model.RoomCode, user model.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomCode = code
	c.user = user
}

func (c *Client) unbind() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomCode = model.EmptyRoomCode
	c.user = model.User{}
}

func (c *Client) identity() (model.RoomCode, model.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomCode, c.user
}

// enqueue reports false when the client cannot keep up.
func (c *Client) enqueue(message []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) readPump(maxMessageSize int64, handle func(c *Client, data []byte)) {
	if maxMessageSize > 0 {
		c.conn.SetReadLimit(maxMessageSize)
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		handle(c, data)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
