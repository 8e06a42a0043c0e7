package ws

import (
	"sync"

	"github.com/gofiber/fiber/v2/log"
)

// sendBuffer is how many messages may queue for one watcher before it is
// considered too slow and dropped.
const sendBuffer = 64

// Conn is the part of a websocket connection a Client writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Client owns the write side of one websocket connection. Every outbound
// message goes through Send and is written by a single goroutine, in the
// order it was queued.
type Client struct {
	conn    Conn
	out     chan Message
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func NewClient(conn Conn) *Client {
	return &Client{
		conn:    conn,
		out:     make(chan Message, sendBuffer),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start launches the writer.
func (c *Client) Start() {
	go c.writeLoop()
}

func (c *Client) writeLoop() {
	defer close(c.stopped)
	// closing the connection also ends the handler's read loop
	defer c.conn.Close()

	for {
		select {
		case msg := <-c.out:
			if err := c.conn.WriteJSON(msg); err != nil {
				log.Debugf("websocket write: %v", err)
				c.Close()
				return
			}
		case <-c.done:
			c.flush()
			return
		}
	}
}

// flush writes whatever was queued before Close.
func (c *Client) flush() {
	for {
		select {
		case msg := <-c.out:
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

// Send queues msg without blocking. It returns false once the client is
// closed or when its queue is full, in which case the client is closed.
func (c *Client) Send(msg Message) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.out <- msg:
		return true
	default:
		log.Warnf("websocket client too slow, dropping it")
		c.Close()
		return false
	}
}

// Close stops accepting messages. The writer drains what is queued, closes
// the connection and exits.
func (c *Client) Close() {
	c.once.Do(func() { close(c.done) })
}

// Stop closes the client and waits for the writer to exit. It must only be
// called after Start.
func (c *Client) Stop() {
	c.Close()
	<-c.stopped
}

// Done is closed once the client stops accepting messages.
func (c *Client) Done() <-chan struct{} {
	return c.done
}
