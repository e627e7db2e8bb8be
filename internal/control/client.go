// ABOUTME: WebSocket client for the DAW control protocol
// ABOUTME: Handles connection, handshake, command sending and message routing
package control

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/Resonate-Protocol/resonate-daw/internal/engine"
	"github.com/Resonate-Protocol/resonate-daw/internal/project"
	"github.com/Resonate-Protocol/resonate-daw/internal/session"
	"github.com/gorilla/websocket"
)

const handshakeTimeout = 5 * time.Second

// Client is a control connection to a running engine
type Client struct {
	addr  string
	path  string
	conn  *websocket.Conn
	mu    sync.RWMutex
	hello ServerHello

	// Message channels
	States    chan engine.PlaybackState
	Errors    chan Error
	Preloaded chan Preloaded

	// State
	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a client for the server at addr (host:port)
func NewClient(addr string) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		addr:      addr,
		path:      Path,
		States:    make(chan engine.PlaybackState, 16),
		Errors:    make(chan Error, 16),
		Preloaded: make(chan Preloaded, 1),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// WithPath overrides the WebSocket path, as advertised over mDNS
func (c *Client) WithPath(path string) *Client {
	if path != "" {
		c.path = path
	}
	return c
}

// Connect dials the server and waits for server/hello
func (c *Client) Connect() error {
	u := url.URL{Scheme: "ws", Host: c.addr, Path: c.path}
	log.Printf("Connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()

	return nil
}

// handshake reads the server/hello that opens every connection
func (c *Client) handshake() error {
	c.conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read server/hello: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{})

	var msg Inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}
	if msg.Type != TypeServerHello {
		return fmt.Errorf("expected %s, got %s", TypeServerHello, msg.Type)
	}

	var hello ServerHello
	if err := json.Unmarshal(msg.Payload, &hello); err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}

	c.mu.Lock()
	c.hello = hello
	c.mu.Unlock()

	log.Printf("Connected to %s (session %s, version %s)", hello.Name, hello.SessionID, hello.Version)
	return nil
}

// Hello returns the server/hello received on connect
func (c *Client) Hello() ServerHello {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hello
}

// readMessages reads and routes incoming messages
func (c *Client) readMessages() {
	defer c.Close()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.ctx.Done():
			default:
				log.Printf("Read error: %v", err)
			}
			return
		}

		c.handleMessage(data)
	}
}

// handleMessage routes one server message to its channel
func (c *Client) handleMessage(data []byte) {
	var msg Inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Failed to parse message: %v", err)
		return
	}

	switch msg.Type {
	case TypeTransportState:
		var state engine.PlaybackState
		if err := json.Unmarshal(msg.Payload, &state); err != nil {
			log.Printf("Failed to parse %s: %v", msg.Type, err)
			return
		}
		select {
		case c.States <- state:
		default:
			// Stale states are worthless; keep the newest
			select {
			case <-c.States:
			default:
			}
			c.States <- state
		}

	case TypeError:
		var e Error
		if err := json.Unmarshal(msg.Payload, &e); err != nil {
			log.Printf("Failed to parse %s: %v", msg.Type, err)
			return
		}
		select {
		case c.Errors <- e:
		case <-c.ctx.Done():
		}

	case TypePreloaded:
		var p Preloaded
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			log.Printf("Failed to parse %s: %v", msg.Type, err)
			return
		}
		select {
		case c.Preloaded <- p:
		case <-c.ctx.Done():
		}

	default:
		log.Printf("Unknown message type: %s", msg.Type)
	}
}

// Play sends transport/play
func (c *Client) Play() error { return c.send(TypePlay, nil) }

// Pause sends transport/pause
func (c *Client) Pause() error { return c.send(TypePause, nil) }

// Stop sends transport/stop
func (c *Client) Stop() error { return c.send(TypeStop, nil) }

// Preload asks the server to decode every asset of its project
func (c *Client) Preload() error { return c.send(TypePreload, nil) }

// Seek sends transport/seek
func (c *Client) Seek(seconds float64) error {
	return c.send(TypeSeek, Seek{Seconds: seconds})
}

// LoadProject replaces the server's project
func (c *Client) LoadProject(p *project.Project) error {
	return c.send(TypeLoadProject, LoadProject{Project: p})
}

// UpdateTrack changes one track's mixer settings
func (c *Client) UpdateTrack(u session.TrackUpdate) error {
	return c.send(TypeUpdateTrack, u)
}

// send writes a command envelope
func (c *Client) send(msgType string, payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}

	return c.conn.WriteJSON(Message{Type: msgType, Payload: payload})
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
