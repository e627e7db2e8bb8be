// ABOUTME: WebSocket control server for a playback session
// ABOUTME: Accepts transport and project commands and broadcasts transport state
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/Resonate-Protocol/resonate-daw/internal/discovery"
	"github.com/Resonate-Protocol/resonate-daw/internal/engine"
	"github.com/Resonate-Protocol/resonate-daw/internal/project"
	"github.com/Resonate-Protocol/resonate-daw/internal/session"
	"github.com/Resonate-Protocol/resonate-daw/internal/version"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Path is the WebSocket endpoint
	Path = "/daw"

	// DefaultPort is the port used when none is configured
	DefaultPort = 8937

	// DefaultStateInterval is how often transport state is broadcast
	DefaultStateInterval = 250 * time.Millisecond

	// preloadTimeout bounds a project/preload command
	preloadTimeout = 2 * time.Minute
)

// Controller is the session surface the server drives
type Controller interface {
	ID() string
	Load(p *project.Project) error
	Preload(ctx context.Context) (map[string]error, error)
	Play() error
	Pause() error
	Stop()
	Seek(seconds float64)
	State() engine.PlaybackState
	UpdateTrack(u session.TrackUpdate) error
}

// Config configures a control server
type Config struct {
	// Port to listen on (default: 8937)
	Port int

	// Name of the server for identification
	Name string

	// StateInterval between transport/state broadcasts
	StateInterval time.Duration

	// EnableMDNS enables mDNS service advertisement
	EnableMDNS bool
}

// Server exposes a Controller over WebSocket
type Server struct {
	config   Config
	ctl      Controller
	upgrader websocket.Upgrader

	httpServer *http.Server
	mux        *http.ServeMux

	// Client management
	clients   map[string]*client
	clientsMu sync.RWMutex

	mdnsManager *discovery.Manager

	// Control
	stopChan   chan struct{}
	stopOnce   sync.Once
	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup
}

// client is a connected control client
type client struct {
	ID       string
	Conn     *websocket.Conn
	sendChan chan interface{}
}

// NewServer creates a control server for ctl
func NewServer(config Config, ctl Controller) (*Server, error) {
	if ctl == nil {
		return nil, fmt.Errorf("controller is required")
	}
	if config.Port == 0 {
		config.Port = DefaultPort
	}
	if config.Name == "" {
		config.Name = "Resonate DAW"
	}
	if config.StateInterval <= 0 {
		config.StateInterval = DefaultStateInterval
	}

	s := &Server{
		config: config,
		ctl:    ctl,
		mux:    http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Local network control surface
				return true
			},
		},
		clients:  make(map[string]*client),
		stopChan: make(chan struct{}),
	}
	s.mux.HandleFunc(Path, s.handleWebSocket)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.broadcastLoop()
	}()

	return s, nil
}

// Handler returns the HTTP handler serving the control endpoint
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start listens and serves until Stop is called
func (s *Server) Start() error {
	log.Printf("Control server starting: %s (session: %s)", s.config.Name, s.ctl.ID())

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
			Path:        Path,
		})

		if err := s.mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		}
	}

	addr := fmt.Sprintf(":%d", s.config.Port)
	log.Printf("Control server listening on %s%s", addr, Path)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-s.stopChan:
		log.Printf("Control server shutting down...")
	case err := <-errChan:
		log.Printf("HTTP server error: %v", err)
		s.Stop()
		return err
	}

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	return nil
}

// Stop stops the server and disconnects every client
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.shutdownMu.Lock()
		s.isShutdown = true
		s.shutdownMu.Unlock()

		close(s.stopChan)

		s.clientsMu.RLock()
		for _, c := range s.clients {
			c.Conn.Close()
		}
		s.clientsMu.RUnlock()
	})
	s.wg.Wait()
}

// Clients returns the number of connected clients
func (s *Server) Clients() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// broadcastLoop pushes transport state to every client on a fixed tick
func (s *Server) broadcastLoop() {
	ticker := time.NewTicker(s.config.StateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.broadcastState()
		case <-s.stopChan:
			return
		}
	}
}

// broadcastState sends the current transport state to all clients
func (s *Server) broadcastState() {
	state := s.ctl.State()

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, c := range s.clients {
		s.sendMessage(c, TypeTransportState, state)
	}
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	log.Printf("New control connection from %s", r.RemoteAddr)
	s.handleConnection(conn)
}

// handleConnection manages a client connection
func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	c := &client{
		ID:       uuid.New().String(),
		Conn:     conn,
		sendChan: make(chan interface{}, 64),
	}

	// Register under the shutdown lock so Stop cannot miss the client
	s.shutdownMu.RLock()
	if s.isShutdown {
		s.shutdownMu.RUnlock()
		log.Printf("Rejecting connection during shutdown")
		return
	}
	s.clientsMu.Lock()
	s.clients[c.ID] = c
	s.clientsMu.Unlock()
	s.shutdownMu.RUnlock()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.clientWriter(c)
	}()

	defer func() {
		s.removeClient(c)
		<-writerDone
		log.Printf("Control client disconnected: %s", c.ID)
	}()

	s.sendMessage(c, TypeServerHello, ServerHello{
		SessionID: s.ctl.ID(),
		Name:      s.config.Name,
		Version:   version.Version,
	})
	s.sendMessage(c, TypeTransportState, s.ctl.State())

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		s.handleClientMessage(c, data)
	}
}

// clientWriter sends messages to the client
func (s *Server) clientWriter(c *client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	const writeDeadline = 10 * time.Second

	for {
		select {
		case msg, ok := <-c.sendChan:
			if !ok {
				return
			}

			data, err := json.Marshal(msg)
			if err != nil {
				log.Printf("Error marshaling message: %v", err)
				continue
			}
			c.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		}
	}
}

// handleClientMessage dispatches one command
func (s *Server) handleClientMessage(c *client, data []byte) {
	var msg Inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(c, CodeBadRequest, fmt.Sprintf("malformed message: %v", err))
		return
	}

	var err error
	switch msg.Type {
	case TypePlay:
		err = s.ctl.Play()
	case TypePause:
		err = s.ctl.Pause()
	case TypeStop:
		s.ctl.Stop()
	case TypeSeek:
		var seek Seek
		if err = decodePayload(msg.Payload, &seek); err == nil {
			s.ctl.Seek(seek.Seconds)
		}
	case TypeLoadProject:
		var load LoadProject
		if err = decodePayload(msg.Payload, &load); err == nil {
			err = s.ctl.Load(load.Project)
		}
	case TypeUpdateTrack:
		var update session.TrackUpdate
		if err = decodePayload(msg.Payload, &update); err == nil {
			err = s.ctl.UpdateTrack(update)
		}
	case TypePreload:
		// Stop waits on wg once isShutdown is set; no Add may follow that
		s.shutdownMu.RLock()
		if s.isShutdown {
			s.shutdownMu.RUnlock()
			return
		}
		s.wg.Add(1)
		s.shutdownMu.RUnlock()
		go func() {
			defer s.wg.Done()
			s.preload(c)
		}()
		return
	default:
		err = fmt.Errorf("%w: unknown message type %q", errBadRequest, msg.Type)
	}

	if err != nil {
		s.sendError(c, errorCode(err), err.Error())
		return
	}
	s.broadcastState()
}

// preload decodes the project's assets and reports failures to the requester
func (s *Server) preload(c *client) {
	ctx, cancel := context.WithTimeout(context.Background(), preloadTimeout)
	defer cancel()

	failures, err := s.ctl.Preload(ctx)

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	if _, ok := s.clients[c.ID]; !ok {
		return
	}

	if err != nil {
		s.sendError(c, errorCode(err), err.Error())
		return
	}

	failed := make(map[string]string, len(failures))
	for ref, ferr := range failures {
		failed[ref] = ferr.Error()
	}
	s.sendMessage(c, TypePreloaded, Preloaded{Failed: failed})
}

var errBadRequest = errors.New("bad request")

func decodePayload(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing payload", errBadRequest)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// errorCode maps a command error to its protocol code
func errorCode(err error) string {
	switch {
	case errors.Is(err, engine.ErrInvalidTransition):
		return CodeInvalidTransition
	case errors.Is(err, engine.ErrEngineUnavailable):
		return CodeEngineUnavailable
	default:
		return CodeBadRequest
	}
}

func (s *Server) sendError(c *client, code, message string) {
	s.sendMessage(c, TypeError, Error{Code: code, Message: message})
}

// sendMessage queues a message for a client without blocking
func (s *Server) sendMessage(c *client, msgType string, payload interface{}) error {
	msg := Message{
		Type:    msgType,
		Payload: payload,
	}

	select {
	case c.sendChan <- msg:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}

// removeClient removes a client
func (s *Server) removeClient(c *client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	delete(s.clients, c.ID)
	close(c.sendChan)
}
