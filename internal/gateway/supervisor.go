// Package gateway ties the relay together: it owns both WebSocket
// listeners (human clients on one port, the device agent on the other),
// the lifecycle of client sessions, and the command router that maps
// client frames onto the directory and the device link.
package gateway

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"

	// gorilla/websocket is the most popular WebSocket library for Go.
	// It provides a complete implementation of the WebSocket protocol
	// with support for reading/writing messages, ping/pong, and close handling.
	"github.com/gorilla/websocket"

	"github.com/iotify/gateway/internal/device"
	"github.com/iotify/gateway/internal/directory"
	"github.com/iotify/gateway/internal/wire"
)

// Options configures a Supervisor.
type Options struct {
	// ClientAddr is the listen address for human clients.
	ClientAddr string

	// DeviceAddr is the listen address for the embedded agent.
	DeviceAddr string

	// Directory resolves credentials and device ownership.
	Directory *directory.Adapter

	// Link is the single device connection slot.
	Link *device.Link

	// LegacyWire switches the client codec to the historical Python-literal
	// format. Off means strict JSON.
	LegacyWire bool
}

// Supervisor owns the two listeners and all per-connection state.
// Client sessions run independently; the only cross-session contention is
// the device link's single request slot.
type Supervisor struct {
	opts  Options
	codec *wire.Codec

	// upgrader converts HTTP connections to WebSocket connections.
	// Origin checks are disabled: clients are native apps, not browsers.
	upgrader websocket.Upgrader

	// mu protects sessions and stopped.
	mu       sync.RWMutex
	sessions map[*Session]bool
	stopped  bool

	clientSrv *http.Server
	deviceSrv *http.Server

	// Bound listener addresses, useful when the configured port is 0.
	clientBound net.Addr
	deviceBound net.Addr
}

// New creates a supervisor. Call StartAsync to begin accepting connections.
func New(opts Options) *Supervisor {
	return &Supervisor{
		opts:     opts,
		codec:    &wire.Codec{Legacy: opts.LegacyWire},
		sessions: make(map[*Session]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// StartAsync binds both listeners and starts serving in the background.
// The returned channel receives nil once both listeners are up, or the
// startup error (e.g. a port already in use). Creating the listeners
// eagerly surfaces port conflicts before the caller reports success.
func (s *Supervisor) StartAsync() <-chan error {
	errCh := make(chan error, 1)

	clientLn, err := net.Listen("tcp", s.opts.ClientAddr)
	if err != nil {
		errCh <- fmt.Errorf("listen on client addr %s: %w", s.opts.ClientAddr, err)
		close(errCh)
		return errCh
	}

	deviceLn, err := net.Listen("tcp", s.opts.DeviceAddr)
	if err != nil {
		clientLn.Close()
		errCh <- fmt.Errorf("listen on device addr %s: %w", s.opts.DeviceAddr, err)
		close(errCh)
		return errCh
	}

	s.clientSrv = &http.Server{Handler: s.clientMux()}
	s.deviceSrv = &http.Server{Handler: s.deviceMux()}
	s.clientBound = clientLn.Addr()
	s.deviceBound = deviceLn.Addr()

	go func() {
		log.Printf("gateway: client listener on %s", clientLn.Addr())
		if err := s.clientSrv.Serve(clientLn); err != nil && err != http.ErrServerClosed {
			log.Printf("gateway: client listener error: %v", err)
		}
	}()
	go func() {
		log.Printf("gateway: device listener on %s", deviceLn.Addr())
		if err := s.deviceSrv.Serve(deviceLn); err != nil && err != http.ErrServerClosed {
			log.Printf("gateway: device listener error: %v", err)
		}
	}()

	errCh <- nil
	close(errCh)
	return errCh
}

// clientMux routes the client-facing port.
func (s *Supervisor) clientMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleClientWS)

	// Health check endpoint for monitoring
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return mux
}

// deviceMux routes the device-facing port.
func (s *Supervisor) deviceMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleDeviceWS)
	return mux
}

// Stop closes all client sessions and both listeners.
// The device link keeps its cache; the agent will reconnect on restart.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true

	for sess := range s.sessions {
		sess.close()
	}
	s.sessions = make(map[*Session]bool)
	s.mu.Unlock()

	var firstErr error
	if s.clientSrv != nil {
		if err := s.clientSrv.Close(); err != nil {
			firstErr = err
		}
	}
	if s.deviceSrv != nil {
		if err := s.deviceSrv.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ClientAddr returns the bound client listener address after StartAsync.
func (s *Supervisor) ClientAddr() string {
	if s.clientBound == nil {
		return s.opts.ClientAddr
	}
	return s.clientBound.String()
}

// DeviceAddr returns the bound device listener address after StartAsync.
func (s *Supervisor) DeviceAddr() string {
	if s.deviceBound == nil {
		return s.opts.DeviceAddr
	}
	return s.deviceBound.String()
}

// SessionCount returns the number of connected client sessions.
func (s *Supervisor) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// handleClientWS upgrades a client connection and runs its session loop.
func (s *Supervisor) handleClientWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("gateway: client upgrade failed: %v", err)
		return
	}

	sess := newSession(s, conn)

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.sessions[sess] = true
	s.mu.Unlock()

	log.Printf("gateway: client %s connected from %s (%d total)",
		sess.id, r.RemoteAddr, s.SessionCount())

	go sess.run()
}

// handleDeviceWS upgrades a device-agent connection and attaches it to the
// link. A new agent always displaces the previous one; the gateway is
// single-tenant on the device side.
func (s *Supervisor) handleDeviceWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("gateway: device upgrade failed: %v", err)
		return
	}

	log.Printf("gateway: device agent connected from %s", r.RemoteAddr)
	s.opts.Link.Attach(conn)
}

// removeSession unregisters a finished session.
func (s *Supervisor) removeSession(sess *Session) {
	s.mu.Lock()
	delete(s.sessions, sess)
	s.mu.Unlock()

	log.Printf("gateway: client %s disconnected (%d remaining)", sess.id, s.SessionCount())
}
