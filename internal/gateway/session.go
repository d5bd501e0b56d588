package gateway

// session.go runs one client connection. The protocol is strictly
// request-then-response: the loop reads one frame, routes it, writes one
// response, and repeats until the peer closes or an I/O error occurs.
// A client must not pipeline a second request before observing the first
// response; the single loop makes that alternation structural.

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	// Rate limiting for inbound frames. A misbehaving client must not be
	// able to monopolize the single device request slot.
	"golang.org/x/time/rate"
)

const (
	// writeTimeout bounds one response write to a slow client.
	writeTimeout = 10 * time.Second

	// pongTimeout is how long a silent connection survives. The session
	// pings at a third of this, so two lost pongs end the session.
	pongTimeout = 90 * time.Second

	// maxFrameSize caps one inbound client frame. The largest legitimate
	// frame is a login request; anything near this limit is garbage.
	maxFrameSize = 8 * 1024
)

// Session is one connected human client, authenticated or not.
type Session struct {
	id  string
	sup *Supervisor

	conn *websocket.Conn

	// writeMu serializes response writes with keepalive pings; gorilla
	// connections allow only one concurrent writer.
	writeMu sync.Mutex

	// username is empty until a login affirms, and cleared again on logout.
	// Only the session's own goroutine touches it.
	username string

	// limiter bounds inbound frames: 20/sec with a burst of 10 is far above
	// anything a human-driven client produces.
	limiter *rate.Limiter

	closeOnce sync.Once
	done      chan struct{}
}

func newSession(sup *Supervisor, conn *websocket.Conn) *Session {
	return &Session{
		id:      uuid.NewString()[:8],
		sup:     sup,
		conn:    conn,
		limiter: rate.NewLimiter(rate.Limit(20), 10),
		done:    make(chan struct{}),
	}
}

// close signals the session loop to stop and closes the connection.
// Safe to call multiple times from different goroutines.
func (sess *Session) close() {
	sess.closeOnce.Do(func() {
		close(sess.done)
		sess.conn.Close()
	})
}

// run drives the read-route-respond loop until the connection dies.
func (sess *Session) run() {
	defer func() {
		sess.close()
		sess.sup.removeSession(sess)
	}()

	sess.conn.SetReadLimit(maxFrameSize)
	sess.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	sess.conn.SetPongHandler(func(string) error {
		sess.conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})

	// Keepalive pings run beside the loop; they detect dead peers that
	// never send another request.
	go sess.pingLoop()

	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseAbnormalClosure) {
				log.Printf("gateway: client %s read error: %v", sess.id, err)
			}
			return
		}
		sess.conn.SetReadDeadline(time.Now().Add(pongTimeout))

		response := sess.handleFrame(string(data))
		if !sess.write(response) {
			return
		}
	}
}

// handleFrame routes one inbound frame and shapes the response text.
func (sess *Session) handleFrame(raw string) string {
	if !sess.limiter.Allow() {
		log.Printf("gateway: client %s rate limited", sess.id)
		return sess.sup.codec.EncodeObject(errorResponse("Too many requests"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	return sess.sup.route(ctx, sess, raw)
}

// write sends one response text frame. Returns false when the connection
// is no longer usable.
func (sess *Session) write(payload string) bool {
	sess.writeMu.Lock()
	defer sess.writeMu.Unlock()

	sess.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := sess.conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
		log.Printf("gateway: client %s write error: %v", sess.id, err)
		return false
	}
	return true
}

// pingLoop keeps the connection alive and detects dead peers.
func (sess *Session) pingLoop() {
	ticker := time.NewTicker(pongTimeout / 3)
	defer ticker.Stop()

	for {
		select {
		case <-sess.done:
			return
		case <-ticker.C:
			sess.writeMu.Lock()
			sess.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := sess.conn.WriteMessage(websocket.PingMessage, nil)
			sess.writeMu.Unlock()
			if err != nil {
				sess.close()
				return
			}
		}
	}
}
