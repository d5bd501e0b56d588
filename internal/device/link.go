// Package device owns the gateway's single connection slot to the embedded
// controller and the request discipline over it.
//
// The device protocol carries no request ids: the next inbound frame on the
// link is assumed to answer the outstanding request. The Link therefore
// enforces at most one request in flight process-wide. Concurrent callers
// queue on an internal mutex and are resolved strictly in acquisition order;
// this ordering IS the protocol's correlation mechanism, so nothing may
// write to the device socket without holding the request slot.
package device

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	apperrors "github.com/iotify/gateway/internal/errors"
	"github.com/iotify/gateway/internal/wire"
)

// Conn is the subset of a WebSocket connection the link uses.
// *websocket.Conn satisfies it; tests substitute an in-memory fake.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// LifecycleHandler is notified when a device agent attaches or detaches.
// Called outside the link's locks; safe to do slow work.
type LifecycleHandler func(connected bool)

// StateHandler is notified when a pin's state is confirmed by the device
// (command ack or status report). Used to persist cached state.
type StateHandler func(pin, state string)

// pendingRequest correlates one outstanding device write to its waiter.
// Exactly one may exist at a time.
type pendingRequest struct {
	// frames receives the device frame that answers this request, or
	// nothing if the request fails. Buffered so the read pump never blocks.
	frames chan wire.DeviceFrame

	// failed receives the terminal error when the link is lost before the
	// device answers. Buffered for the same reason.
	failed chan error
}

func newPendingRequest() *pendingRequest {
	return &pendingRequest{
		frames: make(chan wire.DeviceFrame, 1),
		failed: make(chan error, 1),
	}
}

// Link is the single device connection slot.
// At most one live instance exists per gateway process.
type Link struct {
	// timeout bounds how long one request waits for the device's answer.
	timeout time.Duration

	// requestMu serializes all device-bound requests. Holding it is what
	// "owning the in-flight slot" means; it is held across the write AND
	// the wait for the answer.
	requestMu sync.Mutex

	// mu guards conn and pending against attach/detach races.
	mu      sync.Mutex
	conn    Conn
	pending *pendingRequest

	cache *StateCache

	onLifecycle LifecycleHandler
	onState     StateHandler
}

// NewLink creates a detached link with an empty state cache.
func NewLink(timeout time.Duration) *Link {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Link{
		timeout: timeout,
		cache:   NewStateCache(),
	}
}

// SetLifecycleHandler registers the attach/detach callback.
// Call before the first Attach.
func (l *Link) SetLifecycleHandler(h LifecycleHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onLifecycle = h
}

// SetStateHandler registers the confirmed-state callback.
// Call before the first Attach.
func (l *Link) SetStateHandler(h StateHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onState = h
}

// Connected reports whether a device agent is currently attached.
func (l *Link) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn != nil
}

// Cache returns the link's state cache.
func (l *Link) Cache() *StateCache {
	return l.cache
}

// Attach installs conn as the active device connection and starts its read
// pump. If a device was already attached, the old connection is forcefully
// closed and any request awaiting it fails with a device-lost error. There is
// never more than one attached agent.
func (l *Link) Attach(conn Conn) {
	l.mu.Lock()
	old := l.conn
	l.conn = conn
	l.failPendingLocked()
	lifecycle := l.onLifecycle
	l.mu.Unlock()

	if old != nil {
		log.Printf("device: new agent attached, displacing previous connection")
		old.Close()
	} else {
		log.Printf("device: agent attached")
	}

	if lifecycle != nil {
		lifecycle(true)
	}

	go l.readPump(conn)
}

// Detach clears the connection slot if conn is still the active connection.
// Called by the read pump on I/O errors; safe to call redundantly. Any
// request awaiting conn fails with a device-lost error.
func (l *Link) Detach(conn Conn) {
	l.mu.Lock()
	if l.conn != conn {
		// A newer agent already displaced conn; nothing to tear down.
		l.mu.Unlock()
		return
	}
	l.conn = nil
	l.failPendingLocked()
	lifecycle := l.onLifecycle
	l.mu.Unlock()

	conn.Close()
	log.Printf("device: agent detached")

	if lifecycle != nil {
		lifecycle(false)
	}
}

// failPendingLocked fails the outstanding request, if any, with DeviceLost.
// Caller must hold l.mu. Attach/detach never leaves a pending request to
// time out naturally.
func (l *Link) failPendingLocked() {
	if l.pending != nil {
		l.pending.failed <- apperrors.DeviceLost()
		l.pending = nil
	}
}

// readPump reads frames from one attached connection until it errors, then
// detaches it. Status frames always refresh the cache, even unsolicited
// ones; status and ack frames additionally resolve the outstanding request.
// Informational frames are logged and never consume the request slot.
func (l *Link) readPump(conn Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			l.Detach(conn)
			return
		}

		frame := wire.DecodeDeviceFrame(string(data))
		switch frame.Kind {
		case wire.DeviceFrameStatus:
			l.cache.Merge(frame.States)
			l.deliver(conn, frame)
		case wire.DeviceFrameAck:
			l.deliver(conn, frame)
		case wire.DeviceFrameInfo:
			if frame.Detail != "" {
				log.Printf("device: %s", frame.Detail)
			}
		}
	}
}

// deliver hands a frame to the outstanding request, if conn is still the
// active connection and a request is waiting. Frames with no waiter are
// logged and dropped; the device sometimes pushes status on its own.
func (l *Link) deliver(conn Conn, frame wire.DeviceFrame) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn != conn || l.pending == nil {
		if frame.Kind == wire.DeviceFrameStatus {
			log.Printf("device: unsolicited status report merged into cache")
		}
		return
	}

	l.pending.frames <- frame
	l.pending = nil
}

// SendCommand writes a "<pin>,<state>" command and waits for the device's
// answer. Fails immediately when no device is attached. On success the state
// cache is updated. The wait is bounded by the link timeout; on timeout the
// command is reported failed without retry.
func (l *Link) SendCommand(ctx context.Context, pin, state int) error {
	l.requestMu.Lock()
	defer l.requestMu.Unlock()

	frame, err := l.roundTrip(ctx, wire.EncodeCommand(pin, state))
	if err != nil {
		return err
	}

	// Any answer frame confirms the command; the agent normally sends
	// "ack:<pin>,<state>" but older firmware answers with a status report.
	if frame.Kind == wire.DeviceFrameStatus {
		l.cache.Merge(frame.States)
	}

	stateStr := strconv.Itoa(state)
	pinStr := strconv.Itoa(pin)
	l.cache.Set(pinStr, stateStr)

	l.mu.Lock()
	onState := l.onState
	l.mu.Unlock()
	if onState != nil {
		onState(pinStr, stateStr)
	}

	return nil
}

// RequestStatus sends the literal "status" query and returns the merged
// state snapshot. On timeout the last cached snapshot is returned instead of
// an error (graceful degradation), with a warning logged; the caller cannot
// tell a slow device from a cached answer, which matches the historical
// behavior. Device-lost and not-connected conditions still fail.
func (l *Link) RequestStatus(ctx context.Context) (map[string]string, error) {
	l.requestMu.Lock()
	defer l.requestMu.Unlock()

	frame, err := l.roundTrip(ctx, wire.StatusQuery)
	if apperrors.IsCode(err, apperrors.CodeDeviceTimeout) {
		log.Printf("device: status query timed out, serving cached snapshot")
		return l.cache.Snapshot(), nil
	}
	if err != nil {
		return nil, err
	}

	if frame.Kind == wire.DeviceFrameStatus {
		l.cache.Merge(frame.States)
	} else {
		// The next frame should be the report; anything else means the
		// agent is confused. Serve the cache rather than failing.
		log.Printf("device: expected status report, got frame kind %d", frame.Kind)
	}

	return l.cache.Snapshot(), nil
}

// roundTrip performs one write-then-wait exchange on the link.
// Caller must hold requestMu.
func (l *Link) roundTrip(ctx context.Context, payload string) (wire.DeviceFrame, error) {
	l.mu.Lock()
	conn := l.conn
	if conn == nil {
		l.mu.Unlock()
		return wire.DeviceFrame{}, apperrors.NotConnected()
	}
	pending := newPendingRequest()
	l.pending = pending
	l.mu.Unlock()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
		l.clearPending(pending)
		return wire.DeviceFrame{}, apperrors.Wrap(apperrors.CodeDeviceWriteFailed,
			fmt.Sprintf("write %q to device", payload), err)
	}

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	select {
	case frame := <-pending.frames:
		return frame, nil
	case err := <-pending.failed:
		return wire.DeviceFrame{}, err
	case <-timer.C:
		l.clearPending(pending)
		return wire.DeviceFrame{}, apperrors.DeviceTimeout()
	case <-ctx.Done():
		l.clearPending(pending)
		return wire.DeviceFrame{}, ctx.Err()
	}
}

// clearPending removes pending from the slot if it is still installed,
// so a late device frame is not misdelivered to the next request.
func (l *Link) clearPending(pending *pendingRequest) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pending == pending {
		l.pending = nil
	}
}
