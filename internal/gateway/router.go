package gateway

// router.go classifies inbound client frames and invokes the matching
// handler. Response shapes follow the historical protocol: login and
// control results are objects keyed by action/status, device lists are
// lists, and every failure a client can cause gets a response rather than
// a dropped connection. No error handled here is fatal to the gateway.

import (
	"context"
	"log"
	"strconv"

	"github.com/iotify/gateway/internal/directory"
	apperrors "github.com/iotify/gateway/internal/errors"
	"github.com/iotify/gateway/internal/wire"
)

// Login status values on the wire. These are protocol constants from the
// original deployment; clients switch on the exact strings.
const (
	statusAffirmed           = "affirmed"
	statusNotFound           = "not_found"
	statusNotAffirmed        = "not_affirmed"
	statusDatabaseError      = "database_error"
	statusMissingCredentials = "missing_credentials"
)

// deviceDisconnectedSentinel is the one-element list the historical server
// sent when no controller was attached. Legacy clients branch on it, so the
// text is load-bearing.
const deviceDisconnectedSentinel = "ESP8266 Disconnected"

// databaseErrorSentinel is the list form of a directory failure during a
// device-list query.
const databaseErrorSentinel = "Database Error"

// route decodes one client frame and dispatches it.
func (s *Supervisor) route(ctx context.Context, sess *Session, raw string) string {
	frame := s.codec.DecodeClientFrame(raw)

	switch frame.Kind {
	case wire.FrameControl:
		return s.handleControl(ctx, sess, frame.Control)
	case wire.FrameAction:
		switch frame.Action.Action {
		case "login":
			return s.handleLogin(sess, frame.Action)
		case "devices":
			return s.handleDevices(ctx, sess)
		case "logout":
			return s.handleLogout(sess)
		default:
			log.Printf("gateway: client %s unknown action %q", sess.id, frame.Action.Action)
			return s.codec.EncodeObject(errorResponse("Unknown action: " + frame.Action.Action))
		}
	default:
		log.Printf("gateway: client %s sent malformed frame", sess.id)
		return s.codec.EncodeObject(errorResponse("Invalid message format"))
	}
}

// handleLogin verifies credentials and, on success, binds the username to
// the session. Any failure leaves the session state untouched.
func (s *Supervisor) handleLogin(sess *Session, req wire.ActionRequest) string {
	username := req.Fields["username"]
	password := req.Fields["password"]

	log.Printf("gateway: client %s login attempt for %q", sess.id, username)

	if username == "" || password == "" {
		return s.loginResponse(statusMissingCredentials)
	}

	switch s.opts.Directory.VerifyCredentials(username, password) {
	case directory.VerifyAffirmed:
		sess.username = username
		log.Printf("gateway: client %s authenticated as %s", sess.id, username)
		return s.loginResponse(statusAffirmed)
	case directory.VerifyNotFound:
		return s.loginResponse(statusNotFound)
	case directory.VerifyWrongPassword:
		return s.loginResponse(statusNotAffirmed)
	default:
		return s.loginResponse(statusDatabaseError)
	}
}

func (s *Supervisor) loginResponse(status string) string {
	return s.codec.EncodeObject(wire.Obj(
		wire.F("action", "login"),
		wire.F("status", status),
	))
}

// handleLogout clears the session's bound username. The historical client
// implemented logout purely client-side; making it a server transition lets
// the gateway log and tests observe it.
func (s *Supervisor) handleLogout(sess *Session) string {
	if sess.username != "" {
		log.Printf("gateway: client %s logged out of %s", sess.id, sess.username)
		sess.username = ""
	}
	return s.codec.EncodeObject(wire.Obj(
		wire.F("action", "logout"),
		wire.F("status", "ok"),
	))
}

// handleControl drives one pin. Authentication is required: the historical
// server accepted control frames from anyone, which was a hole, not a
// feature.
func (s *Supervisor) handleControl(ctx context.Context, sess *Session, cmd wire.ControlCommand) string {
	if sess.username == "" {
		return s.codec.EncodeObject(errorResponse("Authentication required"))
	}

	err := s.opts.Link.SendCommand(ctx, cmd.Pin, cmd.State)
	status := "success"
	if err != nil {
		status = "failed"
		log.Printf("gateway: client %s control pin=%d state=%d failed: %v",
			sess.id, cmd.Pin, cmd.State, err)
	} else {
		log.Printf("gateway: client %s control pin=%d state=%d ok", sess.id, cmd.Pin, cmd.State)
	}

	return s.codec.EncodeObject(wire.Obj(
		wire.F("action", "control"),
		wire.F("status", status),
		wire.F("pin", cmd.Pin),
		wire.F("state", cmd.State),
	))
}

// handleDevices answers a device-list query for the session's user,
// overlaying live pin state onto the stored records.
func (s *Supervisor) handleDevices(ctx context.Context, sess *Session) string {
	if sess.username == "" {
		return s.codec.EncodeObject(errorResponse("Username required"))
	}

	records, err := s.opts.Directory.ListDevicesForUser(sess.username)
	if err != nil {
		log.Printf("gateway: client %s device query failed: %v", sess.id, err)
		return s.codec.EncodeList([]any{databaseErrorSentinel})
	}

	if !s.opts.Link.Connected() {
		return s.codec.EncodeList([]any{deviceDisconnectedSentinel})
	}

	// Poll the device for fresh state. On timeout this degrades to the
	// cached snapshot; only a link lost mid-query leaves us with nothing
	// trustworthy, which clients are told apart from an empty list.
	states, err := s.opts.Link.RequestStatus(ctx)
	if err != nil {
		log.Printf("gateway: client %s status poll failed: %v", sess.id, err)
		if apperrors.IsCode(err, apperrors.CodeDeviceLost) ||
			apperrors.IsCode(err, apperrors.CodeDeviceNotConnected) {
			return s.codec.EncodeList([]any{deviceDisconnectedSentinel})
		}
		states = s.opts.Link.Cache().Snapshot()
	}

	rows := make([]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, deviceRow(r, states))
	}

	log.Printf("gateway: client %s listed %d devices", sess.id, len(rows))
	return s.codec.EncodeList(rows)
}

// deviceRow renders one record with live state overlaid. Row order matches
// the historical schema: owner, display name, external id, pin, state.
func deviceRow(r directory.Record, states map[string]string) []any {
	state := r.CachedState
	if state == "" {
		state = "0"
	}
	if live, ok := states[strconv.Itoa(r.Pin)]; ok {
		state = live
	}
	return []any{r.Owner, r.Name, r.ExternalID, r.Pin, state}
}

// errorResponse shapes the generic error object.
func errorResponse(message string) wire.Object {
	return wire.Obj(wire.F("error", message))
}
