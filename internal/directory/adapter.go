package directory

// adapter.go is the facade the command router talks to. It hides the SQLite
// store behind two read operations and defines the behavior when the store
// is unreachable or empty.

import (
	"errors"
	"log"

	apperrors "github.com/iotify/gateway/internal/errors"
	"golang.org/x/crypto/bcrypt"
)

// VerifyResult is the outcome of a credential check.
type VerifyResult int

const (
	// VerifyAffirmed means the username exists and the password matched.
	VerifyAffirmed VerifyResult = iota

	// VerifyNotFound means the username does not exist.
	VerifyNotFound

	// VerifyWrongPassword means the username exists but the password did not match.
	VerifyWrongPassword

	// VerifyStoreUnavailable means the directory store could not be queried.
	VerifyStoreUnavailable
)

// Adapter exposes the two directory operations the gateway needs.
// A nil store is tolerated and reported as unavailable, mirroring a
// directory that failed to connect at startup.
type Adapter struct {
	store *Store

	// synthetic enables the demo fallback: users with no device rows get a
	// fixed placeholder device set instead of an empty list. Must stay off
	// in production; wired to the synthetic_devices config flag.
	synthetic bool
}

// NewAdapter creates an adapter over the given store.
func NewAdapter(store *Store, syntheticFallback bool) *Adapter {
	if syntheticFallback {
		log.Printf("directory: synthetic device fallback ENABLED (demo mode)")
	}
	return &Adapter{store: store, synthetic: syntheticFallback}
}

// VerifyCredentials checks a username/password pair against the directory.
func (a *Adapter) VerifyCredentials(username, password string) VerifyResult {
	if a.store == nil {
		log.Printf("directory: store not available for credential check")
		return VerifyStoreUnavailable
	}

	user, err := a.store.GetUser(username)
	if errors.Is(err, ErrUserNotFound) {
		return VerifyNotFound
	}
	if err != nil {
		log.Printf("directory: credential lookup failed: %v", err)
		return VerifyStoreUnavailable
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return VerifyWrongPassword
	}

	return VerifyAffirmed
}

// ListDevicesForUser returns the device records owned by username.
//
// If the store has no rows for the user and the synthetic fallback is
// enabled, a fixed placeholder set is returned so demo clients have
// something to render. The fallback is logged every time it fires.
func (a *Adapter) ListDevicesForUser(username string) ([]Record, error) {
	if a.store == nil {
		return nil, apperrors.New(apperrors.CodeDirectoryUnavailable, "directory store not available")
	}

	records, err := a.store.DevicesForOwner(username)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDirectoryUnavailable, "device query failed", err)
	}

	if len(records) == 0 && a.synthetic {
		log.Printf("directory: no device rows for %s, returning synthetic set", username)
		return syntheticDevices(username), nil
	}

	return records, nil
}

// syntheticDevices is the fixed demo set the historical server fabricated
// for users with no database rows.
func syntheticDevices(owner string) []Record {
	return []Record{
		{ID: "synthetic-1", Owner: owner, Name: "Living Room Light", ExternalID: "dev1", Pin: 5, CachedState: "0"},
		{ID: "synthetic-2", Owner: owner, Name: "Bedroom Fan", ExternalID: "dev2", Pin: 6, CachedState: "1"},
		{ID: "synthetic-3", Owner: owner, Name: "Desk Lamp", ExternalID: "dev3", Pin: 7, CachedState: "0"},
	}
}
