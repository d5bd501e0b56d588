package directory

// devices.go contains Store methods for device ownership records.
// A record ties a named device (with its controller pin) to the user who
// owns it. The cached_state column is the last state the gateway persisted;
// live state is overlaid from the device link at query time.

import (
	"fmt"
	"log"

	"github.com/google/uuid"
)

// Record is one device ownership record.
type Record struct {
	ID          string
	Owner       string
	Name        string
	ExternalID  string
	Pin         int
	CachedState string
}

// AddDevice inserts a device record for the given owner.
// If externalID is empty, one is generated.
func (s *Store) AddDevice(record *Record) error {
	if record == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if record.Owner == "" || record.Name == "" {
		return fmt.Errorf("owner and name are required")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.ExternalID == "" {
		record.ExternalID = "dev-" + record.ID[:8]
	}
	if record.CachedState == "" {
		record.CachedState = "0"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	log.Printf("directory: adding device %q (pin %d) for %s", record.Name, record.Pin, record.Owner)

	const query = `
		INSERT INTO devices (id, owner, name, external_id, pin, cached_state)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		record.ID,
		record.Owner,
		record.Name,
		record.ExternalID,
		record.Pin,
		record.CachedState,
	)
	if err != nil {
		return fmt.Errorf("add device: %w", err)
	}

	return nil
}

// DevicesForOwner returns all device records owned by the given user,
// ordered by pin. An empty slice (not an error) means the user has no
// devices.
func (s *Store) DevicesForOwner(owner string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const query = `
		SELECT id, owner, name, external_id, pin, cached_state
		FROM devices
		WHERE owner = ?
		ORDER BY pin
	`

	rows, err := s.db.Query(query, owner)
	if err != nil {
		return nil, fmt.Errorf("devices for owner: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Owner, &r.Name, &r.ExternalID, &r.Pin, &r.CachedState); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate devices: %w", err)
	}

	return records, nil
}

// UpdateCachedState persists the last-known state for every device record
// on the given pin. Called after successful control commands so the stored
// view survives gateway restarts.
func (s *Store) UpdateCachedState(pin int, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	const query = `UPDATE devices SET cached_state = ? WHERE pin = ?`
	if _, err := s.db.Exec(query, state, pin); err != nil {
		return fmt.Errorf("update cached state: %w", err)
	}
	return nil
}
