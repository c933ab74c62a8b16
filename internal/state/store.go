// Package state persists the modeled state of lights as versioned JSON
// documents keyed by (kind, id).
package state

import (
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Record is one stored document with its bookkeeping columns.
type Record struct {
	Payload   []byte
	Version   int64
	UpdatedAt time.Time
}

// Store provides versioned JSON state storage.
// Every write increments the entry's version.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore creates a new state store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get retrieves the record for a resource.
// Returns ok=false if not found.
func (s *Store) Get(kind, id string) (rec Record, ok bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload string
	var updatedAt int64
	err = s.db.QueryRow(`
		SELECT payload, version, updated_at FROM resource_state
		WHERE kind = ? AND id = ?
	`, kind, id).Scan(&payload, &rec.Version, &updatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}

	rec.Payload = []byte(payload)
	rec.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return rec, true, nil
}

// Set stores payload and returns the new version.
func (s *Store) Set(kind, id string, payload []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Unix()

	var version int64
	err := s.db.QueryRow(`
		INSERT INTO resource_state (kind, id, payload, version, updated_at)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT(kind, id) DO UPDATE SET
			payload = excluded.payload,
			version = version + 1,
			updated_at = excluded.updated_at
		RETURNING version
	`, kind, id, string(payload), now).Scan(&version)
	if err != nil {
		return 0, err
	}

	log.Debug().
		Str("kind", kind).
		Str("id", id).
		Int64("version", version).
		Msg("State stored")

	return version, nil
}

// Delete removes a resource state entry.
func (s *Store) Delete(kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		DELETE FROM resource_state WHERE kind = ? AND id = ?
	`, kind, id)

	return err
}

// Clear removes all state for a kind. If kind is empty, clears all state.
func (s *Store) Clear(kind string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if kind == "" {
		_, err = s.db.Exec(`DELETE FROM resource_state`)
	} else {
		_, err = s.db.Exec(`DELETE FROM resource_state WHERE kind = ?`, kind)
	}

	return err
}

// GetAll returns all payloads for a kind keyed by id.
func (s *Store) GetAll(kind string) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, payload FROM resource_state WHERE kind = ?
	`, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payloads := make(map[string][]byte)
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		payloads[id] = []byte(payload)
	}

	return payloads, rows.Err()
}
