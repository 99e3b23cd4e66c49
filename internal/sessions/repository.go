// Package sessions caches parsed import uploads server-side so follow-up
// aggregation calls can reference a session id instead of re-sending the
// position list. Sessions are msgpack blobs with expiration timestamps.
package sessions

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// Repository stores import sessions in cache.db.
type Repository struct {
	db  *sql.DB
	ttl time.Duration
}

// NewRepository creates a session repository with the given time-to-live.
func NewRepository(db *sql.DB, ttl time.Duration) *Repository {
	return &Repository{db: db, ttl: ttl}
}

// Store encodes the value and saves it under a fresh session id, which is
// returned to the caller.
func (r *Repository) Store(value interface{}) (string, error) {
	blob, err := msgpack.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}

	id := uuid.NewString()
	now := time.Now()

	_, err = r.db.Exec(
		"INSERT OR REPLACE INTO import_sessions (id, data, created_at, expires_at) VALUES (?, ?, ?, ?)",
		id, blob, now.Unix(), now.Add(r.ttl).Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	return id, nil
}

// GetIfFresh decodes the session into out when it exists and has not expired.
// Returns false when the id is unknown or the session has expired.
func (r *Repository) GetIfFresh(id string, out interface{}) (bool, error) {
	var blob []byte
	err := r.db.QueryRow(
		"SELECT data FROM import_sessions WHERE id = ? AND expires_at > ?",
		id, time.Now().Unix(),
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get session: %w", err)
	}

	if err := msgpack.Unmarshal(blob, out); err != nil {
		return false, fmt.Errorf("failed to decode session: %w", err)
	}

	return true, nil
}

// Delete removes a session.
func (r *Repository) Delete(id string) error {
	_, err := r.db.Exec("DELETE FROM import_sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes all sessions past their expiration.
// Returns the number of rows deleted.
func (r *Repository) DeleteExpired() (int64, error) {
	result, err := r.db.Exec("DELETE FROM import_sessions WHERE expires_at < ?", time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}
